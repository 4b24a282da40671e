package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"
)

var ErrMiss = errors.New("cache miss")

// Cache stores serialized query results. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix drops every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// Key joins parts with ':'.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Remember returns the cached value under key or loads, stores and returns
// it. Cache failures are logged and fall through to load.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}

	raw, err := c.Get(ctx, key)
	switch {
	case err == nil:
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		log.Printf("[cache] corrupt entry %s, reloading", key)
	case !errors.Is(err, ErrMiss):
		log.Printf("[cache] get %s: %v", key, err)
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	raw, err = json.Marshal(v)
	if err != nil {
		log.Printf("[cache] encode %s: %v", key, err)
		return v, nil
	}
	if err := c.Set(ctx, key, raw, ttl); err != nil {
		log.Printf("[cache] set %s: %v", key, err)
	}
	return v, nil
}

// Invalidate drops every prefix, logging failures.
func Invalidate(ctx context.Context, c Cache, prefixes ...string) {
	if c == nil {
		return
	}
	for _, p := range prefixes {
		if err := c.DeletePrefix(ctx, p); err != nil {
			log.Printf("[cache] invalidate %s: %v", p, err)
		}
	}
}
