package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Snapshotter persists cart lines between restarts. A snapshot is only a
// cache of the in-memory store.
type Snapshotter interface {
	Load(ctx context.Context, userID string) ([]Line, error)
	Save(ctx context.Context, userID string, lines []Line) error
}

// Registry hands out one Store per user.
type Registry struct {
	snap Snapshotter

	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry(snap Snapshotter) *Registry {
	if snap == nil {
		snap = NopSnapshotter{}
	}
	return &Registry{snap: snap, stores: make(map[string]*Store)}
}

// For returns the user's store, hydrating it from the snapshot on first use.
func (r *Registry) For(ctx context.Context, userID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[userID]; ok {
		return s
	}

	lines, err := r.snap.Load(ctx, userID)
	if err != nil {
		log.Printf("[cart] load snapshot for %s: %v", userID, err)
	}
	s := NewStore(lines...)
	r.stores[userID] = s
	return s
}

// Persist writes the user's current lines to the snapshot. Failures are
// logged only.
func (r *Registry) Persist(ctx context.Context, userID string) {
	r.mu.Lock()
	s, ok := r.stores[userID]
	r.mu.Unlock()
	if !ok {
		return
	}
	if err := r.snap.Save(ctx, userID, s.Lines()); err != nil {
		log.Printf("[cart] save snapshot for %s: %v", userID, err)
	}
}

type NopSnapshotter struct{}

func (NopSnapshotter) Load(context.Context, string) ([]Line, error) { return nil, nil }
func (NopSnapshotter) Save(context.Context, string, []Line) error   { return nil }

// RedisSnapshotter stores lines as JSON under cart:<user id>.
type RedisSnapshotter struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSnapshotter(client *redis.Client, ttl time.Duration) *RedisSnapshotter {
	return &RedisSnapshotter{client: client, ttl: ttl}
}

func cartKey(userID string) string { return "cart:" + userID }

func (s *RedisSnapshotter) Load(ctx context.Context, userID string) ([]Line, error) {
	raw, err := s.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return lines, nil
}

func (s *RedisSnapshotter) Save(ctx context.Context, userID string, lines []Line) error {
	if len(lines) == 0 {
		return s.client.Del(ctx, cartKey(userID)).Err()
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, cartKey(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
