package cart

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
)

// redisClientOrSkip needs a local Redis on the default port.
func redisClientOrSkip(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Skip("redis not available")
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}
