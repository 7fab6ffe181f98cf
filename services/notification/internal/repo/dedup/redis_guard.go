package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "notif:dedup"

// RedisGuard scopes idempotency keys per recipient. Claims are a single
// SET NX EX so two concurrent senders cannot both win.
type RedisGuard struct {
	client *redis.Client
}

func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{client: client}
}

func Key(recipientID, key string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, recipientID, key)
}

func (g *RedisGuard) IsDuplicate(ctx context.Context, recipientID, key string) (bool, error) {
	n, err := g.client.Exists(ctx, Key(recipientID, key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check dedup key: %w", err)
	}
	return n > 0, nil
}

func (g *RedisGuard) Claim(ctx context.Context, recipientID, key string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, Key(recipientID, key), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim dedup key: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, recipientID, key string) error {
	if err := g.client.Del(ctx, Key(recipientID, key)).Err(); err != nil {
		return fmt.Errorf("failed to release dedup key: %w", err)
	}
	return nil
}
