package lock

import (
	"context"
	"fmt"
	"time"

	"ma-siu/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockSource deletes the key only while it still holds our token.
const unlockSource = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

var unlockScript = redis.NewScript(unlockSource)

type RedisLocker struct {
	client *redis.Client
	logger *logger.Logger
}

func NewRedisLocker(client *redis.Client, log *logger.Logger) *RedisLocker {
	return &RedisLocker{client: client, logger: log}
}

// TryLock returns a release func when the lock was acquired, nil otherwise.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.New().String()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	return func() {
		if err := l.unlock(context.Background(), key, token); err != nil {
			// The key still expires after ttl.
			l.logger.Warn("%v", err)
		}
	}, nil
}

func (l *RedisLocker) unlock(ctx context.Context, key, token string) error {
	if err := unlockScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	return nil
}
