package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "lock:"

// Deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisConfig struct {
	TTL        time.Duration
	Retries    int
	RetryDelay time.Duration
}

// RedisLocker shares locks between service instances using SET NX with a
// random token and a TTL, so a crashed holder cannot block a key forever.
type RedisLocker struct {
	client redis.UniversalClient
	cfg    RedisConfig
	logger logger.ZapLogger
}

func NewRedisLocker(client redis.UniversalClient, cfg RedisConfig, log logger.ZapLogger) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Second
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 1
	}
	return &RedisLocker{client: client, cfg: cfg, logger: log}
}

func (l *RedisLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	token := uuid.New().String()
	held := make([]string, 0, len(keys))

	for _, key := range keys {
		if err := l.acquire(ctx, redisKeyPrefix+key, token); err != nil {
			l.release(held, token)
			return nil, err
		}
		held = append(held, redisKeyPrefix+key)
	}

	return func() { l.release(held, token) }, nil
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	for i := 0; i < l.cfg.Retries; i++ {
		ok, err := l.client.SetNX(ctx, key, token, l.cfg.TTL).Result()
		if err != nil {
			l.logger.Error("failed to acquire lock redis error", zap.String("key", key), zap.Error(err))
		}
		if ok {
			return nil
		}
		if i == l.cfg.Retries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.cfg.RetryDelay):
		}
	}
	return fmt.Errorf("lock %s: %w", key, apperr.ErrBusy)
}

// release uses a fresh context: the caller's may already be cancelled and the
// key must still be freed.
func (l *RedisLocker) release(keys []string, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, key := range keys {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}
}
