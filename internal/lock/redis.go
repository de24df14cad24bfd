package lock

import (
	"context"
	"errors"
	"time"

	"backend-antrian-klinik/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lease-based lock shared by every server instance using the same Redis.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Redis{
		client: client,
		prefix: "antrian:lock:",
		ttl:    ttl,
		retry:  25 * time.Millisecond,
	}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	owner := uuid.NewString()
	redisKey := r.prefix + key

	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, owner, r.ttl).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, owner).Err(); err != nil {
			logger.Logger.WithError(err).WithField("key", redisKey).Warn("[lock] gagal melepas lock redis")
		}
	}, nil
}
