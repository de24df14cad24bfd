package config

import (
	"context"
	"fmt"
	"time"

	"backend-antrian-klinik/internal/logger"

	"github.com/redis/go-redis/v9"
)

// InitRedis return nil kalau REDIS_ENABLED=false
func InitRedis(cfg Config) (*redis.Client, error) {
	if !cfg.RedisEnabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis tidak nyambung: %w", err)
	}

	logger.Logger.WithField("db", cfg.RedisDB).Info("Redis connected")
	return client, nil
}
