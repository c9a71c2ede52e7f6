package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edubridge-ng/portal-api/pkg/config"
)

const (
	pingTimeout = 5 * time.Second
	dialTimeout = 3 * time.Second
	// Cache reads sit on the request path, so slow Redis answers are
	// worse than misses. Keep the read deadline tight and fall through
	// to Postgres instead.
	readTimeout = 500 * time.Millisecond
)

// NewRedis returns a Redis client verified with an initial ping.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
		ReadTimeout: readTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
