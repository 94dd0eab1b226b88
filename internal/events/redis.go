package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/VishalMahato/LifeLine-sub001/config"

	"github.com/redis/go-redis/v9"
)

// redisOptions accepts either host:port or a redis:// / rediss:// URI. A
// configured password fills in for a URI without one.
func redisOptions(cfg *config.RedisConfig) (*redis.Options, error) {
	if !strings.Contains(cfg.URL, "://") {
		return &redis.Options{Addr: cfg.URL, Password: cfg.Password}, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	if opts.Password == "" {
		opts.Password = cfg.Password
	}
	return opts, nil
}

// NewRedisClient connects to Redis. It returns nil, nil when no URL is configured.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
