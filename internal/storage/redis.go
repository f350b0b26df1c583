package storage

import (
	"context"
	"fmt"

	"github.com/abduss/filestore/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient returns a lazily-connecting redis client. Connectivity is
// not checked here; the cache is optional and only reported by /ping.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisPinger adapts a redis client to a plain Ping(ctx) error contract.
type RedisPinger struct {
	client redis.UniversalClient
}

// NewRedisPinger wraps client.
func NewRedisPinger(client redis.UniversalClient) *RedisPinger {
	return &RedisPinger{client: client}
}

// Ping issues PING against the cache.
func (p *RedisPinger) Ping(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}
