package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisTagInvalidator implements TagInvalidator on Redis. Each tag has a
// version counter; invalidation bumps the counter and publishes the tag on
// a Pub/Sub channel for cache-layer subscribers. This is suitable for
// distributed deployments where multiple instances share cache state.
type RedisTagInvalidator struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	keyPrefix  string
	channel    string
}

// RedisTagInvalidatorOption is a functional option for configuring the invalidator
type RedisTagInvalidatorOption func(*RedisTagInvalidator)

// WithTagKeyPrefix sets the key prefix for tag version counters
func WithTagKeyPrefix(prefix string) RedisTagInvalidatorOption {
	return func(i *RedisTagInvalidator) {
		i.keyPrefix = prefix
	}
}

// WithTagChannel sets the Pub/Sub channel invalidations are published on
func WithTagChannel(channel string) RedisTagInvalidatorOption {
	return func(i *RedisTagInvalidator) {
		i.channel = channel
	}
}

// NewRedisTagInvalidator creates a Redis-backed tag invalidator
func NewRedisTagInvalidator(cfg RedisConfig, opts ...RedisTagInvalidatorOption) (*RedisTagInvalidator, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	inv := &RedisTagInvalidator{
		client:     client,
		ownsClient: true,
		keyPrefix:  "cache:tag:",
		channel:    DefaultInvalidationChannel,
	}

	for _, opt := range opts {
		opt(inv)
	}

	return inv, nil
}

// NewRedisTagInvalidatorWithClient creates an invalidator with an existing
// Redis client. Useful for testing or when sharing a client across components.
func NewRedisTagInvalidatorWithClient(client *redis.Client, opts ...RedisTagInvalidatorOption) *RedisTagInvalidator {
	inv := &RedisTagInvalidator{
		client:    client,
		keyPrefix: "cache:tag:",
		channel:   DefaultInvalidationChannel,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invalidate bumps the version counter of each tag and publishes the tag name
func (i *RedisTagInvalidator) Invalidate(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if err := i.client.Incr(ctx, i.keyPrefix+tag).Err(); err != nil {
			return fmt.Errorf("failed to invalidate tag %s: %w", tag, err)
		}
		if err := i.client.Publish(ctx, i.channel, tag).Err(); err != nil {
			return fmt.Errorf("failed to publish invalidation for tag %s: %w", tag, err)
		}
	}
	return nil
}

// Version returns the tag's version counter, zero when the tag was never invalidated
func (i *RedisTagInvalidator) Version(ctx context.Context, tag string) (int64, error) {
	val, err := i.client.Get(ctx, i.keyPrefix+tag).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read tag version for %s: %w", tag, err)
	}
	return val, nil
}

// Close closes the Redis client if this invalidator owns it
func (i *RedisTagInvalidator) Close() error {
	if i.ownsClient {
		return i.client.Close()
	}
	return nil
}
