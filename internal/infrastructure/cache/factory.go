package cache

import (
	"fmt"

	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// TagInvalidatorFactory creates tag invalidators based on configuration
type TagInvalidatorFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// TagInvalidatorFactoryOption is a functional option for configuring the factory
type TagInvalidatorFactoryOption func(*TagInvalidatorFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) TagInvalidatorFactoryOption {
	return func(f *TagInvalidatorFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory
// invalidator when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) TagInvalidatorFactoryOption {
	return func(f *TagInvalidatorFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewTagInvalidatorFactory creates a new factory
func NewTagInvalidatorFactory(cfg config.RedisConfig, opts ...TagInvalidatorFactoryOption) *TagInvalidatorFactory {
	f := &TagInvalidatorFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Create builds a tag invalidator. When Redis is enabled it connects there,
// optionally falling back to the in-memory implementation on failure.
func (f *TagInvalidatorFactory) Create() (TagInvalidator, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory tag invalidator")
		return NewInMemoryTagInvalidator(), nil
	}

	inv, err := NewRedisTagInvalidator(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		if f.allowInMemoryFallback {
			f.logger.Warn("Redis unavailable, falling back to in-memory tag invalidator",
				zap.Error(err))
			return NewInMemoryTagInvalidator(), nil
		}
		return nil, fmt.Errorf("failed to create Redis tag invalidator: %w", err)
	}

	f.logger.Info("Using Redis tag invalidator",
		zap.String("addr", f.redisConfig.Addr()))
	return inv, nil
}
