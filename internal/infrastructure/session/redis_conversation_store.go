package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConversationStore implements ConversationStore using Redis.
// Suitable for multi-instance deployments where any instance may serve a
// returning session.
type RedisConversationStore struct {
	client     *redis.Client
	keyPrefix  string
	ttl        time.Duration
	ownsClient bool
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisConversationStore creates a new Redis-based conversation store
func NewRedisConversationStore(cfg RedisConfig, ttl time.Duration) (*RedisConversationStore, error) {
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

	return &RedisConversationStore{
		client:     client,
		keyPrefix:  "agent:conversation:",
		ttl:        ttl,
		ownsClient: true,
	}, nil
}

// NewRedisConversationStoreWithClient creates a store with an existing Redis client.
// Useful for testing or when sharing a client across components.
func NewRedisConversationStoreWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisConversationStore {
	if keyPrefix == "" {
		keyPrefix = "agent:conversation:"
	}
	return &RedisConversationStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (s *RedisConversationStore) key(sessionID string) string {
	return s.keyPrefix + sessionID
}

// Get returns the record for a session, or nil if none exists
func (s *RedisConversationStore) Get(ctx context.Context, sessionID string) (*ConversationRecord, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation record: %w", err)
	}

	var record ConversationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode conversation record: %w", err)
	}

	return &record, nil
}

// Save stores the record for a session with the configured TTL
func (s *RedisConversationStore) Save(ctx context.Context, sessionID string, record ConversationRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode conversation record: %w", err)
	}

	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save conversation record: %w", err)
	}

	return nil
}

// Delete removes the record for a session
func (s *RedisConversationStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete conversation record: %w", err)
	}
	return nil
}

// Close closes the Redis client if this store created it
func (s *RedisConversationStore) Close() error {
	if s.ownsClient {
		return s.client.Close()
	}
	return nil
}

// Ensure RedisConversationStore implements ConversationStore
var _ ConversationStore = (*RedisConversationStore)(nil)
