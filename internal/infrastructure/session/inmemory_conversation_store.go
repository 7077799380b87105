package session

import (
	"context"
	"sync"
	"time"
)

// InMemoryConversationStore implements ConversationStore in process memory.
// Suitable for single-instance deployments and tests.
type InMemoryConversationStore struct {
	mu      sync.RWMutex
	records map[string]expiringRecord
	ttl     time.Duration

	// now is replaceable for tests
	now func() time.Time
}

type expiringRecord struct {
	record    ConversationRecord
	expiresAt time.Time
}

// NewInMemoryConversationStore creates a new in-memory conversation store
func NewInMemoryConversationStore(ttl time.Duration) *InMemoryConversationStore {
	return &InMemoryConversationStore{
		records: make(map[string]expiringRecord),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the record for a session, or nil if none exists or it expired
func (s *InMemoryConversationStore) Get(ctx context.Context, sessionID string) (*ConversationRecord, error) {
	s.mu.RLock()
	entry, ok := s.records[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if s.ttl > 0 && s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.records, sessionID)
		s.mu.Unlock()
		return nil, nil
	}

	record := entry.record
	return &record, nil
}

// Save stores the record for a session
func (s *InMemoryConversationStore) Save(ctx context.Context, sessionID string, record ConversationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[sessionID] = expiringRecord{
		record:    record,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

// Delete removes the record for a session
func (s *InMemoryConversationStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, sessionID)
	return nil
}

// Close is a no-op for the in-memory store
func (s *InMemoryConversationStore) Close() error {
	return nil
}

// Ensure InMemoryConversationStore implements ConversationStore
var _ ConversationStore = (*InMemoryConversationStore)(nil)
