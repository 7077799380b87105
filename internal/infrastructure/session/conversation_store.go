package session

import (
	"context"
	"time"
)

// ConversationRecord tracks whether a visitor session has an active voice
// conversation, so a returning page load can resume it.
type ConversationRecord struct {
	HasConversation bool      `json:"hasConversation"`
	Timestamp       time.Time `json:"timestamp"`
}

// ConversationStore persists per-session conversation state
type ConversationStore interface {
	// Get returns the record for a session, or nil if none exists
	Get(ctx context.Context, sessionID string) (*ConversationRecord, error)

	// Save stores the record for a session
	Save(ctx context.Context, sessionID string, record ConversationRecord) error

	// Delete removes the record for a session
	Delete(ctx context.Context, sessionID string) error

	// Close releases any resources held by the store
	Close() error
}
