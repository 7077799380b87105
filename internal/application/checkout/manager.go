package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/shared"
)

// Manager owns the live checkout sessions. Sessions are created on demand,
// keyed by UUID, and expired by an idle-TTL sweep.
type Manager struct {
	cfg           Config
	ttl           time.Duration
	sweepInterval time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	stopSweep chan struct{}
	sweepOnce sync.Once
}

// NewManager creates a session manager and starts its sweep loop.
func NewManager(cfg Config, ttl, sweepInterval time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}
	m := &Manager{
		cfg:           cfg,
		ttl:           ttl,
		sweepInterval: sweepInterval,
		sessions:      make(map[string]*Session),
		stopSweep:     make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

// Create opens a new checkout session for a cart, creating the payment
// intent that backs it. visitorID is the browser session opening the
// checkout; while the session lives, the agent capabilities for that visitor
// point at it.
func (m *Manager) Create(ctx context.Context, visitorID, cartID string, amount decimal.Decimal, currency string) (*Session, error) {
	if cartID == "" {
		return nil, shared.ErrInvalidInput
	}

	intent, err := m.cfg.Gateway.CreateIntent(ctx, checkout.CreateIntentInput{
		CartID:   cartID,
		Amount:   amount,
		Currency: currency,
	})
	if err != nil {
		return nil, err
	}

	session := newSession(uuid.NewString(), visitorID, cartID, intent, m.cfg)

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.registerHooks(session)

	m.cfg.Logger.Info("Checkout session created",
		zap.String("session_id", session.ID),
		zap.String("cart_id", cartID))

	return session, nil
}

// registerHooks exposes the open checkout to the voice agent: autofill goes
// through the session, bulk adds go straight at the session's cart. A later
// session for the same visitor overwrites the registration.
func (m *Manager) registerHooks(session *Session) {
	if m.cfg.Hooks == nil || session.visitorID == "" {
		return
	}

	m.cfg.Hooks.RegisterFillCheckout(session.visitorID, func(ctx context.Context, payload checkout.AutofillPayload) error {
		session.RequestAutofill(payload)
		return nil
	})

	if m.cfg.Carts != nil {
		cartID := session.CartID
		m.cfg.Hooks.RegisterBulkAdd(session.visitorID, func(ctx context.Context, productID string, quantity int) error {
			_, err := m.cfg.Carts.AddMultiple(ctx, &cart.Cookie{ID: cartID}, productID, quantity)
			return err
		})
	}
}

func (m *Manager) unregisterHooks(session *Session) {
	if m.cfg.Hooks != nil && session.visitorID != "" {
		m.cfg.Hooks.Unregister(session.visitorID)
	}
}

// Get returns the session with the given ID.
func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, shared.ErrNotFound
	}
	return session, nil
}

// Remove tears a session down, stopping its timers.
func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if ok {
		m.unregisterHooks(session)
		session.Close()
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) sweepLoop() {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stopSweep:
			return
		}
	}
}

// sweep removes sessions idle past the TTL.
func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	var expired []*Session
	for id, session := range m.sessions {
		if session.LastActive().Before(cutoff) {
			expired = append(expired, session)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, session := range expired {
		m.unregisterHooks(session)
		session.Close()
		m.cfg.Logger.Debug("Checkout session expired",
			zap.String("session_id", session.ID))
	}
}

// Close stops the sweep loop and tears down all sessions.
func (m *Manager) Close() {
	m.sweepOnce.Do(func() { close(m.stopSweep) })

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, session := range m.sessions {
		sessions = append(sessions, session)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, session := range sessions {
		m.unregisterHooks(session)
		session.Close()
	}
}
