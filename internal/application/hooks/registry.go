// Package hooks provides a typed capability registry scoped to a visitor
// session. The checkout manager registers the capabilities an open checkout
// exposes (bulk add, checkout autofill) and the agent service consumes them
// through lookups with presence checks.
package hooks

import (
	"context"
	"sync"

	"github.com/storefront/backend/internal/domain/checkout"
)

// BulkAddFunc adds a quantity of a product in one operation
type BulkAddFunc func(ctx context.Context, productID string, quantity int) error

// FillCheckoutFunc pushes an autofill payload into an active checkout session
type FillCheckoutFunc func(ctx context.Context, payload checkout.AutofillPayload) error

// Registry holds the capabilities registered for each session
type Registry struct {
	mu           sync.RWMutex
	bulkAdd      map[string]BulkAddFunc
	fillCheckout map[string]FillCheckoutFunc
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		bulkAdd:      make(map[string]BulkAddFunc),
		fillCheckout: make(map[string]FillCheckoutFunc),
	}
}

// RegisterBulkAdd registers the bulk-add capability for a session
func (r *Registry) RegisterBulkAdd(sessionID string, fn BulkAddFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bulkAdd[sessionID] = fn
}

// BulkAdd returns the bulk-add capability for a session, if registered
func (r *Registry) BulkAdd(sessionID string) (BulkAddFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.bulkAdd[sessionID]
	return fn, ok
}

// RegisterFillCheckout registers the checkout autofill capability for a session
func (r *Registry) RegisterFillCheckout(sessionID string, fn FillCheckoutFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fillCheckout[sessionID] = fn
}

// FillCheckout returns the checkout autofill capability for a session, if registered
func (r *Registry) FillCheckout(sessionID string) (FillCheckoutFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.fillCheckout[sessionID]
	return fn, ok
}

// Unregister removes all capabilities for a session. Called on page teardown.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bulkAdd, sessionID)
	delete(r.fillCheckout, sessionID)
}
