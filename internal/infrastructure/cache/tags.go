package cache

import "context"

// DefaultInvalidationChannel is the Pub/Sub channel invalidation events are
// published on so cached renderers can react without polling.
const DefaultInvalidationChannel = "cache:invalidate"

// TagInvalidator invalidates cached server-rendered content by tag.
// Renderers associate cached output with tags and recompute when a tag's
// version moves past the one they captured.
type TagInvalidator interface {
	// Invalidate bumps the version of each tag and announces the change.
	Invalidate(ctx context.Context, tags ...string) error
	// Version returns the current version of a tag, zero if never invalidated.
	Version(ctx context.Context, tag string) (int64, error)
	// Close releases any underlying resources.
	Close() error
}

// CartTag returns the invalidation tag for a single cart.
func CartTag(cartID string) string {
	return "cart-" + cartID
}

// AdminOrdersTag returns the invalidation tag for a store's admin order
// views. The tag is scoped per store so clearing one storefront's cart can
// never flush another store's admin caches.
func AdminOrdersTag(storeID string) string {
	return "admin-orders:" + storeID
}
