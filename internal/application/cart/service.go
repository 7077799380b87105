package cart

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/commerce"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
)

// Service coordinates cart mutations between the cookie held by the client
// and the authoritative cart on the commerce platform. Operations take the
// current cookie value and return the updated one; the HTTP layer owns
// reading and writing the actual cookie.
//
// Mutations are not serialized across requests: the cookie is
// last-writer-wins and there is no idempotency key.
type Service struct {
	platform    commerce.Platform
	invalidator cache.TagInvalidator
	storeID     string
	logger      *zap.Logger
}

// NewService creates a new cart service
func NewService(platform commerce.Platform, invalidator cache.TagInvalidator, storeID string, logger *zap.Logger) *Service {
	return &Service{
		platform:    platform,
		invalidator: invalidator,
		storeID:     storeID,
		logger:      logger,
	}
}

// Result carries the outcome of a cart operation: the cart snapshot and the
// cookie value the handler should write back. A nil Cookie means the cookie
// should be cleared.
type Result struct {
	Cart   *cart.Cart
	Cookie *cart.Cookie
}

// GetCart returns the cart referenced by the cookie, or nil when there is no
// cookie or the platform no longer knows the cart. It never fails on a stale
// or malformed reference.
func (s *Service) GetCart(ctx context.Context, cookie *cart.Cookie) (*cart.Cart, error) {
	if cookie == nil || cookie.ID == "" {
		return nil, nil
	}

	found, err := s.platform.CartGet(ctx, cookie.ID)
	if err != nil {
		if errors.Is(err, commerce.ErrCartNotFound) || errors.Is(err, commerce.ErrCartInvalidID) {
			s.logger.Debug("Cookie references unknown cart", zap.String("cart_id", cookie.ID))
			return nil, nil
		}
		return nil, err
	}

	return found.Clone(), nil
}

// EnsureCart returns the existing cart or creates a new one, handing back the
// cookie to persist.
func (s *Service) EnsureCart(ctx context.Context, cookie *cart.Cookie) (*Result, error) {
	existing, err := s.GetCart(ctx, cookie)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &Result{
			Cart:   existing,
			Cookie: &cart.Cookie{ID: existing.ID, LinesCount: cart.Count(existing.Metadata, existing.Lines)},
		}, nil
	}

	created, err := s.platform.CartCreate(ctx)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, created.ID)

	s.logger.Info("Created cart", zap.String("cart_id", created.ID))
	return &Result{
		Cart:   created.Clone(),
		Cookie: &cart.Cookie{ID: created.ID, LinesCount: 0},
	}, nil
}

// ClearCart drops the cart reference. The platform cart is left to expire;
// only the cookie and cached views are cleared. The cookie is dropped right
// after an order is placed, so the store's admin orders view is refreshed
// here as well.
func (s *Service) ClearCart(ctx context.Context, cookie *cart.Cookie) (*Result, error) {
	if cookie != nil && cookie.ID != "" {
		if err := s.invalidator.Invalidate(ctx, cache.CartTag(cookie.ID), cache.AdminOrdersTag(s.storeID)); err != nil {
			s.logger.Warn("Cache invalidation failed",
				zap.String("cart_id", cookie.ID),
				zap.Error(err))
		}
	}
	return &Result{Cart: nil, Cookie: nil}, nil
}

// AddItem adds one unit of a product, creating a cart first when the cookie
// references none.
func (s *Service) AddItem(ctx context.Context, cookie *cart.Cookie, productID string) (*Result, error) {
	if productID == "" {
		return nil, shared.ErrInvalidInput
	}

	ensured, err := s.EnsureCart(ctx, cookie)
	if err != nil {
		return nil, err
	}

	updated, err := s.platform.CartAdd(ctx, ensured.Cart.ID, productID)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, updated.ID)

	return resultFrom(updated), nil
}

// ChangeQuantity adjusts a line by one in either direction. It requires an
// existing cart.
func (s *Service) ChangeQuantity(ctx context.Context, cookie *cart.Cookie, productID string, op cart.QuantityOperation) (*Result, error) {
	if productID == "" {
		return nil, shared.ErrInvalidInput
	}
	if cookie == nil || cookie.ID == "" {
		return nil, shared.ErrNotFound
	}

	updated, err := s.platform.CartChangeQuantity(ctx, cookie.ID, productID, op)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, updated.ID)

	return resultFrom(updated), nil
}

// SetQuantity sets a line to an absolute quantity. It requires an existing cart.
func (s *Service) SetQuantity(ctx context.Context, cookie *cart.Cookie, productID string, quantity int) (*Result, error) {
	if productID == "" || quantity < 0 {
		return nil, shared.ErrInvalidInput
	}
	if cookie == nil || cookie.ID == "" {
		return nil, shared.ErrNotFound
	}

	updated, err := s.platform.CartSetQuantity(ctx, cookie.ID, productID, quantity)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, updated.ID)

	return resultFrom(updated), nil
}

// AddMultiple adds a quantity of one product in a bounded number of platform
// calls, never one call per unit:
//   - no cart yet: one CartAdd, then one CartSetQuantity when quantity > 1
//   - existing cart: one CartSetQuantity to current + quantity
//
// The cart is re-fetched implicitly through the mutation responses, so the
// returned cookie count is in sync with the platform.
func (s *Service) AddMultiple(ctx context.Context, cookie *cart.Cookie, productID string, quantity int) (*Result, error) {
	if productID == "" || quantity < 1 {
		return nil, shared.ErrInvalidInput
	}

	current, err := s.GetCart(ctx, cookie)
	if err != nil {
		return nil, err
	}

	var updated *cart.Cart
	if current == nil {
		created, err := s.platform.CartCreate(ctx)
		if err != nil {
			return nil, err
		}
		updated, err = s.platform.CartAdd(ctx, created.ID, productID)
		if err != nil {
			return nil, err
		}
		if quantity > 1 {
			updated, err = s.platform.CartSetQuantity(ctx, created.ID, productID, quantity)
			if err != nil {
				return nil, err
			}
		}
	} else {
		target := current.LineQuantity(productID) + quantity
		updated, err = s.platform.CartSetQuantity(ctx, current.ID, productID, target)
		if err != nil {
			return nil, err
		}
	}

	s.invalidate(ctx, updated.ID)

	return resultFrom(updated), nil
}

// invalidate bumps the cached cart view. Mutations never touch the admin
// orders tag; that only moves when the cart reference is dropped.
func (s *Service) invalidate(ctx context.Context, cartID string) {
	if err := s.invalidator.Invalidate(ctx, cache.CartTag(cartID)); err != nil {
		s.logger.Warn("Cache invalidation failed",
			zap.String("cart_id", cartID),
			zap.Error(err))
	}
}

func resultFrom(c *cart.Cart) *Result {
	return &Result{
		Cart:   c.Clone(),
		Cookie: &cart.Cookie{ID: c.ID, LinesCount: cart.Count(c.Metadata, c.Lines)},
	}
}
