package commerce

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/cart"
)

// ---------------------------------------------------------------------------
// Platform Errors
// ---------------------------------------------------------------------------

var (
	// Platform errors
	ErrPlatformNotConfigured   = errors.New("commerce: platform not configured")
	ErrPlatformUnavailable     = errors.New("commerce: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("commerce: platform request failed")
	ErrPlatformInvalidResponse = errors.New("commerce: invalid platform response")
	ErrPlatformAuthFailed      = errors.New("commerce: platform authentication failed")
	ErrPlatformRateLimited     = errors.New("commerce: platform rate limited")

	// Cart errors
	ErrCartNotFound        = errors.New("commerce: cart not found")
	ErrCartInvalidID       = errors.New("commerce: invalid cart ID")
	ErrCartInvalidProduct  = errors.New("commerce: invalid product for cart")
	ErrCartInvalidQuantity = errors.New("commerce: invalid quantity")

	// Catalog errors
	ErrProductNotFound = errors.New("commerce: product not found")
)

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// Product represents a product exposed by the commerce backend
type Product struct {
	// ID is the product ID on the platform
	ID string
	// Slug is the URL slug used by the storefront
	Slug string
	// Name is the product display name
	Name string
	// Price is the unit price in the store currency
	Price decimal.Decimal
	// Currency is the ISO 4217 currency code
	Currency string
	// ImageURL is the primary product image URL
	ImageURL string
	// UpdatedAt is the last modification time on the platform
	UpdatedAt time.Time
}

// Category represents a product category exposed by the commerce backend
type Category struct {
	// Slug is the URL slug used by the storefront
	Slug string
	// Name is the category display name
	Name string
	// UpdatedAt is the last modification time on the platform
	UpdatedAt time.Time
}

// ---------------------------------------------------------------------------
// Request/Response DTOs
// ---------------------------------------------------------------------------

// ProductBrowseRequest represents a request to list products from the platform
type ProductBrowseRequest struct {
	// First is the maximum number of products to return
	First int
	// After is an opaque cursor from a previous page (optional)
	After string
}

// Validate validates the product browse request
func (r *ProductBrowseRequest) Validate() error {
	if r.First < 1 || r.First > 100 {
		r.First = 100
	}
	return nil
}

// ProductBrowseResponse represents one page of products
type ProductBrowseResponse struct {
	// Products contains the page of products
	Products []Product
	// HasMore indicates if there are more pages
	HasMore bool
	// NextCursor is the cursor for the next page (if HasMore is true)
	NextCursor string
}

// ---------------------------------------------------------------------------
// Platform Port Interface
// ---------------------------------------------------------------------------

// Platform defines the port interface for the remote commerce backend.
// The interface follows the Ports & Adapters pattern - it is defined in the
// domain layer, and the HTTP adapter lives in the infrastructure layer.
type Platform interface {
	// ---------------------------------------------------------------------------
	// Cart Operations
	// ---------------------------------------------------------------------------

	// CartGet retrieves a cart by ID. Returns ErrCartNotFound for unknown IDs.
	CartGet(ctx context.Context, cartID string) (*cart.Cart, error)

	// CartCreate creates a new empty cart and returns it
	CartCreate(ctx context.Context) (*cart.Cart, error)

	// CartAdd adds one unit of a product to the cart
	CartAdd(ctx context.Context, cartID, productID string) (*cart.Cart, error)

	// CartChangeQuantity adjusts a line quantity by +1/-1. A decrease below
	// one removes the line.
	CartChangeQuantity(ctx context.Context, cartID, productID string, op cart.QuantityOperation) (*cart.Cart, error)

	// CartSetQuantity sets a line to an absolute quantity. Zero removes the line.
	CartSetQuantity(ctx context.Context, cartID, productID string, quantity int) (*cart.Cart, error)

	// ---------------------------------------------------------------------------
	// Catalog Operations
	// ---------------------------------------------------------------------------

	// ProductBrowse lists products for sitemap generation and agent tooling
	ProductBrowse(ctx context.Context, req *ProductBrowseRequest) (*ProductBrowseResponse, error)

	// CategoryList lists the store's categories
	CategoryList(ctx context.Context) ([]Category, error)
}
