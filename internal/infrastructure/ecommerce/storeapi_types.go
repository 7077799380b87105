package ecommerce

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/commerce"
)

// ---------------------------------------------------------------------------
// Common Store API Response Types
// ---------------------------------------------------------------------------

// StoreAPIError represents an error payload from the commerce API
type StoreAPIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StoreAPIErrorResponse is the error envelope returned on non-2xx responses
type StoreAPIErrorResponse struct {
	Error *StoreAPIError `json:"error,omitempty"`
}

// ---------------------------------------------------------------------------
// Cart Related Types
// ---------------------------------------------------------------------------

// StoreAPICartLine represents a cart line item on the wire
type StoreAPICartLine struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	ProductSlug string `json:"productSlug"`
	Quantity    int    `json:"quantity"`
	// UnitAmount is the unit price as a decimal string, e.g. "19.99"
	UnitAmount string `json:"unitAmount"`
}

// StoreAPICart represents a cart on the wire
type StoreAPICart struct {
	ID        string            `json:"id"`
	Currency  string            `json:"currency"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Lines     []StoreAPICartLine `json:"lines"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// ToCart converts the wire representation to the domain cart
func (c *StoreAPICart) ToCart() *cart.Cart {
	result := &cart.Cart{
		ID:        c.ID,
		Currency:  c.Currency,
		Metadata:  c.Metadata,
		Lines:     make([]cart.Line, 0, len(c.Lines)),
		UpdatedAt: c.UpdatedAt,
	}
	for _, line := range c.Lines {
		result.Lines = append(result.Lines, cart.Line{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			ProductSlug: line.ProductSlug,
			Quantity:    line.Quantity,
			UnitAmount:  ParseDecimal(line.UnitAmount),
		})
	}
	return result
}

// StoreAPICartAddRequest is the request body for adding a product to a cart
type StoreAPICartAddRequest struct {
	ProductID string `json:"productId"`
}

// StoreAPICartLineUpdateRequest is the request body for mutating a cart line.
// Exactly one of Operation or Quantity is set.
type StoreAPICartLineUpdateRequest struct {
	Operation string `json:"operation,omitempty"`
	Quantity  *int   `json:"quantity,omitempty"`
}

// ---------------------------------------------------------------------------
// Catalog Related Types
// ---------------------------------------------------------------------------

// StoreAPIProduct represents a product on the wire
type StoreAPIProduct struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Currency  string    `json:"currency"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToProduct converts the wire representation to the domain product
func (p *StoreAPIProduct) ToProduct() commerce.Product {
	return commerce.Product{
		ID:        p.ID,
		Slug:      p.Slug,
		Name:      p.Name,
		Price:     ParseDecimal(p.Price),
		Currency:  p.Currency,
		ImageURL:  p.ImageURL,
		UpdatedAt: p.UpdatedAt,
	}
}

// StoreAPIProductListResponse is the response for the product browse endpoint
type StoreAPIProductListResponse struct {
	Products   []StoreAPIProduct `json:"products"`
	HasMore    bool              `json:"hasMore"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

// StoreAPICategory represents a category on the wire
type StoreAPICategory struct {
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StoreAPICategoryListResponse is the response for the category list endpoint
type StoreAPICategoryListResponse struct {
	Categories []StoreAPICategory `json:"categories"`
}

// ParseDecimal parses a decimal string, returning zero for empty or invalid values
func ParseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
