package cart

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Cookie is the client-stored cart reference. It points at the authoritative
// cart held by the commerce platform and caches the line count from the last
// sync. The count may drift until the next fetch.
type Cookie struct {
	ID         string `json:"id"`
	LinesCount int    `json:"linesCount"`
}

// QuantityOperation is a relative quantity change delegated to the platform.
type QuantityOperation string

const (
	QuantityIncrease QuantityOperation = "INCREASE"
	QuantityDecrease QuantityOperation = "DECREASE"
)

// Line is a single product line in a cart.
type Line struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSlug string          `json:"product_slug"`
	Quantity    int             `json:"quantity"`
	UnitAmount  decimal.Decimal `json:"unit_amount"`
}

// Cart mirrors the commerce platform's cart state at fetch time.
type Cart struct {
	ID        string            `json:"id"`
	Currency  string            `json:"currency"`
	Metadata  map[string]string `json:"metadata"`
	Lines     []Line            `json:"lines"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// MetadataLinesCountKey is the metadata key the platform uses to publish the
// total line count for a cart.
const MetadataLinesCountKey = "linesCount"

// Clone returns a defensive copy of the cart so callers cannot mutate the
// snapshot handed out by the action layer.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := &Cart{
		ID:        c.ID,
		Currency:  c.Currency,
		UpdatedAt: c.UpdatedAt,
	}
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	if c.Lines != nil {
		out.Lines = make([]Line, len(c.Lines))
		copy(out.Lines, c.Lines)
	}
	return out
}

// LineQuantity returns the quantity of the given product in the cart,
// zero when the product has no line.
func (c *Cart) LineQuantity(productID string) int {
	if c == nil {
		return 0
	}
	for _, line := range c.Lines {
		if line.ProductID == productID {
			return line.Quantity
		}
	}
	return 0
}

// Count decodes the line count the platform publishes in cart metadata.
// Malformed or missing values count the lines directly as a fallback.
func Count(metadata map[string]string, lines []Line) int {
	if raw, ok := metadata[MetadataLinesCountKey]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			return n
		}
	}
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	return total
}
