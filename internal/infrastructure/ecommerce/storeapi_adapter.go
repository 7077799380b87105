package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/commerce"
)

// maxResponseSize is the maximum allowed response size from the commerce API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// StoreAPIAdapter implements the commerce.Platform interface over the
// headless commerce REST API
type StoreAPIAdapter struct {
	config     *StoreAPIConfig
	httpClient *http.Client
}

// NewStoreAPIAdapter creates a new Store API adapter with the given configuration
func NewStoreAPIAdapter(config *StoreAPIConfig) (*StoreAPIAdapter, error) {
	if config == nil {
		return nil, commerce.ErrPlatformNotConfigured
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &StoreAPIAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// ---------------------------------------------------------------------------
// Cart Operations
// ---------------------------------------------------------------------------

// CartGet retrieves a cart by ID
func (a *StoreAPIAdapter) CartGet(ctx context.Context, cartID string) (*cart.Cart, error) {
	if cartID == "" {
		return nil, commerce.ErrCartInvalidID
	}

	respBody, err := a.doRequest(ctx, http.MethodGet, "/v1/carts/"+url.PathEscape(cartID), nil)
	if err != nil {
		return nil, err
	}

	return decodeCart(respBody)
}

// CartCreate creates a new empty cart
func (a *StoreAPIAdapter) CartCreate(ctx context.Context) (*cart.Cart, error) {
	respBody, err := a.doRequest(ctx, http.MethodPost, "/v1/carts", nil)
	if err != nil {
		return nil, err
	}

	return decodeCart(respBody)
}

// CartAdd adds one unit of a product to the cart
func (a *StoreAPIAdapter) CartAdd(ctx context.Context, cartID, productID string) (*cart.Cart, error) {
	if cartID == "" {
		return nil, commerce.ErrCartInvalidID
	}
	if productID == "" {
		return nil, commerce.ErrCartInvalidProduct
	}

	body := StoreAPICartAddRequest{ProductID: productID}
	respBody, err := a.doRequest(ctx, http.MethodPost, "/v1/carts/"+url.PathEscape(cartID)+"/lines", body)
	if err != nil {
		return nil, err
	}

	return decodeCart(respBody)
}

// CartChangeQuantity adjusts a line quantity by one in either direction
func (a *StoreAPIAdapter) CartChangeQuantity(ctx context.Context, cartID, productID string, op cart.QuantityOperation) (*cart.Cart, error) {
	if cartID == "" {
		return nil, commerce.ErrCartInvalidID
	}
	if productID == "" {
		return nil, commerce.ErrCartInvalidProduct
	}
	if op != cart.QuantityIncrease && op != cart.QuantityDecrease {
		return nil, commerce.ErrCartInvalidQuantity
	}

	body := StoreAPICartLineUpdateRequest{Operation: string(op)}
	respBody, err := a.doRequest(ctx, http.MethodPatch, a.cartLinePath(cartID, productID), body)
	if err != nil {
		return nil, err
	}

	return decodeCart(respBody)
}

// CartSetQuantity sets a line to an absolute quantity
func (a *StoreAPIAdapter) CartSetQuantity(ctx context.Context, cartID, productID string, quantity int) (*cart.Cart, error) {
	if cartID == "" {
		return nil, commerce.ErrCartInvalidID
	}
	if productID == "" {
		return nil, commerce.ErrCartInvalidProduct
	}
	if quantity < 0 {
		return nil, commerce.ErrCartInvalidQuantity
	}

	body := StoreAPICartLineUpdateRequest{Quantity: &quantity}
	respBody, err := a.doRequest(ctx, http.MethodPatch, a.cartLinePath(cartID, productID), body)
	if err != nil {
		return nil, err
	}

	return decodeCart(respBody)
}

func (a *StoreAPIAdapter) cartLinePath(cartID, productID string) string {
	return "/v1/carts/" + url.PathEscape(cartID) + "/lines/" + url.PathEscape(productID)
}

// ---------------------------------------------------------------------------
// Catalog Operations
// ---------------------------------------------------------------------------

// ProductBrowse lists one page of products
func (a *StoreAPIAdapter) ProductBrowse(ctx context.Context, req *commerce.ProductBrowseRequest) (*commerce.ProductBrowseResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("first", strconv.Itoa(req.First))
	if req.After != "" {
		query.Set("after", req.After)
	}

	respBody, err := a.doRequest(ctx, http.MethodGet, "/v1/products?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp StoreAPIProductListResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", commerce.ErrPlatformInvalidResponse, err)
	}

	response := &commerce.ProductBrowseResponse{
		Products:   make([]commerce.Product, 0, len(resp.Products)),
		HasMore:    resp.HasMore,
		NextCursor: resp.NextCursor,
	}
	for _, p := range resp.Products {
		response.Products = append(response.Products, p.ToProduct())
	}

	return response, nil
}

// CategoryList lists the store's categories
func (a *StoreAPIAdapter) CategoryList(ctx context.Context) ([]commerce.Category, error) {
	respBody, err := a.doRequest(ctx, http.MethodGet, "/v1/categories", nil)
	if err != nil {
		return nil, err
	}

	var resp StoreAPICategoryListResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", commerce.ErrPlatformInvalidResponse, err)
	}

	categories := make([]commerce.Category, 0, len(resp.Categories))
	for _, c := range resp.Categories {
		categories = append(categories, commerce.Category{
			Slug:      c.Slug,
			Name:      c.Name,
			UpdatedAt: c.UpdatedAt,
		})
	}

	return categories, nil
}

// ---------------------------------------------------------------------------
// HTTP Helpers
// ---------------------------------------------------------------------------

// doRequest executes an authenticated request against the commerce API
func (a *StoreAPIAdapter) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("storeapi: failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.APIBaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("storeapi: failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", commerce.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("storeapi: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, a.mapErrorResponse(resp.StatusCode, respBody)
	}

	return respBody, nil
}

// mapErrorResponse translates an API error payload to a domain error
func (a *StoreAPIAdapter) mapErrorResponse(status int, body []byte) error {
	var envelope StoreAPIErrorResponse
	_ = json.Unmarshal(body, &envelope)

	message := ""
	if envelope.Error != nil {
		message = envelope.Error.Message
	}

	switch {
	case status == http.StatusNotFound:
		if message != "" {
			return fmt.Errorf("%w: %s", commerce.ErrCartNotFound, message)
		}
		return commerce.ErrCartNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", commerce.ErrPlatformAuthFailed, status)
	case status == http.StatusTooManyRequests:
		return commerce.ErrPlatformRateLimited
	case status >= 500:
		return fmt.Errorf("%w: HTTP %d", commerce.ErrPlatformUnavailable, status)
	default:
		if message != "" {
			return fmt.Errorf("%w: %s", commerce.ErrPlatformRequestFailed, message)
		}
		return fmt.Errorf("%w: HTTP %d", commerce.ErrPlatformRequestFailed, status)
	}
}

// decodeCart parses a cart payload into the domain model
func decodeCart(body []byte) (*cart.Cart, error) {
	var wire StoreAPICart
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("%w: failed to parse cart: %v", commerce.ErrPlatformInvalidResponse, err)
	}
	if wire.ID == "" {
		return nil, fmt.Errorf("%w: cart ID missing", commerce.ErrPlatformInvalidResponse)
	}
	return wire.ToCart(), nil
}
