package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	cartapp "github.com/storefront/backend/internal/application/cart"
	checkoutapp "github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/commerce"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockPlatform is a mock implementation of commerce.Platform
type MockPlatform struct {
	mock.Mock
}

func (m *MockPlatform) CartGet(ctx context.Context, cartID string) (*cart.Cart, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockPlatform) CartCreate(ctx context.Context) (*cart.Cart, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockPlatform) CartAdd(ctx context.Context, cartID, productID string) (*cart.Cart, error) {
	args := m.Called(ctx, cartID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockPlatform) CartChangeQuantity(ctx context.Context, cartID, productID string, op cart.QuantityOperation) (*cart.Cart, error) {
	args := m.Called(ctx, cartID, productID, op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockPlatform) CartSetQuantity(ctx context.Context, cartID, productID string, quantity int) (*cart.Cart, error) {
	args := m.Called(ctx, cartID, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockPlatform) ProductBrowse(ctx context.Context, req *commerce.ProductBrowseRequest) (*commerce.ProductBrowseResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.ProductBrowseResponse), args.Error(1)
}

func (m *MockPlatform) CategoryList(ctx context.Context) ([]commerce.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commerce.Category), args.Error(1)
}

// MockGateway is a mock implementation of checkout.PaymentGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateIntent(ctx context.Context, input checkout.CreateIntentInput) (*checkout.PaymentIntent, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.PaymentIntent), args.Error(1)
}

func (m *MockGateway) UpdateIntent(ctx context.Context, input checkout.UpdateIntentInput) (*checkout.PaymentIntent, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.PaymentIntent), args.Error(1)
}

func (m *MockGateway) ConfirmIntent(ctx context.Context, input checkout.ConfirmIntentInput) (*checkout.PaymentIntent, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.PaymentIntent), args.Error(1)
}

func (m *MockGateway) SaveTaxID(ctx context.Context, input checkout.SaveTaxIDInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func testCartCookieConfig() config.CookieConfig {
	return config.CookieConfig{
		Name:     "yns_cart",
		Path:     "/",
		SameSite: "lax",
		MaxAge:   30 * 24 * time.Hour,
	}
}

func newCartService(platform *MockPlatform) *cartapp.Service {
	return cartapp.NewService(platform, cache.NewInMemoryTagInvalidator(), "store_1", zap.NewNop())
}

func newCheckoutManager(gateway *MockGateway) *checkoutapp.Manager {
	return checkoutapp.NewManager(checkoutapp.Config{
		Gateway:         gateway,
		Invalidator:     cache.NewInMemoryTagInvalidator(),
		StoreID:         "store_1",
		RetryPolicy:     shared.RetryPolicy{Delays: []time.Duration{time.Millisecond}},
		BillingDebounce: time.Millisecond,
		SuccessURL:      "https://shop.example.com/order/success",
		Logger:          zap.NewNop(),
	}, time.Minute, time.Minute)
}

func testIntent() *checkout.PaymentIntent {
	return &checkout.PaymentIntent{
		ID:           "pi_123",
		ClientSecret: "pi_123_secret_test",
		Status:       checkout.IntentStatusRequiresPayment,
		Amount:       decimal.NewFromInt(25),
		Currency:     "eur",
	}
}

func newRouterFor(registrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}) *gin.Engine {
	r := gin.New()
	registrar.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doRequest(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}
