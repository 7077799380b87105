package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/checkout"
)

// mockBackend implements stripe.Backend for testing
type mockBackend struct {
	handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)
}

func (m *mockBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	data, err := m.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

// testConfig returns a valid test configuration
func testConfig() *StripeConfig {
	return &StripeConfig{
		SecretKey:       "sk_test_123456789",
		PublishableKey:  "pk_test_123456789",
		IsTestMode:      true,
		DefaultCurrency: "eur",
		SuccessPath:     "/order/success",
	}
}

// setupMockBackend sets up a mock Stripe backend for testing
func setupMockBackend(handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)) func() {
	mock := &mockBackend{handler: handler}
	stripe.SetBackend(stripe.APIBackend, mock)
	return func() {
		stripe.SetBackend(stripe.APIBackend, nil)
	}
}

func intentJSON(id, status string, amount int64) []byte {
	data, _ := json.Marshal(map[string]any{
		"id":            id,
		"client_secret": id + "_secret_abc",
		"status":        status,
		"amount":        amount,
		"currency":      "eur",
	})
	return data
}

// ============================================================================
// NewStripeAdapter Tests
// ============================================================================

func TestNewStripeAdapter(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		adapter, err := NewStripeAdapter(testConfig(), zap.NewNop())
		require.NoError(t, err)
		assert.NotNil(t, adapter)
	})

	t.Run("nil config", func(t *testing.T) {
		adapter, err := NewStripeAdapter(nil, zap.NewNop())
		assert.ErrorIs(t, err, checkout.ErrPaymentNotConfigured)
		assert.Nil(t, adapter)
	})

	t.Run("missing secret key", func(t *testing.T) {
		config := testConfig()
		config.SecretKey = ""
		_, err := NewStripeAdapter(config, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("live mode with test key", func(t *testing.T) {
		config := testConfig()
		config.IsTestMode = false
		_, err := NewStripeAdapter(config, zap.NewNop())
		assert.Error(t, err)
	})
}

// ============================================================================
// CreateIntent Tests
// ============================================================================

func TestStripeAdapter_CreateIntent(t *testing.T) {
	adapter, err := NewStripeAdapter(testConfig(), zap.NewNop())
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			assert.Equal(t, "POST", method)
			assert.Equal(t, "/v1/payment_intents", path)

			piParams, ok := params.(*stripe.PaymentIntentParams)
			require.True(t, ok)
			assert.Equal(t, int64(2499), *piParams.Amount)
			assert.Equal(t, "eur", *piParams.Currency)
			assert.Equal(t, "cart_123", piParams.Metadata["cart_id"])

			return intentJSON("pi_123", "requires_payment_method", 2499), nil
		})
		defer cleanup()

		intent, err := adapter.CreateIntent(context.Background(), checkout.CreateIntentInput{
			CartID:   "cart_123",
			Amount:   decimal.RequireFromString("24.99"),
			Currency: "eur",
		})
		require.NoError(t, err)
		assert.Equal(t, "pi_123", intent.ID)
		assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
		assert.Equal(t, checkout.IntentStatusRequiresPayment, intent.Status)
		assert.True(t, intent.Amount.Equal(decimal.RequireFromString("24.99")))
	})

	t.Run("falls back to configured currency", func(t *testing.T) {
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			piParams := params.(*stripe.PaymentIntentParams)
			assert.Equal(t, "eur", *piParams.Currency)
			return intentJSON("pi_123", "requires_payment_method", 1000), nil
		})
		defer cleanup()

		_, err := adapter.CreateIntent(context.Background(), checkout.CreateIntentInput{
			CartID: "cart_123",
			Amount: decimal.NewFromInt(10),
		})
		assert.NoError(t, err)
	})

	t.Run("gateway unavailable", func(t *testing.T) {
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			return nil, fmt.Errorf("connection refused")
		})
		defer cleanup()

		_, err := adapter.CreateIntent(context.Background(), checkout.CreateIntentInput{
			CartID: "cart_123",
			Amount: decimal.NewFromInt(10),
		})
		assert.ErrorIs(t, err, checkout.ErrPaymentUnavailable)
	})
}

// ============================================================================
// UpdateIntent Tests
// ============================================================================

func TestStripeAdapter_UpdateIntent(t *testing.T) {
	adapter, err := NewStripeAdapter(testConfig(), zap.NewNop())
	require.NoError(t, err)

	t.Run("sends billing address", func(t *testing.T) {
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			assert.Equal(t, "POST", method)
			assert.True(t, strings.HasSuffix(path, "/pi_123"))

			piParams := params.(*stripe.PaymentIntentParams)
			require.NotNil(t, piParams.Shipping)
			assert.Equal(t, "Ada Lovelace", *piParams.Shipping.Name)
			assert.Equal(t, "GB", *piParams.Shipping.Address.Country)
			assert.Equal(t, "ada@example.com", *piParams.ReceiptEmail)

			return intentJSON("pi_123", "requires_payment_method", 2750), nil
		})
		defer cleanup()

		intent, err := adapter.UpdateIntent(context.Background(), checkout.UpdateIntentInput{
			IntentID: "pi_123",
			Email:    "ada@example.com",
			BillingAddress: &checkout.Address{
				Name:       "Ada Lovelace",
				Line1:      "12 Analytical Row",
				City:       "London",
				PostalCode: "SW1A 1AA",
				Country:    "GB",
			},
		})
		require.NoError(t, err)
		// Totals may change when the address changes tax treatment
		assert.True(t, intent.Amount.Equal(decimal.RequireFromString("27.50")))
	})

	t.Run("empty intent ID", func(t *testing.T) {
		_, err := adapter.UpdateIntent(context.Background(), checkout.UpdateIntentInput{})
		assert.ErrorIs(t, err, checkout.ErrPaymentIntentNotFound)
	})

	t.Run("missing intent", func(t *testing.T) {
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			return nil, &stripe.Error{Code: stripe.ErrorCodeResourceMissing, Msg: "no such payment_intent"}
		})
		defer cleanup()

		_, err := adapter.UpdateIntent(context.Background(), checkout.UpdateIntentInput{IntentID: "pi_missing"})
		assert.ErrorIs(t, err, checkout.ErrPaymentIntentNotFound)
	})
}

// ============================================================================
// ConfirmIntent Tests
// ============================================================================

func TestStripeAdapter_ConfirmIntent(t *testing.T) {
	adapter, err := NewStripeAdapter(testConfig(), zap.NewNop())
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			assert.True(t, strings.HasSuffix(path, "/pi_123/confirm"))

			confirmParams := params.(*stripe.PaymentIntentConfirmParams)
			assert.Equal(t, "pm_card_visa", *confirmParams.PaymentMethod)
			assert.Equal(t, "https://store.example.com/order/success", *confirmParams.ReturnURL)

			return intentJSON("pi_123", "succeeded", 2499), nil
		})
		defer cleanup()

		intent, err := adapter.ConfirmIntent(context.Background(), checkout.ConfirmIntentInput{
			IntentID:        "pi_123",
			PaymentMethodID: "pm_card_visa",
			ReturnURL:       "https://store.example.com/order/success",
		})
		require.NoError(t, err)
		assert.Equal(t, checkout.IntentStatusSucceeded, intent.Status)
		assert.True(t, intent.Status.IsTerminal())
	})

	t.Run("card declined", func(t *testing.T) {
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			return nil, &stripe.Error{Type: stripe.ErrorTypeCard, Msg: "Your card was declined."}
		})
		defer cleanup()

		_, err := adapter.ConfirmIntent(context.Background(), checkout.ConfirmIntentInput{
			IntentID:        "pi_123",
			PaymentMethodID: "pm_card_declined",
		})
		assert.ErrorIs(t, err, checkout.ErrPaymentDeclined)
	})
}

// ============================================================================
// SaveTaxID Tests
// ============================================================================

func TestStripeAdapter_SaveTaxID(t *testing.T) {
	adapter, err := NewStripeAdapter(testConfig(), zap.NewNop())
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			piParams := params.(*stripe.PaymentIntentParams)
			assert.Equal(t, "DE123456789", piParams.Metadata["tax_id"])
			assert.Equal(t, "DE", piParams.Metadata["tax_id_country"])
			return intentJSON("pi_123", "requires_payment_method", 2499), nil
		})
		defer cleanup()

		err := adapter.SaveTaxID(context.Background(), checkout.SaveTaxIDInput{
			IntentID: "pi_123",
			TaxID:    "DE123456789",
			Country:  "DE",
		})
		assert.NoError(t, err)
	})

	t.Run("empty tax ID", func(t *testing.T) {
		err := adapter.SaveTaxID(context.Background(), checkout.SaveTaxIDInput{IntentID: "pi_123"})
		assert.ErrorIs(t, err, checkout.ErrPaymentInvalidTaxID)
	})
}

// ============================================================================
// Amount Conversion Tests
// ============================================================================

func TestMinorUnitConversion(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     int64
	}{
		{"two decimal currency", "24.99", "eur", 2499},
		{"whole amount", "10", "usd", 1000},
		{"zero decimal currency", "2499", "jpy", 2499},
		{"rounding", "10.005", "eur", 1001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toMinorUnits(decimal.RequireFromString(tt.amount), tt.currency)
			assert.Equal(t, tt.want, got)

			back := fromMinorUnits(got, tt.currency)
			// Round trip loses sub-cent precision only
			assert.True(t, back.Sub(decimal.RequireFromString(tt.amount)).Abs().LessThan(decimal.NewFromFloat(0.01)))
		})
	}
}
