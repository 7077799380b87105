package payment

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/checkout"
)

// StripeAdapter implements the checkout.PaymentGateway port over Stripe
// payment intents
type StripeAdapter struct {
	config *StripeConfig
	logger *zap.Logger
}

// NewStripeAdapter creates a new Stripe adapter
func NewStripeAdapter(config *StripeConfig, logger *zap.Logger) (*StripeAdapter, error) {
	if config == nil {
		return nil, checkout.ErrPaymentNotConfigured
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Initialize Stripe client
	config.InitStripeClient()

	return &StripeAdapter{
		config: config,
		logger: logger,
	}, nil
}

// CreateIntent creates a payment intent for a cart total
func (a *StripeAdapter) CreateIntent(ctx context.Context, input checkout.CreateIntentInput) (*checkout.PaymentIntent, error) {
	currency := input.Currency
	if currency == "" {
		currency = a.config.DefaultCurrency
	}

	a.logger.Debug("Creating payment intent",
		zap.String("cart_id", input.CartID),
		zap.String("currency", currency))

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(input.Amount, currency)),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	params.Metadata = map[string]string{
		"cart_id": input.CartID,
	}
	maps.Copy(params.Metadata, input.Metadata)

	pi, err := paymentintent.New(params)
	if err != nil {
		a.logger.Error("Failed to create payment intent",
			zap.String("cart_id", input.CartID),
			zap.Error(err))
		return nil, a.mapError(err)
	}

	a.logger.Info("Created payment intent",
		zap.String("cart_id", input.CartID),
		zap.String("intent_id", pi.ID))

	return toIntent(pi), nil
}

// UpdateIntent refreshes an intent after billing details change
func (a *StripeAdapter) UpdateIntent(ctx context.Context, input checkout.UpdateIntentInput) (*checkout.PaymentIntent, error) {
	if input.IntentID == "" {
		return nil, checkout.ErrPaymentIntentNotFound
	}

	a.logger.Debug("Updating payment intent", zap.String("intent_id", input.IntentID))

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	if input.Email != "" {
		params.ReceiptEmail = stripe.String(input.Email)
	}

	// The selected rate rides along in metadata; fulfilment reads it from the
	// intent when the order is packed
	if input.ShippingRateID != "" {
		params.Metadata = map[string]string{
			"shipping_rate_id": input.ShippingRateID,
		}
	}

	if addr := input.BillingAddress; addr != nil {
		params.Shipping = &stripe.ShippingDetailsParams{
			Name: stripe.String(addr.Name),
			Address: &stripe.AddressParams{
				Line1:      stripe.String(addr.Line1),
				Line2:      stripe.String(addr.Line2),
				City:       stripe.String(addr.City),
				State:      stripe.String(addr.State),
				PostalCode: stripe.String(addr.PostalCode),
				Country:    stripe.String(addr.Country),
			},
		}
		if addr.Phone != "" {
			params.Shipping.Phone = stripe.String(addr.Phone)
		}
	}

	pi, err := paymentintent.Update(input.IntentID, params)
	if err != nil {
		a.logger.Error("Failed to update payment intent",
			zap.String("intent_id", input.IntentID),
			zap.Error(err))
		return nil, a.mapError(err)
	}

	return toIntent(pi), nil
}

// ConfirmIntent confirms an intent with a payment method
func (a *StripeAdapter) ConfirmIntent(ctx context.Context, input checkout.ConfirmIntentInput) (*checkout.PaymentIntent, error) {
	if input.IntentID == "" {
		return nil, checkout.ErrPaymentIntentNotFound
	}

	a.logger.Debug("Confirming payment intent", zap.String("intent_id", input.IntentID))

	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx

	if input.PaymentMethodID != "" {
		params.PaymentMethod = stripe.String(input.PaymentMethodID)
	}
	if input.ReturnURL != "" {
		params.ReturnURL = stripe.String(input.ReturnURL)
	}

	pi, err := paymentintent.Confirm(input.IntentID, params)
	if err != nil {
		a.logger.Error("Failed to confirm payment intent",
			zap.String("intent_id", input.IntentID),
			zap.Error(err))
		return nil, a.mapError(err)
	}

	a.logger.Info("Confirmed payment intent",
		zap.String("intent_id", pi.ID),
		zap.String("status", string(pi.Status)))

	return toIntent(pi), nil
}

// SaveTaxID attaches a tax ID to the intent's metadata for invoicing
func (a *StripeAdapter) SaveTaxID(ctx context.Context, input checkout.SaveTaxIDInput) error {
	if input.IntentID == "" {
		return checkout.ErrPaymentIntentNotFound
	}
	if input.TaxID == "" {
		return checkout.ErrPaymentInvalidTaxID
	}

	params := &stripe.PaymentIntentParams{
		Metadata: map[string]string{
			"tax_id":         input.TaxID,
			"tax_id_country": input.Country,
		},
	}
	params.Context = ctx

	if _, err := paymentintent.Update(input.IntentID, params); err != nil {
		a.logger.Error("Failed to save tax ID",
			zap.String("intent_id", input.IntentID),
			zap.Error(err))
		return a.mapError(err)
	}

	return nil
}

// mapError translates a Stripe API error to a domain error
func (a *StripeAdapter) mapError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return fmt.Errorf("%w: %v", checkout.ErrPaymentUnavailable, err)
	}

	switch {
	case stripeErr.Code == stripe.ErrorCodeResourceMissing:
		return fmt.Errorf("%w: %s", checkout.ErrPaymentIntentNotFound, stripeErr.Msg)
	case stripeErr.Type == stripe.ErrorTypeCard:
		return fmt.Errorf("%w: %s", checkout.ErrPaymentDeclined, stripeErr.Msg)
	case stripeErr.Type == stripe.ErrorTypeAPI:
		return fmt.Errorf("%w: %s", checkout.ErrPaymentUnavailable, stripeErr.Msg)
	default:
		return fmt.Errorf("stripe: %s: %w", stripeErr.Code, err)
	}
}
