package checkout

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Payment gateway errors
var (
	ErrPaymentNotConfigured  = errors.New("checkout: payment gateway not configured")
	ErrPaymentIntentNotFound = errors.New("checkout: payment intent not found")
	ErrPaymentDeclined       = errors.New("checkout: payment declined")
	ErrPaymentUnavailable    = errors.New("checkout: payment gateway unavailable")
	ErrPaymentInvalidTaxID   = errors.New("checkout: invalid tax ID")
)

// IntentStatus represents the lifecycle status of a payment intent
type IntentStatus string

const (
	// IntentStatusRequiresPayment indicates the intent awaits a payment method
	IntentStatusRequiresPayment IntentStatus = "requires_payment_method"
	// IntentStatusRequiresConfirmation indicates the intent awaits confirmation
	IntentStatusRequiresConfirmation IntentStatus = "requires_confirmation"
	// IntentStatusRequiresAction indicates additional customer action is needed
	IntentStatusRequiresAction IntentStatus = "requires_action"
	// IntentStatusProcessing indicates the payment is being processed
	IntentStatusProcessing IntentStatus = "processing"
	// IntentStatusSucceeded indicates the payment completed
	IntentStatusSucceeded IntentStatus = "succeeded"
	// IntentStatusCanceled indicates the intent was canceled
	IntentStatusCanceled IntentStatus = "canceled"
)

// String returns the string representation of IntentStatus
func (s IntentStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the status is a final state
func (s IntentStatus) IsTerminal() bool {
	return s == IntentStatusSucceeded || s == IntentStatusCanceled
}

// PaymentIntent represents a payment intent held against a cart
type PaymentIntent struct {
	// ID is the gateway's intent identifier
	ID string
	// ClientSecret is handed to the payment element on the client
	ClientSecret string
	// Status is the current intent status
	Status IntentStatus
	// Amount is the total to charge in the store currency
	Amount decimal.Decimal
	// Currency is the ISO 4217 currency code
	Currency string
}

// CreateIntentInput contains input for creating a payment intent
type CreateIntentInput struct {
	CartID   string
	Amount   decimal.Decimal
	Currency string
	Metadata map[string]string
}

// UpdateIntentInput contains input for refreshing a payment intent after a
// billing address or shipping rate change. The gateway recalculates totals
// (tax, shipping) from the new values.
type UpdateIntentInput struct {
	IntentID       string
	BillingAddress *Address
	Email          string
	ShippingRateID string
}

// ConfirmIntentInput contains input for confirming a payment intent
type ConfirmIntentInput struct {
	IntentID        string
	PaymentMethodID string
	ReturnURL       string
}

// SaveTaxIDInput contains input for attaching a tax ID to the payment
type SaveTaxIDInput struct {
	IntentID string
	TaxID    string
	Country  string
}

// PaymentGateway defines the port interface for the payment provider.
// The Stripe adapter lives in the infrastructure layer.
type PaymentGateway interface {
	// CreateIntent creates a payment intent for a cart total
	CreateIntent(ctx context.Context, input CreateIntentInput) (*PaymentIntent, error)

	// UpdateIntent refreshes an intent after billing details change
	UpdateIntent(ctx context.Context, input UpdateIntentInput) (*PaymentIntent, error)

	// ConfirmIntent confirms an intent with a payment method
	ConfirmIntent(ctx context.Context, input ConfirmIntentInput) (*PaymentIntent, error)

	// SaveTaxID attaches a tax ID to the intent's metadata for invoicing
	SaveTaxID(ctx context.Context, input SaveTaxIDInput) error
}
