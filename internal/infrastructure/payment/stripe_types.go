package payment

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"

	"github.com/storefront/backend/internal/domain/checkout"
)

// zeroDecimalCurrencies are currencies Stripe charges in whole units
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true,
	"kmf": true, "krw": true, "mga": true, "pyg": true, "rwf": true,
	"ugx": true, "vnd": true, "vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// toMinorUnits converts a decimal amount to Stripe's integer representation
func toMinorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimalCurrencies[strings.ToLower(currency)] {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// fromMinorUnits converts Stripe's integer representation back to a decimal amount
func fromMinorUnits(amount int64, currency string) decimal.Decimal {
	if zeroDecimalCurrencies[strings.ToLower(currency)] {
		return decimal.NewFromInt(amount)
	}
	return decimal.NewFromInt(amount).Div(decimal.NewFromInt(100))
}

// mapIntentStatus translates a Stripe intent status to the domain status
func mapIntentStatus(status stripe.PaymentIntentStatus) checkout.IntentStatus {
	switch status {
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		return checkout.IntentStatusRequiresPayment
	case stripe.PaymentIntentStatusRequiresConfirmation:
		return checkout.IntentStatusRequiresConfirmation
	case stripe.PaymentIntentStatusRequiresAction:
		return checkout.IntentStatusRequiresAction
	case stripe.PaymentIntentStatusProcessing:
		return checkout.IntentStatusProcessing
	case stripe.PaymentIntentStatusSucceeded:
		return checkout.IntentStatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return checkout.IntentStatusCanceled
	default:
		return checkout.IntentStatus(string(status))
	}
}

// toIntent converts a Stripe payment intent to the domain model
func toIntent(pi *stripe.PaymentIntent) *checkout.PaymentIntent {
	return &checkout.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       mapIntentStatus(pi.Status),
		Amount:       fromMinorUnits(pi.Amount, string(pi.Currency)),
		Currency:     string(pi.Currency),
	}
}
