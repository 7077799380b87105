package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validAddress() Address {
	return Address{
		Name:       "Ada Lovelace",
		Line1:      "12 Analytical Row",
		City:       "London",
		PostalCode: "N1 9GU",
		Country:    "GB",
	}
}

func TestAddressValidate_Valid(t *testing.T) {
	assert.Nil(t, validAddress().Validate())

	withOptionals := validAddress()
	withOptionals.Line2 = "Floor 2"
	withOptionals.State = ""
	withOptionals.Phone = "+44 20 7946 0958"
	withOptionals.TaxID = "GB123456789"
	withOptionals.Email = "ada@example.com"
	assert.Nil(t, withOptionals.Validate())
}

func TestAddressValidate_RequiredFields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Address)
		wantField string
		wantKey   string
	}{
		{"missing name", func(a *Address) { a.Name = "" }, "name", MsgNameRequired},
		{"missing line1", func(a *Address) { a.Line1 = "" }, "line1", MsgLine1Required},
		{"missing city", func(a *Address) { a.City = "" }, "city", MsgCityRequired},
		{"missing postal code", func(a *Address) { a.PostalCode = "" }, "postalCode", MsgPostalCodeRequired},
		{"missing country", func(a *Address) { a.Country = "" }, "country", MsgCountryRequired},
		{"invalid country", func(a *Address) { a.Country = "XX" }, "country", MsgCountryInvalid},
		{"invalid email", func(a *Address) { a.Email = "not-an-email" }, "email", MsgEmailInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := validAddress()
			tt.mutate(&addr)
			errs := addr.Validate()
			assert.Equal(t, tt.wantKey, errs[tt.wantField])
		})
	}
}

func TestAddressValidate_MultipleFailures(t *testing.T) {
	errs := Address{}.Validate()
	assert.Len(t, errs, 5)
}

func TestElementLifecycle(t *testing.T) {
	e := Element{Kind: ElementAddress, State: ElementUnmounted}

	assert.True(t, e.Mounting(0))
	assert.Equal(t, ElementMounting, e.State)
	assert.True(t, e.MarkReady(0))
	assert.True(t, e.IsReady())

	// Ready is monotonic within a generation
	assert.False(t, e.MarkReady(0))
	assert.False(t, e.Mounting(0))
}

func TestElementStaleGenerationIgnored(t *testing.T) {
	e := Element{Kind: ElementAuth}

	e.Remount(3)
	assert.False(t, e.MarkReady(2), "stale ready signal must be dropped")
	assert.False(t, e.IsReady())
	assert.True(t, e.MarkReady(3))
}

func TestElementRemountResets(t *testing.T) {
	e := Element{Kind: ElementAddress}
	e.MarkReady(0)
	assert.True(t, e.IsReady())

	e.Remount(1)
	assert.False(t, e.IsReady())
	assert.Equal(t, 1, e.Generation)
	assert.Equal(t, ElementUnmounted, e.State)
}

func TestElementKindValid(t *testing.T) {
	assert.True(t, ElementAuth.Valid())
	assert.True(t, ElementAddress.Valid())
	assert.True(t, ElementPayment.Valid())
	assert.False(t, ElementKind("unknown").Valid())
}

func TestAutofillPayload(t *testing.T) {
	assert.True(t, AutofillPayload{}.Empty())
	assert.False(t, AutofillPayload{Email: "a@b.c"}.Empty())

	payload := AutofillPayload{
		Email: "ada@example.com",
		Name:  "Ada Lovelace",
		Phone: "+44",
		Address: &AutofillAddress{
			Line1:      "12 Analytical Row",
			City:       "London",
			PostalCode: "N1 9GU",
			Country:    "GB",
		},
	}

	defaults := payload.ShippingDefaults()
	assert.Equal(t, "Ada Lovelace", defaults.Name)
	assert.Equal(t, "12 Analytical Row", defaults.Line1)
	assert.Equal(t, "London", defaults.City)
	assert.Equal(t, "GB", defaults.Country)
	assert.Equal(t, "+44", defaults.Phone)
	assert.Equal(t, "ada@example.com", defaults.Email)
}
