package checkout

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Address holds the shipping or billing address captured during checkout.
// Name, Line1, City, Country and PostalCode are required for submission;
// the remaining fields are optional.
type Address struct {
	Name       string `json:"name" validate:"required"`
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required,iso3166_1_alpha2"`
	Phone      string `json:"phone,omitempty"`
	TaxID      string `json:"taxId,omitempty"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
}

// FieldErrors maps an address field to a message key describing why it
// failed validation. Keys are resolved to localized text at the HTTP layer.
type FieldErrors map[string]string

// Message keys for address validation failures.
const (
	MsgNameRequired       = "nameRequired"
	MsgLine1Required      = "line1Required"
	MsgCityRequired       = "cityRequired"
	MsgCountryRequired    = "countryRequired"
	MsgCountryInvalid     = "countryInvalid"
	MsgPostalCodeRequired = "postalCodeRequired"
	MsgEmailInvalid       = "emailInvalid"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// requiredKeys maps struct fields to their "required" message keys.
var requiredKeys = map[string]string{
	"Name":       MsgNameRequired,
	"Line1":      MsgLine1Required,
	"City":       MsgCityRequired,
	"Country":    MsgCountryRequired,
	"PostalCode": MsgPostalCodeRequired,
}

// jsonNames maps struct fields to their wire names used in field errors.
var jsonNames = map[string]string{
	"Name":       "name",
	"Line1":      "line1",
	"City":       "city",
	"Country":    "country",
	"PostalCode": "postalCode",
	"Email":      "email",
}

// Validate checks the address against the submission schema and returns
// per-field message keys. A nil map means the address is valid.
func (a Address) Validate() FieldErrors {
	err := validate.Struct(a)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// validator only returns other error types for invalid input values
		return FieldErrors{"address": MsgCountryInvalid}
	}

	fields := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		name := jsonNames[fe.StructField()]
		if name == "" {
			name = fe.StructField()
		}
		switch fe.Tag() {
		case "required":
			fields[name] = requiredKeys[fe.StructField()]
		case "iso3166_1_alpha2":
			fields[name] = MsgCountryInvalid
		case "email":
			fields[name] = MsgEmailInvalid
		default:
			fields[name] = fe.Tag()
		}
	}
	return fields
}
