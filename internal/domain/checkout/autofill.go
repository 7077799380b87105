package checkout

// AutofillAddress is the address portion of an autofill payload. All fields
// are optional; absent fields leave the widget defaults empty.
type AutofillAddress struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// AutofillPayload is externally injected contact data used to pre-populate
// the auth and address widgets. Each injection is applied exactly once per
// mount generation; re-injection forces a remount.
type AutofillPayload struct {
	Email   string           `json:"email,omitempty"`
	Name    string           `json:"name,omitempty"`
	Address *AutofillAddress `json:"address,omitempty"`
	Phone   string           `json:"phone,omitempty"`
}

// Empty reports whether the payload carries no data at all.
func (p AutofillPayload) Empty() bool {
	return p.Email == "" && p.Name == "" && p.Phone == "" && p.Address == nil
}

// ShippingDefaults converts the payload into the address the shipping
// widget should be seeded with on remount.
func (p AutofillPayload) ShippingDefaults() Address {
	addr := Address{
		Name:  p.Name,
		Phone: p.Phone,
		Email: p.Email,
	}
	if p.Address != nil {
		addr.Line1 = p.Address.Line1
		addr.Line2 = p.Address.Line2
		addr.City = p.Address.City
		addr.State = p.Address.State
		addr.PostalCode = p.Address.PostalCode
		addr.Country = p.Address.Country
	}
	return addr
}
