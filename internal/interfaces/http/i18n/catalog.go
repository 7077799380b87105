package i18n

import (
	"golang.org/x/text/language"
)

// Catalog resolves message keys to localized text. Keys come from the
// checkout and validation layers; handlers translate them at the edge so the
// services below stay locale-agnostic.
type Catalog struct {
	matcher  language.Matcher
	tags     []language.Tag
	messages map[language.Tag]map[string]string
}

// NewCatalog builds the catalog with the built-in translations.
func NewCatalog() *Catalog {
	tags := []language.Tag{
		language.English, // first tag is the fallback
		language.German,
		language.Polish,
	}
	return &Catalog{
		matcher: language.NewMatcher(tags),
		tags:    tags,
		messages: map[language.Tag]map[string]string{
			language.English: englishMessages,
			language.German:  germanMessages,
			language.Polish:  polishMessages,
		},
	}
}

// Match resolves an Accept-Language header to a supported locale.
func (c *Catalog) Match(acceptLanguage string) language.Tag {
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return c.tags[0]
	}
	_, index, _ := c.matcher.Match(prefs...)
	return c.tags[index]
}

// Translate returns the message for key in the given locale. Unknown keys
// come back unchanged so a missing translation is visible, not silent.
func (c *Catalog) Translate(tag language.Tag, key string) string {
	if msgs, ok := c.messages[tag]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	if msg, ok := c.messages[c.tags[0]][key]; ok {
		return msg
	}
	return key
}

// TranslateAll maps a set of keyed field errors to localized text.
func (c *Catalog) TranslateAll(tag language.Tag, keyed map[string]string) map[string]string {
	if len(keyed) == 0 {
		return nil
	}
	out := make(map[string]string, len(keyed))
	for field, key := range keyed {
		out[field] = c.Translate(tag, key)
	}
	return out
}

var englishMessages = map[string]string{
	"nameRequired":       "Please enter your full name",
	"line1Required":      "Please enter your street address",
	"cityRequired":       "Please enter your city",
	"countryRequired":    "Please select a country",
	"countryInvalid":     "Please select a valid country",
	"postalCodeRequired": "Please enter your postal code",
	"emailInvalid":       "Please enter a valid email address",
	"checkoutNotReady":   "Checkout is still loading, please wait a moment",
	"submitInProgress":   "Your order is already being processed",
	"fillRequiredFields": "Please fill in all required fields",
	"paymentFailed":      "Payment could not be processed, please try again",
	"sessionExpired":     "Your checkout session expired, please start again",
}

var germanMessages = map[string]string{
	"nameRequired":       "Bitte geben Sie Ihren vollständigen Namen ein",
	"line1Required":      "Bitte geben Sie Ihre Straße und Hausnummer ein",
	"cityRequired":       "Bitte geben Sie Ihre Stadt ein",
	"countryRequired":    "Bitte wählen Sie ein Land aus",
	"countryInvalid":     "Bitte wählen Sie ein gültiges Land aus",
	"postalCodeRequired": "Bitte geben Sie Ihre Postleitzahl ein",
	"emailInvalid":       "Bitte geben Sie eine gültige E-Mail-Adresse ein",
	"checkoutNotReady":   "Die Kasse lädt noch, bitte warten Sie einen Moment",
	"submitInProgress":   "Ihre Bestellung wird bereits verarbeitet",
	"fillRequiredFields": "Bitte füllen Sie alle Pflichtfelder aus",
	"paymentFailed":      "Die Zahlung konnte nicht verarbeitet werden, bitte versuchen Sie es erneut",
	"sessionExpired":     "Ihre Sitzung ist abgelaufen, bitte beginnen Sie erneut",
}

var polishMessages = map[string]string{
	"nameRequired":       "Podaj imię i nazwisko",
	"line1Required":      "Podaj adres",
	"cityRequired":       "Podaj miasto",
	"countryRequired":    "Wybierz kraj",
	"countryInvalid":     "Wybierz prawidłowy kraj",
	"postalCodeRequired": "Podaj kod pocztowy",
	"emailInvalid":       "Podaj prawidłowy adres e-mail",
	"checkoutNotReady":   "Kasa wciąż się ładuje, poczekaj chwilę",
	"submitInProgress":   "Twoje zamówienie jest już przetwarzane",
	"fillRequiredFields": "Wypełnij wszystkie wymagane pola",
	"paymentFailed":      "Nie udało się przetworzyć płatności, spróbuj ponownie",
	"sessionExpired":     "Twoja sesja wygasła, rozpocznij od nowa",
}
