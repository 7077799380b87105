package session

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// ReadCartCookie decodes the cart reference from the request. Absent or
// malformed cookies yield nil; a stale reference is resolved downstream, so
// there is nothing to report to the client here.
func ReadCartCookie(r *http.Request, cfg config.CookieConfig) *cart.Cookie {
	raw, err := r.Cookie(cfg.Name)
	if err != nil {
		return nil
	}

	value, err := url.QueryUnescape(raw.Value)
	if err != nil {
		return nil
	}

	var payload cart.Cookie
	if err := json.Unmarshal([]byte(value), &payload); err != nil {
		return nil
	}
	if payload.ID == "" || payload.LinesCount < 0 {
		return nil
	}
	return &payload
}

// WriteCartCookie persists the cart reference. A nil payload clears it.
func WriteCartCookie(w http.ResponseWriter, payload *cart.Cookie, cfg config.CookieConfig) {
	if payload == nil {
		ClearCartCookie(w, cfg)
		return
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    url.QueryEscape(string(encoded)),
		Domain:   cfg.Domain,
		Path:     cookiePath(cfg),
		MaxAge:   int(cfg.MaxAge / time.Second),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: parseSameSite(cfg.SameSite),
	})
}

// ClearCartCookie expires the cart cookie on the client.
func ClearCartCookie(w http.ResponseWriter, cfg config.CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Domain:   cfg.Domain,
		Path:     cookiePath(cfg),
		MaxAge:   -1,
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: parseSameSite(cfg.SameSite),
	})
}

func cookiePath(cfg config.CookieConfig) string {
	if cfg.Path == "" {
		return "/"
	}
	return cfg.Path
}

func parseSameSite(mode string) http.SameSite {
	switch mode {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
