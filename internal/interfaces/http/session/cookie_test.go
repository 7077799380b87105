package session

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/infrastructure/config"
)

func testCookieConfig() config.CookieConfig {
	return config.CookieConfig{
		Name:     "yns_cart",
		Path:     "/",
		SameSite: "lax",
		MaxAge:   30 * 24 * time.Hour,
	}
}

func requestWithCookie(value string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "yns_cart", Value: value})
	return req
}

func TestReadCartCookie(t *testing.T) {
	cfg := testCookieConfig()

	t.Run("round trip", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteCartCookie(rec, &cart.Cookie{ID: "cart_1", LinesCount: 3}, cfg)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)

		decoded := ReadCartCookie(requestWithCookie(cookies[0].Value), cfg)
		require.NotNil(t, decoded)
		assert.Equal(t, "cart_1", decoded.ID)
		assert.Equal(t, 3, decoded.LinesCount)
	})

	t.Run("absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Nil(t, ReadCartCookie(req, cfg))
	})

	t.Run("malformed values never error", func(t *testing.T) {
		for _, value := range []string{
			"not-json",
			url.QueryEscape(`{"id":}`),
			url.QueryEscape(`{"id":"","linesCount":2}`),
			url.QueryEscape(`{"id":"c1","linesCount":-1}`),
			"%zz",
		} {
			assert.Nil(t, ReadCartCookie(requestWithCookie(value), cfg), "value %q", value)
		}
	})
}

func TestWriteCartCookie_Attributes(t *testing.T) {
	cfg := testCookieConfig()
	cfg.Secure = true
	cfg.SameSite = "strict"

	rec := httptest.NewRecorder()
	WriteCartCookie(rec, &cart.Cookie{ID: "cart_1", LinesCount: 1}, cfg)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "yns_cart", c.Name)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, int((30 * 24 * time.Hour).Seconds()), c.MaxAge)
}

func TestWriteCartCookie_NilClears(t *testing.T) {
	cfg := testCookieConfig()

	rec := httptest.NewRecorder()
	WriteCartCookie(rec, nil, cfg)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestClearCartCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearCartCookie(rec, testCookieConfig())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "yns_cart", cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}
