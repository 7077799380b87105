package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeCheckoutNotReady, http.StatusConflict},
		{ErrCodePaymentFailed, http.StatusPaymentRequired},
		{ErrCodeUpstreamUnavailable, http.StatusBadGateway},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"ERR_NO_SUCH_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeUpstreamUnavailable, NormalizeErrorCode("UNAVAILABLE"))
	assert.Equal(t, ErrCodeInvalidInput, NormalizeErrorCode("INVALID_INPUT"))

	// Already normalized or unknown codes pass through
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode(ErrCodeNotFound))
	assert.Equal(t, "CUSTOM_CODE", NormalizeErrorCode("CUSTOM_CODE"))
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "cart not found", "req-123")
	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "cart not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestNewFieldErrorResponse(t *testing.T) {
	resp := NewFieldErrorResponse(ErrCodeValidation, "fill required fields", "req-123", map[string]string{
		"city": "Please enter your city",
	})
	assert.False(t, resp.Success)
	assert.Equal(t, "Please enter your city", resp.Error.Fields["city"])
}
