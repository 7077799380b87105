package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/commerce"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/i18n"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDContextKey); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// getSessionID extracts the anonymous session ID the storefront assigns to
// each browser. It is opaque to the server.
func getSessionID(c *gin.Context) string {
	return c.GetHeader("X-Session-ID")
}

// requestLocale resolves the response locale from the Accept-Language header
func requestLocale(c *gin.Context, catalog *i18n.Catalog) language.Tag {
	return catalog.Match(c.GetHeader("Accept-Language"))
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts domain errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	requestID := getRequestID(c)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		statusCode := dto.GetHTTPStatus(code)
		c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
		return
	}

	if code, message, ok := upstreamErrorCode(err); ok {
		c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, requestID))
		return
	}

	// Unknown error type, return as internal error
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	))
}

// upstreamErrorCode maps commerce platform and payment gateway sentinels to
// wire error codes
func upstreamErrorCode(err error) (code, message string, ok bool) {
	switch {
	case errors.Is(err, commerce.ErrCartNotFound), errors.Is(err, commerce.ErrProductNotFound):
		return dto.ErrCodeNotFound, "Resource not found", true
	case errors.Is(err, commerce.ErrCartInvalidID),
		errors.Is(err, commerce.ErrCartInvalidProduct),
		errors.Is(err, commerce.ErrCartInvalidQuantity):
		return dto.ErrCodeInvalidInput, "Invalid cart operation", true
	case errors.Is(err, commerce.ErrPlatformUnavailable),
		errors.Is(err, commerce.ErrPlatformRateLimited),
		errors.Is(err, commerce.ErrPlatformRequestFailed),
		errors.Is(err, commerce.ErrPlatformInvalidResponse):
		return dto.ErrCodeUpstreamUnavailable, "Commerce platform unavailable", true
	case errors.Is(err, checkout.ErrPaymentUnavailable):
		return dto.ErrCodeUpstreamUnavailable, "Payment processor unavailable", true
	case errors.Is(err, checkout.ErrPaymentIntentNotFound):
		return dto.ErrCodeNotFound, "Payment intent not found", true
	case errors.Is(err, checkout.ErrPaymentDeclined):
		return dto.ErrCodePaymentFailed, "Payment was declined", true
	}
	return "", "", false
}
