package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	checkoutapp "github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/i18n"
	httpsession "github.com/storefront/backend/internal/interfaces/http/session"
)

// CheckoutHandler drives the checkout session lifecycle: element readiness
// events from the client, autofill, billing edits and final submission.
type CheckoutHandler struct {
	BaseHandler
	sessions  *checkoutapp.Manager
	catalog   *i18n.Catalog
	cookieCfg config.CookieConfig
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(sessions *checkoutapp.Manager, catalog *i18n.Catalog, cookieCfg config.CookieConfig) *CheckoutHandler {
	return &CheckoutHandler{
		sessions:  sessions,
		catalog:   catalog,
		cookieCfg: cookieCfg,
	}
}

// RegisterRoutes registers checkout routes
func (h *CheckoutHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/checkout/sessions")
	{
		group.POST("", h.CreateSession)
		group.GET("/:id", h.GetSession)
		group.DELETE("/:id", h.CloseSession)
		group.POST("/:id/handles", h.SetHandles)
		group.POST("/:id/elements", h.ElementEvent)
		group.POST("/:id/autofill", h.Autofill)
		group.POST("/:id/shipping", h.ShippingChanged)
		group.POST("/:id/shipping-rate", h.SetShippingRate)
		group.POST("/:id/billing", h.BillingChanged)
		group.POST("/:id/billing-mode", h.SetBillingMode)
		group.POST("/:id/submit", h.Submit)
	}
}

func (h *CheckoutHandler) session(c *gin.Context) *checkoutapp.Session {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		locale := requestLocale(c, h.catalog)
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeNotFound), dto.ErrCodeNotFound,
			h.catalog.Translate(locale, checkoutapp.MsgSessionExpired))
		return nil
	}
	return s
}

// CreateSessionRequest opens a checkout session for a cart
type CreateSessionRequest struct {
	CartID   string          `json:"cartId" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Currency string          `json:"currency" binding:"required,len=3"`
}

// CreateSession opens a checkout session and its payment intent
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "cartId, amount and a 3-letter currency are required")
		return
	}

	s, err := h.sessions.Create(c.Request.Context(), getSessionID(c), req.CartID, req.Amount, req.Currency)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, s.Snapshot())
}

// GetSession returns the current session state
func (h *CheckoutHandler) GetSession(c *gin.Context) {
	s := h.session(c)
	if s == nil {
		return
	}
	h.Success(c, s.Snapshot())
}

// CloseSession tears the session down
func (h *CheckoutHandler) CloseSession(c *gin.Context) {
	h.sessions.Remove(c.Param("id"))
	h.NoContent(c)
}

// SetHandlesRequest reports the client-side handles for the payment widget
// and the page context provider
type SetHandlesRequest struct {
	Payment bool `json:"payment"`
	Context bool `json:"context"`
}

// SetHandles records which client handles are attached
func (h *CheckoutHandler) SetHandles(c *gin.Context) {
	s := h.session(c)
	if s == nil {
		return
	}

	var req SetHandlesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid handle payload")
		return
	}

	s.SetClientHandles(req.Payment, req.Context)
	h.Success(c, s.Snapshot())
}

// ElementEventRequest reports a widget lifecycle transition
type ElementEventRequest struct {
	Kind       checkout.ElementKind `json:"kind" binding:"required,oneof=auth address payment"`
	State      string               `json:"state" binding:"required,oneof=mounting ready"`
	Generation int                  `json:"generation" binding:"min=0"`
}

// ElementEventResponse reports whether the event was applied. Events from a
// superseded mount generation are dropped.
type ElementEventResponse struct {
	Accepted bool                 `json:"accepted"`
	Snapshot checkoutapp.Snapshot `json:"snapshot"`
}

// ElementEvent applies a widget lifecycle event
func (h *CheckoutHandler) ElementEvent(c *gin.Context) {
	s := h.session(c)
	if s == nil {
		return
	}

	var req ElementEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "kind must be auth|address|payment, state must be mounting|ready")
		return
	}

	var accepted bool
	if req.State == "ready" {
		accepted = s.ElementReady(req.Kind, req.Generation)
	} else {
		accepted = s.ElementMounting(req.Kind, req.Generation)
	}

	h.Success(c, ElementEventResponse{Accepted: accepted, Snapshot: s.Snapshot()})
}

// Autofill queues contact data to pre-populate the gated widgets
func (h *CheckoutHandler) Autofill(c *gin.Context) {
	s := h.session(c)
	if s == nil {
		return
	}

	var payload checkout.AutofillPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.BadRequest(c, "invalid autofill payload")
		return
	}

	s.RequestAutofill(payload)
	h.Success(c, s.Snapshot())
}

// ShippingChanged records a shipping address edit from the address widget
func (h *CheckoutHandler) ShippingChanged(c *gin.Context) {
	s := h.session(c)
	if s == nil {
		return
	}

	var addr checkout.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		h.BadRequest(c, "invalid address payload")
		return
	}

	s.ShippingChanged(addr)
	h.Success(c, s.Snapshot())
}

// SetShippingRateRequest selects a shipping rate for the order
type SetShippingRateRequest struct {
	ShippingRateID string `json:"shippingRateId" binding:"required"`
}

// SetShippingRate persists the selected shipping rate so the totals reflect
// the new shipping cost
func (h *CheckoutHandler) SetShippingRate(c *gin.Context) {
	s := h.session(c)
	if s == nil {
		return
	}

	var req SetShippingRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "shippingRateId is required")
		return
	}

	if err := s.SetShippingRate(c.Request.Context(), req.ShippingRateID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, s.Snapshot())
}

// BillingChanged records a billing address edit; it is debounced before the
// payment intent is updated
func (h *CheckoutHandler) BillingChanged(c *gin.Context) {
	s := h.session(c)
	if s == nil {
		return
	}

	var addr checkout.Address
	if err := c.ShouldBindJSON(&addr); err != nil {
		h.BadRequest(c, "invalid address payload")
		return
	}

	s.BillingChanged(addr)
	h.Success(c, s.Snapshot())
}

// SetBillingModeRequest toggles billing-same-as-shipping
type SetBillingModeRequest struct {
	SameAsShipping bool `json:"sameAsShipping"`
}

// SetBillingMode toggles whether billing mirrors the shipping address
func (h *CheckoutHandler) SetBillingMode(c *gin.Context) {
	s := h.session(c)
	if s == nil {
		return
	}

	var req SetBillingModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid billing mode payload")
		return
	}

	s.SetSameAsShipping(req.SameAsShipping)
	h.Success(c, s.Snapshot())
}

// SubmitRequest finalizes the checkout
type SubmitRequest struct {
	PaymentMethodID string `json:"paymentMethodId" binding:"required"`
	TaxID           string `json:"taxId"`
}

// SubmitResponse is returned on successful submission
type SubmitResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

// errorKeyCodes maps submission message keys to wire error codes.
var errorKeyCodes = map[string]string{
	checkoutapp.MsgCheckoutNotReady: dto.ErrCodeCheckoutNotReady,
	checkoutapp.MsgSubmitInProgress: dto.ErrCodeSubmitInProgress,
	checkoutapp.MsgFillRequired:     dto.ErrCodeValidation,
	checkoutapp.MsgPaymentFailed:    dto.ErrCodePaymentFailed,
}

// Submit validates the captured addresses and confirms the payment. Failures
// come back as one localized form-level message, plus per-field messages when
// the separate billing form is visible. On success the cart cookie is cleared
// and the client is redirected to the confirmation page.
func (h *CheckoutHandler) Submit(c *gin.Context) {
	s := h.session(c)
	if s == nil {
		return
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "paymentMethodId is required")
		return
	}

	result, err := s.Submit(c.Request.Context(), checkoutapp.SubmitInput{
		PaymentMethodID: req.PaymentMethodID,
		TaxID:           req.TaxID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.ErrorKey != "" {
		locale := requestLocale(c, h.catalog)
		code, ok := errorKeyCodes[result.ErrorKey]
		if !ok {
			code = dto.ErrCodeInternal
		}
		c.JSON(dto.GetHTTPStatus(code), dto.NewFieldErrorResponse(
			code,
			h.catalog.Translate(locale, result.ErrorKey),
			getRequestID(c),
			h.catalog.TranslateAll(locale, result.FieldErrors),
		))
		return
	}

	if result.ClearCartCookie {
		httpsession.ClearCartCookie(c.Writer, h.cookieCfg)
	}
	h.Success(c, SubmitResponse{RedirectURL: result.RedirectURL})
}
