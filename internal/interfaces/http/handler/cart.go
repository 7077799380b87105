package handler

import (
	"github.com/gin-gonic/gin"

	cartapp "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/infrastructure/config"
	httpsession "github.com/storefront/backend/internal/interfaces/http/session"
)

// CartHandler exposes the cart over HTTP. The cart reference lives in a
// cookie; every mutation writes the refreshed reference back.
type CartHandler struct {
	BaseHandler
	carts     *cartapp.Service
	cookieCfg config.CookieConfig
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts *cartapp.Service, cookieCfg config.CookieConfig) *CartHandler {
	return &CartHandler{
		carts:     carts,
		cookieCfg: cookieCfg,
	}
}

// RegisterRoutes registers cart routes
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/cart")
	{
		group.GET("", h.GetCart)
		group.POST("", h.EnsureCart)
		group.DELETE("", h.ClearCart)
		group.POST("/lines", h.AddLine)
		group.PATCH("/lines/:productID", h.UpdateLine)
		group.POST("/lines/bulk", h.AddLineBulk)
	}
}

// CartLineResponse is one line of the cart as returned to the storefront
type CartLineResponse struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	ProductSlug string `json:"productSlug"`
	Quantity    int    `json:"quantity"`
	UnitAmount  string `json:"unitAmount"`
}

// CartResponse is the cart as returned to the storefront
type CartResponse struct {
	ID         string             `json:"id"`
	Currency   string             `json:"currency"`
	LinesCount int                `json:"linesCount"`
	Lines      []CartLineResponse `json:"lines"`
}

func toCartResponse(c *cart.Cart) *CartResponse {
	if c == nil {
		return nil
	}
	lines := make([]CartLineResponse, 0, len(c.Lines))
	for _, line := range c.Lines {
		lines = append(lines, CartLineResponse{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			ProductSlug: line.ProductSlug,
			Quantity:    line.Quantity,
			UnitAmount:  line.UnitAmount.String(),
		})
	}
	return &CartResponse{
		ID:         c.ID,
		Currency:   c.Currency,
		LinesCount: cart.Count(c.Metadata, c.Lines),
		Lines:      lines,
	}
}

// writeResult sends the cart payload and syncs the cookie
func (h *CartHandler) writeResult(c *gin.Context, result *cartapp.Result) {
	httpsession.WriteCartCookie(c.Writer, result.Cookie, h.cookieCfg)
	h.Success(c, toCartResponse(result.Cart))
}

// GetCart returns the cart referenced by the cookie, or null when there is
// none. A stale reference is not an error.
func (h *CartHandler) GetCart(c *gin.Context) {
	cookie := httpsession.ReadCartCookie(c.Request, h.cookieCfg)

	found, err := h.carts.GetCart(c.Request.Context(), cookie)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toCartResponse(found))
}

// EnsureCart returns the existing cart or creates a new one
func (h *CartHandler) EnsureCart(c *gin.Context) {
	cookie := httpsession.ReadCartCookie(c.Request, h.cookieCfg)

	result, err := h.carts.EnsureCart(c.Request.Context(), cookie)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.writeResult(c, result)
}

// ClearCart drops the cart reference and expires the cookie
func (h *CartHandler) ClearCart(c *gin.Context) {
	cookie := httpsession.ReadCartCookie(c.Request, h.cookieCfg)

	if _, err := h.carts.ClearCart(c.Request.Context(), cookie); err != nil {
		h.HandleError(c, err)
		return
	}

	httpsession.ClearCartCookie(c.Writer, h.cookieCfg)
	h.NoContent(c)
}

// AddLineRequest is the request to add one unit of a product
type AddLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

// AddLine adds one unit of a product, creating a cart when needed
func (h *CartHandler) AddLine(c *gin.Context) {
	var req AddLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "productId is required")
		return
	}

	cookie := httpsession.ReadCartCookie(c.Request, h.cookieCfg)

	result, err := h.carts.AddItem(c.Request.Context(), cookie, req.ProductID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.writeResult(c, result)
}

// UpdateLineRequest adjusts a line either by a relative operation or to an
// absolute quantity. Exactly one of the two must be set.
type UpdateLineRequest struct {
	Operation string `json:"operation" binding:"omitempty,oneof=INCREASE DECREASE"`
	Quantity  *int   `json:"quantity" binding:"omitempty,min=0"`
}

// UpdateLine adjusts the quantity of an existing line
func (h *CartHandler) UpdateLine(c *gin.Context) {
	productID := c.Param("productID")

	var req UpdateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "operation must be INCREASE or DECREASE, quantity must be >= 0")
		return
	}
	if (req.Operation == "") == (req.Quantity == nil) {
		h.BadRequest(c, "provide either operation or quantity")
		return
	}

	cookie := httpsession.ReadCartCookie(c.Request, h.cookieCfg)

	var result *cartapp.Result
	var err error
	if req.Quantity != nil {
		result, err = h.carts.SetQuantity(c.Request.Context(), cookie, productID, *req.Quantity)
	} else {
		result, err = h.carts.ChangeQuantity(c.Request.Context(), cookie, productID, cart.QuantityOperation(req.Operation))
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.writeResult(c, result)
}

// AddLineBulkRequest adds a quantity of one product in bounded calls
type AddLineBulkRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// AddLineBulk adds a quantity of one product
func (h *CartHandler) AddLineBulk(c *gin.Context) {
	var req AddLineBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "productId and quantity >= 1 are required")
		return
	}

	cookie := httpsession.ReadCartCookie(c.Request, h.cookieCfg)

	result, err := h.carts.AddMultiple(c.Request.Context(), cookie, req.ProductID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.writeResult(c, result)
}
