package handler

import (
	"github.com/gin-gonic/gin"

	agentapp "github.com/storefront/backend/internal/application/agent"
	"github.com/storefront/backend/internal/infrastructure/config"
	httpsession "github.com/storefront/backend/internal/interfaces/http/session"
)

// AgentHandler exposes the voice-agent surface: widget configuration,
// conversation events and tool calls. The browser session is identified by
// the X-Session-ID header.
type AgentHandler struct {
	BaseHandler
	agent     *agentapp.Service
	cookieCfg config.CookieConfig
}

// NewAgentHandler creates a new AgentHandler
func NewAgentHandler(agent *agentapp.Service, cookieCfg config.CookieConfig) *AgentHandler {
	return &AgentHandler{
		agent:     agent,
		cookieCfg: cookieCfg,
	}
}

// RegisterRoutes registers agent routes
func (h *AgentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/agent")
	{
		group.GET("/widget", h.GetWidgetConfig)
		group.POST("/events", h.PostEvent)
		group.POST("/tools", h.PostToolCall)
	}
}

// WidgetQuery selects the widget appearance for the current viewport
type WidgetQuery struct {
	Scheme   string `form:"scheme" binding:"omitempty,oneof=dark light"`
	Viewport int    `form:"viewport" binding:"omitempty,min=0"`
}

// GetWidgetConfig returns the widget mount configuration
func (h *AgentHandler) GetWidgetConfig(c *gin.Context) {
	var query WidgetQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, "scheme must be dark or light, viewport must be >= 0")
		return
	}

	scheme := agentapp.ColorScheme(query.Scheme)
	if scheme == "" {
		scheme = agentapp.ColorSchemeDark
	}

	cfg, err := h.agent.WidgetConfig(c.Request.Context(), getSessionID(c), scheme, query.Viewport)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cfg)
}

// Event types accepted by PostEvent.
const (
	EventConversationStarted = "conversation-started"
	EventPageViewed          = "page-viewed"
)

// EventRequest is a widget lifecycle event from the client
type EventRequest struct {
	Type string `json:"type" binding:"required,oneof=conversation-started page-viewed"`
	Path string `json:"path"`
}

// PostEvent records a conversation or page event for the session
func (h *AgentHandler) PostEvent(c *gin.Context) {
	sessionID := getSessionID(c)
	if sessionID == "" {
		h.BadRequest(c, "X-Session-ID header is required")
		return
	}

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "type must be conversation-started or page-viewed")
		return
	}

	switch req.Type {
	case EventConversationStarted:
		if err := h.agent.ConversationStarted(c.Request.Context(), sessionID); err != nil {
			h.HandleError(c, err)
			return
		}
	case EventPageViewed:
		h.agent.PageViewed(sessionID, req.Path)
	}

	h.NoContent(c)
}

// PostToolCall dispatches one agent tool call. Tools that touch the cart
// read the cookie and write the refreshed reference back.
func (h *AgentHandler) PostToolCall(c *gin.Context) {
	sessionID := getSessionID(c)
	if sessionID == "" {
		h.BadRequest(c, "X-Session-ID header is required")
		return
	}

	var call agentapp.ToolCall
	if err := c.ShouldBindJSON(&call); err != nil {
		h.BadRequest(c, "invalid tool call payload")
		return
	}

	cookie := httpsession.ReadCartCookie(c.Request, h.cookieCfg)

	result, err := h.agent.Dispatch(c.Request.Context(), sessionID, call, cookie)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Cookie != nil {
		httpsession.WriteCartCookie(c.Writer, result.Cookie, h.cookieCfg)
	}
	h.Success(c, result)
}
