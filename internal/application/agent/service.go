package agent

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	cartapp "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/application/hooks"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/checkout"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/session"
)

// Tool names exposed to the conversational agent.
const (
	ToolGetCurrentPage      = "get_current_page"
	ToolGoToCheckout        = "go_to_checkout"
	ToolGoToRoute           = "go_to_route"
	ToolAddToCart           = "add_to_cart"
	ToolFillCheckoutDetails = "fill_checkout_details"
)

// Config holds the voice agent settings.
type Config struct {
	AgentID          string
	ScriptURL        string
	MobileBreakpoint int
	// AddToCartDelay is the pause between sequential single adds when no
	// bulk-add capability is registered.
	AddToCartDelay time.Duration
}

// Service is the server-side surface for the conversational widget: widget
// configuration, tool-call dispatch, and conversation history.
type Service struct {
	cfg           Config
	hooks         *hooks.Registry
	carts         *cartapp.Service
	conversations session.ConversationStore
	logger        *zap.Logger

	// pages tracks the last page each session reported viewing
	mu    sync.RWMutex
	pages map[string]string
}

// NewService creates a new agent service
func NewService(cfg Config, registry *hooks.Registry, carts *cartapp.Service, conversations session.ConversationStore, logger *zap.Logger) *Service {
	if cfg.MobileBreakpoint <= 0 {
		cfg.MobileBreakpoint = 640
	}
	if cfg.AddToCartDelay <= 0 {
		cfg.AddToCartDelay = 150 * time.Millisecond
	}
	return &Service{
		cfg:           cfg,
		hooks:         registry,
		carts:         carts,
		conversations: conversations,
		logger:        logger,
		pages:         make(map[string]string),
	}
}

// WidgetConfig assembles the widget mount configuration for a session.
func (s *Service) WidgetConfig(ctx context.Context, sessionID string, scheme ColorScheme, viewportWidth int) (*WidgetConfig, error) {
	cfg := &WidgetConfig{
		AgentID:   s.cfg.AgentID,
		ScriptURL: s.cfg.ScriptURL,
		Variant:   variantFor(viewportWidth, s.cfg.MobileBreakpoint),
		OrbColors: orbColorsFor(scheme),
		TermsHTML: termsHTML,
	}

	record, err := s.conversations.Get(ctx, sessionID)
	if err != nil {
		// History is an enhancement; the widget mounts without it
		s.logger.Warn("Conversation history lookup failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return cfg, nil
	}
	if record != nil && record.HasConversation {
		cfg.DynamicVariables = map[string]string{
			"previous_conversation_context": previousConversationContext,
		}
	}

	return cfg, nil
}

// ConversationStarted records that a session opened its first conversation.
// Subsequent events for the same session keep the original timestamp.
func (s *Service) ConversationStarted(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return shared.ErrInvalidInput
	}

	existing, err := s.conversations.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if existing != nil && existing.HasConversation {
		return nil
	}

	return s.conversations.Save(ctx, sessionID, session.ConversationRecord{
		HasConversation: true,
		Timestamp:       time.Now(),
	})
}

// PageViewed records the page a session is currently on.
func (s *Service) PageViewed(sessionID, path string) {
	if sessionID == "" || !strings.HasPrefix(path, "/") {
		return
	}
	s.mu.Lock()
	s.pages[sessionID] = path
	s.mu.Unlock()
}

// ToolCall is one tool invocation from the agent.
type ToolCall struct {
	Name      string                    `json:"name"`
	Path      string                    `json:"path,omitempty"`
	ProductID string                    `json:"productId,omitempty"`
	Number    int                       `json:"number,omitempty"`
	Autofill  *checkout.AutofillPayload `json:"autofill,omitempty"`
}

// ToolResult is the structured outcome of a tool call.
type ToolResult struct {
	// Page is set for get_current_page
	Page string `json:"page,omitempty"`
	// Navigate is the path the client should route to, if any
	Navigate string `json:"navigate,omitempty"`
	// Success and Reason report the outcome of stateful tools
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
	// Cookie is the updated cart cookie after add_to_cart, when it changed
	Cookie *cart.Cookie `json:"cookie,omitempty"`
}

// Dispatch executes one tool call for a session. The cart cookie is passed
// through from the HTTP layer for tools that touch the cart.
func (s *Service) Dispatch(ctx context.Context, sessionID string, call ToolCall, cookie *cart.Cookie) (*ToolResult, error) {
	s.logger.Debug("Agent tool call",
		zap.String("session_id", sessionID),
		zap.String("tool", call.Name))

	switch call.Name {
	case ToolGetCurrentPage:
		return &ToolResult{Page: s.currentPage(sessionID), Success: true}, nil

	case ToolGoToCheckout:
		return &ToolResult{Navigate: "/cart", Success: true}, nil

	case ToolGoToRoute:
		if !strings.HasPrefix(call.Path, "/") || strings.HasPrefix(call.Path, "//") {
			return &ToolResult{Success: false, Reason: "invalid path"}, nil
		}
		return &ToolResult{Navigate: call.Path, Success: true}, nil

	case ToolAddToCart:
		return s.addToCart(ctx, sessionID, call, cookie)

	case ToolFillCheckoutDetails:
		return s.fillCheckout(ctx, sessionID, call)

	default:
		return nil, shared.ErrInvalidInput
	}
}

func (s *Service) currentPage(sessionID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if path, ok := s.pages[sessionID]; ok {
		return path
	}
	return "/"
}

// addToCart adds N units: through the page's bulk-add capability when one is
// registered, otherwise as sequential single adds with a fixed pause so the
// platform sees the same pacing a shopper would produce.
func (s *Service) addToCart(ctx context.Context, sessionID string, call ToolCall, cookie *cart.Cookie) (*ToolResult, error) {
	quantity := call.Number
	if quantity <= 0 {
		quantity = 1
	}
	if call.ProductID == "" {
		return &ToolResult{Success: false, Reason: "no product selected"}, nil
	}

	if bulkAdd, ok := s.hooks.BulkAdd(sessionID); ok {
		if err := bulkAdd(ctx, call.ProductID, quantity); err != nil {
			s.logger.Warn("Bulk add failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
			return &ToolResult{Success: false, Reason: "could not add to cart"}, nil
		}
		return &ToolResult{Success: true}, nil
	}

	current := cookie
	for i := 0; i < quantity; i++ {
		if i > 0 {
			select {
			case <-time.After(s.cfg.AddToCartDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		result, err := s.carts.AddItem(ctx, current, call.ProductID)
		if err != nil {
			s.logger.Warn("Sequential add failed",
				zap.String("session_id", sessionID),
				zap.Int("added", i),
				zap.Error(err))
			return &ToolResult{Success: false, Reason: "could not add to cart", Cookie: current}, nil
		}
		current = result.Cookie
	}

	return &ToolResult{Success: true, Cookie: current}, nil
}

func (s *Service) fillCheckout(ctx context.Context, sessionID string, call ToolCall) (*ToolResult, error) {
	if call.Autofill == nil || call.Autofill.Empty() {
		return &ToolResult{Success: false, Reason: "nothing to fill"}, nil
	}

	fill, ok := s.hooks.FillCheckout(sessionID)
	if !ok {
		return &ToolResult{Success: false, Reason: "checkout is not open"}, nil
	}

	if err := fill(ctx, *call.Autofill); err != nil {
		s.logger.Warn("Checkout autofill failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return &ToolResult{Success: false, Reason: "could not fill checkout"}, nil
	}

	return &ToolResult{Success: true}, nil
}
