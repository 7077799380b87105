package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	agentapp "github.com/storefront/backend/internal/application/agent"
	checkoutapp "github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/application/hooks"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/session"
	"github.com/storefront/backend/internal/interfaces/http/i18n"
)

func newAgentRouter(t *testing.T, platform *MockPlatform) (*gin.Engine, *hooks.Registry) {
	t.Helper()
	registry := hooks.NewRegistry()
	store := session.NewInMemoryConversationStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	svc := agentapp.NewService(agentapp.Config{
		AgentID:        "agent_1",
		ScriptURL:      "https://unpkg.com/@elevenlabs/convai-widget-embed",
		AddToCartDelay: time.Millisecond,
	}, registry, newCartService(platform), store, zap.NewNop())

	return newRouterFor(NewAgentHandler(svc, testCartCookieConfig())), registry
}

func agentRequest(method, path, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	req.Header.Set("X-Session-ID", "s1")
	return req
}

func TestAgentHandler_GetWidgetConfig(t *testing.T) {
	r, _ := newAgentRouter(t, new(MockPlatform))

	rec := doRequest(r, agentRequest(http.MethodGet, "/api/v1/agent/widget?scheme=light&viewport=390", ""))
	assert.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Data agentapp.WidgetConfig `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "agent_1", payload.Data.AgentID)
	assert.Equal(t, agentapp.VariantExpandable, payload.Data.Variant)
	assert.Equal(t, "#4D9CFF", payload.Data.OrbColors.Color1)

	rec = doRequest(r, agentRequest(http.MethodGet, "/api/v1/agent/widget?scheme=sepia", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAgentHandler_Events(t *testing.T) {
	r, _ := newAgentRouter(t, new(MockPlatform))

	t.Run("requires session header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/agent/events",
			bytes.NewBufferString(`{"type":"conversation-started"}`))
		rec := doRequest(r, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("conversation started", func(t *testing.T) {
		rec := doRequest(r, agentRequest(http.MethodPost, "/api/v1/agent/events", `{"type":"conversation-started"}`))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("page viewed feeds get_current_page", func(t *testing.T) {
		rec := doRequest(r, agentRequest(http.MethodPost, "/api/v1/agent/events",
			`{"type":"page-viewed","path":"/product/green-tea"}`))
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = doRequest(r, agentRequest(http.MethodPost, "/api/v1/agent/tools", `{"name":"get_current_page"}`))
		require.Equal(t, http.StatusOK, rec.Code)

		var payload struct {
			Data agentapp.ToolResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, "/product/green-tea", payload.Data.Page)
	})

	t.Run("unknown event type", func(t *testing.T) {
		rec := doRequest(r, agentRequest(http.MethodPost, "/api/v1/agent/events", `{"type":"teleport"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAgentHandler_ToolCalls(t *testing.T) {
	t.Run("go_to_checkout", func(t *testing.T) {
		r, _ := newAgentRouter(t, new(MockPlatform))

		rec := doRequest(r, agentRequest(http.MethodPost, "/api/v1/agent/tools", `{"name":"go_to_checkout"}`))
		require.Equal(t, http.StatusOK, rec.Code)

		var payload struct {
			Data agentapp.ToolResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, "/cart", payload.Data.Navigate)
	})

	t.Run("add_to_cart writes cookie", func(t *testing.T) {
		platform := new(MockPlatform)
		platform.On("CartCreate", mock.Anything).Return(testCart("c1", 0), nil).Once()
		platform.On("CartAdd", mock.Anything, "c1", "p1").Return(testCart("c1", 1), nil).Once()
		r, _ := newAgentRouter(t, platform)

		rec := doRequest(r, agentRequest(http.MethodPost, "/api/v1/agent/tools",
			`{"name":"add_to_cart","productId":"p1","number":1}`))
		require.Equal(t, http.StatusOK, rec.Code)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "yns_cart", cookies[0].Name)
		platform.AssertExpectations(t)
	})

	t.Run("fill_checkout_details without hook", func(t *testing.T) {
		r, _ := newAgentRouter(t, new(MockPlatform))

		rec := doRequest(r, agentRequest(http.MethodPost, "/api/v1/agent/tools",
			`{"name":"fill_checkout_details","autofill":{"email":"jo@example.com"}}`))
		require.Equal(t, http.StatusOK, rec.Code)

		var payload struct {
			Data agentapp.ToolResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.False(t, payload.Data.Success)
		assert.Equal(t, "checkout is not open", payload.Data.Reason)
	})

	t.Run("unknown tool", func(t *testing.T) {
		r, _ := newAgentRouter(t, new(MockPlatform))

		rec := doRequest(r, agentRequest(http.MethodPost, "/api/v1/agent/tools", `{"name":"warp_drive"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// newStoreRouter mounts the agent and checkout handlers over a shared
// capability registry and cart service, the way the server wires them.
func newStoreRouter(t *testing.T, platform *MockPlatform, gateway *MockGateway) *gin.Engine {
	t.Helper()
	registry := hooks.NewRegistry()
	carts := newCartService(platform)

	manager := checkoutapp.NewManager(checkoutapp.Config{
		Gateway:         gateway,
		Invalidator:     cache.NewInMemoryTagInvalidator(),
		StoreID:         "store_1",
		RetryPolicy:     shared.RetryPolicy{Delays: []time.Duration{time.Millisecond}},
		BillingDebounce: time.Millisecond,
		SuccessURL:      "https://shop.example.com/order/success",
		Logger:          zap.NewNop(),
		Hooks:           registry,
		Carts:           carts,
	}, time.Minute, time.Minute)
	t.Cleanup(manager.Close)

	store := session.NewInMemoryConversationStore(time.Hour)
	t.Cleanup(func() { _ = store.Close() })

	svc := agentapp.NewService(agentapp.Config{
		AgentID:        "agent_1",
		ScriptURL:      "https://unpkg.com/@elevenlabs/convai-widget-embed",
		AddToCartDelay: time.Millisecond,
	}, registry, carts, store, zap.NewNop())

	r := gin.New()
	api := r.Group("/api/v1")
	NewAgentHandler(svc, testCartCookieConfig()).RegisterRoutes(api)
	NewCheckoutHandler(manager, i18n.NewCatalog(), testCartCookieConfig()).RegisterRoutes(api)
	return r
}

func TestAgentHandler_ToolCallsDuringCheckout(t *testing.T) {
	platform := new(MockPlatform)
	gateway := new(MockGateway)
	gateway.On("CreateIntent", mock.Anything, mock.Anything).Return(testIntent(), nil).Once()
	r := newStoreRouter(t, platform, gateway)

	// The visitor opens a checkout for their cart
	rec := doRequest(r, agentRequest(http.MethodPost, "/api/v1/checkout/sessions",
		`{"cartId":"c1","amount":"24.99","currency":"eur"}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("add_to_cart batches through the open checkout", func(t *testing.T) {
		platform.On("CartGet", mock.Anything, "c1").Return(testCart("c1", 1), nil).Once()
		platform.On("CartSetQuantity", mock.Anything, "c1", "p1", 4).Return(testCart("c1", 4), nil).Once()

		rec := doRequest(r, agentRequest(http.MethodPost, "/api/v1/agent/tools",
			`{"name":"add_to_cart","productId":"p1","number":3}`))
		require.Equal(t, http.StatusOK, rec.Code)

		var payload struct {
			Data agentapp.ToolResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.True(t, payload.Data.Success)

		// One batched set-quantity instead of sequential single adds
		platform.AssertNotCalled(t, "CartAdd")
		platform.AssertExpectations(t)
	})

	t.Run("fill_checkout_details reaches the open form", func(t *testing.T) {
		rec := doRequest(r, agentRequest(http.MethodPost, "/api/v1/agent/tools",
			`{"name":"fill_checkout_details","autofill":{"email":"jo@example.com"}}`))
		require.Equal(t, http.StatusOK, rec.Code)

		var payload struct {
			Data agentapp.ToolResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.True(t, payload.Data.Success)
	})

	t.Run("closing the checkout withdraws the capabilities", func(t *testing.T) {
		var created struct {
			Data checkoutapp.Snapshot `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

		del := doRequest(r, agentRequest(http.MethodDelete, "/api/v1/checkout/sessions/"+created.Data.ID, ""))
		require.Equal(t, http.StatusNoContent, del.Code)

		rec := doRequest(r, agentRequest(http.MethodPost, "/api/v1/agent/tools",
			`{"name":"fill_checkout_details","autofill":{"email":"jo@example.com"}}`))
		require.Equal(t, http.StatusOK, rec.Code)

		var payload struct {
			Data agentapp.ToolResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.False(t, payload.Data.Success)
		assert.Equal(t, "checkout is not open", payload.Data.Reason)
	})
}
