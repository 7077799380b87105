package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{"console format", &Config{Level: "debug", Format: "console", Output: "stdout", TimeFormat: "15:04:05"}},
		{"json format", &Config{Level: "info", Format: "json", Output: "stderr", TimeFormat: "15:04:05"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.config)
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestNewForEnvironment(t *testing.T) {
	devLog, err := NewForEnvironment("development")
	require.NoError(t, err)
	assert.NotNil(t, devLog)

	prodLog, err := NewForEnvironment("production")
	require.NoError(t, err)
	assert.NotNil(t, prodLog)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"bogus", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := context.Background()
	ctx, enriched := WithRequestID(ctx, base, "req-1")
	ctx, enriched = WithCartID(ctx, enriched, "cart-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "cart-1", GetCartID(ctx))

	enriched.Info("hello")
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	fields := entry.ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "cart-1", fields["cart_id"])
}

func TestFromContext_Missing(t *testing.T) {
	log := FromContext(context.Background())
	assert.NotNil(t, log)
	// No-op logger must not panic
	log.Info("ignored")
}

func TestL_EnrichesFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := WithContext(context.Background(), base)
	ctx, _ = WithSessionID(ctx, base, "sess-9")

	L(ctx).Info("checkout event")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "sess-9", logs.All()[0].ContextMap()["session_id"])
}

func TestGinMiddlewareLogsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	router := gin.New()
	router.Use(GinMiddleware(log))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "HTTP Request", entry.Message)
	assert.Equal(t, int64(http.StatusOK), entry.ContextMap()["status"])
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.ErrorLevel)
	log := zap.New(core)

	router := gin.New()
	router.Use(Recovery(log))
	router.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Panic recovered", logs.All()[0].Message)
}

func TestGetGinLogger_Fallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, GetGinLogger(c))
}
