package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	agentapp "github.com/storefront/backend/internal/application/agent"
	cartapp "github.com/storefront/backend/internal/application/cart"
	checkoutapp "github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/application/hooks"
	sitemapapp "github.com/storefront/backend/internal/application/sitemap"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/ecommerce"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/payment"
	"github.com/storefront/backend/internal/infrastructure/session"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/i18n"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting storefront backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("store_id", cfg.Store.ID),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Cache-tag invalidation: Redis when configured, in-memory otherwise
	invalidator, err := cache.NewTagInvalidatorFactory(cfg.Redis, cache.WithLogger(log)).Create()
	if err != nil {
		log.Fatal("Failed to create tag invalidator", zap.Error(err))
	}
	defer func() {
		if err := invalidator.Close(); err != nil {
			log.Error("Error closing tag invalidator", zap.Error(err))
		}
	}()

	// Conversation history store for the voice agent
	var conversations session.ConversationStore
	if cfg.Redis.Enabled {
		store, err := session.NewRedisConversationStore(session.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Checkout.SessionTTL)
		if err != nil {
			log.Fatal("Failed to connect conversation store", zap.Error(err))
		}
		conversations = store
	} else {
		conversations = session.NewInMemoryConversationStore(cfg.Checkout.SessionTTL)
	}
	defer func() {
		if err := conversations.Close(); err != nil {
			log.Error("Error closing conversation store", zap.Error(err))
		}
	}()

	// Commerce platform adapter
	platformConfig := ecommerce.NewStoreAPIConfig(cfg.Commerce.APIBaseURL, cfg.Commerce.APIKey)
	platformConfig.TimeoutSeconds = cfg.Commerce.TimeoutSeconds
	platform, err := ecommerce.NewStoreAPIAdapter(platformConfig)
	if err != nil {
		log.Fatal("Failed to create commerce adapter", zap.Error(err))
	}

	// Payment gateway
	stripeConfig := &payment.StripeConfig{
		SecretKey:       cfg.Stripe.SecretKey,
		PublishableKey:  cfg.Stripe.PublishableKey,
		IsTestMode:      cfg.Stripe.IsTestMode,
		DefaultCurrency: cfg.Stripe.Currency,
		SuccessPath:     cfg.Stripe.SuccessPath,
	}
	gateway, err := payment.NewStripeAdapter(stripeConfig, log)
	if err != nil {
		log.Fatal("Failed to create payment gateway", zap.Error(err))
	}

	// Application services
	cartService := cartapp.NewService(platform, invalidator, cfg.Store.ID, log)
	sitemapService := sitemapapp.NewService(platform, cfg.Store.PublicURL, cfg.Sitemap.ProductPageSize, cfg.Sitemap.Categories, log)

	hookRegistry := hooks.NewRegistry()

	checkoutManager := checkoutapp.NewManager(checkoutapp.Config{
		Gateway:         gateway,
		Invalidator:     invalidator,
		StoreID:         cfg.Store.ID,
		RetryPolicy:     shared.DefaultRetryPolicy(),
		BillingDebounce: cfg.Checkout.BillingDebounce,
		SuccessURL:      strings.TrimRight(cfg.Store.PublicURL, "/") + cfg.Stripe.SuccessPath,
		Logger:          log,
		Hooks:           hookRegistry,
		Carts:           cartService,
	}, cfg.Checkout.SessionTTL, cfg.Checkout.SweepInterval)
	defer checkoutManager.Close()

	agentService := agentapp.NewService(agentapp.Config{
		AgentID:          cfg.Agent.AgentID,
		ScriptURL:        cfg.Agent.ScriptURL,
		MobileBreakpoint: cfg.Agent.MobileBreakpoint,
		AddToCartDelay:   cfg.Agent.AddToCartDelay,
	}, hookRegistry, cartService, conversations, log)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, outermost first
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Close()
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Handlers and routes
	catalog := i18n.NewCatalog()
	router.NewRouter(engine).
		Register(handler.NewCartHandler(cartService, cfg.Cookie)).
		Register(handler.NewCheckoutHandler(checkoutManager, catalog, cfg.Cookie)).
		Register(handler.NewAgentHandler(agentService, cfg.Cookie)).
		Register(handler.NewSystemHandler(cfg.App.Name, "1.0.0")).
		RegisterRoot(handler.NewSitemapHandler(sitemapService)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
