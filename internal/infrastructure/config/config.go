package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Store     StoreConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Cookie    CookieConfig
	Redis     RedisConfig
	Commerce  CommerceConfig
	Stripe    StripeConfig
	Agent     AgentConfig
	Sitemap   SitemapConfig
	Checkout  CheckoutConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// StoreConfig identifies the storefront instance. The store ID scopes
// cache-tag invalidation so one store cannot flush another store's caches.
type StoreConfig struct {
	ID        string
	PublicURL string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// CookieConfig holds settings for the cart cookie
type CookieConfig struct {
	Name     string // cookie name for the cart reference
	Domain   string // Domain for cookies (empty = current domain)
	Path     string // Path for cookies
	Secure   bool   // Secure flag (should be true in production for HTTPS)
	SameSite string // SameSite policy: "strict", "lax", or "none"
	MaxAge   time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// CommerceConfig holds the commerce platform API settings
type CommerceConfig struct {
	APIBaseURL     string
	APIKey         string
	TimeoutSeconds int
}

// StripeConfig holds payment processor settings
type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	IsTestMode     bool
	Currency       string
	SuccessPath    string
}

// AgentConfig holds the conversational voice-agent widget settings
type AgentConfig struct {
	AgentID          string
	ScriptURL        string
	MobileBreakpoint int           // viewport width at or below which the compact variant is used
	AddToCartDelay   time.Duration // inter-add delay for the sequential add fallback
}

// SitemapConfig holds sitemap generation settings
type SitemapConfig struct {
	ProductPageSize int
	Categories      []string
}

// CheckoutConfig holds checkout coordinator settings
type CheckoutConfig struct {
	BillingDebounce time.Duration
	SessionTTL      time.Duration
	SweepInterval   time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with STOREFRONT_ prefix (e.g., STOREFRONT_STRIPE_SECRET_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Store: StoreConfig{
			ID:        v.GetString("store.id"),
			PublicURL: v.GetString("store.public_url"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Cookie: CookieConfig{
			Name:     v.GetString("cookie.name"),
			Domain:   v.GetString("cookie.domain"),
			Path:     v.GetString("cookie.path"),
			Secure:   v.GetBool("cookie.secure"),
			SameSite: v.GetString("cookie.same_site"),
			MaxAge:   v.GetDuration("cookie.max_age"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Commerce: CommerceConfig{
			APIBaseURL:     v.GetString("commerce.api_base_url"),
			APIKey:         v.GetString("commerce.api_key"),
			TimeoutSeconds: v.GetInt("commerce.timeout_seconds"),
		},
		Stripe: StripeConfig{
			SecretKey:      v.GetString("stripe.secret_key"),
			PublishableKey: v.GetString("stripe.publishable_key"),
			IsTestMode:     v.GetBool("stripe.is_test_mode"),
			Currency:       v.GetString("stripe.currency"),
			SuccessPath:    v.GetString("stripe.success_path"),
		},
		Agent: AgentConfig{
			AgentID:          v.GetString("agent.agent_id"),
			ScriptURL:        v.GetString("agent.script_url"),
			MobileBreakpoint: v.GetInt("agent.mobile_breakpoint"),
			AddToCartDelay:   v.GetDuration("agent.add_to_cart_delay"),
		},
		Sitemap: SitemapConfig{
			ProductPageSize: v.GetInt("sitemap.product_page_size"),
			Categories:      v.GetStringSlice("sitemap.categories"),
		},
		Checkout: CheckoutConfig{
			BillingDebounce: v.GetDuration("checkout.billing_debounce"),
			SessionTTL:      v.GetDuration("checkout.session_ttl"),
			SweepInterval:   v.GetDuration("checkout.sweep_interval"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storefront-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Store.ID == "" {
		cfg.Store.ID = "default"
	}
	if cfg.Store.PublicURL == "" {
		cfg.Store.PublicURL = "http://localhost:3000"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB, storefront payloads are small
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID", "X-Session-ID"}
	}
	if cfg.Cookie.Name == "" {
		cfg.Cookie.Name = "yns_cart"
	}
	if cfg.Cookie.Path == "" {
		cfg.Cookie.Path = "/"
	}
	if cfg.Cookie.SameSite == "" {
		cfg.Cookie.SameSite = "lax"
	}
	if cfg.Cookie.MaxAge == 0 {
		cfg.Cookie.MaxAge = 30 * 24 * time.Hour
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Commerce.APIBaseURL == "" {
		cfg.Commerce.APIBaseURL = "http://localhost:4000"
	}
	if cfg.Commerce.TimeoutSeconds == 0 {
		cfg.Commerce.TimeoutSeconds = 10
	}
	if cfg.Stripe.Currency == "" {
		cfg.Stripe.Currency = "usd"
	}
	if cfg.Stripe.SuccessPath == "" {
		cfg.Stripe.SuccessPath = "/order/success"
	}
	if cfg.Agent.ScriptURL == "" {
		cfg.Agent.ScriptURL = "https://elevenlabs.io/convai-widget/index.js"
	}
	if cfg.Agent.MobileBreakpoint == 0 {
		cfg.Agent.MobileBreakpoint = 640
	}
	if cfg.Agent.AddToCartDelay == 0 {
		cfg.Agent.AddToCartDelay = 150 * time.Millisecond
	}
	if cfg.Sitemap.ProductPageSize == 0 {
		cfg.Sitemap.ProductPageSize = 100
	}
	if cfg.Checkout.BillingDebounce == 0 {
		cfg.Checkout.BillingDebounce = time.Second
	}
	if cfg.Checkout.SessionTTL == 0 {
		cfg.Checkout.SessionTTL = 30 * time.Minute
	}
	if cfg.Checkout.SweepInterval == 0 {
		cfg.Checkout.SweepInterval = 5 * time.Minute
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "storefront-backend"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	switch strings.ToLower(c.Cookie.SameSite) {
	case "strict", "lax", "none":
	default:
		return fmt.Errorf("cookie.same_site must be one of strict, lax, none")
	}
	if strings.ToLower(c.Cookie.SameSite) == "none" && !c.Cookie.Secure {
		return fmt.Errorf("cookie.same_site=none requires cookie.secure=true")
	}

	if c.App.Env == "production" {
		if c.Commerce.APIKey == "" {
			return fmt.Errorf("commerce.api_key is required in production")
		}
		if c.Stripe.SecretKey == "" {
			return fmt.Errorf("stripe.secret_key is required in production")
		}
		if !c.Cookie.Secure {
			return fmt.Errorf("cookie.secure must be true in production (HTTPS required for secure cookies)")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// Addr returns the Redis address in host:port form.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
