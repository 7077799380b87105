package ecommerce

import (
	"errors"
	"strings"
)

// StoreAPIConfig holds configuration for the headless commerce API
type StoreAPIConfig struct {
	// APIBaseURL is the base URL of the commerce API
	APIBaseURL string
	// APIKey is the bearer token used to authenticate requests
	APIKey string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// Errors for Store API configuration
var (
	ErrStoreAPIConfigMissingBaseURL = errors.New("storeapi: base URL is required")
	ErrStoreAPIConfigMissingAPIKey  = errors.New("storeapi: API key is required")
)

// NewStoreAPIConfig creates a new Store API configuration with defaults
func NewStoreAPIConfig(baseURL, apiKey string) *StoreAPIConfig {
	return &StoreAPIConfig{
		APIBaseURL:     baseURL,
		APIKey:         apiKey,
		TimeoutSeconds: 30,
	}
}

// Validate validates the Store API configuration
func (c *StoreAPIConfig) Validate() error {
	if c.APIBaseURL == "" {
		return ErrStoreAPIConfigMissingBaseURL
	}
	if c.APIKey == "" {
		return ErrStoreAPIConfigMissingAPIKey
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
