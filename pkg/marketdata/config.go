package marketdata

import "time"

// DefaultBaseURL is the historical API endpoint.
const DefaultBaseURL = "https://hist.databento.com"

// DefaultTimeout bounds a single API call.
const DefaultTimeout = 5 * time.Minute

// Config configures an HTTPClient.
type Config struct {
	// APIKey authenticates requests (required).
	APIKey string

	// BaseURL overrides the API endpoint. Leave empty for the default.
	BaseURL string

	// Timeout bounds each call. Zero uses DefaultTimeout.
	Timeout time.Duration
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return &ConfigError{Field: "APIKey", Message: "api key is required"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "marketdata config: " + e.Field + ": " + e.Message
}
