package remote

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is where the generation service listens in local setups
	DefaultBaseURL = "http://localhost:8000"
	// DefaultTimeout bounds every call; model generation can be slow
	DefaultTimeout = 60 * time.Second
	// DefaultContentType is sent with every request body
	DefaultContentType = "application/json"
)

// Config is the immutable transport configuration of a Client
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	ContentType string
	UserAgent   string
	Headers     map[string]string
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		Timeout:     DefaultTimeout,
		ContentType: DefaultContentType,
		UserAgent:   "promptly-client/1.0",
	}
}

// Validate checks that the configuration can build a client
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("base URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL scheme must be http or https, got %q", u.Scheme)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

// endpoint joins the base URL and path without doubling slashes
func (c Config) endpoint(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}

// copyHeaders detaches the header map from the caller
func copyHeaders(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
