package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/promptly/client/internal/remote"
	"gopkg.in/yaml.v3"
)

const configPathEnv = "PROMPTLY_CONFIG"

// Config holds all configuration for the client service
type Config struct {
	// Server
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`

	// Generation service
	AIServiceURL     string            `yaml:"ai_service_url"`
	AIServiceTimeout time.Duration     `yaml:"ai_service_timeout"`
	AIServiceHeaders map[string]string `yaml:"ai_service_headers"`

	// Infrastructure; empty values disable the component
	DatabaseURL  string `yaml:"database_url"`
	RedisURL     string `yaml:"redis_url"`
	NATSURL      string `yaml:"nats_url"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// Security
	JWTSecret string `yaml:"jwt_secret"`

	// Submit throttle per client and minute
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		Port:               "8080",
		Environment:        "development",
		LogLevel:           "info",
		AIServiceURL:       remote.DefaultBaseURL,
		AIServiceTimeout:   remote.DefaultTimeout,
		RateLimitPerMinute: 20,
	}
}

// Load reads the optional YAML file named by PROMPTLY_CONFIG, then applies
// environment variables on top.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile is Load with an explicit file path; an empty path skips the file
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.Environment = getEnv("GO_ENV", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.AIServiceURL = getEnv("AI_SERVICE_URL", c.AIServiceURL)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.NATSURL = getEnv("NATS_URL", c.NATSURL)
	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)

	if v := os.Getenv("AI_SERVICE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("AI_SERVICE_TIMEOUT: %w", err)
		}
		c.AIServiceTimeout = d
	}
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_PER_MINUTE: %w", err)
		}
		c.RateLimitPerMinute = n
	}
	return nil
}

// Remote builds the immutable transport configuration for the remote client
func (c *Config) Remote() remote.Config {
	cfg := remote.DefaultConfig()
	cfg.BaseURL = c.AIServiceURL
	if c.AIServiceTimeout > 0 {
		cfg.Timeout = c.AIServiceTimeout
	}
	cfg.Headers = c.AIServiceHeaders
	return cfg
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
