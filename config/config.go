package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Scraper   ScraperConfig
	AI        AIConfig
	Cache     CacheConfig
	Retailers RetailersConfig
	Similar   SimilarConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ScraperConfig holds product page fetching configuration
type ScraperConfig struct {
	UserAgent       string        `mapstructure:"user_agent"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	TextSampleChars int           `mapstructure:"text_sample_chars"`
}

// AIConfig holds AI backend configuration. An empty APIKey leaves the backend unconfigured.
type AIConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // "memory" or "none"
	TTL  time.Duration `mapstructure:"ttl"`
}

// RetailersConfig holds retailer search limits
type RetailersConfig struct {
	MaxResults       int    `mapstructure:"max_results"`
	EnrichMaxResults int    `mapstructure:"enrich_max_results"`
	DefaultRegion    string `mapstructure:"default_region"`
}

// SimilarConfig holds similar product suggestion limits
type SimilarConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// AIConfigured reports whether an AI backend should be constructed
func (c *Config) AIConfigured() bool {
	return strings.TrimSpace(c.AI.APIKey) != ""
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/lookboard/")

	// Environment variable settings: LOOKBOARD_AI_API_KEY -> ai.api_key
	v.SetEnvPrefix("LOOKBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a local .env file into the process environment.
// A missing file is not an error and variables that are already set win.
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})
	v.SetDefault("server.shutdown_timeout", "10s")

	// Scraper defaults
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	v.SetDefault("scraper.timeout", "10s")
	v.SetDefault("scraper.max_body_bytes", 5<<20)
	v.SetDefault("scraper.text_sample_chars", 3000)

	// AI defaults; the key has an empty default so the env var binds
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("ai.requests_per_minute", 60)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "6h")

	// Retailer search defaults
	v.SetDefault("retailers.max_results", 8)
	v.SetDefault("retailers.enrich_max_results", 6)
	v.SetDefault("retailers.default_region", "USA")

	// Similar product defaults
	v.SetDefault("similar.default_limit", 6)
	v.SetDefault("similar.max_limit", 12)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	v.SetDefault("log.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "none" {
		return fmt.Errorf("cache type must be 'memory' or 'none', got: %s", config.Cache.Type)
	}

	if config.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive, got: %s", config.Server.ShutdownTimeout)
	}
	if config.Scraper.Timeout <= 0 {
		return fmt.Errorf("scraper timeout must be positive, got: %s", config.Scraper.Timeout)
	}
	if config.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive, got: %s", config.AI.Timeout)
	}

	if config.Retailers.MaxResults < 1 || config.Retailers.MaxResults > 8 {
		return fmt.Errorf("retailers max_results must be between 1 and 8, got: %d", config.Retailers.MaxResults)
	}
	if config.Retailers.EnrichMaxResults < 1 || config.Retailers.EnrichMaxResults > 8 {
		return fmt.Errorf("retailers enrich_max_results must be between 1 and 8, got: %d", config.Retailers.EnrichMaxResults)
	}

	if config.Similar.DefaultLimit < 1 || config.Similar.DefaultLimit > config.Similar.MaxLimit {
		return fmt.Errorf("similar default_limit must be between 1 and max_limit (%d), got: %d",
			config.Similar.MaxLimit, config.Similar.DefaultLimit)
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("rate limit per_ip must be positive, got: %d", config.RateLimit.PerIP)
	}

	return nil
}
