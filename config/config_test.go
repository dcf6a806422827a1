package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

var lookboardEnv = []string{
	"LOOKBOARD_SERVER_PORT",
	"LOOKBOARD_SERVER_ENVIRONMENT",
	"LOOKBOARD_SERVER_ALLOWED_ORIGINS",
	"LOOKBOARD_SERVER_SHUTDOWN_TIMEOUT",
	"LOOKBOARD_SCRAPER_TIMEOUT",
	"LOOKBOARD_AI_API_KEY",
	"LOOKBOARD_AI_BASE_URL",
	"LOOKBOARD_AI_MODEL",
	"LOOKBOARD_CACHE_TYPE",
	"LOOKBOARD_CACHE_TTL",
	"LOOKBOARD_RETAILERS_MAX_RESULTS",
	"LOOKBOARD_RETAILERS_DEFAULT_REGION",
	"LOOKBOARD_SIMILAR_DEFAULT_LIMIT",
	"LOOKBOARD_SIMILAR_MAX_LIMIT",
	"LOOKBOARD_RATELIMIT_PER_IP",
	"LOOKBOARD_LOG_LEVEL",
}

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		for _, key := range lookboardEnv {
			os.Unsetenv(key)
		}
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "chrome-extension://*" {
			t.Errorf("Server.AllowedOrigins = %v, want [chrome-extension://*]", cfg.Server.AllowedOrigins)
		}
		if cfg.Server.ShutdownTimeout != 10*time.Second {
			t.Errorf("Server.ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
		}
		if cfg.Scraper.Timeout != 10*time.Second {
			t.Errorf("Scraper.Timeout = %v, want 10s", cfg.Scraper.Timeout)
		}
		if cfg.Scraper.MaxBodyBytes != 5<<20 {
			t.Errorf("Scraper.MaxBodyBytes = %d, want %d", cfg.Scraper.MaxBodyBytes, 5<<20)
		}
		if !strings.Contains(cfg.Scraper.UserAgent, "Chrome") {
			t.Errorf("Scraper.UserAgent = %s, want a desktop Chrome UA", cfg.Scraper.UserAgent)
		}
		if cfg.AI.BaseURL != "https://api.openai.com/v1" {
			t.Errorf("AI.BaseURL = %s, want https://api.openai.com/v1", cfg.AI.BaseURL)
		}
		if cfg.AI.Model != "gpt-4o-mini" {
			t.Errorf("AI.Model = %s, want gpt-4o-mini", cfg.AI.Model)
		}
		if cfg.AIConfigured() {
			t.Error("AIConfigured() = true, want false without an API key")
		}
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != 6*time.Hour {
			t.Errorf("Cache.TTL = %v, want 6h", cfg.Cache.TTL)
		}
		if cfg.Retailers.MaxResults != 8 || cfg.Retailers.EnrichMaxResults != 6 {
			t.Errorf("Retailers = %+v, want max 8 and enrich 6", cfg.Retailers)
		}
		if cfg.Retailers.DefaultRegion != "USA" {
			t.Errorf("Retailers.DefaultRegion = %s, want USA", cfg.Retailers.DefaultRegion)
		}
		if cfg.Similar.DefaultLimit != 6 || cfg.Similar.MaxLimit != 12 {
			t.Errorf("Similar = %+v, want default 6 and max 12", cfg.Similar)
		}
		if cfg.RateLimit.PerIP != 100 {
			t.Errorf("RateLimit.PerIP = %d, want 100", cfg.RateLimit.PerIP)
		}
		if cfg.Log.Level != "info" {
			t.Errorf("Log.Level = %s, want info", cfg.Log.Level)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("LOOKBOARD_SERVER_PORT", "9090")
		os.Setenv("LOOKBOARD_SERVER_ENVIRONMENT", "production")
		os.Setenv("LOOKBOARD_AI_API_KEY", "sk-test")
		os.Setenv("LOOKBOARD_AI_MODEL", "gpt-4o")
		os.Setenv("LOOKBOARD_CACHE_TYPE", "none")
		os.Setenv("LOOKBOARD_CACHE_TTL", "24h")
		os.Setenv("LOOKBOARD_RETAILERS_MAX_RESULTS", "5")
		os.Setenv("LOOKBOARD_RETAILERS_DEFAULT_REGION", "UK")
		os.Setenv("LOOKBOARD_RATELIMIT_PER_IP", "200")
		os.Setenv("LOOKBOARD_LOG_LEVEL", "debug")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.AI.APIKey != "sk-test" || !cfg.AIConfigured() {
			t.Errorf("AI.APIKey = %s, want sk-test and configured", cfg.AI.APIKey)
		}
		if cfg.AI.Model != "gpt-4o" {
			t.Errorf("AI.Model = %s, want gpt-4o", cfg.AI.Model)
		}
		if cfg.Cache.Type != "none" {
			t.Errorf("Cache.Type = %s, want none", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.Retailers.MaxResults != 5 {
			t.Errorf("Retailers.MaxResults = %d, want 5", cfg.Retailers.MaxResults)
		}
		if cfg.Retailers.DefaultRegion != "UK" {
			t.Errorf("Retailers.DefaultRegion = %s, want UK", cfg.Retailers.DefaultRegion)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("LOOKBOARD_CACHE_TYPE", "redis")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want error for invalid cache type")
		}
		if !strings.HasPrefix(err.Error(), "invalid configuration: cache type") {
			t.Errorf("Load() error = %v, want cache type error", err)
		}
	})

	t.Run("fails validation for retailer cap above 8", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("LOOKBOARD_RETAILERS_MAX_RESULTS", "9")
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for max_results 9")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		os.Chdir(t.TempDir())

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables and skips comments", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		os.Chdir(t.TempDir())

		envContent := `
# Comment line
LOOKBOARD_TEST_VAR_1=value1

LOOKBOARD_TEST_VAR_2=value2
# LOOKBOARD_TEST_COMMENTED=should_not_load
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		defer func() {
			os.Unsetenv("LOOKBOARD_TEST_VAR_1")
			os.Unsetenv("LOOKBOARD_TEST_VAR_2")
		}()

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("LOOKBOARD_TEST_VAR_1") != "value1" {
			t.Errorf("LOOKBOARD_TEST_VAR_1 = %s, want value1", os.Getenv("LOOKBOARD_TEST_VAR_1"))
		}
		if os.Getenv("LOOKBOARD_TEST_VAR_2") != "value2" {
			t.Errorf("LOOKBOARD_TEST_VAR_2 = %s, want value2", os.Getenv("LOOKBOARD_TEST_VAR_2"))
		}
		if os.Getenv("LOOKBOARD_TEST_COMMENTED") != "" {
			t.Errorf("LOOKBOARD_TEST_COMMENTED should not be loaded from comment")
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		os.Chdir(t.TempDir())

		os.Setenv("LOOKBOARD_TEST_OVERRIDE", "existing-value")
		defer os.Unsetenv("LOOKBOARD_TEST_OVERRIDE")

		if err := os.WriteFile(".env", []byte("LOOKBOARD_TEST_OVERRIDE=new-value"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("LOOKBOARD_TEST_OVERRIDE") != "existing-value" {
			t.Errorf("LOOKBOARD_TEST_OVERRIDE = %s, want existing-value", os.Getenv("LOOKBOARD_TEST_OVERRIDE"))
		}
	})
}

func validConfig() *Config {
	return &Config{
		Server:    ServerConfig{Port: "8080", ShutdownTimeout: 10 * time.Second},
		Scraper:   ScraperConfig{Timeout: 10 * time.Second},
		AI:        AIConfig{Timeout: 30 * time.Second},
		Cache:     CacheConfig{Type: "memory", TTL: 6 * time.Hour},
		Retailers: RetailersConfig{MaxResults: 8, EnrichMaxResults: 6, DefaultRegion: "USA"},
		Similar:   SimilarConfig{DefaultLimit: 6, MaxLimit: 12},
		RateLimit: RateLimitConfig{PerIP: 100},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid defaults", mutate: func(*Config) {}},
		{name: "missing AI key is valid", mutate: func(c *Config) { c.AI.APIKey = "" }},
		{name: "cache disabled", mutate: func(c *Config) { c.Cache.Type = "none" }},
		{name: "invalid cache type", mutate: func(c *Config) { c.Cache.Type = "redis" }, wantErr: true},
		{name: "zero scraper timeout", mutate: func(c *Config) { c.Scraper.Timeout = 0 }, wantErr: true},
		{name: "negative AI timeout", mutate: func(c *Config) { c.AI.Timeout = -time.Second }, wantErr: true},
		{name: "zero shutdown timeout", mutate: func(c *Config) { c.Server.ShutdownTimeout = 0 }, wantErr: true},
		{name: "retailer cap zero", mutate: func(c *Config) { c.Retailers.MaxResults = 0 }, wantErr: true},
		{name: "enrich cap above 8", mutate: func(c *Config) { c.Retailers.EnrichMaxResults = 9 }, wantErr: true},
		{name: "similar default above max", mutate: func(c *Config) { c.Similar.DefaultLimit = 13 }, wantErr: true},
		{name: "similar default equals max", mutate: func(c *Config) { c.Similar.DefaultLimit = 12 }},
		{name: "zero per-ip rate", mutate: func(c *Config) { c.RateLimit.PerIP = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
