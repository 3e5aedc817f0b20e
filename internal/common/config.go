// Package common provides shared utilities for StockPulse
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for StockPulse
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Clients     ClientsConfig `toml:"clients"`
	Limits      LimitsConfig  `toml:"limits"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Yahoo       ProviderConfig    `toml:"yahoo"`
	Stooq       ProviderConfig    `toml:"stooq"`
	Gemini      GeminiConfig      `toml:"gemini"`
	HuggingFace HuggingFaceConfig `toml:"huggingface"`
}

// ProviderConfig holds market-data provider configuration
type ProviderConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"` // requests per second for client pacing
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *ProviderConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// HuggingFaceConfig holds HuggingFace inference API configuration
type HuggingFaceConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *HuggingFaceConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// LimitsConfig holds caching and rate-limiting policy for the stock gateway.
type LimitsConfig struct {
	CacheTTL   string `toml:"cache_ttl"`   // how long cached responses stay valid
	RateWindow string `toml:"rate_window"` // sliding window size
	RateMax    int    `toml:"rate_max"`    // max external calls per key per window
}

// GetCacheTTL parses and returns the cache TTL duration
func (c *LimitsConfig) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 300 * time.Second
	}
	return d
}

// GetRateWindow parses and returns the rate-limit window duration
func (c *LimitsConfig) GetRateWindow() time.Duration {
	d, err := time.ParseDuration(c.RateWindow)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		Clients: ClientsConfig{
			Yahoo: ProviderConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 5,
				Timeout:   "10s",
			},
			Stooq: ProviderConfig{
				BaseURL:   "https://stooq.com",
				RateLimit: 5,
				Timeout:   "10s",
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
			HuggingFace: HuggingFaceConfig{
				BaseURL: "https://api-inference.huggingface.co",
				Model:   "facebook/bart-large-mnli",
				Timeout: "10s",
			},
		},
		Limits: LimitsConfig{
			CacheTTL:   "300s",
			RateWindow: "60s",
			RateMax:    5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STOCKPULSE_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("STOCKPULSE_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("STOCKPULSE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if key := ResolveAPIKey("gemini", config.Clients.Gemini.APIKey); key != "" {
		config.Clients.Gemini.APIKey = key
	}
	if key := ResolveAPIKey("huggingface", config.Clients.HuggingFace.APIKey); key != "" {
		config.Clients.HuggingFace.APIKey = key
	}
}

// ResolveAPIKey resolves an API key from the environment, falling back to the
// configured value. The conventional variable names (GEMINI_API_KEY,
// HUGGINGFACE_API_KEY) take priority over the STOCKPULSE_-prefixed ones.
func ResolveAPIKey(name string, fallback string) string {
	keyToEnvMapping := map[string][]string{
		"gemini":      {"GEMINI_API_KEY", "STOCKPULSE_GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"huggingface": {"HUGGINGFACE_API_KEY", "STOCKPULSE_HUGGINGFACE_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue
			}
		}
	}

	return fallback
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
