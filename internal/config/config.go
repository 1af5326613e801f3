// Package config loads the tracker configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration. APIKey is the only value that can
// block a fetch cycle; everything else has a default.
type Config struct {
	ServerAddr string
	LogLevel   string

	// APIKey authenticates against the hosted blockchain-data provider.
	APIKey string
	// Networks is the raw comma-separated chain list; empty means the
	// default set of five chains.
	Networks string

	// AlchemyBaseURL overrides the per-chain provider endpoints (used in
	// tests); empty means the provider's public hosts.
	AlchemyBaseURL string
	// PriceAPIBaseURL overrides the provider's token-price host.
	PriceAPIBaseURL string
	// PriceFeedBaseURL is the currency-price endpoint host.
	PriceFeedBaseURL string

	RequestTimeout time.Duration
	RateLimit      float64
	RateBurst      int

	MaxTokensPerChain int
	TopPricedPerChain int
	MetadataBatchSize int

	BalanceTTL  time.Duration
	MetadataTTL time.Duration
	PriceTTL    time.Duration

	// TokenOverridesFile optionally points to a YAML file pinning contract
	// addresses for specific assets.
	TokenOverridesFile string
}

// Load reads configuration from the environment. A missing API key is not an
// error here: it surfaces as a configuration error on the first fetch cycle
// so the server can still start and report it.
func Load() (*Config, error) {
	// Ignore a missing .env file; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddr:         getEnv("SERVER_ADDR", ":8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		APIKey:             os.Getenv("ALCHEMY_API_KEY"),
		Networks:           os.Getenv("TRACKER_NETWORKS"),
		AlchemyBaseURL:     os.Getenv("ALCHEMY_BASE_URL"),
		PriceAPIBaseURL:    getEnv("PRICE_API_BASE_URL", "https://api.g.alchemy.com"),
		PriceFeedBaseURL:   getEnv("PRICE_FEED_BASE_URL", "https://api.coingecko.com"),
		TokenOverridesFile: os.Getenv("TOKEN_OVERRIDES_FILE"),
	}

	var err error
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.BalanceTTL, err = getDuration("BALANCE_CACHE_TTL", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.MetadataTTL, err = getDuration("METADATA_CACHE_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.PriceTTL, err = getDuration("PRICE_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = getFloat("UPSTREAM_RATE_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.RateBurst, err = getInt("UPSTREAM_RATE_BURST", 10); err != nil {
		return nil, err
	}
	if cfg.MaxTokensPerChain, err = getInt("MAX_TOKENS_PER_CHAIN", 100); err != nil {
		return nil, err
	}
	if cfg.TopPricedPerChain, err = getInt("TOP_PRICED_PER_CHAIN", 20); err != nil {
		return nil, err
	}
	if cfg.MetadataBatchSize, err = getInt("METADATA_BATCH_SIZE", 10); err != nil {
		return nil, err
	}

	return cfg, nil
}

// HasAPIKey reports whether the provider key is configured. Fetch cycles
// refuse to run without it.
func (c *Config) HasAPIKey() bool {
	return c.APIKey != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number for %s: %w", key, err)
	}
	return f, nil
}
