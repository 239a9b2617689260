// Package config loads runtime settings from the environment and an optional .env file
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultURLTemplate is the canonical quote page. {host} and {symbol} are expanded per request.
const DefaultURLTemplate = "https://{host}/quote/{symbol}?p={symbol}"

// DefaultUserAgent mimics a desktop Firefox
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:134.0) Gecko/20100101 Firefox/134.0"

// Fetch modes
const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"
)

// Config holds application configuration
type Config struct {
	Port        string
	Region      string
	URLTemplate string
	UserAgent   string

	FetchMode    string
	FetchTimeout time.Duration
	FetchRate    float64 // requests per second, 0 disables limiting

	RedisAddr string // empty selects the in-memory store
	CacheTTL  time.Duration
	CacheSize uint

	LogLevel  string
	LogPretty bool
}

// Load reads .env (if present) and the environment
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		Region:      getEnv("QUOTE_REGION", DefaultRegion),
		URLTemplate: getEnv("QUOTE_URL_TEMPLATE", DefaultURLTemplate),
		UserAgent:   getEnv("USER_AGENT", DefaultUserAgent),
		FetchMode:   getEnv("FETCH_MODE", FetchModeHTTP),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.FetchTimeout, err = getDuration("FETCH_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.FetchRate, err = getFloat("FETCH_RATE", 1); err != nil {
		return nil, err
	}
	if cfg.CacheSize, err = getUint("CACHE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.LogPretty, err = getBool("LOG_PRETTY", false); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have a closed set of values
func (c *Config) Validate() error {
	if _, ok := RegionHosts[c.Region]; !ok {
		return fmt.Errorf("unknown QUOTE_REGION %q", c.Region)
	}
	switch c.FetchMode {
	case FetchModeHTTP, FetchModeBrowser:
	default:
		return fmt.Errorf("unknown FETCH_MODE %q", c.FetchMode)
	}
	if c.FetchRate < 0 {
		return fmt.Errorf("FETCH_RATE must not be negative, got %v", c.FetchRate)
	}
	if c.CacheSize == 0 {
		return fmt.Errorf("CACHE_SIZE must be positive")
	}
	return nil
}

// Host returns the quote host for the configured region
func (c *Config) Host() string {
	return HostForRegion(c.Region)
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
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getUint(key string, fallback uint) (uint, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(v, 10, 0)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return uint(n), nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
