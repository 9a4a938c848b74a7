// Package config holds the runtime settings shared by every command.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pfrederiksen/comp-scout/internal/match"
)

// Renderer names accepted by Config.Renderer.
const (
	RendererChrome = "chrome"
	RendererStatic = "static"
)

// Config holds all application configuration
type Config struct {
	// Fetching
	PageTimeout time.Duration
	Deadline    time.Duration
	Workers     int
	RateLimit   time.Duration

	// Retry
	RetryAttempts  int
	RetryBaseDelay time.Duration

	// Renderer
	Renderer    string
	Headless    bool
	ChromePath  string
	RenderWait  time.Duration
	ScrollCount int
	ScrollDelay time.Duration

	// Page cache; an empty path disables it
	CacheDB  string
	CacheTTL time.Duration

	SitesFile string
	Threshold float64
	Scorer    string
	LogLevel  string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		PageTimeout:    60 * time.Second,
		Deadline:       10 * time.Minute,
		Workers:        3,
		RateLimit:      1500 * time.Millisecond,
		RetryAttempts:  3,
		RetryBaseDelay: 5 * time.Second,
		Renderer:       RendererChrome,
		Headless:       true,
		RenderWait:     2 * time.Second,
		ScrollCount:    3,
		ScrollDelay:    time.Second,
		CacheTTL:       6 * time.Hour,
		Threshold:      0.80,
		Scorer:         match.ScorerEdit,
		LogLevel:       "warn",
	}
}

// Load reads configuration from COMP_SCOUT_* environment variables on top
// of the defaults. Flags are applied by the caller afterwards.
func Load() *Config {
	d := Default()
	return &Config{
		PageTimeout:    getEnvAsDuration("COMP_SCOUT_TIMEOUT", d.PageTimeout),
		Deadline:       getEnvAsDuration("COMP_SCOUT_DEADLINE", d.Deadline),
		Workers:        getEnvAsInt("COMP_SCOUT_WORKERS", d.Workers),
		RateLimit:      getEnvAsDuration("COMP_SCOUT_RATE_LIMIT", d.RateLimit),
		RetryAttempts:  getEnvAsInt("COMP_SCOUT_RETRY_ATTEMPTS", d.RetryAttempts),
		RetryBaseDelay: getEnvAsDuration("COMP_SCOUT_RETRY_DELAY", d.RetryBaseDelay),
		Renderer:       getEnv("COMP_SCOUT_RENDERER", d.Renderer),
		Headless:       getEnvAsBool("COMP_SCOUT_HEADLESS", d.Headless),
		ChromePath:     getEnv("COMP_SCOUT_CHROME_PATH", d.ChromePath),
		RenderWait:     getEnvAsDuration("COMP_SCOUT_RENDER_WAIT", d.RenderWait),
		ScrollCount:    getEnvAsInt("COMP_SCOUT_SCROLL_COUNT", d.ScrollCount),
		ScrollDelay:    getEnvAsDuration("COMP_SCOUT_SCROLL_DELAY", d.ScrollDelay),
		CacheDB:        getEnv("COMP_SCOUT_CACHE_DB", d.CacheDB),
		CacheTTL:       getEnvAsDuration("COMP_SCOUT_CACHE_TTL", d.CacheTTL),
		SitesFile:      getEnv("COMP_SCOUT_SITES_FILE", d.SitesFile),
		Threshold:      getEnvAsFloat("COMP_SCOUT_THRESHOLD", d.Threshold),
		Scorer:         getEnv("COMP_SCOUT_SCORER", d.Scorer),
		LogLevel:       getEnv("COMP_SCOUT_LOG_LEVEL", d.LogLevel),
	}
}

// Validate checks the settings that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.PageTimeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.PageTimeout)
	}
	if c.Deadline <= 0 {
		return fmt.Errorf("deadline must be positive, got %s", c.Deadline)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1, got %d", c.RetryAttempts)
	}
	if c.RateLimit < 0 || c.RetryBaseDelay < 0 || c.RenderWait < 0 || c.ScrollDelay < 0 || c.ScrollCount < 0 {
		return fmt.Errorf("delays and scroll count cannot be negative")
	}
	switch c.Renderer {
	case RendererChrome, RendererStatic:
	default:
		return fmt.Errorf("unknown renderer %q (want %s or %s)", c.Renderer, RendererChrome, RendererStatic)
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be in (0, 1], got %v", c.Threshold)
	}
	if _, err := match.ScorerByName(c.Scorer); err != nil {
		return err
	}
	if c.CacheDB != "" && c.CacheTTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", c.CacheTTL)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if secs, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}
