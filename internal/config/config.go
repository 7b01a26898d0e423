package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Rate limit scopes. Each inbound route belongs to exactly one.
const (
	ScopeSearch    = "search"
	ScopeBooking   = "booking"
	ScopeEmissions = "emissions"
)

// RateLimitRule is a fixed window allowance.
type RateLimitRule struct {
	Limit  int
	Window time.Duration
}

// Config holds application configuration. Upstream credentials and transport
// tuning live in travelclient and are resolved from the same environment.
type Config struct {
	AppName    string
	AppVersion string
	Port       string

	Environment   string
	AdminAPIToken string

	RateLimits              map[string]RateLimitRule
	RateLimitSweepThreshold int

	ShutdownTimeout time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:       getenv("APP_SERVICE", "travel-gateway"),
		AppVersion:    getenv("APP_VERSION", "0.1.0"),
		Port:          getenv("PORT", "8081"),
		Environment:   getenv("ENVIRONMENT", "development"),
		AdminAPIToken: strings.TrimSpace(getenv("ADMIN_API_TOKEN", "")),
		RateLimits: map[string]RateLimitRule{
			ScopeSearch:    loadRule("SEARCH", 60, time.Minute),
			ScopeBooking:   loadRule("BOOKING", 10, time.Minute),
			ScopeEmissions: loadRule("EMISSIONS", 30, time.Minute),
		},
		RateLimitSweepThreshold: getenvInt("RATE_LIMIT_SWEEP_THRESHOLD", 5000),
		ShutdownTimeout:         time.Second * time.Duration(getenvInt("SHUTDOWN_TIMEOUT", 30)),
	}

	return &cfg
}

// Rule returns the rule for scope, falling back to the search allowance.
func (c *Config) Rule(scope string) RateLimitRule {
	if r, ok := c.RateLimits[scope]; ok {
		return r
	}
	return c.RateLimits[ScopeSearch]
}

func loadRule(scope string, defLimit int, defWindow time.Duration) RateLimitRule {
	return RateLimitRule{
		Limit:  getenvInt("RATE_LIMIT_"+scope+"_LIMIT", defLimit),
		Window: time.Millisecond * time.Duration(getenvInt64("RATE_LIMIT_"+scope+"_WINDOW_MS", defWindow.Milliseconds())),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
