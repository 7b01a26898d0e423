package travelclient

import (
	"os"
	"strconv"
	"time"
)

// Config tunes the transport side of the client. Credentials are resolved
// separately so that a misconfigured secret fails fast at startup.
type Config struct {
	Timeout time.Duration

	RetryCount int
	RetryDelay time.Duration

	RateLimit int
	RateBurst int

	Diagnostics bool

	CircuitBreakerEnabled bool
	CBFailureThreshold    int
	CBRecoveryTime        time.Duration
	CBMinRequests         int
	CBSamplingDuration    time.Duration
	CBHalfOpenMaxSuccess  int
}

func LoadFromEnv() Config {
	return Config{
		Timeout: time.Second * time.Duration(getInt("TRAVEL_API_TIMEOUT", 20)),

		RetryCount: getInt("TRAVEL_API_RETRY_COUNT", 0),
		RetryDelay: time.Millisecond * time.Duration(getInt("TRAVEL_API_RETRY_DELAY_MS", 250)),

		RateLimit: getInt("TRAVEL_API_RATE_LIMIT", 600),
		RateBurst: getInt("TRAVEL_API_RATE_BURST", 10),

		Diagnostics: getBool("TRAVEL_API_DIAGNOSTICS", false),

		CircuitBreakerEnabled: getBool("TRAVEL_API_ENABLE_CIRCUIT_BREAKER", true),
		CBFailureThreshold:    getInt("TRAVEL_API_CIRCUIT_BREAKER_FAILURE_THRESHOLD", 5),
		CBRecoveryTime:        time.Second * time.Duration(getInt("TRAVEL_API_CIRCUIT_BREAKER_RECOVERY_TIME", 30)),
		CBMinRequests:         getInt("TRAVEL_API_CIRCUIT_BREAKER_MIN_REQUESTS", 10),
		CBSamplingDuration:    time.Second * time.Duration(getInt("TRAVEL_API_CIRCUIT_BREAKER_SAMPLING_DURATION", 60)),
		CBHalfOpenMaxSuccess:  getInt("TRAVEL_API_CIRCUIT_BREAKER_HALF_OPEN_MAX_SUCCESS", 3),
	}
}

func getInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		return v == "true"
	}
	return def
}
