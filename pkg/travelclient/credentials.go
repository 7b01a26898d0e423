package travelclient

import (
	"os"
	"regexp"
	"strings"
)

// Environment selects which provider deployment the credentials target.
type Environment string

const (
	EnvTest Environment = "test"
	EnvProd Environment = "prod"
)

const (
	DefaultTestBaseURL = "https://test.api.amadeus.com"
	DefaultProdBaseURL = "https://api.amadeus.com"
)

// Credentials is resolved once per process and never mutated afterwards.
type Credentials struct {
	Environment  Environment
	BaseURL      string
	ClientID     string
	ClientSecret string
}

var versionSuffix = regexp.MustCompile(`/v\d+$`)

// ParseEnvironment maps the configured flag onto test or prod. Anything that
// is not an explicit production alias resolves to the sandbox.
func ParseEnvironment(raw string) Environment {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "prod", "production", "live":
		return EnvProd
	default:
		return EnvTest
	}
}

// ResolveCredentials reads credentials through lookup (os.Getenv when nil).
// Environment specific variables win over the generic ones.
func ResolveCredentials(lookup func(string) string) (Credentials, error) {
	if lookup == nil {
		lookup = os.Getenv
	}

	env := ParseEnvironment(lookup("TRAVEL_API_ENV"))
	prefix := "TRAVEL_API_TEST_"
	defaultBase := DefaultTestBaseURL
	if env == EnvProd {
		prefix = "TRAVEL_API_PROD_"
		defaultBase = DefaultProdBaseURL
	}

	pick := func(suffix string) string {
		if v := strings.TrimSpace(lookup(prefix + suffix)); v != "" {
			return v
		}
		return strings.TrimSpace(lookup("TRAVEL_API_" + suffix))
	}

	creds := Credentials{
		Environment:  env,
		BaseURL:      NormalizeBaseURL(pick("BASE_URL")),
		ClientID:     pick("CLIENT_ID"),
		ClientSecret: pick("CLIENT_SECRET"),
	}
	if creds.BaseURL == "" {
		creds.BaseURL = defaultBase
	}

	var missing []string
	if creds.ClientID == "" {
		missing = append(missing, prefix+"CLIENT_ID")
	}
	if creds.ClientSecret == "" {
		missing = append(missing, prefix+"CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return creds, &ConfigurationError{Environment: env, Missing: missing}
	}
	return creds, nil
}

// NormalizeBaseURL trims trailing slashes and a trailing version segment so
// that request paths carry their own version prefix.
func NormalizeBaseURL(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	base = versionSuffix.ReplaceAllString(base, "")
	return strings.TrimRight(base, "/")
}
