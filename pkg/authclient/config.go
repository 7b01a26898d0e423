package authclient

import (
	"time"
)

// DefaultTokenPath is the provider's client-credentials endpoint.
const DefaultTokenPath = "/v1/security/oauth2/token"

// Config controls the OAuth2 client-credentials exchange.
type Config struct {
	BaseURL      string
	TokenPath    string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}
