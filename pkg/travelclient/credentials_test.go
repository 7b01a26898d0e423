package travelclient

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func TestResolveCredentials(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    Credentials
		missing []string
	}{
		{
			name: "generic vars default to test",
			env: map[string]string{
				"TRAVEL_API_CLIENT_ID":     "id",
				"TRAVEL_API_CLIENT_SECRET": "secret",
			},
			want: Credentials{Environment: EnvTest, BaseURL: DefaultTestBaseURL, ClientID: "id", ClientSecret: "secret"},
		},
		{
			name: "environment specific vars win",
			env: map[string]string{
				"TRAVEL_API_ENV":                "production",
				"TRAVEL_API_CLIENT_ID":          "generic-id",
				"TRAVEL_API_CLIENT_SECRET":      "generic-secret",
				"TRAVEL_API_PROD_CLIENT_ID":     "prod-id",
				"TRAVEL_API_PROD_CLIENT_SECRET": "prod-secret",
			},
			want: Credentials{Environment: EnvProd, BaseURL: DefaultProdBaseURL, ClientID: "prod-id", ClientSecret: "prod-secret"},
		},
		{
			name: "other environment vars are ignored",
			env: map[string]string{
				"TRAVEL_API_ENV":                "test",
				"TRAVEL_API_PROD_CLIENT_ID":     "prod-id",
				"TRAVEL_API_PROD_CLIENT_SECRET": "prod-secret",
			},
			want:    Credentials{Environment: EnvTest, BaseURL: DefaultTestBaseURL},
			missing: []string{"TRAVEL_API_TEST_CLIENT_ID", "TRAVEL_API_TEST_CLIENT_SECRET"},
		},
		{
			name: "base url version suffix is stripped",
			env: map[string]string{
				"TRAVEL_API_TEST_BASE_URL":      "https://sandbox.example.com/v2/",
				"TRAVEL_API_TEST_CLIENT_ID":     "id",
				"TRAVEL_API_TEST_CLIENT_SECRET": "secret",
			},
			want: Credentials{Environment: EnvTest, BaseURL: "https://sandbox.example.com", ClientID: "id", ClientSecret: "secret"},
		},
		{
			name: "missing secret",
			env: map[string]string{
				"TRAVEL_API_ENV":       "live",
				"TRAVEL_API_CLIENT_ID": "id",
			},
			want:    Credentials{Environment: EnvProd, BaseURL: DefaultProdBaseURL, ClientID: "id"},
			missing: []string{"TRAVEL_API_PROD_CLIENT_SECRET"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveCredentials(lookupFrom(tt.env))
			assert.Equal(t, tt.want, got)

			if tt.missing == nil {
				require.NoError(t, err)
				return
			}
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.missing, cfgErr.Missing)
			assert.Equal(t, tt.want.Environment, cfgErr.Environment)
		})
	}
}

func TestResolveCredentials_Idempotent(t *testing.T) {
	lookup := lookupFrom(map[string]string{
		"TRAVEL_API_CLIENT_ID":     "id",
		"TRAVEL_API_CLIENT_SECRET": "secret",
	})

	first, err := ResolveCredentials(lookup)
	require.NoError(t, err)
	second, err := ResolveCredentials(lookup)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParseEnvironment(t *testing.T) {
	assert.Equal(t, EnvProd, ParseEnvironment("PROD"))
	assert.Equal(t, EnvProd, ParseEnvironment(" production "))
	assert.Equal(t, EnvProd, ParseEnvironment("live"))
	assert.Equal(t, EnvTest, ParseEnvironment("sandbox"))
	assert.Equal(t, EnvTest, ParseEnvironment(""))
	assert.Equal(t, EnvTest, ParseEnvironment("staging"))
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "https://api.example.com", NormalizeBaseURL("https://api.example.com/"))
	assert.Equal(t, "https://api.example.com", NormalizeBaseURL("https://api.example.com/v1"))
	assert.Equal(t, "https://api.example.com", NormalizeBaseURL("https://api.example.com/v3//"))
	assert.Equal(t, "https://api.example.com/travel", NormalizeBaseURL("https://api.example.com/travel/v12"))
	assert.Equal(t, "https://api.example.com/v1beta", NormalizeBaseURL("https://api.example.com/v1beta"))
	assert.Equal(t, "", NormalizeBaseURL("  "))
}
