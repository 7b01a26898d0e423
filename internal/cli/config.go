package cli

import (
	"fmt"
	"sort"

	"github.com/railzwaylabs/travel-gateway/internal/config"
	"github.com/railzwaylabs/travel-gateway/pkg/travelclient"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration without secrets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			tc := travelclient.LoadFromEnv()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "service:      %s %s\n", cfg.AppName, cfg.AppVersion)
			fmt.Fprintf(out, "port:         %s\n", cfg.Port)
			fmt.Fprintf(out, "environment:  %s\n", cfg.Environment)
			fmt.Fprintf(out, "admin api:    %t\n", cfg.AdminAPIToken != "")

			creds, err := travelclient.ResolveCredentials(nil)
			if err != nil {
				fmt.Fprintf(out, "travel api:   %v\n", err)
			} else {
				fmt.Fprintf(out, "travel api:   %s %s (client id %s)\n", creds.Environment, creds.BaseURL, maskID(creds.ClientID))
			}
			fmt.Fprintf(out, "timeout:      %s\n", tc.Timeout)
			fmt.Fprintf(out, "retries:      %d (delay %s)\n", tc.RetryCount, tc.RetryDelay)
			fmt.Fprintf(out, "outbound:     %d rpm, burst %d\n", tc.RateLimit, tc.RateBurst)
			fmt.Fprintf(out, "breaker:      %t\n", tc.CircuitBreakerEnabled)
			fmt.Fprintf(out, "diagnostics:  %t\n", tc.Diagnostics)

			scopes := make([]string, 0, len(cfg.RateLimits))
			for scope := range cfg.RateLimits {
				scopes = append(scopes, scope)
			}
			sort.Strings(scopes)
			for _, scope := range scopes {
				rule := cfg.RateLimits[scope]
				fmt.Fprintf(out, "limit %-9s %d per %s\n", scope+":", rule.Limit, rule.Window)
			}
			return nil
		},
	}
}

func maskID(id string) string {
	if len(id) <= 4 {
		return "****"
	}
	return id[:4] + "****"
}
