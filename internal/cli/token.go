package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/railzwaylabs/travel-gateway/pkg/travelclient"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Fetch one access token to verify the configured credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			creds, err := travelclient.ResolveCredentials(nil)
			if err != nil {
				return err
			}
			cfg := travelclient.LoadFromEnv()

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
			defer cancel()

			tok, err := travelclient.NewAuthClient(creds, cfg).ClientCredentialsToken(ctx)
			if err != nil {
				return fmt.Errorf("token request failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "environment: %s\n", creds.Environment)
			fmt.Fprintf(out, "base url:    %s\n", creds.BaseURL)
			fmt.Fprintf(out, "expires in:  %s (at %s)\n", tok.ExpiresIn, time.Now().Add(tok.ExpiresIn).UTC().Format(time.RFC3339))
			if show {
				fmt.Fprintf(out, "token:       %s\n", tok.AccessToken)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "Print the access token itself")

	return cmd
}
