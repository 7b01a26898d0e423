package cli

import (
	"github.com/railzwaylabs/travel-gateway/internal/app"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.RunServer()
			return nil
		},
	}

	return cmd
}
