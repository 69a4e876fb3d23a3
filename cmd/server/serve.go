package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ridgeline-retail/fedhui/internal/app"
)

// serveCmd starts the HTTP API, the mining worker pool, the liveness
// sweep, and (if FEDERATED_AUTO_ROUNDS=true) the coordinator's round
// ticker — one process with goroutines standing in for what the
// original ran as several cooperating Python processes.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New()
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}
			defer a.Close()

			a.Start()
			a.Log.Info("Server listening", "port", a.Cfg.Port)
			return a.Run(":" + a.Cfg.Port)
		},
	}
}
