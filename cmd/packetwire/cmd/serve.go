/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the packetwire REST API server.

Encode, decode, verify and the packet archive are served under /api/v1 and
Prometheus metrics under /metrics. Requests must carry X-API-Key when an API
key is configured.

Examples:
  packetwire serve
  packetwire serve --port 9000 --api-key mysecretkey`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := container.Config()
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind") {
			cfg.Server.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("api-key") {
			cfg.Server.APIKey, _ = cmd.Flags().GetString("api-key")
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.Archive.DataDir, _ = cmd.Flags().GetString("data-dir")
		}

		if err := os.MkdirAll(cfg.Archive.DataDir, 0750); err != nil {
			return err
		}
		server, err := container.Server()
		if err != nil {
			return err
		}

		logger := container.Logger()
		if cfg.Server.APIKey == "" {
			logger.Warn().Msg("no API key configured, authentication is disabled")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
	serveCmd.Flags().String("api-key", "", "API key for authentication")
	serveCmd.Flags().StringP("data-dir", "d", "./data", "Archive data directory")
}
