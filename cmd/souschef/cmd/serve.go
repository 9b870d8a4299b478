package cmd

import (
	"context"
	"os"

	"github.com/souschef/souschef/internal/config"
	"github.com/souschef/souschef/internal/logger"
	"github.com/souschef/souschef/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the souschef API server",
	Long: `Run the HTTP API server until SIGINT or SIGTERM.
Configuration comes from SOUSCHEF_* environment variables; see docker-compose.yml for a local setup.`,
	Run: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg := config.MustLoadServer()
	log := logger.Initialize(cfg.GetEnvironment(), cfg.GetLogLevel())

	// The server runs until signaled; the root command timeout does not apply.
	if err := server.Run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
