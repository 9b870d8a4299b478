package cmd

import (
	"log/slog"

	"github.com/souschef/souschef/internal/api"
	"github.com/souschef/souschef/internal/constants"
	"github.com/souschef/souschef/internal/output"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version of the CLI",
	Run: func(cmd *cobra.Command, _ []string) {
		output.KeyValue("CLI version", *constants.GetVersion())

		cfg, err := getConfigFromContext(cmd)
		if err != nil {
			// Not configured; nothing to ask the backend.
			return
		}

		c := api.NewClient(cfg, slog.Default())
		health, err := c.GetHealth(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return
		}

		output.KeyValue("Backend version", health.Version)
		output.KeyValue("Backend status", output.StatusBadge(health.Status))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
