package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/souschef/souschef/internal/config"
	"github.com/souschef/souschef/internal/constants"
	"github.com/souschef/souschef/internal/output"
	"github.com/souschef/souschef/internal/server"

	"github.com/spf13/cobra"
)

var (
	waitdbInterval time.Duration
	waitdbTimeout  time.Duration
)

var waitdbCmd = &cobra.Command{
	Use:   "waitdb",
	Short: "Wait until the database responds",
	Long: `Poll the configured DynamoDB endpoint until it responds or the deadline passes.
Used for container startup ordering: the server starts only after waitdb exits zero.`,
	Example: fmt.Sprintf(`  - %s waitdb
  - %s waitdb --interval 2s --wait-timeout 2m`, constants.ProjectName, constants.ProjectName),
	Run: runWaitDB,
}

func init() {
	waitdbCmd.Flags().DurationVar(&waitdbInterval, "interval", constants.DatabaseWaitInterval, "Polling interval")
	waitdbCmd.Flags().DurationVar(&waitdbTimeout, "wait-timeout", constants.DatabaseWaitTimeout, "Give up after this long")
	rootCmd.AddCommand(waitdbCmd)
}

func runWaitDB(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		output.Fatal("Failed to load configuration: %v", err)
	}
	if err := cfg.AWS.LoadSDKConfig(ctx); err != nil {
		output.Fatal("Failed to load AWS configuration: %v", err)
	}

	manager := server.NewHealthManager(cfg, slog.Default())

	spinner := output.NewSpinner(fmt.Sprintf("Waiting for database (timeout %s)", waitdbTimeout))
	spinner.Start()
	if err := manager.WaitForDatabase(ctx, waitdbInterval, waitdbTimeout); err != nil {
		spinner.Error(fmt.Sprintf("Database is not ready: %v", err))
		os.Exit(1)
	}
	spinner.Success("Database is ready")
}
