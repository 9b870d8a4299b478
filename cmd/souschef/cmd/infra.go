package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/souschef/souschef/internal/config"
	"github.com/souschef/souschef/internal/constants"
	"github.com/souschef/souschef/internal/infra"
	"github.com/souschef/souschef/internal/output"

	"github.com/spf13/cobra"
)

var infraStackName string

var infraCmd = &cobra.Command{
	Use:   "infra",
	Short: "Infrastructure management commands",
	Long:  "Manage the CloudFormation stack that provides the DynamoDB tables and the recipe images bucket",
}

var infraDeployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Create or update the souschef stack",
	Long:  "Create the CloudFormation stack from the embedded template, or update it when it already exists",
	Example: fmt.Sprintf(`  - %s infra deploy
  - %s infra deploy --stack-name souschef-staging`, constants.ProjectName, constants.ProjectName),
	Run: runInfraDeploy,
}

var infraStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stack status and outputs",
	Run:   runInfraStatus,
}

var infraDestroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Delete the stack and all stored data",
	Run:   runInfraDestroy,
}

func init() {
	infraCmd.PersistentFlags().StringVar(&infraStackName, "stack-name", "",
		"CloudFormation stack name (defaults to the configured name)")
	infraCmd.AddCommand(infraDeployCmd)
	infraCmd.AddCommand(infraStatusCmd)
	infraCmd.AddCommand(infraDestroyCmd)
	rootCmd.AddCommand(infraCmd)
}

// newDeployer resolves configuration and the stack name shared by the
// infra subcommands.
func newDeployer(ctx context.Context) (*infra.Deployer, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.AWS.LoadSDKConfig(ctx); err != nil {
		return nil, "", err
	}

	stackName := infraStackName
	if stackName == "" {
		stackName = cfg.AWS.InfraDefaultStackName
	}
	if stackName == "" {
		stackName = constants.ProjectName
	}

	return infra.NewDeployer(*cfg.AWS.SDKConfig, slog.Default()), stackName, nil
}

func runInfraDeploy(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()

	deployer, stackName, err := newDeployer(ctx)
	if err != nil {
		output.Fatal("%v", err)
	}

	output.Info("Deploying stack %s", output.Bold(stackName))
	output.Info("This can take a few minutes on first deploy")

	outputs, err := deployer.Deploy(ctx, stackName)
	if err != nil {
		output.Fatal("Deploy failed: %v", err)
	}

	output.Success("Stack deployed")
	printStackOutputs(outputs)

	if bucket, ok := outputs[infra.ImagesBucketOutputKey]; ok {
		output.Blank()
		output.Info("Set SOUSCHEF_AWS_IMAGES_BUCKET=%s on the server to enable image uploads", bucket)
	}
}

func runInfraStatus(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()

	deployer, stackName, err := newDeployer(ctx)
	if err != nil {
		output.Fatal("%v", err)
	}

	status, err := deployer.GetStatus(ctx, stackName)
	if err != nil {
		output.Fatal("Failed to get stack status: %v", err)
	}
	if status == nil {
		output.Warning("Stack %s does not exist", output.Bold(stackName))
		output.Info("Run %s to create it", output.Bold(constants.ProjectName+" infra deploy"))
		return
	}

	output.KeyValue("Stack", status.StackName)
	output.KeyValue("Status", output.StatusBadge(status.StackStatus))
	if status.Reason != "" {
		output.KeyValue("Reason", status.Reason)
	}
	if !status.LastUpdated.IsZero() {
		output.KeyValue("Last updated (UTC)", status.LastUpdated.UTC().Format(time.DateTime))
	}
	printStackOutputs(status.Outputs)
}

func runInfraDestroy(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()

	deployer, stackName, err := newDeployer(ctx)
	if err != nil {
		output.Fatal("%v", err)
	}

	output.Warning("This deletes stack %s including the DynamoDB tables and every stored image", output.Bold(stackName))
	if !output.Confirm("Destroy the stack") {
		output.Info("Aborted")
		return
	}

	if err := deployer.Destroy(ctx, stackName); err != nil {
		output.Fatal("Destroy failed: %v", err)
	}

	output.Success("Stack %s destroyed", stackName)
}

func printStackOutputs(outputs map[string]string) {
	if len(outputs) == 0 {
		return
	}

	output.Subheader("Stack outputs")
	for _, key := range slices.Sorted(maps.Keys(outputs)) {
		output.KeyValue(key, outputs[key])
	}
}
