package cmd

import (
	"fmt"
	"log/slog"

	"github.com/souschef/souschef/internal/app"
	"github.com/souschef/souschef/internal/config"
	awscfg "github.com/souschef/souschef/internal/config/aws"
	"github.com/souschef/souschef/internal/constants"
	dynamoRepo "github.com/souschef/souschef/internal/database/dynamodb"
	"github.com/souschef/souschef/internal/output"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"
)

var (
	initAdminEmail string
	initAdminName  string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create database tables and seed the initial admin user",
	Long: `Create the souschef DynamoDB tables and seed the initial admin user.
Safe to run repeatedly: existing tables and an existing admin are left untouched.
Intended for local development against dynamodb-local; on AWS the tables come
from 'infra deploy' instead.`,
	Example: fmt.Sprintf(`  - %s init --admin-email admin@example.com
  - %s init --admin-email admin@example.com --admin-name "Head Chef"`,
		constants.ProjectName, constants.ProjectName),
	Run: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initAdminEmail, "admin-email", "", "Email for the initial admin user")
	initCmd.Flags().StringVar(&initAdminName, "admin-name", "Admin", "Display name for the initial admin user")
	_ = initCmd.MarkFlagRequired("admin-email")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		output.Fatal("Failed to load configuration: %v", err)
	}
	if err := awscfg.ValidateServer(cfg.AWS); err != nil {
		output.Fatal("Incomplete AWS configuration: %v", err)
	}
	if err := cfg.AWS.LoadSDKConfig(ctx); err != nil {
		output.Fatal("Failed to load AWS configuration: %v", err)
	}

	dynamoClient := dynamodb.NewFromConfig(*cfg.AWS.SDKConfig, func(o *dynamodb.Options) {
		if cfg.AWS.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
		}
	})

	output.Step(1, 2, "Creating tables")
	created, err := dynamoRepo.EnsureTables(ctx, dynamoClient, cfg.AWS, slog.Default())
	if err != nil {
		output.Fatal("Failed to create tables: %v", err)
	}
	if len(created) == 0 {
		output.Info("All tables already exist")
	} else {
		output.Success("Created %d of %d tables", len(created), len(cfg.AWS.TableNames()))
		output.List(created)
	}

	output.Step(2, 2, "Seeding admin user")
	repos := dynamoRepo.CreateRepositories(dynamoRepo.NewClientAdapter(dynamoClient), cfg, slog.Default())
	password, err := app.SeedAdmin(ctx, repos.UserRepo, initAdminEmail, initAdminName)
	if err != nil {
		output.Fatal("Failed to seed admin user: %v", err)
	}
	if password == "" {
		output.Info("Admin user %s already exists", initAdminEmail)
		return
	}

	output.Success("Admin user created")
	output.KeyValue("Email", initAdminEmail)
	output.KeyValueBold("Password", password)
	output.Blank()
	output.Warning("The password is shown only once. Log in and change it, or store it securely.")
}
