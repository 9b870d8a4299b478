package cmd

import (
	"log/slog"

	"github.com/souschef/souschef/internal/api"
	"github.com/souschef/souschef/internal/config"
	"github.com/souschef/souschef/internal/output"

	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure local environment with API endpoint and credentials",
	Long: `Configure the local environment with your API endpoint and auth token.
Logging in with email and password exchanges the credentials for a token;
only the token is stored. This creates or updates the configuration file at ` +
		output.Bold("~/.souschef/config.yaml"),
	Run: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, _ []string) {
	existingConfig, err := config.LoadCLI()
	configExists := err == nil
	if configExists {
		output.Success("Found existing configuration")
	} else {
		existingConfig = &config.Config{}
		output.Info("Creating new configuration")
	}

	endpoint := output.Prompt("Enter API endpoint URL")

	if endpoint == "" {
		if configExists && existingConfig.APIEndpoint != "" {
			endpoint = existingConfig.APIEndpoint
			output.Info("Using existing endpoint: %s", endpoint)
		} else {
			output.Fatal("API endpoint is required")
		}
	}

	email := output.Prompt("Enter email (leave empty to keep the stored token)")

	token := existingConfig.Token
	if email != "" {
		password := output.PromptSecret("Enter password")
		if password == "" {
			output.Fatal("Password is required")
		}

		c := api.NewClient(&config.Config{APIEndpoint: endpoint}, slog.Default())
		resp, loginErr := c.Login(cmd.Context(), api.LoginRequest{Email: email, Password: password})
		if loginErr != nil {
			output.Fatal("Login failed: %v", loginErr)
		}
		token = resp.Token
		output.Success("Logged in as %s", email)
	} else if token == "" {
		output.Fatal("No stored token; email and password are required")
	} else {
		output.Info("Using existing token")
	}

	cfg := &config.Config{
		APIEndpoint: endpoint,
		Token:       token,
	}

	if err := config.Save(cfg); err != nil {
		output.Fatal("Failed to save configuration: %v", err)
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		output.Fatal("Failed to get config path: %v", err)
	}

	output.Success("Configuration saved successfully")
	output.KeyValue("Configuration path", configPath)
}
