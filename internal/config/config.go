// Package config manages configuration for the souschef CLI and services.
// It uses Viper for unified configuration management from files and environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/souschef/souschef/internal/constants"
	awscfg "github.com/souschef/souschef/internal/config/aws"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config represents the unified configuration structure for both CLI and services.
// It supports loading from YAML files and environment variables.
type Config struct {
	// CLI Configuration
	APIEndpoint string `mapstructure:"api_endpoint" yaml:"api_endpoint" validate:"omitempty,url"`
	Token       string `mapstructure:"token" yaml:"token"`

	// Service Configuration
	Environment    string        `mapstructure:"environment" yaml:"environment"`
	LogLevel       string        `mapstructure:"log_level"`
	Port           int           `mapstructure:"port" validate:"omitempty"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins string        `mapstructure:"allowed_origins"`
	ImagesBaseURL  string        `mapstructure:"images_base_url" validate:"omitempty,url"`
	InitTimeout    time.Duration `mapstructure:"init_timeout"`

	// AWS holds provider-specific settings (tables, bucket, endpoint).
	AWS *awscfg.Config `mapstructure:"aws" yaml:"aws"`
}

var validate = validator.New()

// Load loads the configuration using Viper.
// For CLI: loads from ~/.souschef/config.yaml
// For services: loads from environment variables with SOUSCHEF_ prefix
// Environment variables take precedence over config file values.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for service configuration
	setDefaults(v)

	// Try to load config file for CLI
	if err := loadConfigFile(v); err != nil {
		// Config file not found is acceptable for services (they use env vars only)
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Bind environment variables
	v.SetEnvPrefix("SOUSCHEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Manually bind all env vars for better control
	bindEnvVars(v)
	awscfg.BindEnvVars(v)

	var cfg Config
	var err error
	if err = v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err = validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadCLI loads configuration specifically for CLI usage.
// Returns an error if the config file doesn't exist.
func LoadCLI() (*Config, error) {
	v := viper.New()

	if err := loadConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// LoadServer loads configuration for the API server.
// Loads from environment variables and validates required fields.
func LoadServer() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SOUSCHEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)
	awscfg.BindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling server config: %w", err)
	}

	if err := awscfg.ValidateServer(cfg.AWS); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoadServer loads server configuration and exits on error.
// Suitable for application startup where configuration errors should be fatal.
func MustLoadServer() *Config {
	cfg, err := LoadServer()
	if err != nil {
		slog.Error("failed to load server configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

// Save saves the configuration to the user's home directory.
// Overwrites the existing config file if it exists.
func Save(config *Config) error {
	currentUser, err := user.Current()
	if err != nil {
		return fmt.Errorf("error getting current user: %w", err)
	}

	configDir := constants.ConfigDirPath(currentUser.HomeDir)

	if err = os.MkdirAll(configDir, constants.ConfigDirPermissions); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	configFilePath := filepath.Join(configDir, constants.ConfigFileName)

	v := viper.New()
	v.Set("api_endpoint", config.APIEndpoint)
	v.Set("token", config.Token)

	if err = v.WriteConfigAs(configFilePath); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	// Set proper permissions
	if err = os.Chmod(configFilePath, constants.ConfigFilePermissions); err != nil {
		return fmt.Errorf("error setting config file permissions: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	currentUser, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("error getting current user: %w", err)
	}

	configDir := constants.ConfigDirPath(currentUser.HomeDir)
	return filepath.Join(configDir, constants.ConfigFileName), nil
}

// GetLogLevel returns the slog.Level from the string configuration.
// Defaults to INFO if the level string is invalid.
func (c *Config) GetLogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// GetEnvironment normalizes the configured environment string.
// Defaults to Development when unset or unrecognized.
func (c *Config) GetEnvironment() constants.Environment {
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case string(constants.Production):
		return constants.Production
	case string(constants.CLI):
		return constants.CLI
	default:
		return constants.Development
	}
}

// Helper functions

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8000")
	v.SetDefault("request_timeout", constants.DefaultRequestTimeout.String())
	v.SetDefault("init_timeout", "10s")
	v.SetDefault("environment", string(constants.Development))
	v.SetDefault("allowed_origins", constants.DefaultCORSAllowedOrigins)
	v.SetDefault("log_level", "INFO")
}

func loadConfigFile(v *viper.Viper) error {
	currentUser, err := user.Current()
	if err != nil {
		return fmt.Errorf("error getting current user: %w", err)
	}

	configDir := constants.ConfigDirPath(currentUser.HomeDir)
	configFile := filepath.Join(configDir, constants.ConfigFileName)

	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	if readErr := v.ReadInConfig(); readErr != nil {
		return readErr
	}

	return nil
}

func bindEnvVars(v *viper.Viper) {
	// Bind all environment variables explicitly
	envVars := []string{
		"ALLOWED_ORIGINS",
		"ENVIRONMENT",
		"IMAGES_BASE_URL",
		"INIT_TIMEOUT",
		"LOG_LEVEL",
		"PORT",
		"REQUEST_TIMEOUT",
	}

	for _, envVar := range envVars {
		// Convert to lowercase to match mapstructure tags (keep underscores)
		configKey := strings.ToLower(envVar)
		_ = v.BindEnv(configKey, "SOUSCHEF_"+envVar)
	}
}
