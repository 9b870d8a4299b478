// Package aws contains AWS-specific configuration helpers for souschef services.
package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/souschef/souschef/internal/constants"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/spf13/viper"
)

// Config contains AWS-specific configuration.
type Config struct {
	// DynamoDB Tables
	UsersTable       string `mapstructure:"users_table"`
	TokensTable      string `mapstructure:"tokens_table"`
	RecipesTable     string `mapstructure:"recipes_table"`
	TagsTable        string `mapstructure:"tags_table"`
	IngredientsTable string `mapstructure:"ingredients_table"`

	// S3
	ImagesBucket string `mapstructure:"images_bucket"`

	// Endpoint overrides the DynamoDB endpoint (dynamodb-local in development).
	Endpoint string `mapstructure:"endpoint"`

	// Region is the AWS region. Empty uses the SDK default chain.
	Region string `mapstructure:"region"`

	// Infrastructure defaults
	InfraDefaultStackName string `mapstructure:"infra_default_stack_name" yaml:"infra_default_stack_name"`

	// AWS SDK Configuration (credentials, region, etc.)
	SDKConfig *aws.Config `mapstructure:"-"`
}

// BindEnvVars binds AWS-specific environment variables to the provided Viper instance.
func BindEnvVars(v *viper.Viper) {
	v.SetDefault("aws.users_table", constants.DefaultUsersTable)
	v.SetDefault("aws.tokens_table", constants.DefaultTokensTable)
	v.SetDefault("aws.recipes_table", constants.DefaultRecipesTable)
	v.SetDefault("aws.tags_table", constants.DefaultTagsTable)
	v.SetDefault("aws.ingredients_table", constants.DefaultIngredientsTable)
	v.SetDefault("aws.infra_default_stack_name", constants.ProjectName)

	_ = v.BindEnv("aws.users_table", "SOUSCHEF_AWS_USERS_TABLE")
	_ = v.BindEnv("aws.tokens_table", "SOUSCHEF_AWS_TOKENS_TABLE")
	_ = v.BindEnv("aws.recipes_table", "SOUSCHEF_AWS_RECIPES_TABLE")
	_ = v.BindEnv("aws.tags_table", "SOUSCHEF_AWS_TAGS_TABLE")
	_ = v.BindEnv("aws.ingredients_table", "SOUSCHEF_AWS_INGREDIENTS_TABLE")
	_ = v.BindEnv("aws.images_bucket", "SOUSCHEF_AWS_IMAGES_BUCKET")
	_ = v.BindEnv("aws.endpoint", "SOUSCHEF_AWS_ENDPOINT")
	_ = v.BindEnv("aws.region", "SOUSCHEF_AWS_REGION")
	_ = v.BindEnv("aws.infra_default_stack_name", "SOUSCHEF_AWS_INFRA_DEFAULT_STACK_NAME")
}

// ValidateServer validates required AWS fields for the API server.
func ValidateServer(cfg *Config) error {
	if cfg == nil {
		return errors.New("AWS configuration is required")
	}

	required := map[string]string{
		"AWS.UsersTable":       cfg.UsersTable,
		"AWS.TokensTable":      cfg.TokensTable,
		"AWS.RecipesTable":     cfg.RecipesTable,
		"AWS.TagsTable":        cfg.TagsTable,
		"AWS.IngredientsTable": cfg.IngredientsTable,
	}

	for field, value := range required {
		if value == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
	}

	return nil
}

// TableNames returns the configured DynamoDB table names.
func (c *Config) TableNames() []string {
	return []string{
		c.UsersTable,
		c.TokensTable,
		c.RecipesTable,
		c.TagsTable,
		c.IngredientsTable,
	}
}

// LoadSDKConfig loads the AWS SDK configuration from the environment.
// When Endpoint is set (dynamodb-local), static placeholder credentials are
// used so the SDK does not reach for the instance metadata chain.
func (c *Config) LoadSDKConfig(ctx context.Context) error {
	var opts []func(*awsConfig.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, awsConfig.WithRegion(c.Region))
	}
	if c.Endpoint != "" {
		if c.Region == "" {
			opts = append(opts, awsConfig.WithRegion("us-east-1"))
		}
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider("local", "local", ""),
		))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to load AWS SDK configuration: %w", err)
	}
	c.SDKConfig = &awsCfg
	return nil
}

// NormalizeVersion strips any 'v' prefix from the version string.
// Release artifact paths use versions without the 'v' prefix.
func NormalizeVersion(version string) string {
	return strings.TrimPrefix(version, "v")
}
