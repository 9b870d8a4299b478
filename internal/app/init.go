// Package app provides the core application logic for souschef.
// It initializes and manages the service layer.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/souschef/souschef/internal/auth/authorization"
	"github.com/souschef/souschef/internal/config"
	awscfg "github.com/souschef/souschef/internal/config/aws"
	"github.com/souschef/souschef/internal/constants"
	dynamoRepo "github.com/souschef/souschef/internal/database/dynamodb"
	"github.com/souschef/souschef/internal/images"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Initialize creates a fully wired Service from configuration: DynamoDB
// repositories, the S3 image store, and a hydrated authorization enforcer.
// Callers should handle errors and potentially panic if initialization fails
// during startup.
func Initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	logger.Debug(fmt.Sprintf("initializing %s service", constants.ProjectName),
		"version", *constants.GetVersion(),
		"init_timeout_seconds", cfg.InitTimeout.Seconds(),
	)

	if err := awscfg.ValidateServer(cfg.AWS); err != nil {
		return nil, err
	}

	if cfg.AWS.SDKConfig == nil {
		if err := cfg.AWS.LoadSDKConfig(ctx); err != nil {
			return nil, err
		}
	}

	dynamoClient := dynamodb.NewFromConfig(*cfg.AWS.SDKConfig, func(o *dynamodb.Options) {
		if cfg.AWS.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
		}
	})
	repos := dynamoRepo.CreateRepositories(dynamoRepo.NewClientAdapter(dynamoClient), cfg, logger)

	enforcer, err := authorization.NewEnforcer(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize authorization: %w", err)
	}
	if err := authorization.HydrateEnforcer(ctx, enforcer, repos.UserRepo, logger); err != nil {
		return nil, fmt.Errorf("failed to hydrate authorization: %w", err)
	}

	// The image store is optional wiring: without a bucket the API serves
	// everything except uploads.
	var store ImageStore
	if cfg.AWS.ImagesBucket != "" {
		s3Client := s3.NewFromConfig(*cfg.AWS.SDKConfig)
		baseURL := cfg.ImagesBaseURL
		if baseURL == "" {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.AWS.ImagesBucket, cfg.AWS.SDKConfig.Region)
		}
		store = images.NewStore(images.NewClientAdapter(s3Client), cfg.AWS.ImagesBucket, baseURL, logger)
	} else {
		logger.Warn("images bucket not configured; image uploads are disabled")
	}

	logger.Debug(constants.ProjectName + " service initialized successfully")

	return NewService(
		repos.UserRepo,
		repos.TokenRepo,
		repos.RecipeRepo,
		repos.TagRepo,
		repos.IngredientRepo,
		store,
		enforcer,
		logger,
	), nil
}
