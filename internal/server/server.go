package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/souschef/souschef/internal/app"
	"github.com/souschef/souschef/internal/config"
	"github.com/souschef/souschef/internal/constants"
	"github.com/souschef/souschef/internal/health"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Run initializes the service and serves the API over HTTP until the context
// is canceled or a SIGINT/SIGTERM arrives, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	initCtx, cancel := context.WithTimeout(ctx, cfg.InitTimeout)
	defer cancel()

	svc, err := app.Initialize(initCtx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}

	reportStartupIssues(initCtx, cfg, log)

	router := NewRouter(svc, cfg.RequestTimeout, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  constants.ServerReadTimeout,
		WriteTimeout: constants.ServerWriteTimeout,
		IdleTimeout:  constants.ServerIdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("server listening",
			"addr", srv.Addr,
			"version", *constants.GetVersion(),
		)
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			serverErrors <- serveErr
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err = <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context canceled, shutting down")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), constants.ServerShutdownTimeout)
	defer cancelShutdown()

	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// NewHealthManager builds a dependency health manager from the resolved AWS
// configuration. The storage probe is skipped when no images bucket is set.
func NewHealthManager(cfg *config.Config, log *slog.Logger) *health.Manager {
	sdkCfg := *cfg.AWS.SDKConfig

	db := dynamodb.NewFromConfig(sdkCfg, func(o *dynamodb.Options) {
		if cfg.AWS.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
		}
	})

	var storage health.StorageClient
	if cfg.AWS.ImagesBucket != "" {
		storage = s3.NewFromConfig(sdkCfg)
	}

	return health.NewManager(db, storage, sts.NewFromConfig(sdkCfg), cfg.AWS, log)
}

// reportStartupIssues probes the service's dependencies once at startup and
// logs anything unhealthy. The server starts regardless so that transient
// infrastructure hiccups don't turn into crash loops.
func reportStartupIssues(ctx context.Context, cfg *config.Config, log *slog.Logger) {
	report, err := NewHealthManager(cfg, log).Check(ctx)
	if err != nil || report == nil {
		return
	}
	for _, issue := range report.Issues {
		log.Warn("dependency issue detected at startup",
			"resource_type", issue.ResourceType,
			"resource_id", issue.ResourceID,
			"severity", issue.Severity,
			"message", issue.Message,
		)
	}
}
