// Package main implements the AWS Lambda entrypoint for the souschef API.
package main

import (
	"context"
	"os"

	"github.com/souschef/souschef/internal/app"
	"github.com/souschef/souschef/internal/config"
	"github.com/souschef/souschef/internal/constants"
	"github.com/souschef/souschef/internal/lambdaapi"
	"github.com/souschef/souschef/internal/logger"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	cfg := config.MustLoadServer()
	log := logger.Initialize(constants.Production, cfg.GetLogLevel())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.InitTimeout)
	svc, err := app.Initialize(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Error("failed to initialize service", "error", err)
		os.Exit(1)
	}

	log.With("version", *constants.GetVersion()).Debug("starting Lambda handler")
	handler := lambdaapi.NewHandler(svc, cfg.RequestTimeout, cfg.AllowedOrigins)
	lambda.Start(handler)
}
