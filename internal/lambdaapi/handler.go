// Package lambdaapi adapts the souschef HTTP router to AWS Lambda
// Function URLs through the algnhsa adapter.
package lambdaapi

import (
	"time"

	"github.com/souschef/souschef/internal/app"
	"github.com/souschef/souschef/internal/server"

	"github.com/akrylysov/algnhsa"
	"github.com/aws/aws-lambda-go/lambda"
)

// NewHandler builds the HTTP router for svc and wraps it as a Lambda handler.
// The request timeout configures the router's timeout middleware, exactly as
// it does for the standalone server.
func NewHandler(svc *app.Service, requestTimeout time.Duration, allowedOrigins string) lambda.Handler {
	router := server.NewRouter(svc, requestTimeout, allowedOrigins)
	return algnhsa.New(router.Handler(), nil)
}
