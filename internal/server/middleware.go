package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/souschef/souschef/internal/constants"
	apperrors "github.com/souschef/souschef/internal/errors"
	loggerPkg "github.com/souschef/souschef/internal/logger"
	"github.com/souschef/souschef/internal/metrics"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/go-chi/chi/v5"
)

const loggerContextKey contextKey = "logger"

// generateRequestID generates a random request ID using crypto/rand
func generateRequestID() string {
	b := make([]byte, constants.RequestIDByteSize)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))
	}
	return hex.EncodeToString(b)
}

// requestIDMiddleware extracts the request ID from the context (if present) or generates a random one.
// Priority: 1) Existing request ID in context, 2) Lambda request ID, 3) Generated random ID.
func (r *Router) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		requestID := loggerPkg.GetRequestID(req.Context())

		if requestID == "" {
			if lc, ok := lambdacontext.FromContext(req.Context()); ok && lc.AwsRequestID != "" {
				requestID = lc.AwsRequestID
			}
		}

		if requestID == "" {
			requestID = generateRequestID()
		}

		ctx := loggerPkg.WithRequestID(req.Context(), requestID)
		log := r.svc.Logger.With("requestID", requestID)
		ctx = context.WithValue(ctx, loggerContextKey, log)

		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// requestTimeoutMiddleware creates a context with timeout for each request.
// The timeout starts when the request is received, ensuring each request has
// a fair timeout regardless of connection reuse.
func (r *Router) requestTimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx, cancel := context.WithTimeout(req.Context(), timeout)
			defer cancel()

			req = req.WithContext(ctx)

			next.ServeHTTP(w, req)

			if ctx.Err() == context.DeadlineExceeded {
				logger := r.GetLoggerFromContext(req.Context())
				logger.Warn("request timeout exceeded", "request", map[string]any{
					"method":  req.Method,
					"path":    req.URL.Path,
					"timeout": timeout,
				})

				// Note: Response may have already been written by handler
				// The context cancellation will have already propagated to
				// any operations (like DynamoDB calls) that were using the context
			}
		})
	}
}

// corsMiddleware handles CORS headers for cross-origin requests.
// allowedOrigins is a comma-separated list of origins, or "*" to allow any.
func corsMiddleware(allowedOrigins string) func(http.Handler) http.Handler {
	allowAny := strings.TrimSpace(allowedOrigins) == constants.DefaultCORSAllowedOrigins
	allowed := make(map[string]bool)
	for _, origin := range strings.Split(allowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed[origin] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			origin := req.Header.Get("Origin")
			switch {
			case origin != "" && (allowAny || allowed[origin]):
				w.Header().Set("Access-Control-Allow-Origin", origin)
			case origin == "":
				// If no Origin header, allow all origins (fallback)
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")

			// Handle preflight requests
			if req.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, req)
		})
	}
}

// setContentTypeJSONMiddleware sets Content-Type to application/json for all responses
func setContentTypeJSONMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set(constants.ContentTypeHeader, "application/json")
		next.ServeHTTP(w, req)
	})
}

// handleAuthError handles authentication errors and writes appropriate responses.
func handleAuthError(w http.ResponseWriter, err error) {
	statusCode := apperrors.GetStatusCode(err)
	errorCode := apperrors.GetErrorCode(err)
	errorMsg := apperrors.GetErrorMessage(err)

	if statusCode < 400 || statusCode >= 600 {
		statusCode = http.StatusUnauthorized
	}

	messagePrefix := "Unauthorized"
	if statusCode >= http.StatusInternalServerError {
		messagePrefix = "Server error"
	}

	writeErrorResponseWithCode(w, statusCode, errorCode, messagePrefix, errorMsg)
}

// tokenFromRequest extracts the plain token from the Authorization header.
// The expected form is "Token <value>"; scheme matching is case-insensitive.
func tokenFromRequest(req *http.Request) string {
	header := strings.TrimSpace(req.Header.Get(constants.AuthorizationHeader))
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, constants.TokenScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

// touchTokenLastUsedAsync updates the token's last_used timestamp asynchronously.
func (r *Router) touchTokenLastUsedAsync(plainToken, requestID string, logger *slog.Logger) *sync.WaitGroup {
	var wg sync.WaitGroup
	wg.Add(1)
	go func(token, reqID string) {
		defer wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), constants.LastUsedUpdateTimeout)
		defer cancel()
		ctx = loggerPkg.WithRequestID(ctx, reqID)

		lastUsed, err := r.svc.TouchTokenLastUsed(ctx, token)
		if err != nil {
			logger.Error("failed to update token's last_used timestamp", "error", err)
			return
		}
		logger.Debug("token's last_used timestamp updated", "last_used", lastUsed.Format(time.RFC3339))
	}(plainToken, requestID)
	return &wg
}

// authenticateRequestMiddleware authenticates requests
// Adds authenticated user to request context
// Updates the token's last_used timestamp asynchronously after successful authentication
func (r *Router) authenticateRequestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		logger := r.GetLoggerFromContext(req.Context())
		plainToken := tokenFromRequest(req)
		logger.Debug("authenticating request")

		if plainToken == "" {
			writeErrorResponseWithCode(w, http.StatusUnauthorized, apperrors.ErrCodeUnauthorized,
				"Unauthorized", "authentication credentials were not provided")
			return
		}

		user, err := r.svc.AuthenticateToken(req.Context(), plainToken)
		if err != nil {
			handleAuthError(w, err)
			return
		}

		logger.Info("user authenticated successfully", "email", user.Email)

		requestID := loggerPkg.GetRequestID(req.Context())
		wg := r.touchTokenLastUsedAsync(plainToken, requestID, logger)

		ctx := context.WithValue(req.Context(), userContextKey, user)
		next.ServeHTTP(w, req.WithContext(ctx))

		wg.Wait()
	})
}

// loginRateLimitMiddleware throttles login attempts per client IP.
// A nil limiter disables throttling.
func (r *Router) loginRateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !r.loginLimiter.Allow(getClientIP(req)) {
			logger := r.GetLoggerFromContext(req.Context())
			logger.Warn("login rate limit exceeded", "clientIP", getClientIP(req))
			metrics.RecordLoginAttempt("rate_limited")

			err := apperrors.ErrTooManyRequests("too many login attempts, please retry later", nil)
			statusCode, errorCode, errorDetails := extractErrorInfo(err)
			writeErrorResponseWithCode(w, statusCode, errorCode, apperrors.GetErrorMessage(err), errorDetails)
			return
		}

		next.ServeHTTP(w, req)
	})
}

// requestLoggingMiddleware logs incoming requests and their responses
// Uses logger from context (includes request ID if available)
func (r *Router) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		logger := r.GetLoggerFromContext(req.Context())
		start := time.Now()
		deadlineString := ""
		if deadline, ok := req.Context().Deadline(); ok {
			deadlineString = deadline.Format(time.RFC3339)
		}

		// Wrap the response writer to capture status code
		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK, // default status code
		}

		logger.Info("processing incoming client request", "request", map[string]string{
			"method":     req.Method,
			"path":       req.URL.Path,
			"remoteAddr": req.RemoteAddr,
			"deadline":   deadlineString,
		})

		next.ServeHTTP(wrapped, req)
		duration := time.Since(start)

		logger.Info("response sent to client", "response", map[string]any{
			"status":   wrapped.statusCode,
			"duration": duration.String(),
		})
	})
}

// metricsMiddleware records request counts and latency for Prometheus.
// The route pattern is read after the handler runs so chi has resolved it,
// keeping the label set bounded regardless of path parameters.
func (r *Router) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, req)

		path := req.URL.Path
		if routeCtx := chi.RouteContext(req.Context()); routeCtx != nil {
			if pattern := routeCtx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		metrics.RecordHTTPRequest(req.Method, path, wrapped.statusCode, time.Since(start))
	})
}

// GetLoggerFromContext extracts the logger from request context
// Returns the request-scoped logger (with request ID if available) or falls back to service logger
func (r *Router) GetLoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok && logger != nil {
		return logger
	}

	return r.svc.Logger
}
