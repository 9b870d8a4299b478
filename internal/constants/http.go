package constants

import "time"

// AuthorizationHeader is the HTTP header name for token authentication.
const AuthorizationHeader = "Authorization"

// TokenScheme is the scheme prefix expected in the Authorization header.
//
//nolint:gosec // G101: This is a header scheme constant, not a hardcoded credential
const TokenScheme = "Token"

// ContentTypeHeader is the HTTP Content-Type header name.
const ContentTypeHeader = "Content-Type"

// APIPrefix is the path prefix for all versioned API routes.
const APIPrefix = "/api/v1"

// ServerReadTimeout is the HTTP server read timeout
const ServerReadTimeout = 15 * time.Second

// ServerWriteTimeout is the HTTP server write timeout
const ServerWriteTimeout = 15 * time.Second

// ServerIdleTimeout is the HTTP server idle timeout
const ServerIdleTimeout = 60 * time.Second

// ServerShutdownTimeout is the timeout for graceful server shutdown
const ServerShutdownTimeout = 5 * time.Second

// DefaultCORSAllowedOrigins is the default value for the CORS allow-origin header.
const DefaultCORSAllowedOrigins = "*"

// MaxImageUploadBytes caps the size of a recipe image upload (8 MiB).
const MaxImageUploadBytes = 8 << 20

// LoginRateLimitPerSecond is the sustained per-IP rate for login attempts.
const LoginRateLimitPerSecond = 1.0

// LoginRateLimitBurst is the per-IP burst for login attempts.
const LoginRateLimitBurst = 5
