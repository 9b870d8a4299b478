package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/souschef/souschef/internal/api"
	apperrors "github.com/souschef/souschef/internal/errors"

	"github.com/go-chi/chi/v5"
)

// contextKey is the type used for context values set by server middleware.
type contextKey string

const userContextKey contextKey = "user"

// responseWriter wraps http.ResponseWriter to capture the status code
// for request logging and metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// writeErrorResponse writes a JSON error response with the given status code.
func writeErrorResponse(w http.ResponseWriter, statusCode int, message, details string) {
	writeErrorResponseWithCode(w, statusCode, "", message, details)
}

// writeErrorResponseWithCode writes a JSON error response including a
// machine-readable error code for programmatic handling by clients.
func writeErrorResponseWithCode(w http.ResponseWriter, statusCode int, errorCode, message, details string) {
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{
		Error:   message,
		Code:    errorCode,
		Details: details,
	})
}

// extractErrorInfo extracts statusCode, errorCode, and errorDetails from an error.
// Returns the HTTP status code, error code, and error details.
func extractErrorInfo(err error) (statusCode int, errorCode, errorDetails string) {
	return apperrors.GetStatusCode(err),
		apperrors.GetErrorCode(err),
		apperrors.GetErrorDetails(err)
}

// decodeRequestBody decodes JSON request body into the provided value.
// If decoding fails, writes an error response and returns the error.
// Returns nil on success.
func decodeRequestBody(w http.ResponseWriter, req *http.Request, v any) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid request body", err.Error())
		return fmt.Errorf("failed to decode request body: %w", err)
	}
	return nil
}

// getUserFromContext extracts the authenticated user placed in the request
// context by the authentication middleware.
func (r *Router) getUserFromContext(req *http.Request) (*api.User, bool) {
	user, ok := req.Context().Value(userContextKey).(*api.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// requireAuthenticatedUser extracts and validates the authenticated user from request context.
// If the user is not found, writes an unauthorized error response and returns nil, false.
// Returns the user and true on success.
func (r *Router) requireAuthenticatedUser(w http.ResponseWriter, req *http.Request) (*api.User, bool) {
	user, ok := r.getUserFromContext(req)
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "user not found in context")
		return nil, false
	}
	return user, true
}

// getRequiredURLParam extracts and validates a required URL parameter.
// If the parameter is missing or empty, writes a bad request error response and returns "", false.
// Returns the parameter value and true on success.
func getRequiredURLParam(w http.ResponseWriter, req *http.Request, name string) (string, bool) {
	param := strings.TrimSpace(chi.URLParam(req, name))
	if param == "" {
		writeErrorResponse(w, http.StatusBadRequest, "invalid "+name, name+" is required")
		return "", false
	}
	return param, true
}

// getClientIP returns the client address for rate limiting purposes.
// Behind the API Gateway or a load balancer the direct peer is the proxy,
// so forwarding headers take precedence over RemoteAddr.
func getClientIP(req *http.Request) string {
	if fwd := req.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(req.Header.Get("X-Real-Ip")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}

// parseIDList splits a comma-separated query parameter into IDs,
// dropping empty entries.
func parseIDList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// handleAndLogError logs an error and writes a standardized error response.
// Extracts HTTP status code, error code, and error details from the error,
// logs them with context, and writes a formatted error response.
// Use this for all service call failures in handlers.
//
// Example:
//
//	if err := r.svc.DeleteRecipe(req.Context(), user.Email, id); err != nil {
//	    r.handleAndLogError(w, req, err, "delete recipe")
//	    return
//	}
func (r *Router) handleAndLogError(
	w http.ResponseWriter,
	req *http.Request,
	err error,
	operationName string,
) {
	logger := r.GetLoggerFromContext(req.Context())
	statusCode, errorCode, errorDetails := extractErrorInfo(err)

	logger.Error(
		"operation failed",
		"operation", operationName,
		"error", err,
		"status_code", statusCode,
		"error_code", errorCode,
	)

	writeErrorResponseWithCode(w, statusCode, errorCode, "failed to "+operationName, errorDetails)
}

// writeJSONResponse writes a JSON response body with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, v any) {
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}
