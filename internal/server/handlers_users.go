package server

import (
	"net/http"

	"github.com/souschef/souschef/internal/api"
	"github.com/souschef/souschef/internal/auth/authorization"
	"github.com/souschef/souschef/internal/constants"
	apperrors "github.com/souschef/souschef/internal/errors"
	"github.com/souschef/souschef/internal/metrics"
)

// handleRegisterUser handles POST /api/v1/users to register a new user.
// Registration is open; the role field is honored only when the caller
// presents a valid admin token.
func (r *Router) handleRegisterUser(w http.ResponseWriter, req *http.Request) {
	logger := r.GetLoggerFromContext(req.Context())
	var registerReq api.RegisterUserRequest

	if err := decodeRequestBody(w, req, &registerReq); err != nil {
		return
	}

	callerIsAdmin := false
	if req.Header.Get(constants.AuthorizationHeader) != "" {
		caller, err := r.svc.AuthenticateToken(req.Context(), tokenFromRequest(req))
		if err != nil {
			handleAuthError(w, err)
			return
		}
		callerIsAdmin = r.svc.IsAdmin(caller.Email)
	}

	user, err := r.svc.RegisterUser(req.Context(), registerReq, callerIsAdmin)
	if err != nil {
		statusCode, errorCode, errorDetails := extractErrorInfo(err)

		logger.Debug("failed to register user", "error", err, "status_code", statusCode, "error_code", errorCode)

		writeErrorResponseWithCode(w, statusCode, errorCode, "failed to register user", errorDetails)
		return
	}

	writeJSONResponse(w, http.StatusCreated, user)
}

// handleLogin handles POST /api/v1/users/token to exchange credentials for a token.
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	logger := r.GetLoggerFromContext(req.Context())
	var loginReq api.LoginRequest

	if err := decodeRequestBody(w, req, &loginReq); err != nil {
		return
	}

	resp, err := r.svc.Login(req.Context(), loginReq)
	if err != nil {
		metrics.RecordLoginAttempt("failure")
		statusCode, errorCode, errorDetails := extractErrorInfo(err)

		logger.Debug("login failed", "status_code", statusCode, "error_code", errorCode)

		writeErrorResponseWithCode(w, statusCode, errorCode, apperrors.GetErrorMessage(err), errorDetails)
		return
	}

	metrics.RecordLoginAttempt("success")
	writeJSONResponse(w, http.StatusOK, resp)
}

// handleGetMe handles GET /api/v1/users/me to return the caller's profile.
func (r *Router) handleGetMe(w http.ResponseWriter, req *http.Request) {
	user, ok := r.requireAuthenticatedUser(w, req)
	if !ok {
		return
	}

	profile, err := r.svc.GetProfile(req.Context(), user.Email)
	if err != nil {
		r.handleAndLogError(w, req, err, "get profile")
		return
	}

	writeJSONResponse(w, http.StatusOK, profile)
}

// handleUpdateMe handles PATCH /api/v1/users/me for partial profile updates.
// Omitted fields are left unchanged.
func (r *Router) handleUpdateMe(w http.ResponseWriter, req *http.Request) {
	user, ok := r.requireAuthenticatedUser(w, req)
	if !ok {
		return
	}

	var updateReq api.UpdateUserRequest
	if err := decodeRequestBody(w, req, &updateReq); err != nil {
		return
	}

	updated, err := r.svc.UpdateProfile(req.Context(), user.Email, updateReq)
	if err != nil {
		r.handleAndLogError(w, req, err, "update profile")
		return
	}

	writeJSONResponse(w, http.StatusOK, updated)
}

// handleReplaceMe handles PUT /api/v1/users/me for full profile updates.
// Unlike PATCH, every updatable field must be present.
func (r *Router) handleReplaceMe(w http.ResponseWriter, req *http.Request) {
	user, ok := r.requireAuthenticatedUser(w, req)
	if !ok {
		return
	}

	var updateReq api.UpdateUserRequest
	if err := decodeRequestBody(w, req, &updateReq); err != nil {
		return
	}

	if updateReq.Name == nil || updateReq.Password == nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid request", "name and password are required")
		return
	}

	updated, err := r.svc.UpdateProfile(req.Context(), user.Email, updateReq)
	if err != nil {
		r.handleAndLogError(w, req, err, "update profile")
		return
	}

	writeJSONResponse(w, http.StatusOK, updated)
}

// handleLogout handles POST /api/v1/users/logout to delete the caller's token.
func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	if _, ok := r.requireAuthenticatedUser(w, req); !ok {
		return
	}

	if err := r.svc.Logout(req.Context(), tokenFromRequest(req)); err != nil {
		r.handleAndLogError(w, req, err, "logout")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// handleListUsers handles GET /api/v1/users to list all users. Admin only.
func (r *Router) handleListUsers(w http.ResponseWriter, req *http.Request) {
	user, ok := r.requireAuthenticatedUser(w, req)
	if !ok {
		return
	}

	if err := r.svc.Authorize(user.Email, authorization.ObjectUsers, authorization.ActionRead); err != nil {
		r.handleAndLogError(w, req, err, "list users")
		return
	}

	resp, err := r.svc.ListUsers(req.Context())
	if err != nil {
		r.handleAndLogError(w, req, err, "list users")
		return
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// handleRevokeUser handles POST /api/v1/users/revoke to deactivate a user
// and delete their tokens. Admin only.
func (r *Router) handleRevokeUser(w http.ResponseWriter, req *http.Request) {
	user, ok := r.requireAuthenticatedUser(w, req)
	if !ok {
		return
	}

	if err := r.svc.Authorize(user.Email, authorization.ObjectUsers, authorization.ActionDelete); err != nil {
		r.handleAndLogError(w, req, err, "revoke user")
		return
	}

	var revokeReq api.RevokeUserRequest
	if err := decodeRequestBody(w, req, &revokeReq); err != nil {
		return
	}

	resp, err := r.svc.RevokeUser(req.Context(), revokeReq.Email)
	if err != nil {
		r.handleAndLogError(w, req, err, "revoke user")
		return
	}

	writeJSONResponse(w, http.StatusOK, resp)
}
