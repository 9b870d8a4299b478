// Package api defines the API types and structures used across souschef.
package api

import (
	"time"
)

// User represents a user in the system
type User struct {
	Email               string     `json:"email"`
	Name                string     `json:"name"`
	Role                string     `json:"role"`
	CreatedAt           time.Time  `json:"created_at"`
	IsActive            bool       `json:"is_active"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
	CreatedByRequestID  string     `json:"created_by_request_id,omitempty"`
	ModifiedByRequestID string     `json:"modified_by_request_id,omitempty"`
}

// RegisterUserRequest represents the request to register a new user
type RegisterUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"` // Honored only for authenticated admins
}

// LoginRequest represents the request to exchange credentials for a token
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse represents the response carrying a freshly minted auth token
type TokenResponse struct {
	Token string `json:"token"`
}

// UpdateUserRequest represents a profile update for the authenticated user.
// Nil fields are left unchanged.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty"`
}

// RevokeUserRequest represents the request to deactivate a user
type RevokeUserRequest struct {
	Email string `json:"email"`
}

// RevokeUserResponse represents the response after revoking a user
type RevokeUserResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// ListUsersResponse represents the response containing all users
type ListUsersResponse struct {
	Users []*User `json:"users"`
}

// Token represents a stored authentication token record.
// Only the SHA-256 hash of the token is ever persisted.
type Token struct {
	TokenHash string     `json:"-"`
	UserEmail string     `json:"user_email"`
	CreatedAt time.Time  `json:"created_at"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
	ExpiresAt int64      `json:"expires_at,omitempty"` // Unix timestamp for TTL
}
