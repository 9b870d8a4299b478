package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/souschef/souschef/internal/api"
	"github.com/souschef/souschef/internal/auth"
	"github.com/souschef/souschef/internal/auth/authorization"
	"github.com/souschef/souschef/internal/constants"
	"github.com/souschef/souschef/internal/database"
	apperrors "github.com/souschef/souschef/internal/errors"
	"github.com/souschef/souschef/internal/logger"
)

// ImageStore abstracts object storage for recipe images (e.g., S3).
type ImageStore interface {
	// Put uploads image bytes and returns the object key.
	Put(ctx context.Context, data []byte, contentType string) (string, error)
	// Delete removes an object by key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public URL for a stored key.
	URL(key string) string
}

// Authorizer abstracts role-based access control checks and role bookkeeping.
type Authorizer interface {
	Enforce(subject, object string, action authorization.Action) (bool, error)
	AddRoleForUser(user string, role authorization.Role) error
	RemoveRoleForUser(user string, role authorization.Role) error
}

// Service provides the core business logic for recipes and user management.
type Service struct {
	userRepo       database.UserRepository
	tokenRepo      database.TokenRepository
	recipeRepo     database.RecipeRepository
	tagRepo        database.TagRepository
	ingredientRepo database.IngredientRepository
	images         ImageStore
	authz          Authorizer
	Logger         *slog.Logger
}

// NewService creates a new service instance.
// Nil dependencies disable the operations that need them, which keeps
// single-purpose tools (init, waitdb) free of wiring they never use.
func NewService(
	userRepo database.UserRepository,
	tokenRepo database.TokenRepository,
	recipeRepo database.RecipeRepository,
	tagRepo database.TagRepository,
	ingredientRepo database.IngredientRepository,
	images ImageStore,
	authz Authorizer,
	logger *slog.Logger) *Service {
	return &Service{
		userRepo:       userRepo,
		tokenRepo:      tokenRepo,
		recipeRepo:     recipeRepo,
		tagRepo:        tagRepo,
		ingredientRepo: ingredientRepo,
		images:         images,
		authz:          authz,
		Logger:         logger,
	}
}

// normalizeEmail lowercases the domain part of an email address while
// preserving the case of the local part. Registration is the only caller;
// everything downstream sees the stored form.
func normalizeEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// validatePassword enforces the minimum password length shared by
// registration and profile updates.
func validatePassword(password string) error {
	if len(password) < constants.MinPasswordLength {
		return apperrors.ErrBadRequest(
			fmt.Sprintf("password must be at least %d characters", constants.MinPasswordLength), nil)
	}
	return nil
}

// Authorize checks whether the subject may perform the action on the object.
// Returns a forbidden error when the check fails.
func (s *Service) Authorize(email, object string, action authorization.Action) error {
	if s.authz == nil {
		return apperrors.ErrInternalError("authorizer not configured", nil)
	}

	allowed, err := s.authz.Enforce(email, object, action)
	if err != nil {
		return apperrors.ErrInternalError("authorization check failed", err)
	}
	if !allowed {
		return apperrors.ErrForbidden("you do not have permission to perform this action", nil)
	}

	return nil
}

// IsAdmin reports whether the user may manage other users.
func (s *Service) IsAdmin(email string) bool {
	if s.authz == nil {
		return false
	}
	allowed, err := s.authz.Enforce(email, authorization.ObjectUsers, authorization.ActionRead)
	if err != nil {
		s.Logger.Error("admin check failed", "error", err, "email", email)
		return false
	}
	return allowed
}

// RegisterUser creates a new user account.
// The role field of the request is honored only when callerIsAdmin is true;
// self-registered users always get the default role.
func (s *Service) RegisterUser(
	ctx context.Context,
	req api.RegisterUserRequest,
	callerIsAdmin bool) (*api.User, error) {
	if s.userRepo == nil {
		return nil, apperrors.ErrInternalError("user repository not configured", nil)
	}

	if req.Email == "" {
		return nil, apperrors.ErrBadRequest("email is required", nil)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, apperrors.ErrBadRequest("invalid email address", err)
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)

	role := authorization.DefaultRole
	if req.Role != "" && callerIsAdmin {
		var err error
		role, err = authorization.NewRole(req.Role)
		if err != nil {
			return nil, apperrors.ErrBadRequest("invalid role", err)
		}
	}

	existingUser, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, apperrors.ErrConflict("user with this email already exists", nil)
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.ErrInternalError("failed to hash password", err)
	}

	user := &api.User{
		Email:     email,
		Name:      req.Name,
		Role:      role.String(),
		CreatedAt: time.Now().UTC(),
		IsActive:  true,
	}

	if err := s.userRepo.CreateUser(ctx, user, passwordHash); err != nil {
		return nil, err
	}

	if s.authz != nil {
		if err := s.authz.AddRoleForUser(email, role); err != nil {
			return nil, apperrors.ErrInternalError("failed to assign role", err)
		}
	}

	reqLogger := logger.DeriveRequestLogger(ctx, s.Logger)
	reqLogger.Info("user registered", "email", email, "role", role.String())

	return user, nil
}

// Login verifies credentials and mints a fresh auth token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	if s.userRepo == nil || s.tokenRepo == nil {
		return nil, apperrors.ErrInternalError("user repository not configured", nil)
	}

	invalidCredentials := apperrors.ErrUnauthorized("unable to authenticate with provided credentials", nil)

	if req.Email == "" || req.Password == "" {
		return nil, invalidCredentials
	}

	reqLogger := logger.DeriveRequestLogger(ctx, s.Logger)

	user, passwordHash, err := s.userRepo.GetUserCredentials(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, invalidCredentials
	}

	ok, err := auth.VerifyPassword(req.Password, passwordHash)
	if err != nil {
		reqLogger.Warn("stored password hash could not be verified", "email", req.Email, "error", err)
		return nil, invalidCredentials
	}
	if !ok {
		return nil, invalidCredentials
	}

	plainToken, err := auth.GenerateToken()
	if err != nil {
		return nil, apperrors.ErrInternalError("failed to generate token", err)
	}

	now := time.Now().UTC()
	token := &api.Token{
		TokenHash: auth.HashToken(plainToken),
		UserEmail: user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(constants.TokenTTL).Unix(),
	}

	if err := s.tokenRepo.CreateToken(ctx, token); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.UpdateLastLogin(ctx, user.Email); err != nil {
		reqLogger.Warn("failed to update last login", "error", err, "email", user.Email)
	}

	reqLogger.Info("user logged in", "email", user.Email)

	return &api.TokenResponse{Token: plainToken}, nil
}

// AuthenticateToken resolves a plaintext token to its user.
// Returns appropriate errors for unknown tokens, expired tokens, and
// deactivated users.
func (s *Service) AuthenticateToken(ctx context.Context, plainToken string) (*api.User, error) {
	if s.userRepo == nil || s.tokenRepo == nil {
		return nil, apperrors.ErrInternalError("user repository not configured", nil)
	}

	if plainToken == "" {
		return nil, apperrors.ErrUnauthorized("authentication credentials were not provided", nil)
	}

	token, err := s.tokenRepo.GetTokenByHash(ctx, auth.HashToken(plainToken))
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, apperrors.ErrInvalidToken(nil)
	}

	// DynamoDB TTL deletion lags; an expired record can linger for hours.
	if token.ExpiresAt > 0 && token.ExpiresAt < time.Now().Unix() {
		return nil, apperrors.ErrInvalidToken(nil)
	}

	user, err := s.userRepo.GetUserByEmail(ctx, token.UserEmail)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrInvalidToken(nil)
	}
	if !user.IsActive {
		return nil, apperrors.ErrTokenRevoked(nil)
	}

	return user, nil
}

// TouchTokenLastUsed updates the token's last_used timestamp after successful
// authentication. This is a best-effort operation; callers may choose to log
// failures without failing the request.
func (s *Service) TouchTokenLastUsed(ctx context.Context, plainToken string) (*time.Time, error) {
	if s.tokenRepo == nil {
		return nil, apperrors.ErrInternalError("token repository not configured", nil)
	}
	if plainToken == "" {
		return nil, apperrors.ErrBadRequest("token is required", nil)
	}
	return s.tokenRepo.UpdateTokenLastUsed(ctx, auth.HashToken(plainToken))
}

// Logout deletes the caller's current token.
func (s *Service) Logout(ctx context.Context, plainToken string) error {
	if s.tokenRepo == nil {
		return apperrors.ErrInternalError("token repository not configured", nil)
	}
	if plainToken == "" {
		return apperrors.ErrBadRequest("token is required", nil)
	}
	return s.tokenRepo.DeleteToken(ctx, auth.HashToken(plainToken))
}

// GetProfile returns the user's profile.
func (s *Service) GetProfile(ctx context.Context, email string) (*api.User, error) {
	if s.userRepo == nil {
		return nil, apperrors.ErrInternalError("user repository not configured", nil)
	}
	if email == "" {
		return nil, apperrors.ErrBadRequest("email is required", nil)
	}

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrNotFound("user not found", nil)
	}

	return user, nil
}

// UpdateProfile applies a partial update to the user's own profile.
// Email and role are immutable here. Updating the password does not
// invalidate existing tokens.
func (s *Service) UpdateProfile(ctx context.Context, email string, req api.UpdateUserRequest) (*api.User, error) {
	if s.userRepo == nil {
		return nil, apperrors.ErrInternalError("user repository not configured", nil)
	}
	if email == "" {
		return nil, apperrors.ErrBadRequest("email is required", nil)
	}

	var passwordHash *string
	if req.Password != nil {
		if err := validatePassword(*req.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, apperrors.ErrInternalError("failed to hash password", err)
		}
		passwordHash = &hash
	}

	user, err := s.userRepo.UpdateUser(ctx, email, req.Name, passwordHash)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// ListUsers returns all users in the system sorted by email ascending.
// Password hashes never leave the repository layer.
func (s *Service) ListUsers(ctx context.Context) (*api.ListUsersResponse, error) {
	if s.userRepo == nil {
		return nil, apperrors.ErrInternalError("user repository not configured", nil)
	}

	users, err := s.userRepo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(users, func(a, b *api.User) int {
		return strings.Compare(a.Email, b.Email)
	})

	return &api.ListUsersResponse{Users: users}, nil
}

// RevokeUser deactivates a user and deletes all their tokens.
// Revoked users fail authentication until re-activated out of band.
func (s *Service) RevokeUser(ctx context.Context, email string) (*api.RevokeUserResponse, error) {
	if s.userRepo == nil || s.tokenRepo == nil {
		return nil, apperrors.ErrInternalError("user repository not configured", nil)
	}
	if email == "" {
		return nil, apperrors.ErrBadRequest("email is required", nil)
	}

	reqLogger := logger.DeriveRequestLogger(ctx, s.Logger)

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrNotFound("user not found", nil)
	}

	if err := s.userRepo.DeactivateUser(ctx, email); err != nil {
		return nil, err
	}

	deleted, err := s.tokenRepo.DeleteTokensForUser(ctx, email)
	if err != nil {
		// The user is already deactivated, so lingering tokens cannot
		// authenticate. Surface the cleanup failure in logs only.
		reqLogger.Error("failed to delete tokens for revoked user", "error", err, "email", email)
	}

	if s.authz != nil {
		if role, roleErr := authorization.NewRole(user.Role); roleErr == nil {
			if err := s.authz.RemoveRoleForUser(email, role); err != nil {
				reqLogger.Error("failed to remove role for revoked user", "error", err, "email", email)
			}
		}
	}

	reqLogger.Info("user revoked", "email", email, "tokens_deleted", deleted)

	return &api.RevokeUserResponse{
		Message: "user revoked",
		Email:   email,
	}, nil
}
