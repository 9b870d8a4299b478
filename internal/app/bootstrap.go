package app

import (
	"context"
	"net/mail"
	"time"

	"github.com/souschef/souschef/internal/api"
	"github.com/souschef/souschef/internal/auth"
	"github.com/souschef/souschef/internal/auth/authorization"
	"github.com/souschef/souschef/internal/database"
	apperrors "github.com/souschef/souschef/internal/errors"
)

// SeedAdmin creates the initial admin user with a generated password and
// returns that password. It is shown exactly once; only its hash is stored.
// When the user already exists the seed is a no-op and the returned password
// is empty.
func SeedAdmin(ctx context.Context, users database.UserRepository, email, name string) (string, error) {
	if email == "" {
		return "", apperrors.ErrBadRequest("admin email is required", nil)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperrors.ErrBadRequest("invalid email address", err)
	}
	email = normalizeEmail(email)

	existing, err := users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", nil
	}

	password, err := auth.GeneratePassword()
	if err != nil {
		return "", apperrors.ErrInternalError("failed to generate password", err)
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return "", apperrors.ErrInternalError("failed to hash password", err)
	}

	user := &api.User{
		Email:     email,
		Name:      name,
		Role:      authorization.RoleAdmin.String(),
		CreatedAt: time.Now().UTC(),
		IsActive:  true,
	}
	if err := users.CreateUser(ctx, user, passwordHash); err != nil {
		return "", err
	}

	return password, nil
}
