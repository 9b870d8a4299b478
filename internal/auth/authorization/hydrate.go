package authorization

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/souschef/souschef/internal/database"
)

// HydrateEnforcer loads all user roles into the Casbin enforcer.
// This should be called during initialization to populate the enforcer with current data.
// Inactive users are skipped: a revoked user keeps no authorization state.
func HydrateEnforcer(
	ctx context.Context,
	enforcer *Enforcer,
	userRepo database.UserRepository,
	logger *slog.Logger,
) error {
	users, err := userRepo.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}

	g, _ := errgroup.WithContext(ctx)

	for _, user := range users {
		g.Go(func() error {
			if user == nil || user.Email == "" {
				return errors.New("user is nil or missing email")
			}

			if !user.IsActive {
				logger.Debug("skipping inactive user during enforcer hydration", "email", user.Email)
				return nil
			}

			role, roleErr := NewRole(user.Role)
			if roleErr != nil {
				return fmt.Errorf("user %s has invalid role %q: %w", user.Email, user.Role, roleErr)
			}

			if addErr := enforcer.AddRoleForUser(user.Email, role); addErr != nil {
				return fmt.Errorf("failed to add role %q for user %s: %w", user.Role, user.Email, addErr)
			}

			return nil
		})
	}

	if waitErr := g.Wait(); waitErr != nil {
		return fmt.Errorf("failed to load user roles: %w", waitErr)
	}

	logger.Debug("casbin authorization enforcer hydrated successfully", "users", len(users))
	return nil
}
