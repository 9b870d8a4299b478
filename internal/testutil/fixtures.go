// Package testutil provides shared testing utilities and helpers.
package testutil

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/souschef/souschef/internal/api"
	"github.com/souschef/souschef/internal/auth/authorization"
	"github.com/souschef/souschef/internal/constants"
)

// UserBuilder provides a fluent interface for building test users.
type UserBuilder struct {
	user *api.User
}

// NewUserBuilder creates a new UserBuilder with sensible defaults.
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		user: &api.User{
			Email:     "test@example.com",
			Name:      "Test User",
			Role:      string(authorization.RoleUser),
			CreatedAt: time.Now().UTC(),
			IsActive:  true,
		},
	}
}

// WithEmail sets the user's email.
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.Email = email
	return b
}

// WithName sets the user's display name.
func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.user.Name = name
	return b
}

// WithRole sets the user's role.
func (b *UserBuilder) WithRole(role authorization.Role) *UserBuilder {
	b.user.Role = string(role)
	return b
}

// WithCreatedAt sets the user's creation time.
func (b *UserBuilder) WithCreatedAt(t time.Time) *UserBuilder {
	b.user.CreatedAt = t
	return b
}

// WithLastLogin sets the user's last login time.
func (b *UserBuilder) WithLastLogin(t time.Time) *UserBuilder {
	b.user.LastLogin = &t
	return b
}

// Deactivated marks the user as inactive.
func (b *UserBuilder) Deactivated() *UserBuilder {
	b.user.IsActive = false
	return b
}

// Build returns the constructed User.
func (b *UserBuilder) Build() *api.User {
	return b.user
}

// RecipeBuilder provides a fluent interface for building test recipes.
type RecipeBuilder struct {
	recipe *api.RecipeDetail
}

// NewRecipeBuilder creates a new RecipeBuilder with sensible defaults.
func NewRecipeBuilder() *RecipeBuilder {
	return &RecipeBuilder{
		recipe: &api.RecipeDetail{
			Recipe: api.Recipe{
				ID:            "20240101-120000-000001",
				Title:         "Sample recipe",
				TimeMinutes:   10,
				Price:         "5.00",
				TagIDs:        []string{},
				IngredientIDs: []string{},
				CreatedAt:     time.Now().UTC(),
			},
			Description: "Sample description",
		},
	}
}

// WithID sets the recipe ID.
func (b *RecipeBuilder) WithID(id string) *RecipeBuilder {
	b.recipe.ID = id
	return b
}

// WithTitle sets the recipe title.
func (b *RecipeBuilder) WithTitle(title string) *RecipeBuilder {
	b.recipe.Title = title
	return b
}

// WithTimeMinutes sets the preparation time.
func (b *RecipeBuilder) WithTimeMinutes(minutes int) *RecipeBuilder {
	b.recipe.TimeMinutes = minutes
	return b
}

// WithPrice sets the recipe price.
func (b *RecipeBuilder) WithPrice(price string) *RecipeBuilder {
	b.recipe.Price = price
	return b
}

// WithLink sets the recipe source link.
func (b *RecipeBuilder) WithLink(link string) *RecipeBuilder {
	b.recipe.Link = link
	return b
}

// WithDescription sets the recipe description.
func (b *RecipeBuilder) WithDescription(description string) *RecipeBuilder {
	b.recipe.Description = description
	return b
}

// WithTagIDs sets the linked tag IDs.
func (b *RecipeBuilder) WithTagIDs(ids ...string) *RecipeBuilder {
	b.recipe.TagIDs = ids
	return b
}

// WithIngredientIDs sets the linked ingredient IDs.
func (b *RecipeBuilder) WithIngredientIDs(ids ...string) *RecipeBuilder {
	b.recipe.IngredientIDs = ids
	return b
}

// WithImageKey sets the stored image key.
func (b *RecipeBuilder) WithImageKey(key string) *RecipeBuilder {
	b.recipe.ImageKey = key
	return b
}

// WithCreatedAt sets the recipe creation time.
func (b *RecipeBuilder) WithCreatedAt(t time.Time) *RecipeBuilder {
	b.recipe.CreatedAt = t
	return b
}

// Build returns the constructed RecipeDetail.
func (b *RecipeBuilder) Build() *api.RecipeDetail {
	return b.recipe
}

// TestContext creates a test context with a reasonable timeout.
// Note: The cancel function is intentionally not returned since test contexts
// are expected to be short-lived and will be cleaned up when the test completes.
func TestContext() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), constants.TestContextTimeout)
	_ = cancel // Silence unused warning - context will timeout automatically
	return ctx
}

// TestLogger creates a logger suitable for testing (outputs to stderr).
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}))
}

// SilentLogger creates a logger that discards all output.
func SilentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.NewFile(0, os.DevNull), &slog.HandlerOptions{
		Level: slog.LevelError + 1, // Suppress all logs
	}))
}
