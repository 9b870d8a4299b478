// Package database defines repository interfaces for data persistence.
// It provides abstractions for user, token, recipe, tag, and ingredient
// storage.
package database

import (
	"context"
	"time"

	"github.com/souschef/souschef/internal/api"
)

// UserRepository defines the interface for user-related database operations.
// This abstraction allows for different implementations (DynamoDB, PostgreSQL, etc.)
// without changing the business logic layer.
type UserRepository interface {
	// CreateUser stores a new user with their password hash in the database.
	// Returns a conflict error if a user with the same email already exists.
	CreateUser(ctx context.Context, user *api.User, passwordHash string) error

	// GetUserByEmail retrieves a user by their email address.
	// Returns nil if the user doesn't exist.
	GetUserByEmail(ctx context.Context, email string) (*api.User, error)

	// GetUserCredentials retrieves a user together with their password hash.
	// Used only by the login flow. Returns a nil user if it doesn't exist.
	GetUserCredentials(ctx context.Context, email string) (*api.User, string, error)

	// UpdateUser applies a partial update to a user's profile.
	// Nil fields are left unchanged. Returns the updated user.
	UpdateUser(ctx context.Context, email string, name, passwordHash *string) (*api.User, error)

	// UpdateLastLogin updates the last_login timestamp for a user.
	// Called after successful password authentication.
	UpdateLastLogin(ctx context.Context, email string) (*time.Time, error)

	// DeactivateUser marks a user as inactive without deleting the record.
	// Useful for audit trails.
	DeactivateUser(ctx context.Context, email string) error

	// ListUsers returns all users sorted by email ascending.
	ListUsers(ctx context.Context) ([]*api.User, error)
}

// TokenRepository defines the interface for auth token operations.
// Tokens are stored hashed; the plain token never reaches the database.
type TokenRepository interface {
	// CreateToken stores a new token record.
	CreateToken(ctx context.Context, token *api.Token) error

	// GetTokenByHash retrieves a token record by its hash.
	// Returns nil if the token doesn't exist (TTL removes expired tokens).
	GetTokenByHash(ctx context.Context, tokenHash string) (*api.Token, error)

	// UpdateTokenLastUsed updates the last_used timestamp for a token.
	// Called asynchronously after successful authentication.
	UpdateTokenLastUsed(ctx context.Context, tokenHash string) (*time.Time, error)

	// DeleteToken removes a single token. Used by logout.
	DeleteToken(ctx context.Context, tokenHash string) error

	// DeleteTokensForUser removes every token belonging to a user and
	// returns the number of tokens deleted. Used when revoking access.
	DeleteTokensForUser(ctx context.Context, email string) (int, error)
}

// RecipeRepository defines the interface for recipe storage.
// Recipes are always scoped to their owner: operations never see another
// user's rows, so a foreign recipe is indistinguishable from a missing one.
type RecipeRepository interface {
	// CreateRecipe stores a new recipe for the user. The caller assigns the ID.
	CreateRecipe(ctx context.Context, userEmail string, recipe *api.RecipeDetail) error

	// GetRecipe retrieves one of the user's recipes by ID.
	// Returns nil if the recipe doesn't exist for this user.
	GetRecipe(ctx context.Context, userEmail, id string) (*api.RecipeDetail, error)

	// ListRecipes returns all of the user's recipes, newest first.
	ListRecipes(ctx context.Context, userEmail string) ([]*api.RecipeDetail, error)

	// UpdateRecipe replaces an existing recipe.
	// Returns a not-found error if the recipe doesn't exist for this user.
	UpdateRecipe(ctx context.Context, userEmail string, recipe *api.RecipeDetail) error

	// DeleteRecipe removes one of the user's recipes.
	// Returns a not-found error if the recipe doesn't exist for this user.
	DeleteRecipe(ctx context.Context, userEmail, id string) error

	// SetRecipeImage records the storage key of the recipe's image.
	// Returns a not-found error if the recipe doesn't exist for this user.
	SetRecipeImage(ctx context.Context, userEmail, id, imageKey string) error
}

// TagRepository defines the interface for tag storage.
type TagRepository interface {
	// CreateTag stores a new tag for the user. The caller assigns the ID.
	CreateTag(ctx context.Context, userEmail string, tag *api.Tag) error

	// GetTagByName retrieves one of the user's tags by its exact name.
	// Returns nil if no tag with that name exists for this user.
	GetTagByName(ctx context.Context, userEmail, name string) (*api.Tag, error)

	// ListTags returns all of the user's tags in storage order.
	ListTags(ctx context.Context, userEmail string) ([]*api.Tag, error)

	// UpdateTag renames one of the user's tags.
	// Returns a not-found error if the tag doesn't exist for this user.
	UpdateTag(ctx context.Context, userEmail, id, name string) error

	// DeleteTag removes one of the user's tags.
	// Returns a not-found error if the tag doesn't exist for this user.
	DeleteTag(ctx context.Context, userEmail, id string) error
}

// IngredientRepository defines the interface for ingredient storage.
type IngredientRepository interface {
	// CreateIngredient stores a new ingredient for the user. The caller assigns the ID.
	CreateIngredient(ctx context.Context, userEmail string, ingredient *api.Ingredient) error

	// GetIngredientByName retrieves one of the user's ingredients by its exact name.
	// Returns nil if no ingredient with that name exists for this user.
	GetIngredientByName(ctx context.Context, userEmail, name string) (*api.Ingredient, error)

	// ListIngredients returns all of the user's ingredients in storage order.
	ListIngredients(ctx context.Context, userEmail string) ([]*api.Ingredient, error)

	// UpdateIngredient renames one of the user's ingredients.
	// Returns a not-found error if the ingredient doesn't exist for this user.
	UpdateIngredient(ctx context.Context, userEmail, id, name string) error

	// DeleteIngredient removes one of the user's ingredients.
	// Returns a not-found error if the ingredient doesn't exist for this user.
	DeleteIngredient(ctx context.Context, userEmail, id string) error
}
