package api

import "context"

// Interface defines the API client surface used by CLI commands,
// for dependency injection and testing
type Interface interface {
	GetHealth(ctx context.Context) (*HealthResponse, error)
	RegisterUser(ctx context.Context, req RegisterUserRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Logout(ctx context.Context) error
	GetMe(ctx context.Context) (*User, error)
	ListUsers(ctx context.Context) (*ListUsersResponse, error)
	RevokeUser(ctx context.Context, req RevokeUserRequest) (*RevokeUserResponse, error)
	ListRecipes(ctx context.Context, tagIDs, ingredientIDs string) (*ListRecipesResponse, error)
	GetRecipe(ctx context.Context, recipeID string) (*RecipeDetail, error)
	ListTags(ctx context.Context, assignedOnly bool) (*ListTagsResponse, error)
	ListIngredients(ctx context.Context, assignedOnly bool) (*ListIngredientsResponse, error)
}

// Compile-time check to ensure Client implements Interface
var _ Interface = (*Client)(nil)
