package dynamodb

import (
	"log/slog"

	"github.com/souschef/souschef/internal/config"
	"github.com/souschef/souschef/internal/database"
)

// Repositories bundles all DynamoDB-backed repositories.
type Repositories struct {
	UserRepo       database.UserRepository
	TokenRepo      database.TokenRepository
	RecipeRepo     database.RecipeRepository
	TagRepo        database.TagRepository
	IngredientRepo database.IngredientRepository
}

// CreateRepositories creates all DynamoDB-backed repositories from the provided client and configuration.
func CreateRepositories(
	client Client,
	cfg *config.Config,
	log *slog.Logger,
) *Repositories {
	userRepo := NewUserRepository(client, cfg.AWS.UsersTable, log)
	tokenRepo := NewTokenRepository(client, cfg.AWS.TokensTable, log)
	recipeRepo := NewRecipeRepository(client, cfg.AWS.RecipesTable, log)
	tagRepo := NewTagRepository(client, cfg.AWS.TagsTable, log)
	ingredientRepo := NewIngredientRepository(client, cfg.AWS.IngredientsTable, log)

	log.Debug("DynamoDB backend configured", "context", map[string]string{
		"users_table":       cfg.AWS.UsersTable,
		"tokens_table":      cfg.AWS.TokensTable,
		"recipes_table":     cfg.AWS.RecipesTable,
		"tags_table":        cfg.AWS.TagsTable,
		"ingredients_table": cfg.AWS.IngredientsTable,
	})

	return &Repositories{
		UserRepo:       userRepo,
		TokenRepo:      tokenRepo,
		RecipeRepo:     recipeRepo,
		TagRepo:        tagRepo,
		IngredientRepo: ingredientRepo,
	}
}
