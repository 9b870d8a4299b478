package app

import (
	"context"
	"strings"
	"time"

	"github.com/souschef/souschef/internal/api"
	apperrors "github.com/souschef/souschef/internal/errors"
	"github.com/souschef/souschef/internal/images"
	"github.com/souschef/souschef/internal/logger"
)

// RecipeFilter narrows a recipe listing. A recipe matches when it references
// any of the given tag IDs and any of the given ingredient IDs; an empty
// slice means no filtering on that axis.
type RecipeFilter struct {
	TagIDs        []string
	IngredientIDs []string
}

const maxPriceDigits = 5
const maxPriceDecimals = 2

// validatePrice checks that a price is a plain decimal string within the
// supported precision. Prices are carried as strings end to end so they
// survive round-trips exactly.
func validatePrice(price string) error {
	if price == "" {
		return apperrors.ErrBadRequest("price is required", nil)
	}

	intPart, fracPart, hasFrac := strings.Cut(price, ".")
	if !isDigits(intPart) || (hasFrac && !isDigits(fracPart)) {
		return apperrors.ErrBadRequest("price must be a decimal number", nil)
	}
	if len(fracPart) > maxPriceDecimals {
		return apperrors.ErrBadRequest("price can have at most 2 decimal places", nil)
	}
	if len(intPart)+len(fracPart) > maxPriceDigits {
		return apperrors.ErrBadRequest("price can have at most 5 digits", nil)
	}

	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// containsAny reports whether have references at least one of want.
func containsAny(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// ListRecipes returns the caller's recipes, newest first, optionally
// filtered by referenced tag and ingredient IDs. The list view carries
// IDs only; the detail view expands them.
func (s *Service) ListRecipes(ctx context.Context, userEmail string, filter RecipeFilter) (*api.ListRecipesResponse, error) {
	if s.recipeRepo == nil {
		return nil, apperrors.ErrInternalError("recipe repository not configured", nil)
	}
	if userEmail == "" {
		return nil, apperrors.ErrBadRequest("user email is required", nil)
	}

	details, err := s.recipeRepo.ListRecipes(ctx, userEmail)
	if err != nil {
		return nil, err
	}

	recipes := make([]*api.Recipe, 0, len(details))
	for _, detail := range details {
		if len(filter.TagIDs) > 0 && !containsAny(detail.TagIDs, filter.TagIDs) {
			continue
		}
		if len(filter.IngredientIDs) > 0 && !containsAny(detail.IngredientIDs, filter.IngredientIDs) {
			continue
		}
		recipe := detail.Recipe
		recipes = append(recipes, &recipe)
	}

	return &api.ListRecipesResponse{Recipes: recipes}, nil
}

// CreateRecipe creates a recipe for the user. Nested tags and ingredients
// are get-or-created by name and linked.
func (s *Service) CreateRecipe(
	ctx context.Context,
	userEmail string,
	req api.CreateRecipeRequest) (*api.RecipeDetail, error) {
	if s.recipeRepo == nil {
		return nil, apperrors.ErrInternalError("recipe repository not configured", nil)
	}
	if userEmail == "" {
		return nil, apperrors.ErrBadRequest("user email is required", nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperrors.ErrBadRequest("title is required", nil)
	}
	if req.TimeMinutes < 0 {
		return nil, apperrors.ErrBadRequest("time_minutes must not be negative", nil)
	}
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}

	tags, tagIDs, err := s.resolveTagInputs(ctx, userEmail, req.Tags)
	if err != nil {
		return nil, err
	}
	ingredients, ingredientIDs, err := s.resolveIngredientInputs(ctx, userEmail, req.Ingredients)
	if err != nil {
		return nil, err
	}

	detail := &api.RecipeDetail{
		Recipe: api.Recipe{
			ID:            GenerateItemID(),
			Title:         strings.TrimSpace(req.Title),
			TimeMinutes:   req.TimeMinutes,
			Price:         req.Price,
			Link:          req.Link,
			TagIDs:        tagIDs,
			IngredientIDs: ingredientIDs,
			CreatedAt:     time.Now().UTC(),
		},
		Description: req.Description,
		Tags:        tags,
		Ingredients: ingredients,
	}

	if err := s.recipeRepo.CreateRecipe(ctx, userEmail, detail); err != nil {
		return nil, err
	}

	reqLogger := logger.DeriveRequestLogger(ctx, s.Logger)
	reqLogger.Info("recipe created", "recipe_id", detail.ID, "email", userEmail)

	return detail, nil
}

// GetRecipe returns the full payload of one of the user's recipes.
// Another user's recipe is indistinguishable from a missing one.
func (s *Service) GetRecipe(ctx context.Context, userEmail, id string) (*api.RecipeDetail, error) {
	if s.recipeRepo == nil {
		return nil, apperrors.ErrInternalError("recipe repository not configured", nil)
	}
	if userEmail == "" || id == "" {
		return nil, apperrors.ErrBadRequest("user email and recipe ID are required", nil)
	}

	detail, err := s.recipeRepo.GetRecipe(ctx, userEmail, id)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, apperrors.ErrNotFound("recipe not found", nil)
	}

	if err := s.expandRecipe(ctx, userEmail, detail); err != nil {
		return nil, err
	}

	return detail, nil
}

// UpdateRecipe applies a partial update. Nil fields are left unchanged; a
// non-nil empty tag or ingredient list clears the links, a non-empty one
// replaces them entirely.
func (s *Service) UpdateRecipe(
	ctx context.Context,
	userEmail, id string,
	req api.UpdateRecipeRequest) (*api.RecipeDetail, error) {
	if s.recipeRepo == nil {
		return nil, apperrors.ErrInternalError("recipe repository not configured", nil)
	}
	if userEmail == "" || id == "" {
		return nil, apperrors.ErrBadRequest("user email and recipe ID are required", nil)
	}

	detail, err := s.recipeRepo.GetRecipe(ctx, userEmail, id)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, apperrors.ErrNotFound("recipe not found", nil)
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, apperrors.ErrBadRequest("title may not be blank", nil)
		}
		detail.Title = strings.TrimSpace(*req.Title)
	}
	if req.TimeMinutes != nil {
		if *req.TimeMinutes < 0 {
			return nil, apperrors.ErrBadRequest("time_minutes must not be negative", nil)
		}
		detail.TimeMinutes = *req.TimeMinutes
	}
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return nil, err
		}
		detail.Price = *req.Price
	}
	if req.Link != nil {
		detail.Link = *req.Link
	}
	if req.Description != nil {
		detail.Description = *req.Description
	}
	if req.Tags != nil {
		_, tagIDs, err := s.resolveTagInputs(ctx, userEmail, *req.Tags)
		if err != nil {
			return nil, err
		}
		detail.TagIDs = tagIDs
	}
	if req.Ingredients != nil {
		_, ingredientIDs, err := s.resolveIngredientInputs(ctx, userEmail, *req.Ingredients)
		if err != nil {
			return nil, err
		}
		detail.IngredientIDs = ingredientIDs
	}

	if err := s.recipeRepo.UpdateRecipe(ctx, userEmail, detail); err != nil {
		return nil, err
	}

	if err := s.expandRecipe(ctx, userEmail, detail); err != nil {
		return nil, err
	}

	return detail, nil
}

// ReplaceRecipe replaces the whole recipe document. Optional fields omitted
// from the request reset to their zero values; the stored image is kept.
func (s *Service) ReplaceRecipe(
	ctx context.Context,
	userEmail, id string,
	req api.CreateRecipeRequest) (*api.RecipeDetail, error) {
	if s.recipeRepo == nil {
		return nil, apperrors.ErrInternalError("recipe repository not configured", nil)
	}
	if userEmail == "" || id == "" {
		return nil, apperrors.ErrBadRequest("user email and recipe ID are required", nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperrors.ErrBadRequest("title is required", nil)
	}
	if req.TimeMinutes < 0 {
		return nil, apperrors.ErrBadRequest("time_minutes must not be negative", nil)
	}
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}

	existing, err := s.recipeRepo.GetRecipe(ctx, userEmail, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperrors.ErrNotFound("recipe not found", nil)
	}

	tags, tagIDs, err := s.resolveTagInputs(ctx, userEmail, req.Tags)
	if err != nil {
		return nil, err
	}
	ingredients, ingredientIDs, err := s.resolveIngredientInputs(ctx, userEmail, req.Ingredients)
	if err != nil {
		return nil, err
	}

	detail := &api.RecipeDetail{
		Recipe: api.Recipe{
			ID:            existing.ID,
			Title:         strings.TrimSpace(req.Title),
			TimeMinutes:   req.TimeMinutes,
			Price:         req.Price,
			Link:          req.Link,
			TagIDs:        tagIDs,
			IngredientIDs: ingredientIDs,
			CreatedAt:     existing.CreatedAt,
		},
		Description: req.Description,
		ImageKey:    existing.ImageKey,
		Tags:        tags,
		Ingredients: ingredients,
	}

	if err := s.recipeRepo.UpdateRecipe(ctx, userEmail, detail); err != nil {
		return nil, err
	}

	if s.images != nil && detail.ImageKey != "" {
		detail.ImageURL = s.images.URL(detail.ImageKey)
	}

	return detail, nil
}

// DeleteRecipe removes one of the user's recipes.
func (s *Service) DeleteRecipe(ctx context.Context, userEmail, id string) error {
	if s.recipeRepo == nil {
		return apperrors.ErrInternalError("recipe repository not configured", nil)
	}
	if userEmail == "" || id == "" {
		return apperrors.ErrBadRequest("user email and recipe ID are required", nil)
	}

	return s.recipeRepo.DeleteRecipe(ctx, userEmail, id)
}

// UploadRecipeImage stores an image for the recipe and replaces any previous
// one. Content is sniffed; non-image payloads are rejected before upload.
func (s *Service) UploadRecipeImage(
	ctx context.Context,
	userEmail, id string,
	data []byte) (*api.UploadImageResponse, error) {
	if s.recipeRepo == nil {
		return nil, apperrors.ErrInternalError("recipe repository not configured", nil)
	}
	if s.images == nil {
		return nil, apperrors.ErrInternalError("image store not configured", nil)
	}
	if userEmail == "" || id == "" {
		return nil, apperrors.ErrBadRequest("user email and recipe ID are required", nil)
	}
	if len(data) == 0 {
		return nil, apperrors.ErrBadRequest("image file is required", nil)
	}

	recipe, err := s.recipeRepo.GetRecipe(ctx, userEmail, id)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, apperrors.ErrNotFound("recipe not found", nil)
	}

	contentType, ok := images.SniffContentType(data)
	if !ok {
		return nil, apperrors.ErrBadRequest("file is not a valid image", nil)
	}

	key, err := s.images.Put(ctx, data, contentType)
	if err != nil {
		return nil, apperrors.ErrInternalError("failed to store image", err)
	}

	reqLogger := logger.DeriveRequestLogger(ctx, s.Logger)

	if err := s.recipeRepo.SetRecipeImage(ctx, userEmail, id, key); err != nil {
		// The record was not updated, so the fresh object is unreachable.
		if deleteErr := s.images.Delete(ctx, key); deleteErr != nil {
			reqLogger.Warn("failed to clean up orphaned image", "error", deleteErr, "key", key)
		}
		return nil, err
	}

	if recipe.ImageKey != "" && recipe.ImageKey != key {
		if err := s.images.Delete(ctx, recipe.ImageKey); err != nil {
			reqLogger.Warn("failed to delete replaced image", "error", err, "key", recipe.ImageKey)
		}
	}

	reqLogger.Info("recipe image uploaded", "recipe_id", id, "key", key)

	return &api.UploadImageResponse{
		ID:       id,
		ImageURL: s.images.URL(key),
	}, nil
}

// expandRecipe fills the expanded tag and ingredient objects and the image
// URL for a detail view. IDs referencing since-deleted items are skipped.
func (s *Service) expandRecipe(ctx context.Context, userEmail string, detail *api.RecipeDetail) error {
	detail.Tags = []*api.Tag{}
	detail.Ingredients = []*api.Ingredient{}

	if s.tagRepo != nil && len(detail.TagIDs) > 0 {
		tags, err := s.tagRepo.ListTags(ctx, userEmail)
		if err != nil {
			return err
		}
		byID := make(map[string]*api.Tag, len(tags))
		for _, tag := range tags {
			byID[tag.ID] = tag
		}
		for _, tagID := range detail.TagIDs {
			if tag, ok := byID[tagID]; ok {
				detail.Tags = append(detail.Tags, tag)
			}
		}
	}

	if s.ingredientRepo != nil && len(detail.IngredientIDs) > 0 {
		ingredients, err := s.ingredientRepo.ListIngredients(ctx, userEmail)
		if err != nil {
			return err
		}
		byID := make(map[string]*api.Ingredient, len(ingredients))
		for _, ingredient := range ingredients {
			byID[ingredient.ID] = ingredient
		}
		for _, ingredientID := range detail.IngredientIDs {
			if ingredient, ok := byID[ingredientID]; ok {
				detail.Ingredients = append(detail.Ingredients, ingredient)
			}
		}
	}

	if s.images != nil && detail.ImageKey != "" {
		detail.ImageURL = s.images.URL(detail.ImageKey)
	}

	return nil
}
