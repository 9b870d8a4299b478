package app

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/souschef/souschef/internal/api"
	apperrors "github.com/souschef/souschef/internal/errors"
	"github.com/souschef/souschef/internal/logger"
)

// Tags and ingredients are deliberately created only through recipe nesting.
// The standalone operations below cover listing, renaming, and deleting.

// ListTags returns the caller's tags sorted by name descending.
// With assignedOnly, only tags referenced by at least one of the caller's
// recipes are returned.
func (s *Service) ListTags(ctx context.Context, userEmail string, assignedOnly bool) (*api.ListTagsResponse, error) {
	if s.tagRepo == nil {
		return nil, apperrors.ErrInternalError("tag repository not configured", nil)
	}
	if userEmail == "" {
		return nil, apperrors.ErrBadRequest("user email is required", nil)
	}

	tags, err := s.tagRepo.ListTags(ctx, userEmail)
	if err != nil {
		return nil, err
	}

	if assignedOnly {
		referenced, err := s.referencedIDs(ctx, userEmail, func(r *api.RecipeDetail) []string { return r.TagIDs })
		if err != nil {
			return nil, err
		}
		tags = slices.DeleteFunc(tags, func(tag *api.Tag) bool {
			return !referenced[tag.ID]
		})
	}

	slices.SortFunc(tags, func(a, b *api.Tag) int {
		return strings.Compare(b.Name, a.Name)
	})

	return &api.ListTagsResponse{Tags: tags}, nil
}

// RenameTag updates the name of one of the user's tags.
func (s *Service) RenameTag(ctx context.Context, userEmail, id, name string) (*api.Tag, error) {
	if s.tagRepo == nil {
		return nil, apperrors.ErrInternalError("tag repository not configured", nil)
	}
	if userEmail == "" || id == "" {
		return nil, apperrors.ErrBadRequest("user email and tag ID are required", nil)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ErrBadRequest("name may not be blank", nil)
	}

	if err := s.tagRepo.UpdateTag(ctx, userEmail, id, name); err != nil {
		return nil, err
	}

	tags, err := s.tagRepo.ListTags(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	for _, tag := range tags {
		if tag.ID == id {
			return tag, nil
		}
	}

	return &api.Tag{ID: id, Name: name}, nil
}

// DeleteTag removes one of the user's tags and scrubs its ID from any
// recipes that referenced it.
func (s *Service) DeleteTag(ctx context.Context, userEmail, id string) error {
	if s.tagRepo == nil {
		return apperrors.ErrInternalError("tag repository not configured", nil)
	}
	if userEmail == "" || id == "" {
		return apperrors.ErrBadRequest("user email and tag ID are required", nil)
	}

	if err := s.tagRepo.DeleteTag(ctx, userEmail, id); err != nil {
		return err
	}

	s.scrubRecipeLinks(ctx, userEmail, id, "tag")

	return nil
}

// ListIngredients returns the caller's ingredients sorted by name descending.
// With assignedOnly, only ingredients referenced by at least one of the
// caller's recipes are returned.
func (s *Service) ListIngredients(
	ctx context.Context,
	userEmail string,
	assignedOnly bool) (*api.ListIngredientsResponse, error) {
	if s.ingredientRepo == nil {
		return nil, apperrors.ErrInternalError("ingredient repository not configured", nil)
	}
	if userEmail == "" {
		return nil, apperrors.ErrBadRequest("user email is required", nil)
	}

	ingredients, err := s.ingredientRepo.ListIngredients(ctx, userEmail)
	if err != nil {
		return nil, err
	}

	if assignedOnly {
		referenced, err := s.referencedIDs(ctx, userEmail, func(r *api.RecipeDetail) []string { return r.IngredientIDs })
		if err != nil {
			return nil, err
		}
		ingredients = slices.DeleteFunc(ingredients, func(ingredient *api.Ingredient) bool {
			return !referenced[ingredient.ID]
		})
	}

	slices.SortFunc(ingredients, func(a, b *api.Ingredient) int {
		return strings.Compare(b.Name, a.Name)
	})

	return &api.ListIngredientsResponse{Ingredients: ingredients}, nil
}

// RenameIngredient updates the name of one of the user's ingredients.
func (s *Service) RenameIngredient(ctx context.Context, userEmail, id, name string) (*api.Ingredient, error) {
	if s.ingredientRepo == nil {
		return nil, apperrors.ErrInternalError("ingredient repository not configured", nil)
	}
	if userEmail == "" || id == "" {
		return nil, apperrors.ErrBadRequest("user email and ingredient ID are required", nil)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ErrBadRequest("name may not be blank", nil)
	}

	if err := s.ingredientRepo.UpdateIngredient(ctx, userEmail, id, name); err != nil {
		return nil, err
	}

	ingredients, err := s.ingredientRepo.ListIngredients(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	for _, ingredient := range ingredients {
		if ingredient.ID == id {
			return ingredient, nil
		}
	}

	return &api.Ingredient{ID: id, Name: name}, nil
}

// DeleteIngredient removes one of the user's ingredients and scrubs its ID
// from any recipes that referenced it.
func (s *Service) DeleteIngredient(ctx context.Context, userEmail, id string) error {
	if s.ingredientRepo == nil {
		return apperrors.ErrInternalError("ingredient repository not configured", nil)
	}
	if userEmail == "" || id == "" {
		return apperrors.ErrBadRequest("user email and ingredient ID are required", nil)
	}

	if err := s.ingredientRepo.DeleteIngredient(ctx, userEmail, id); err != nil {
		return err
	}

	s.scrubRecipeLinks(ctx, userEmail, id, "ingredient")

	return nil
}

// referencedIDs collects the IDs referenced by the user's recipes along one
// link axis (tags or ingredients).
func (s *Service) referencedIDs(
	ctx context.Context,
	userEmail string,
	pick func(*api.RecipeDetail) []string) (map[string]bool, error) {
	if s.recipeRepo == nil {
		return nil, apperrors.ErrInternalError("recipe repository not configured", nil)
	}

	recipes, err := s.recipeRepo.ListRecipes(ctx, userEmail)
	if err != nil {
		return nil, err
	}

	referenced := make(map[string]bool)
	for _, recipe := range recipes {
		for _, id := range pick(recipe) {
			referenced[id] = true
		}
	}

	return referenced, nil
}

// scrubRecipeLinks removes a deleted tag or ingredient ID from the user's
// recipes. The item itself is already gone, and expansion skips dangling
// IDs, so failures here are logged rather than returned.
func (s *Service) scrubRecipeLinks(ctx context.Context, userEmail, id, kind string) {
	reqLogger := logger.DeriveRequestLogger(ctx, s.Logger)

	if s.recipeRepo == nil {
		return
	}

	recipes, err := s.recipeRepo.ListRecipes(ctx, userEmail)
	if err != nil {
		reqLogger.Error("failed to list recipes for link cleanup", "error", err, "kind", kind, "id", id)
		return
	}

	for _, recipe := range recipes {
		var links []string
		switch kind {
		case "tag":
			links = recipe.TagIDs
		default:
			links = recipe.IngredientIDs
		}
		if !slices.Contains(links, id) {
			continue
		}

		remaining := slices.DeleteFunc(slices.Clone(links), func(linked string) bool { return linked == id })
		switch kind {
		case "tag":
			recipe.TagIDs = remaining
		default:
			recipe.IngredientIDs = remaining
		}

		if err := s.recipeRepo.UpdateRecipe(ctx, userEmail, recipe); err != nil {
			reqLogger.Error("failed to scrub recipe link", "error", err, "recipe_id", recipe.ID, "kind", kind, "id", id)
		}
	}
}

// getOrCreateTag finds the user's tag by exact name or creates it. A create
// that loses an ID race re-reads by name before retrying with a fresh ID.
func (s *Service) getOrCreateTag(ctx context.Context, userEmail, name string) (*api.Tag, error) {
	tag, err := s.tagRepo.GetTagByName(ctx, userEmail, name)
	if err != nil {
		return nil, err
	}
	if tag != nil {
		return tag, nil
	}

	for attempt := 0; attempt < 2; attempt++ {
		tag = &api.Tag{
			ID:        GenerateItemID(),
			Name:      name,
			CreatedAt: time.Now().UTC(),
		}
		err = s.tagRepo.CreateTag(ctx, userEmail, tag)
		if err == nil {
			return tag, nil
		}
		if apperrors.GetErrorCode(err) != apperrors.ErrCodeConflict {
			return nil, err
		}

		// Lost an ID collision. A concurrent request may have created the
		// same name, so prefer the winner over minting a duplicate.
		existing, getErr := s.tagRepo.GetTagByName(ctx, userEmail, name)
		if getErr != nil {
			return nil, getErr
		}
		if existing != nil {
			return existing, nil
		}
	}

	return nil, err
}

// getOrCreateIngredient finds the user's ingredient by exact name or creates
// it, with the same race handling as getOrCreateTag.
func (s *Service) getOrCreateIngredient(ctx context.Context, userEmail, name string) (*api.Ingredient, error) {
	ingredient, err := s.ingredientRepo.GetIngredientByName(ctx, userEmail, name)
	if err != nil {
		return nil, err
	}
	if ingredient != nil {
		return ingredient, nil
	}

	for attempt := 0; attempt < 2; attempt++ {
		ingredient = &api.Ingredient{
			ID:        GenerateItemID(),
			Name:      name,
			CreatedAt: time.Now().UTC(),
		}
		err = s.ingredientRepo.CreateIngredient(ctx, userEmail, ingredient)
		if err == nil {
			return ingredient, nil
		}
		if apperrors.GetErrorCode(err) != apperrors.ErrCodeConflict {
			return nil, err
		}

		existing, getErr := s.ingredientRepo.GetIngredientByName(ctx, userEmail, name)
		if getErr != nil {
			return nil, getErr
		}
		if existing != nil {
			return existing, nil
		}
	}

	return nil, err
}

// resolveTagInputs get-or-creates each named tag and returns the resolved
// tags with their IDs in request order, deduplicated by name.
func (s *Service) resolveTagInputs(
	ctx context.Context,
	userEmail string,
	inputs []api.TagInput) ([]*api.Tag, []string, error) {
	if len(inputs) > 0 && s.tagRepo == nil {
		return nil, nil, apperrors.ErrInternalError("tag repository not configured", nil)
	}

	seen := make(map[string]bool, len(inputs))
	tags := []*api.Tag{}
	ids := []string{}
	for _, input := range inputs {
		name := strings.TrimSpace(input.Name)
		if name == "" {
			return nil, nil, apperrors.ErrBadRequest("tag name may not be blank", nil)
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		tag, err := s.getOrCreateTag(ctx, userEmail, name)
		if err != nil {
			return nil, nil, err
		}
		tags = append(tags, tag)
		ids = append(ids, tag.ID)
	}

	return tags, ids, nil
}

// resolveIngredientInputs get-or-creates each named ingredient and returns
// the resolved ingredients with their IDs in request order, deduplicated by
// name.
func (s *Service) resolveIngredientInputs(
	ctx context.Context,
	userEmail string,
	inputs []api.IngredientInput) ([]*api.Ingredient, []string, error) {
	if len(inputs) > 0 && s.ingredientRepo == nil {
		return nil, nil, apperrors.ErrInternalError("ingredient repository not configured", nil)
	}

	seen := make(map[string]bool, len(inputs))
	ingredients := []*api.Ingredient{}
	ids := []string{}
	for _, input := range inputs {
		name := strings.TrimSpace(input.Name)
		if name == "" {
			return nil, nil, apperrors.ErrBadRequest("ingredient name may not be blank", nil)
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		ingredient, err := s.getOrCreateIngredient(ctx, userEmail, name)
		if err != nil {
			return nil, nil, err
		}
		ingredients = append(ingredients, ingredient)
		ids = append(ids, ingredient.ID)
	}

	return ingredients, ids, nil
}
