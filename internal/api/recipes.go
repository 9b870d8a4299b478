package api

import "time"

// Recipe represents a recipe as returned by list endpoints.
// Tags and ingredients are carried as IDs; the detail view expands them.
type Recipe struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	TimeMinutes   int       `json:"time_minutes"`
	Price         string    `json:"price"`
	Link          string    `json:"link,omitempty"`
	TagIDs        []string  `json:"tags"`
	IngredientIDs []string  `json:"ingredients"`
	CreatedAt     time.Time `json:"created_at"`
}

// RecipeDetail represents the full recipe payload returned by detail endpoints.
// Tags and Ingredients shadow the embedded ID slices so the detail view
// serializes expanded objects instead of bare IDs.
type RecipeDetail struct {
	Recipe
	Description string        `json:"description"`
	ImageKey    string        `json:"-"`
	ImageURL    string        `json:"image,omitempty"`
	Tags        []*Tag        `json:"tags"`
	Ingredients []*Ingredient `json:"ingredients"`
}

// TagInput names a tag to link to a recipe, creating it if it doesn't exist.
type TagInput struct {
	Name string `json:"name"`
}

// IngredientInput names an ingredient to link to a recipe, creating it if it doesn't exist.
type IngredientInput struct {
	Name string `json:"name"`
}

// CreateRecipeRequest represents the request to create a recipe
type CreateRecipeRequest struct {
	Title       string            `json:"title"`
	TimeMinutes int               `json:"time_minutes"`
	Price       string            `json:"price"`
	Link        string            `json:"link,omitempty"`
	Description string            `json:"description,omitempty"`
	Tags        []TagInput        `json:"tags,omitempty"`
	Ingredients []IngredientInput `json:"ingredients,omitempty"`
}

// UpdateRecipeRequest represents a partial recipe update.
// Nil fields are left unchanged. An empty Tags or Ingredients slice clears
// the links; a non-empty slice replaces them.
type UpdateRecipeRequest struct {
	Title       *string            `json:"title,omitempty"`
	TimeMinutes *int               `json:"time_minutes,omitempty"`
	Price       *string            `json:"price,omitempty"`
	Link        *string            `json:"link,omitempty"`
	Description *string            `json:"description,omitempty"`
	Tags        *[]TagInput        `json:"tags,omitempty"`
	Ingredients *[]IngredientInput `json:"ingredients,omitempty"`
}

// ListRecipesResponse represents the response containing the caller's recipes
type ListRecipesResponse struct {
	Recipes []*Recipe `json:"recipes"`
}

// UploadImageResponse represents the response after attaching an image to a recipe
type UploadImageResponse struct {
	ID       string `json:"id"`
	ImageURL string `json:"image"`
}
