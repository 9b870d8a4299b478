package api

import "time"

// Tag represents a recipe tag owned by a user
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Ingredient represents a recipe ingredient owned by a user
type Ingredient struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ListTagsResponse represents the response containing the caller's tags
type ListTagsResponse struct {
	Tags []*Tag `json:"tags"`
}

// ListIngredientsResponse represents the response containing the caller's ingredients
type ListIngredientsResponse struct {
	Ingredients []*Ingredient `json:"ingredients"`
}

// UpdateTagRequest represents the request to rename a tag
type UpdateTagRequest struct {
	Name string `json:"name"`
}

// UpdateIngredientRequest represents the request to rename an ingredient
type UpdateIngredientRequest struct {
	Name string `json:"name"`
}
