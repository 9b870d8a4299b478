package server

import (
	"io"
	"net/http"

	"github.com/souschef/souschef/internal/api"
	"github.com/souschef/souschef/internal/app"
	"github.com/souschef/souschef/internal/constants"
	"github.com/souschef/souschef/internal/metrics"
)

// handleListRecipes handles GET /api/v1/recipes to list the caller's recipes.
// The optional tags and ingredients query parameters carry comma-separated
// IDs and narrow the listing to recipes referencing any of them.
func (r *Router) handleListRecipes(w http.ResponseWriter, req *http.Request) {
	user, ok := r.requireAuthenticatedUser(w, req)
	if !ok {
		return
	}

	filter := app.RecipeFilter{
		TagIDs:        parseIDList(req.URL.Query().Get("tags")),
		IngredientIDs: parseIDList(req.URL.Query().Get("ingredients")),
	}

	resp, err := r.svc.ListRecipes(req.Context(), user.Email, filter)
	if err != nil {
		r.handleAndLogError(w, req, err, "list recipes")
		return
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// handleCreateRecipe handles POST /api/v1/recipes to create a recipe.
// Named tags and ingredients are linked, created first when missing.
func (r *Router) handleCreateRecipe(w http.ResponseWriter, req *http.Request) {
	user, ok := r.requireAuthenticatedUser(w, req)
	if !ok {
		return
	}

	var createReq api.CreateRecipeRequest
	if err := decodeRequestBody(w, req, &createReq); err != nil {
		return
	}

	recipe, err := r.svc.CreateRecipe(req.Context(), user.Email, createReq)
	if err != nil {
		r.handleAndLogError(w, req, err, "create recipe")
		return
	}

	writeJSONResponse(w, http.StatusCreated, recipe)
}

// handleGetRecipe handles GET /api/v1/recipes/{recipeID} to return one
// of the caller's recipes with tags and ingredients expanded.
func (r *Router) handleGetRecipe(w http.ResponseWriter, req *http.Request) {
	user, ok := r.requireAuthenticatedUser(w, req)
	if !ok {
		return
	}

	id, ok := getRequiredURLParam(w, req, "recipeID")
	if !ok {
		return
	}

	recipe, err := r.svc.GetRecipe(req.Context(), user.Email, id)
	if err != nil {
		r.handleAndLogError(w, req, err, "get recipe")
		return
	}

	writeJSONResponse(w, http.StatusOK, recipe)
}

// handleUpdateRecipe handles PATCH /api/v1/recipes/{recipeID} for partial
// updates. Omitted fields are left unchanged.
func (r *Router) handleUpdateRecipe(w http.ResponseWriter, req *http.Request) {
	user, ok := r.requireAuthenticatedUser(w, req)
	if !ok {
		return
	}

	id, ok := getRequiredURLParam(w, req, "recipeID")
	if !ok {
		return
	}

	var updateReq api.UpdateRecipeRequest
	if err := decodeRequestBody(w, req, &updateReq); err != nil {
		return
	}

	recipe, err := r.svc.UpdateRecipe(req.Context(), user.Email, id, updateReq)
	if err != nil {
		r.handleAndLogError(w, req, err, "update recipe")
		return
	}

	writeJSONResponse(w, http.StatusOK, recipe)
}

// handleReplaceRecipe handles PUT /api/v1/recipes/{recipeID} for full
// updates. Omitted optional fields are reset to their zero values.
func (r *Router) handleReplaceRecipe(w http.ResponseWriter, req *http.Request) {
	user, ok := r.requireAuthenticatedUser(w, req)
	if !ok {
		return
	}

	id, ok := getRequiredURLParam(w, req, "recipeID")
	if !ok {
		return
	}

	var replaceReq api.CreateRecipeRequest
	if err := decodeRequestBody(w, req, &replaceReq); err != nil {
		return
	}

	recipe, err := r.svc.ReplaceRecipe(req.Context(), user.Email, id, replaceReq)
	if err != nil {
		r.handleAndLogError(w, req, err, "replace recipe")
		return
	}

	writeJSONResponse(w, http.StatusOK, recipe)
}

// handleDeleteRecipe handles DELETE /api/v1/recipes/{recipeID}.
func (r *Router) handleDeleteRecipe(w http.ResponseWriter, req *http.Request) {
	user, ok := r.requireAuthenticatedUser(w, req)
	if !ok {
		return
	}

	id, ok := getRequiredURLParam(w, req, "recipeID")
	if !ok {
		return
	}

	if err := r.svc.DeleteRecipe(req.Context(), user.Email, id); err != nil {
		r.handleAndLogError(w, req, err, "delete recipe")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleUploadRecipeImage handles POST /api/v1/recipes/{recipeID}/image.
// The image arrives as a multipart form file under the "image" field and
// replaces any previously stored image for the recipe.
func (r *Router) handleUploadRecipeImage(w http.ResponseWriter, req *http.Request) {
	user, ok := r.requireAuthenticatedUser(w, req)
	if !ok {
		return
	}

	id, ok := getRequiredURLParam(w, req, "recipeID")
	if !ok {
		return
	}

	req.Body = http.MaxBytesReader(w, req.Body, constants.MaxImageUploadBytes)
	if err := req.ParseMultipartForm(constants.MaxImageUploadBytes); err != nil {
		metrics.RecordImageUpload("failure")
		writeErrorResponse(w, http.StatusBadRequest, "invalid upload", err.Error())
		return
	}

	file, _, err := req.FormFile("image")
	if err != nil {
		metrics.RecordImageUpload("failure")
		writeErrorResponse(w, http.StatusBadRequest, "invalid upload", "image file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		metrics.RecordImageUpload("failure")
		writeErrorResponse(w, http.StatusBadRequest, "invalid upload", err.Error())
		return
	}

	resp, err := r.svc.UploadRecipeImage(req.Context(), user.Email, id, data)
	if err != nil {
		metrics.RecordImageUpload("failure")
		r.handleAndLogError(w, req, err, "upload recipe image")
		return
	}

	metrics.RecordImageUpload("success")
	writeJSONResponse(w, http.StatusOK, resp)
}
