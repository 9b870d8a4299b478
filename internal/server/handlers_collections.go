package server

import (
	"net/http"

	"github.com/souschef/souschef/internal/api"
)

// assignedOnlyParam reports whether the assigned_only query parameter is set.
// Listings then include only tags or ingredients referenced by a recipe.
func assignedOnlyParam(req *http.Request) bool {
	v := req.URL.Query().Get("assigned_only")
	return v == "1" || v == "true"
}

// handleListTags handles GET /api/v1/tags to list the caller's tags.
func (r *Router) handleListTags(w http.ResponseWriter, req *http.Request) {
	user, ok := r.requireAuthenticatedUser(w, req)
	if !ok {
		return
	}

	resp, err := r.svc.ListTags(req.Context(), user.Email, assignedOnlyParam(req))
	if err != nil {
		r.handleAndLogError(w, req, err, "list tags")
		return
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// handleRenameTag handles PATCH and PUT /api/v1/tags/{tagID}.
// Name is the only mutable field, so both methods behave the same.
func (r *Router) handleRenameTag(w http.ResponseWriter, req *http.Request) {
	user, ok := r.requireAuthenticatedUser(w, req)
	if !ok {
		return
	}

	id, ok := getRequiredURLParam(w, req, "tagID")
	if !ok {
		return
	}

	var updateReq api.UpdateTagRequest
	if err := decodeRequestBody(w, req, &updateReq); err != nil {
		return
	}

	tag, err := r.svc.RenameTag(req.Context(), user.Email, id, updateReq.Name)
	if err != nil {
		r.handleAndLogError(w, req, err, "update tag")
		return
	}

	writeJSONResponse(w, http.StatusOK, tag)
}

// handleDeleteTag handles DELETE /api/v1/tags/{tagID}.
// Recipes referencing the tag keep working; the link is removed.
func (r *Router) handleDeleteTag(w http.ResponseWriter, req *http.Request) {
	user, ok := r.requireAuthenticatedUser(w, req)
	if !ok {
		return
	}

	id, ok := getRequiredURLParam(w, req, "tagID")
	if !ok {
		return
	}

	if err := r.svc.DeleteTag(req.Context(), user.Email, id); err != nil {
		r.handleAndLogError(w, req, err, "delete tag")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListIngredients handles GET /api/v1/ingredients to list the caller's ingredients.
func (r *Router) handleListIngredients(w http.ResponseWriter, req *http.Request) {
	user, ok := r.requireAuthenticatedUser(w, req)
	if !ok {
		return
	}

	resp, err := r.svc.ListIngredients(req.Context(), user.Email, assignedOnlyParam(req))
	if err != nil {
		r.handleAndLogError(w, req, err, "list ingredients")
		return
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// handleRenameIngredient handles PATCH and PUT /api/v1/ingredients/{ingredientID}.
func (r *Router) handleRenameIngredient(w http.ResponseWriter, req *http.Request) {
	user, ok := r.requireAuthenticatedUser(w, req)
	if !ok {
		return
	}

	id, ok := getRequiredURLParam(w, req, "ingredientID")
	if !ok {
		return
	}

	var updateReq api.UpdateIngredientRequest
	if err := decodeRequestBody(w, req, &updateReq); err != nil {
		return
	}

	ingredient, err := r.svc.RenameIngredient(req.Context(), user.Email, id, updateReq.Name)
	if err != nil {
		r.handleAndLogError(w, req, err, "update ingredient")
		return
	}

	writeJSONResponse(w, http.StatusOK, ingredient)
}

// handleDeleteIngredient handles DELETE /api/v1/ingredients/{ingredientID}.
func (r *Router) handleDeleteIngredient(w http.ResponseWriter, req *http.Request) {
	user, ok := r.requireAuthenticatedUser(w, req)
	if !ok {
		return
	}

	id, ok := getRequiredURLParam(w, req, "ingredientID")
	if !ok {
		return
	}

	if err := r.svc.DeleteIngredient(req.Context(), user.Email, id); err != nil {
		r.handleAndLogError(w, req, err, "delete ingredient")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
