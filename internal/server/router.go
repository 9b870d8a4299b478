// Package server implements the HTTP API for souschef.
// It wires routing, middleware, and handlers around the service layer and
// serves the same handler tree in both standalone and Lambda deployments.
package server

import (
	"net/http"
	"time"

	"github.com/souschef/souschef/internal/app"
	"github.com/souschef/souschef/internal/constants"
	"github.com/souschef/souschef/internal/metrics"
	"github.com/souschef/souschef/internal/ratelimit"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router handles HTTP routing for the souschef API.
type Router struct {
	router       *chi.Mux
	svc          *app.Service
	loginLimiter *ratelimit.KeyLimiter
}

// NewRouter creates a new chi router with all routes and middleware configured.
// Everything under the API prefix except health, registration, and login
// requires token authentication.
func NewRouter(svc *app.Service, requestTimeout time.Duration, allowedOrigins string) *Router {
	metrics.Register()

	r := chi.NewRouter()
	router := &Router{
		router: r,
		svc:    svc,
		loginLimiter: ratelimit.NewKeyLimiter(
			constants.LoginRateLimitPerSecond,
			constants.LoginRateLimitBurst,
			0,
		),
	}

	r.Use(router.requestIDMiddleware)
	r.Use(router.requestTimeoutMiddleware(requestTimeout))
	r.Use(corsMiddleware(allowedOrigins))
	r.Use(setContentTypeJSONMiddleware)
	r.Use(router.requestLoggingMiddleware)
	r.Use(router.metricsMiddleware)

	r.Route(constants.APIPrefix, func(r chi.Router) {
		// Public routes
		r.Get("/health", router.handleHealth)
		r.Post("/users", router.handleRegisterUser)
		r.With(router.loginRateLimitMiddleware).Post("/users/token", router.handleLogin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(router.authenticateRequestMiddleware)

			r.Get("/users", router.handleListUsers)
			r.Post("/users/revoke", router.handleRevokeUser)
			r.Get("/users/me", router.handleGetMe)
			r.Patch("/users/me", router.handleUpdateMe)
			r.Put("/users/me", router.handleReplaceMe)
			r.Post("/users/logout", router.handleLogout)

			r.Get("/recipes", router.handleListRecipes)
			r.Post("/recipes", router.handleCreateRecipe)
			r.Get("/recipes/{recipeID}", router.handleGetRecipe)
			r.Patch("/recipes/{recipeID}", router.handleUpdateRecipe)
			r.Put("/recipes/{recipeID}", router.handleReplaceRecipe)
			r.Delete("/recipes/{recipeID}", router.handleDeleteRecipe)
			r.Post("/recipes/{recipeID}/image", router.handleUploadRecipeImage)

			r.Get("/tags", router.handleListTags)
			r.Patch("/tags/{tagID}", router.handleRenameTag)
			r.Put("/tags/{tagID}", router.handleRenameTag)
			r.Delete("/tags/{tagID}", router.handleDeleteTag)

			r.Get("/ingredients", router.handleListIngredients)
			r.Patch("/ingredients/{ingredientID}", router.handleRenameIngredient)
			r.Put("/ingredients/{ingredientID}", router.handleRenameIngredient)
			r.Delete("/ingredients/{ingredientID}", router.handleDeleteIngredient)
		})
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return router
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// Handler returns an http.Handler for the router
func (r *Router) Handler() http.Handler {
	return r.router
}
