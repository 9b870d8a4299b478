package server

import (
	"net/http"

	"github.com/souschef/souschef/internal/api"
	"github.com/souschef/souschef/internal/constants"
)

// handleHealth handles GET /api/v1/health.
// It reports liveness only. Dependency probing happens out of band (startup
// check, waitdb) so the endpoint stays cheap enough for load balancer checks.
func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, api.HealthResponse{
		Status:  "ok",
		Version: *constants.GetVersion(),
	})
}
