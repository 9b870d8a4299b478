package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/souschef/souschef/internal/api"
	"github.com/souschef/souschef/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(testRepos{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody)
	w := httptest.NewRecorder()
	router.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response api.HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, *constants.GetVersion(), response.Version)
}
