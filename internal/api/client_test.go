package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/souschef/souschef/internal/config"
	apperrors "github.com/souschef/souschef/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentLogger is local because testutil imports this package.
func silentLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestClient(serverURL string) *Client {
	return NewClient(&config.Config{
		APIEndpoint: serverURL,
		Token:       "test-token",
	}, silentLogger())
}

func TestNewClient(t *testing.T) {
	cfg := &config.Config{
		APIEndpoint: "https://example.com",
		Token:       "test-token",
	}
	log := silentLogger()

	c := NewClient(cfg, log)

	require.NotNil(t, c)
	assert.Same(t, cfg, c.config)
	assert.Same(t, log, c.logger)
}

func TestClient_Do(t *testing.T) {
	tests := []struct {
		name           string
		setupServer    func() *httptest.Server
		request        Request
		wantErr        bool
		wantStatusCode int
	}{
		{
			name: "successful GET request",
			setupServer: func() *httptest.Server {
				return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "GET", r.Method)
					assert.Equal(t, "/api/v1/test", r.URL.Path)
					assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
					assert.Equal(t, "Token test-token", r.Header.Get("Authorization"))
					w.WriteHeader(http.StatusOK)
					_, _ = w.Write([]byte(`{"message": "success"}`))
				}))
			},
			request: Request{
				Method: "GET",
				Path:   "/api/v1/test",
			},
			wantErr:        false,
			wantStatusCode: http.StatusOK,
		},
		{
			name: "successful POST request with body",
			setupServer: func() *httptest.Server {
				return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					assert.Equal(t, "POST", r.Method)
					var body map[string]any
					_ = json.NewDecoder(r.Body).Decode(&body)
					assert.Equal(t, "test-value", body["test"])
					w.WriteHeader(http.StatusCreated)
					_, _ = w.Write([]byte(`{"id": "123"}`))
				}))
			},
			request: Request{
				Method: "POST",
				Path:   "/api/v1/test",
				Body:   map[string]string{"test": "test-value"},
			},
			wantErr:        false,
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "server error is returned as a response, not an error",
			setupServer: func() *httptest.Server {
				return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"error": "internal error"}`))
				}))
			},
			request: Request{
				Method: "GET",
				Path:   "/api/v1/test",
			},
			wantErr:        false,
			wantStatusCode: http.StatusInternalServerError,
		},
		{
			name: "unmarshalable body",
			setupServer: func() *httptest.Server {
				return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(http.StatusOK)
				}))
			},
			request: Request{
				Method: "POST",
				Path:   "/api/v1/test",
				Body:   make(chan int), // cannot be marshaled to JSON
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := tt.setupServer()
			defer server.Close()

			c := newTestClient(server.URL)

			resp, err := c.Do(context.Background(), tt.request)

			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, resp)
			} else {
				require.NoError(t, err)
				require.NotNil(t, resp)
				assert.Equal(t, tt.wantStatusCode, resp.StatusCode)
			}
		})
	}
}

func TestClient_Do_OmitsAuthorizationWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(&config.Config{APIEndpoint: server.URL}, silentLogger())

	resp, err := c.Do(context.Background(), Request{
		Method: "POST",
		Path:   "/api/v1/users/token",
		Body:   LoginRequest{Email: "chef@example.com", Password: "secret"},
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClient_DoJSON(t *testing.T) {
	t.Run("successful request with JSON response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"token": "tok-abc123"}`))
		}))
		defer server.Close()

		c := newTestClient(server.URL)

		var result TokenResponse
		err := c.DoJSON(context.Background(), Request{
			Method: "GET",
			Path:   "/api/v1/test",
		}, &result)

		require.NoError(t, err)
		assert.Equal(t, "tok-abc123", result.Token)
	})

	t.Run("204 No Content leaves result untouched", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		c := newTestClient(server.URL)

		var result TokenResponse
		err := c.DoJSON(context.Background(), Request{
			Method: "POST",
			Path:   "/api/v1/test",
		}, &result)

		require.NoError(t, err)
		assert.Empty(t, result.Token)
	})

	t.Run("invalid JSON in success response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`not valid json`))
		}))
		defer server.Close()

		c := newTestClient(server.URL)

		var result TokenResponse
		err := c.DoJSON(context.Background(), Request{
			Method: "GET",
			Path:   "/api/v1/test",
		}, &result)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse response")
	})
}

func TestClient_DoJSON_DecodesErrorEnvelope(t *testing.T) {
	t.Run("error envelope becomes a typed application error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(ErrorResponse{
				Error:   "recipe not found",
				Code:    apperrors.ErrCodeNotFound,
				Details: "no recipe with id 20240101-120000-000001",
			})
		}))
		defer server.Close()

		c := newTestClient(server.URL)

		var result RecipeDetail
		err := c.DoJSON(context.Background(), Request{
			Method: "GET",
			Path:   "/api/v1/recipes/20240101-120000-000001",
		}, &result)

		require.Error(t, err)

		var appErr *apperrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
		assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
		assert.Equal(t, "recipe not found", appErr.Message)
		assert.Contains(t, err.Error(), "no recipe with id")

		assert.Equal(t, http.StatusNotFound, apperrors.GetStatusCode(err))
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetErrorCode(err))
	})

	t.Run("non-JSON error body still carries the status code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`upstream exploded`))
		}))
		defer server.Close()

		c := newTestClient(server.URL)

		var result HealthResponse
		err := c.DoJSON(context.Background(), Request{
			Method: "GET",
			Path:   "/api/v1/health",
		}, &result)

		require.Error(t, err)
		assert.Equal(t, http.StatusBadGateway, apperrors.GetStatusCode(err))
		assert.Contains(t, err.Error(), "request failed with status 502")
		assert.Contains(t, err.Error(), "upstream exploded")
	})
}

func TestClient_GetHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/v1/health", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status:  "ok",
			Version: "1.2.3",
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	resp, err := c.GetHealth(context.Background())

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestClient_Login(t *testing.T) {
	t.Run("successful login", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/api/v1/users/token", r.URL.Path)

			var req LoginRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			assert.Equal(t, "chef@example.com", req.Email)
			assert.Equal(t, "hunter2hunter2", req.Password)

			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(TokenResponse{Token: "tok-xyz"})
		}))
		defer server.Close()

		c := newTestClient(server.URL)

		resp, err := c.Login(context.Background(), LoginRequest{
			Email:    "chef@example.com",
			Password: "hunter2hunter2",
		})

		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, "tok-xyz", resp.Token)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(ErrorResponse{
				Error: "invalid credentials",
				Code:  apperrors.ErrCodeUnauthorized,
			})
		}))
		defer server.Close()

		c := newTestClient(server.URL)

		resp, err := c.Login(context.Background(), LoginRequest{
			Email:    "chef@example.com",
			Password: "wrong",
		})

		require.Error(t, err)
		assert.Nil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, apperrors.GetStatusCode(err))
		assert.Equal(t, apperrors.ErrCodeUnauthorized, apperrors.GetErrorCode(err))
	})
}

func TestClient_RegisterUser(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/api/v1/users", r.URL.Path)

			var req RegisterUserRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			assert.Equal(t, "newchef@example.com", req.Email)
			assert.Equal(t, "New Chef", req.Name)

			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(User{
				Email:     "newchef@example.com",
				Name:      "New Chef",
				Role:      "user",
				IsActive:  true,
				CreatedAt: time.Now().UTC(),
			})
		}))
		defer server.Close()

		c := newTestClient(server.URL)

		user, err := c.RegisterUser(context.Background(), RegisterUserRequest{
			Email:    "newchef@example.com",
			Password: "longenoughpass",
			Name:     "New Chef",
		})

		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "newchef@example.com", user.Email)
		assert.Equal(t, "user", user.Role)
		assert.True(t, user.IsActive)
	})

	t.Run("duplicate email", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(ErrorResponse{
				Error: "failed to register user",
				Code:  apperrors.ErrCodeConflict,
			})
		}))
		defer server.Close()

		c := newTestClient(server.URL)

		user, err := c.RegisterUser(context.Background(), RegisterUserRequest{
			Email:    "taken@example.com",
			Password: "longenoughpass",
			Name:     "Taken",
		})

		require.Error(t, err)
		assert.Nil(t, user)
		assert.Equal(t, http.StatusConflict, apperrors.GetStatusCode(err))
	})
}

func TestClient_Logout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/users/logout", r.URL.Path)
		assert.Equal(t, "Token test-token", r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "logged out"}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	require.NoError(t, c.Logout(context.Background()))
}

func TestClient_GetMe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/v1/users/me", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(User{
			Email: "chef@example.com",
			Name:  "Chef",
			Role:  "user",
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	user, err := c.GetMe(context.Background())

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "chef@example.com", user.Email)
}

func TestClient_ListUsers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/v1/users", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(ListUsersResponse{
			Users: []*User{
				{Email: "admin@example.com", Role: "admin"},
				{Email: "chef@example.com", Role: "user"},
			},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	resp, err := c.ListUsers(context.Background())

	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Len(t, resp.Users, 2)
	assert.Equal(t, "admin@example.com", resp.Users[0].Email)
}

func TestClient_RevokeUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/users/revoke", r.URL.Path)

		var req RevokeUserRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "former@example.com", req.Email)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(RevokeUserResponse{
			Email:   "former@example.com",
			Message: "user revoked",
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	resp, err := c.RevokeUser(context.Background(), RevokeUserRequest{Email: "former@example.com"})

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "former@example.com", resp.Email)
}

func TestClient_ListRecipes(t *testing.T) {
	t.Run("without filters", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "GET", r.Method)
			assert.Equal(t, "/api/v1/recipes", r.URL.Path)
			assert.Empty(t, r.URL.RawQuery)

			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(ListRecipesResponse{
				Recipes: []*Recipe{
					{ID: "20240101-120000-000001", Title: "Miso soup"},
					{ID: "20240101-120000-000002", Title: "Okonomiyaki"},
				},
			})
		}))
		defer server.Close()

		c := newTestClient(server.URL)

		resp, err := c.ListRecipes(context.Background(), "", "")

		require.NoError(t, err)
		require.NotNil(t, resp)
		require.Len(t, resp.Recipes, 2)
		assert.Equal(t, "Miso soup", resp.Recipes[0].Title)
	})

	t.Run("with tag and ingredient filters", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "tag-1,tag-2", r.URL.Query().Get("tags"))
			assert.Equal(t, "ing-1", r.URL.Query().Get("ingredients"))

			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(ListRecipesResponse{Recipes: []*Recipe{}})
		}))
		defer server.Close()

		c := newTestClient(server.URL)

		resp, err := c.ListRecipes(context.Background(), "tag-1,tag-2", "ing-1")

		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Empty(t, resp.Recipes)
	})
}

func TestClient_CreateRecipe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/recipes", r.URL.Path)

		var req CreateRecipeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "Ramen", req.Title)
		require.Len(t, req.Tags, 1)
		assert.Equal(t, "dinner", req.Tags[0].Name)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(RecipeDetail{
			Recipe: Recipe{ID: "20240101-120000-000001", Title: "Ramen"},
			Tags:   []*Tag{{ID: "tag-1", Name: "dinner"}},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	recipe, err := c.CreateRecipe(context.Background(), CreateRecipeRequest{
		Title:       "Ramen",
		TimeMinutes: 45,
		Price:       "12.00",
		Tags:        []TagInput{{Name: "dinner"}},
	})

	require.NoError(t, err)
	require.NotNil(t, recipe)
	assert.Equal(t, "Ramen", recipe.Title)
	require.Len(t, recipe.Tags, 1)
	assert.Equal(t, "dinner", recipe.Tags[0].Name)
}

func TestClient_GetRecipe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/v1/recipes/20240101-120000-000001", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(RecipeDetail{
			Recipe:      Recipe{ID: "20240101-120000-000001", Title: "Miso soup"},
			Description: "Classic breakfast soup.",
			ImageURL:    "https://images.example.com/uploads/recipe/abc.png",
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	recipe, err := c.GetRecipe(context.Background(), "20240101-120000-000001")

	require.NoError(t, err)
	require.NotNil(t, recipe)
	assert.Equal(t, "Miso soup", recipe.Title)
	assert.Equal(t, "Classic breakfast soup.", recipe.Description)
}

func TestClient_DeleteRecipe(t *testing.T) {
	t.Run("successful delete returns 204", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "DELETE", r.Method)
			assert.Equal(t, "/api/v1/recipes/20240101-120000-000001", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		c := newTestClient(server.URL)

		require.NoError(t, c.DeleteRecipe(context.Background(), "20240101-120000-000001"))
	})

	t.Run("missing recipe yields typed not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(ErrorResponse{
				Error: "recipe not found",
				Code:  apperrors.ErrCodeNotFound,
			})
		}))
		defer server.Close()

		c := newTestClient(server.URL)

		err := c.DeleteRecipe(context.Background(), "missing")
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, apperrors.GetStatusCode(err))
	})
}

func TestClient_UploadRecipeImage(t *testing.T) {
	payload := []byte("fake-png-bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/recipes/20240101-120000-000001/image", r.URL.Path)
		assert.Equal(t, "Token test-token", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()

		assert.Equal(t, "dinner.png", header.Filename)
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, payload, data)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(UploadImageResponse{
			ID:       "20240101-120000-000001",
			ImageURL: "https://images.example.com/uploads/recipe/abc.png",
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	resp, err := c.UploadRecipeImage(context.Background(), "20240101-120000-000001", "dinner.png", payload)

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "20240101-120000-000001", resp.ID)
	assert.Contains(t, resp.ImageURL, "uploads/recipe/")
}

func TestClient_ListTags(t *testing.T) {
	t.Run("all tags", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/tags", r.URL.Path)
			assert.Empty(t, r.URL.Query().Get("assigned_only"))

			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(ListTagsResponse{
				Tags: []*Tag{{ID: "tag-1", Name: "Vegan"}},
			})
		}))
		defer server.Close()

		c := newTestClient(server.URL)

		resp, err := c.ListTags(context.Background(), false)

		require.NoError(t, err)
		require.Len(t, resp.Tags, 1)
		assert.Equal(t, "Vegan", resp.Tags[0].Name)
	})

	t.Run("assigned only", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1", r.URL.Query().Get("assigned_only"))

			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(ListTagsResponse{Tags: []*Tag{}})
		}))
		defer server.Close()

		c := newTestClient(server.URL)

		_, err := c.ListTags(context.Background(), true)
		require.NoError(t, err)
	})
}

func TestClient_RenameTag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PATCH", r.Method)
		assert.Equal(t, "/api/v1/tags/tag-1", r.URL.Path)

		var req UpdateTagRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "Brunch", req.Name)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(Tag{ID: "tag-1", Name: "Brunch"})
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	tag, err := c.RenameTag(context.Background(), "tag-1", "Brunch")

	require.NoError(t, err)
	require.NotNil(t, tag)
	assert.Equal(t, "Brunch", tag.Name)
}

func TestClient_ListIngredients(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/ingredients", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(ListIngredientsResponse{
			Ingredients: []*Ingredient{
				{ID: "ing-1", Name: "Salt"},
				{ID: "ing-2", Name: "Kombu"},
			},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	resp, err := c.ListIngredients(context.Background(), false)

	require.NoError(t, err)
	require.Len(t, resp.Ingredients, 2)
	assert.Equal(t, "Salt", resp.Ingredients[0].Name)
}

func TestClient_DeleteIngredient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DELETE", r.Method)
		assert.Equal(t, "/api/v1/ingredients/ing-1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	require.NoError(t, c.DeleteIngredient(context.Background(), "ing-1"))
}

func TestClient_buildURL(t *testing.T) {
	tests := []struct {
		name        string
		apiEndpoint string
		path        string
		want        string
	}{
		{
			name:        "simple path",
			apiEndpoint: "https://api.example.com",
			path:        "/api/v1/health",
			want:        "https://api.example.com/api/v1/health",
		},
		{
			name:        "path with query string",
			apiEndpoint: "https://api.example.com",
			path:        "/api/v1/recipes?tags=tag-1&ingredients=ing-1",
			want:        "https://api.example.com/api/v1/recipes?tags=tag-1&ingredients=ing-1",
		},
		{
			name:        "path without leading slash",
			apiEndpoint: "https://api.example.com",
			path:        "api/v1/health",
			want:        "https://api.example.com/api/v1/health",
		},
		{
			name:        "endpoint with trailing slash",
			apiEndpoint: "https://api.example.com/",
			path:        "/api/v1/health",
			want:        "https://api.example.com/api/v1/health",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(&config.Config{
				APIEndpoint: tt.apiEndpoint,
				Token:       "test-token",
			}, silentLogger())

			got, err := c.buildURL(tt.path)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_Do_WithContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Do(ctx, Request{
		Method: "GET",
		Path:   "/api/v1/test",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "context deadline exceeded")
}
