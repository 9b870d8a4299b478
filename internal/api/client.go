package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/souschef/souschef/internal/config"
	"github.com/souschef/souschef/internal/constants"
	apperrors "github.com/souschef/souschef/internal/errors"
	"github.com/souschef/souschef/internal/logger"
)

// Client provides a typed HTTP client for the souschef API.
// It injects the configured token into every request and decodes error
// envelopes back into application errors.
type Client struct {
	config *config.Config
	logger *slog.Logger
}

// NewClient creates a new API client
func NewClient(cfg *config.Config, log *slog.Logger) *Client {
	return &Client{
		config: cfg,
		logger: log,
	}
}

// Request represents an API request
type Request struct {
	Method string
	Path   string
	Body   any
}

// Response represents an API response
type Response struct {
	StatusCode int
	Body       []byte
}

// buildURL constructs the full API URL from path and query string
func (c *Client) buildURL(path string) (string, error) {
	// Split path and query string if present
	var pathPart, queryString string
	if idx := strings.Index(path, "?"); idx != -1 {
		pathPart = path[:idx]
		queryString = path[idx+1:]
	} else {
		pathPart = path
	}

	apiURL, err := url.JoinPath(c.config.APIEndpoint, pathPart)
	if err != nil {
		return "", err
	}

	// Add query string if present
	if queryString != "" {
		apiURL = apiURL + "?" + queryString
	}

	return apiURL, nil
}

// setRequestHeaders applies the JSON content type and, when a token is
// configured, the Authorization header with the token scheme.
func (c *Client) setRequestHeaders(httpReq *http.Request) {
	httpReq.Header.Set(constants.ContentTypeHeader, "application/json")
	if c.config.Token != "" {
		httpReq.Header.Set(constants.AuthorizationHeader, constants.TokenScheme+" "+c.config.Token)
	}
}

// Do makes an HTTP request to the API
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		jsonData, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	apiURL, err := c.buildURL(req.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid API endpoint: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, apiURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setRequestHeaders(httpReq)

	// Log before making HTTP request with deadline info
	logArgs := []any{
		"operation", "HTTP.Request",
		"method", req.Method,
		"url", apiURL,
		"hasBody", req.Body != nil,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	c.logger.Debug("calling souschef API", logArgs...)

	httpClient := &http.Client{}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Log response summary
	c.logger.Debug("received HTTP response",
		"status", resp.StatusCode,
		"bodySize", len(body),
		"method", req.Method,
		"url", apiURL)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// DoJSON makes a request and unmarshals the response into the provided interface
func (c *Client) DoJSON(ctx context.Context, req Request, result any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return errorFromResponse(resp.StatusCode, resp.Body)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err = json.Unmarshal(resp.Body, result); err != nil {
		c.logger.Debug("response body", "body", string(resp.Body))
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// errorFromResponse converts an error envelope back into an *apperrors.AppError
// so callers can branch on the status code and error code the same way server
// handlers do.
func errorFromResponse(statusCode int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return &apperrors.AppError{
			Message:    fmt.Sprintf("request failed with status %d: %s", statusCode, strings.TrimSpace(string(body))),
			StatusCode: statusCode,
		}
	}

	appErr := &apperrors.AppError{
		Code:       errResp.Code,
		Message:    errResp.Error,
		StatusCode: statusCode,
	}
	if errResp.Details != "" {
		appErr.Cause = errors.New(errResp.Details)
	}
	return appErr
}

// GetHealth checks the API health status
func (c *Client) GetHealth(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	err := c.DoJSON(ctx, Request{
		Method: "GET",
		Path:   "/api/v1/health",
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// RegisterUser registers a new user account
func (c *Client) RegisterUser(ctx context.Context, req RegisterUserRequest) (*User, error) {
	var resp User
	err := c.DoJSON(ctx, Request{
		Method: "POST",
		Path:   "/api/v1/users",
		Body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// Login exchanges credentials for an authentication token
func (c *Client) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	var resp TokenResponse
	err := c.DoJSON(ctx, Request{
		Method: "POST",
		Path:   "/api/v1/users/token",
		Body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// Logout deletes the token used to authenticate the request
func (c *Client) Logout(ctx context.Context) error {
	var resp map[string]string
	return c.DoJSON(ctx, Request{
		Method: "POST",
		Path:   "/api/v1/users/logout",
	}, &resp)
}

// GetMe returns the authenticated user's profile
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var resp User
	err := c.DoJSON(ctx, Request{
		Method: "GET",
		Path:   "/api/v1/users/me",
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// UpdateMe applies a partial update to the authenticated user's profile
func (c *Client) UpdateMe(ctx context.Context, req UpdateUserRequest) (*User, error) {
	var resp User
	err := c.DoJSON(ctx, Request{
		Method: "PATCH",
		Path:   "/api/v1/users/me",
		Body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// ListUsers lists all users. Admin only.
func (c *Client) ListUsers(ctx context.Context) (*ListUsersResponse, error) {
	var resp ListUsersResponse
	err := c.DoJSON(ctx, Request{
		Method: "GET",
		Path:   "/api/v1/users",
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// RevokeUser deactivates a user and deletes their tokens. Admin only.
func (c *Client) RevokeUser(ctx context.Context, req RevokeUserRequest) (*RevokeUserResponse, error) {
	var resp RevokeUserResponse
	err := c.DoJSON(ctx, Request{
		Method: "POST",
		Path:   "/api/v1/users/revoke",
		Body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// ListRecipes fetches the caller's recipes with optional filtering.
// Parameters:
//   - tagIDs: comma-separated tag IDs to filter by
//   - ingredientIDs: comma-separated ingredient IDs to filter by
func (c *Client) ListRecipes(ctx context.Context, tagIDs, ingredientIDs string) (*ListRecipesResponse, error) {
	u, err := url.Parse("/api/v1/recipes")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	if tagIDs != "" {
		params.Set("tags", tagIDs)
	}
	if ingredientIDs != "" {
		params.Set("ingredients", ingredientIDs)
	}
	u.RawQuery = params.Encode()

	var resp ListRecipesResponse
	err = c.DoJSON(ctx, Request{
		Method: "GET",
		Path:   u.String(),
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// CreateRecipe creates a recipe, linking named tags and ingredients
func (c *Client) CreateRecipe(ctx context.Context, req CreateRecipeRequest) (*RecipeDetail, error) {
	var resp RecipeDetail
	err := c.DoJSON(ctx, Request{
		Method: "POST",
		Path:   "/api/v1/recipes",
		Body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// GetRecipe returns a single recipe with tags and ingredients expanded
func (c *Client) GetRecipe(ctx context.Context, recipeID string) (*RecipeDetail, error) {
	var resp RecipeDetail
	err := c.DoJSON(ctx, Request{
		Method: "GET",
		Path:   fmt.Sprintf("/api/v1/recipes/%s", recipeID),
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// UpdateRecipe applies a partial update to a recipe
func (c *Client) UpdateRecipe(ctx context.Context, recipeID string, req UpdateRecipeRequest) (*RecipeDetail, error) {
	var resp RecipeDetail
	err := c.DoJSON(ctx, Request{
		Method: "PATCH",
		Path:   fmt.Sprintf("/api/v1/recipes/%s", recipeID),
		Body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// ReplaceRecipe fully replaces a recipe's fields
func (c *Client) ReplaceRecipe(ctx context.Context, recipeID string, req CreateRecipeRequest) (*RecipeDetail, error) {
	var resp RecipeDetail
	err := c.DoJSON(ctx, Request{
		Method: "PUT",
		Path:   fmt.Sprintf("/api/v1/recipes/%s", recipeID),
		Body:   req,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// DeleteRecipe deletes a recipe and its image if one is stored
func (c *Client) DeleteRecipe(ctx context.Context, recipeID string) error {
	resp, err := c.Do(ctx, Request{
		Method: "DELETE",
		Path:   fmt.Sprintf("/api/v1/recipes/%s", recipeID),
	})
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return errorFromResponse(resp.StatusCode, resp.Body)
	}
	return nil
}

// UploadRecipeImage attaches an image to a recipe, replacing any previous one.
// The image is sent as a multipart form file under the image field.
func (c *Client) UploadRecipeImage(
	ctx context.Context,
	recipeID, filename string,
	image []byte,
) (*UploadImageResponse, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart form: %w", err)
	}
	if _, err = part.Write(image); err != nil {
		return nil, fmt.Errorf("failed to build multipart form: %w", err)
	}
	if err = form.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart form: %w", err)
	}

	apiURL, err := c.buildURL(fmt.Sprintf("/api/v1/recipes/%s/image", recipeID))
	if err != nil {
		return nil, fmt.Errorf("invalid API endpoint: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", apiURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(constants.ContentTypeHeader, form.FormDataContentType())
	if c.config.Token != "" {
		httpReq.Header.Set(constants.AuthorizationHeader, constants.TokenScheme+" "+c.config.Token)
	}

	httpClient := &http.Client{}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errorFromResponse(resp.StatusCode, body)
	}

	var uploadResp UploadImageResponse
	if err = json.Unmarshal(body, &uploadResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &uploadResp, nil
}

// ListTags lists the caller's tags.
// When assignedOnly is true, only tags referenced by a recipe are returned.
func (c *Client) ListTags(ctx context.Context, assignedOnly bool) (*ListTagsResponse, error) {
	path := "/api/v1/tags"
	if assignedOnly {
		path += "?assigned_only=1"
	}

	var resp ListTagsResponse
	err := c.DoJSON(ctx, Request{
		Method: "GET",
		Path:   path,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// RenameTag renames a tag
func (c *Client) RenameTag(ctx context.Context, tagID, name string) (*Tag, error) {
	var resp Tag
	err := c.DoJSON(ctx, Request{
		Method: "PATCH",
		Path:   fmt.Sprintf("/api/v1/tags/%s", tagID),
		Body:   UpdateTagRequest{Name: name},
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// DeleteTag deletes a tag and unlinks it from recipes
func (c *Client) DeleteTag(ctx context.Context, tagID string) error {
	resp, err := c.Do(ctx, Request{
		Method: "DELETE",
		Path:   fmt.Sprintf("/api/v1/tags/%s", tagID),
	})
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return errorFromResponse(resp.StatusCode, resp.Body)
	}
	return nil
}

// ListIngredients lists the caller's ingredients.
// When assignedOnly is true, only ingredients referenced by a recipe are returned.
func (c *Client) ListIngredients(ctx context.Context, assignedOnly bool) (*ListIngredientsResponse, error) {
	path := "/api/v1/ingredients"
	if assignedOnly {
		path += "?assigned_only=1"
	}

	var resp ListIngredientsResponse
	err := c.DoJSON(ctx, Request{
		Method: "GET",
		Path:   path,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// RenameIngredient renames an ingredient
func (c *Client) RenameIngredient(ctx context.Context, ingredientID, name string) (*Ingredient, error) {
	var resp Ingredient
	err := c.DoJSON(ctx, Request{
		Method: "PATCH",
		Path:   fmt.Sprintf("/api/v1/ingredients/%s", ingredientID),
		Body:   UpdateIngredientRequest{Name: name},
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// DeleteIngredient deletes an ingredient and unlinks it from recipes
func (c *Client) DeleteIngredient(ctx context.Context, ingredientID string) error {
	resp, err := c.Do(ctx, Request{
		Method: "DELETE",
		Path:   fmt.Sprintf("/api/v1/ingredients/%s", ingredientID),
	})
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return errorFromResponse(resp.StatusCode, resp.Body)
	}
	return nil
}
