package server

import (
	"context"
	"net/http"
	"time"

	"github.com/souschef/souschef/internal/api"
	"github.com/souschef/souschef/internal/app"
	"github.com/souschef/souschef/internal/auth/authorization"
	"github.com/souschef/souschef/internal/testutil"

	"github.com/go-chi/chi/v5"
)

// Repository doubles with overridable behavior per method. Methods without an
// override return permissive defaults so each test only wires what it checks.

type testUserRepository struct {
	createUserFunc         func(ctx context.Context, user *api.User, passwordHash string) error
	getUserByEmailFunc     func(ctx context.Context, email string) (*api.User, error)
	getUserCredentialsFunc func(ctx context.Context, email string) (*api.User, string, error)
	updateUserFunc         func(ctx context.Context, email string, name, passwordHash *string) (*api.User, error)
	updateLastLoginFunc    func(ctx context.Context, email string) (*time.Time, error)
	deactivateUserFunc     func(ctx context.Context, email string) error
	listUsersFunc          func(ctx context.Context) ([]*api.User, error)
}

func (m *testUserRepository) CreateUser(ctx context.Context, user *api.User, passwordHash string) error {
	if m.createUserFunc != nil {
		return m.createUserFunc(ctx, user, passwordHash)
	}
	return nil
}

func (m *testUserRepository) GetUserByEmail(ctx context.Context, email string) (*api.User, error) {
	if m.getUserByEmailFunc != nil {
		return m.getUserByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *testUserRepository) GetUserCredentials(ctx context.Context, email string) (*api.User, string, error) {
	if m.getUserCredentialsFunc != nil {
		return m.getUserCredentialsFunc(ctx, email)
	}
	return nil, "", nil
}

func (m *testUserRepository) UpdateUser(
	ctx context.Context,
	email string,
	name, passwordHash *string) (*api.User, error) {
	if m.updateUserFunc != nil {
		return m.updateUserFunc(ctx, email, name, passwordHash)
	}
	return &api.User{Email: email}, nil
}

func (m *testUserRepository) UpdateLastLogin(ctx context.Context, email string) (*time.Time, error) {
	if m.updateLastLoginFunc != nil {
		return m.updateLastLoginFunc(ctx, email)
	}
	now := time.Now().UTC()
	return &now, nil
}

func (m *testUserRepository) DeactivateUser(ctx context.Context, email string) error {
	if m.deactivateUserFunc != nil {
		return m.deactivateUserFunc(ctx, email)
	}
	return nil
}

func (m *testUserRepository) ListUsers(ctx context.Context) ([]*api.User, error) {
	if m.listUsersFunc != nil {
		return m.listUsersFunc(ctx)
	}
	return []*api.User{}, nil
}

type testTokenRepository struct {
	createTokenFunc         func(ctx context.Context, token *api.Token) error
	getTokenByHashFunc      func(ctx context.Context, tokenHash string) (*api.Token, error)
	updateTokenLastUsedFunc func(ctx context.Context, tokenHash string) (*time.Time, error)
	deleteTokenFunc         func(ctx context.Context, tokenHash string) error
	deleteTokensForUserFunc func(ctx context.Context, email string) (int, error)
}

func (m *testTokenRepository) CreateToken(ctx context.Context, token *api.Token) error {
	if m.createTokenFunc != nil {
		return m.createTokenFunc(ctx, token)
	}
	return nil
}

func (m *testTokenRepository) GetTokenByHash(ctx context.Context, tokenHash string) (*api.Token, error) {
	if m.getTokenByHashFunc != nil {
		return m.getTokenByHashFunc(ctx, tokenHash)
	}
	return nil, nil
}

func (m *testTokenRepository) UpdateTokenLastUsed(ctx context.Context, tokenHash string) (*time.Time, error) {
	if m.updateTokenLastUsedFunc != nil {
		return m.updateTokenLastUsedFunc(ctx, tokenHash)
	}
	now := time.Now().UTC()
	return &now, nil
}

func (m *testTokenRepository) DeleteToken(ctx context.Context, tokenHash string) error {
	if m.deleteTokenFunc != nil {
		return m.deleteTokenFunc(ctx, tokenHash)
	}
	return nil
}

func (m *testTokenRepository) DeleteTokensForUser(ctx context.Context, email string) (int, error) {
	if m.deleteTokensForUserFunc != nil {
		return m.deleteTokensForUserFunc(ctx, email)
	}
	return 0, nil
}

type testRecipeRepository struct {
	createRecipeFunc   func(ctx context.Context, userEmail string, recipe *api.RecipeDetail) error
	getRecipeFunc      func(ctx context.Context, userEmail, id string) (*api.RecipeDetail, error)
	listRecipesFunc    func(ctx context.Context, userEmail string) ([]*api.RecipeDetail, error)
	updateRecipeFunc   func(ctx context.Context, userEmail string, recipe *api.RecipeDetail) error
	deleteRecipeFunc   func(ctx context.Context, userEmail, id string) error
	setRecipeImageFunc func(ctx context.Context, userEmail, id, imageKey string) error
}

func (m *testRecipeRepository) CreateRecipe(ctx context.Context, userEmail string, recipe *api.RecipeDetail) error {
	if m.createRecipeFunc != nil {
		return m.createRecipeFunc(ctx, userEmail, recipe)
	}
	return nil
}

func (m *testRecipeRepository) GetRecipe(ctx context.Context, userEmail, id string) (*api.RecipeDetail, error) {
	if m.getRecipeFunc != nil {
		return m.getRecipeFunc(ctx, userEmail, id)
	}
	return nil, nil
}

func (m *testRecipeRepository) ListRecipes(ctx context.Context, userEmail string) ([]*api.RecipeDetail, error) {
	if m.listRecipesFunc != nil {
		return m.listRecipesFunc(ctx, userEmail)
	}
	return []*api.RecipeDetail{}, nil
}

func (m *testRecipeRepository) UpdateRecipe(ctx context.Context, userEmail string, recipe *api.RecipeDetail) error {
	if m.updateRecipeFunc != nil {
		return m.updateRecipeFunc(ctx, userEmail, recipe)
	}
	return nil
}

func (m *testRecipeRepository) DeleteRecipe(ctx context.Context, userEmail, id string) error {
	if m.deleteRecipeFunc != nil {
		return m.deleteRecipeFunc(ctx, userEmail, id)
	}
	return nil
}

func (m *testRecipeRepository) SetRecipeImage(ctx context.Context, userEmail, id, imageKey string) error {
	if m.setRecipeImageFunc != nil {
		return m.setRecipeImageFunc(ctx, userEmail, id, imageKey)
	}
	return nil
}

type testTagRepository struct {
	createTagFunc    func(ctx context.Context, userEmail string, tag *api.Tag) error
	getTagByNameFunc func(ctx context.Context, userEmail, name string) (*api.Tag, error)
	listTagsFunc     func(ctx context.Context, userEmail string) ([]*api.Tag, error)
	updateTagFunc    func(ctx context.Context, userEmail, id, name string) error
	deleteTagFunc    func(ctx context.Context, userEmail, id string) error
}

func (m *testTagRepository) CreateTag(ctx context.Context, userEmail string, tag *api.Tag) error {
	if m.createTagFunc != nil {
		return m.createTagFunc(ctx, userEmail, tag)
	}
	return nil
}

func (m *testTagRepository) GetTagByName(ctx context.Context, userEmail, name string) (*api.Tag, error) {
	if m.getTagByNameFunc != nil {
		return m.getTagByNameFunc(ctx, userEmail, name)
	}
	return nil, nil
}

func (m *testTagRepository) ListTags(ctx context.Context, userEmail string) ([]*api.Tag, error) {
	if m.listTagsFunc != nil {
		return m.listTagsFunc(ctx, userEmail)
	}
	return []*api.Tag{}, nil
}

func (m *testTagRepository) UpdateTag(ctx context.Context, userEmail, id, name string) error {
	if m.updateTagFunc != nil {
		return m.updateTagFunc(ctx, userEmail, id, name)
	}
	return nil
}

func (m *testTagRepository) DeleteTag(ctx context.Context, userEmail, id string) error {
	if m.deleteTagFunc != nil {
		return m.deleteTagFunc(ctx, userEmail, id)
	}
	return nil
}

type testIngredientRepository struct {
	createIngredientFunc    func(ctx context.Context, userEmail string, ingredient *api.Ingredient) error
	getIngredientByNameFunc func(ctx context.Context, userEmail, name string) (*api.Ingredient, error)
	listIngredientsFunc     func(ctx context.Context, userEmail string) ([]*api.Ingredient, error)
	updateIngredientFunc    func(ctx context.Context, userEmail, id, name string) error
	deleteIngredientFunc    func(ctx context.Context, userEmail, id string) error
}

func (m *testIngredientRepository) CreateIngredient(
	ctx context.Context,
	userEmail string,
	ingredient *api.Ingredient) error {
	if m.createIngredientFunc != nil {
		return m.createIngredientFunc(ctx, userEmail, ingredient)
	}
	return nil
}

func (m *testIngredientRepository) GetIngredientByName(
	ctx context.Context,
	userEmail, name string) (*api.Ingredient, error) {
	if m.getIngredientByNameFunc != nil {
		return m.getIngredientByNameFunc(ctx, userEmail, name)
	}
	return nil, nil
}

func (m *testIngredientRepository) ListIngredients(ctx context.Context, userEmail string) ([]*api.Ingredient, error) {
	if m.listIngredientsFunc != nil {
		return m.listIngredientsFunc(ctx, userEmail)
	}
	return []*api.Ingredient{}, nil
}

func (m *testIngredientRepository) UpdateIngredient(ctx context.Context, userEmail, id, name string) error {
	if m.updateIngredientFunc != nil {
		return m.updateIngredientFunc(ctx, userEmail, id, name)
	}
	return nil
}

func (m *testIngredientRepository) DeleteIngredient(ctx context.Context, userEmail, id string) error {
	if m.deleteIngredientFunc != nil {
		return m.deleteIngredientFunc(ctx, userEmail, id)
	}
	return nil
}

type testImageStore struct {
	putFunc    func(ctx context.Context, data []byte, contentType string) (string, error)
	deleteFunc func(ctx context.Context, key string) error
	urlFunc    func(key string) string
}

func (m *testImageStore) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	if m.putFunc != nil {
		return m.putFunc(ctx, data, contentType)
	}
	return "uploads/recipe/test-key.png", nil
}

func (m *testImageStore) Delete(ctx context.Context, key string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, key)
	}
	return nil
}

func (m *testImageStore) URL(key string) string {
	if m.urlFunc != nil {
		return m.urlFunc(key)
	}
	return "https://images.example.com/" + key
}

type testAuthorizer struct {
	enforceFunc           func(subject, object string, action authorization.Action) (bool, error)
	addRoleForUserFunc    func(user string, role authorization.Role) error
	removeRoleForUserFunc func(user string, role authorization.Role) error
}

func (m *testAuthorizer) Enforce(subject, object string, action authorization.Action) (bool, error) {
	if m.enforceFunc != nil {
		return m.enforceFunc(subject, object, action)
	}
	return true, nil
}

func (m *testAuthorizer) AddRoleForUser(user string, role authorization.Role) error {
	if m.addRoleForUserFunc != nil {
		return m.addRoleForUserFunc(user, role)
	}
	return nil
}

func (m *testAuthorizer) RemoveRoleForUser(user string, role authorization.Role) error {
	if m.removeRoleForUserFunc != nil {
		return m.removeRoleForUserFunc(user, role)
	}
	return nil
}

// testRepos bundles the doubles behind a test service. Nil fields are
// replaced with default stubs so the service never sees a nil dependency.
type testRepos struct {
	users       *testUserRepository
	tokens      *testTokenRepository
	recipes     *testRecipeRepository
	tags        *testTagRepository
	ingredients *testIngredientRepository
	images      *testImageStore
	authz       *testAuthorizer
}

func newTestService(repos testRepos) *app.Service {
	if repos.users == nil {
		repos.users = &testUserRepository{}
	}
	if repos.tokens == nil {
		repos.tokens = &testTokenRepository{}
	}
	if repos.recipes == nil {
		repos.recipes = &testRecipeRepository{}
	}
	if repos.tags == nil {
		repos.tags = &testTagRepository{}
	}
	if repos.ingredients == nil {
		repos.ingredients = &testIngredientRepository{}
	}
	if repos.images == nil {
		repos.images = &testImageStore{}
	}
	if repos.authz == nil {
		repos.authz = &testAuthorizer{}
	}
	return app.NewService(
		repos.users,
		repos.tokens,
		repos.recipes,
		repos.tags,
		repos.ingredients,
		repos.images,
		repos.authz,
		testutil.SilentLogger(),
	)
}

func newTestRouter(repos testRepos) *Router {
	return &Router{svc: newTestService(repos)}
}

func addAuthenticatedUser(req *http.Request, user *api.User) *http.Request {
	ctx := context.WithValue(req.Context(), userContextKey, user)
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, name, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(name, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func chefTestUser() *api.User {
	return testutil.NewUserBuilder().
		WithEmail("chef@example.com").
		Build()
}

func adminTestUser() *api.User {
	return testutil.NewUserBuilder().
		WithEmail("admin@example.com").
		WithRole(authorization.RoleAdmin).
		Build()
}
