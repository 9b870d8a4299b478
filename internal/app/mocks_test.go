package app

import (
	"context"
	"time"

	"github.com/souschef/souschef/internal/api"
	"github.com/souschef/souschef/internal/auth/authorization"
	"github.com/souschef/souschef/internal/testutil"
)

// mockUserRepository implements database.UserRepository for testing
type mockUserRepository struct {
	createUserFunc         func(ctx context.Context, user *api.User, passwordHash string) error
	getUserByEmailFunc     func(ctx context.Context, email string) (*api.User, error)
	getUserCredentialsFunc func(ctx context.Context, email string) (*api.User, string, error)
	updateUserFunc         func(ctx context.Context, email string, name, passwordHash *string) (*api.User, error)
	updateLastLoginFunc    func(ctx context.Context, email string) (*time.Time, error)
	deactivateUserFunc     func(ctx context.Context, email string) error
	listUsersFunc          func(ctx context.Context) ([]*api.User, error)
}

func (m *mockUserRepository) CreateUser(ctx context.Context, user *api.User, passwordHash string) error {
	if m.createUserFunc != nil {
		return m.createUserFunc(ctx, user, passwordHash)
	}
	return nil
}

func (m *mockUserRepository) GetUserByEmail(ctx context.Context, email string) (*api.User, error) {
	if m.getUserByEmailFunc != nil {
		return m.getUserByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepository) GetUserCredentials(ctx context.Context, email string) (*api.User, string, error) {
	if m.getUserCredentialsFunc != nil {
		return m.getUserCredentialsFunc(ctx, email)
	}
	return nil, "", nil
}

func (m *mockUserRepository) UpdateUser(
	ctx context.Context,
	email string,
	name, passwordHash *string) (*api.User, error) {
	if m.updateUserFunc != nil {
		return m.updateUserFunc(ctx, email, name, passwordHash)
	}
	return &api.User{Email: email}, nil
}

func (m *mockUserRepository) UpdateLastLogin(ctx context.Context, email string) (*time.Time, error) {
	if m.updateLastLoginFunc != nil {
		return m.updateLastLoginFunc(ctx, email)
	}
	now := time.Now()
	return &now, nil
}

func (m *mockUserRepository) DeactivateUser(ctx context.Context, email string) error {
	if m.deactivateUserFunc != nil {
		return m.deactivateUserFunc(ctx, email)
	}
	return nil
}

func (m *mockUserRepository) ListUsers(ctx context.Context) ([]*api.User, error) {
	if m.listUsersFunc != nil {
		return m.listUsersFunc(ctx)
	}
	return []*api.User{}, nil
}

// mockTokenRepository implements database.TokenRepository for testing
type mockTokenRepository struct {
	createTokenFunc         func(ctx context.Context, token *api.Token) error
	getTokenByHashFunc      func(ctx context.Context, tokenHash string) (*api.Token, error)
	updateTokenLastUsedFunc func(ctx context.Context, tokenHash string) (*time.Time, error)
	deleteTokenFunc         func(ctx context.Context, tokenHash string) error
	deleteTokensForUserFunc func(ctx context.Context, email string) (int, error)
}

func (m *mockTokenRepository) CreateToken(ctx context.Context, token *api.Token) error {
	if m.createTokenFunc != nil {
		return m.createTokenFunc(ctx, token)
	}
	return nil
}

func (m *mockTokenRepository) GetTokenByHash(ctx context.Context, tokenHash string) (*api.Token, error) {
	if m.getTokenByHashFunc != nil {
		return m.getTokenByHashFunc(ctx, tokenHash)
	}
	return nil, nil
}

func (m *mockTokenRepository) UpdateTokenLastUsed(ctx context.Context, tokenHash string) (*time.Time, error) {
	if m.updateTokenLastUsedFunc != nil {
		return m.updateTokenLastUsedFunc(ctx, tokenHash)
	}
	now := time.Now()
	return &now, nil
}

func (m *mockTokenRepository) DeleteToken(ctx context.Context, tokenHash string) error {
	if m.deleteTokenFunc != nil {
		return m.deleteTokenFunc(ctx, tokenHash)
	}
	return nil
}

func (m *mockTokenRepository) DeleteTokensForUser(ctx context.Context, email string) (int, error) {
	if m.deleteTokensForUserFunc != nil {
		return m.deleteTokensForUserFunc(ctx, email)
	}
	return 0, nil
}

// mockRecipeRepository implements database.RecipeRepository for testing
type mockRecipeRepository struct {
	createRecipeFunc   func(ctx context.Context, userEmail string, recipe *api.RecipeDetail) error
	getRecipeFunc      func(ctx context.Context, userEmail, id string) (*api.RecipeDetail, error)
	listRecipesFunc    func(ctx context.Context, userEmail string) ([]*api.RecipeDetail, error)
	updateRecipeFunc   func(ctx context.Context, userEmail string, recipe *api.RecipeDetail) error
	deleteRecipeFunc   func(ctx context.Context, userEmail, id string) error
	setRecipeImageFunc func(ctx context.Context, userEmail, id, imageKey string) error
}

func (m *mockRecipeRepository) CreateRecipe(ctx context.Context, userEmail string, recipe *api.RecipeDetail) error {
	if m.createRecipeFunc != nil {
		return m.createRecipeFunc(ctx, userEmail, recipe)
	}
	return nil
}

func (m *mockRecipeRepository) GetRecipe(ctx context.Context, userEmail, id string) (*api.RecipeDetail, error) {
	if m.getRecipeFunc != nil {
		return m.getRecipeFunc(ctx, userEmail, id)
	}
	return nil, nil
}

func (m *mockRecipeRepository) ListRecipes(ctx context.Context, userEmail string) ([]*api.RecipeDetail, error) {
	if m.listRecipesFunc != nil {
		return m.listRecipesFunc(ctx, userEmail)
	}
	return []*api.RecipeDetail{}, nil
}

func (m *mockRecipeRepository) UpdateRecipe(ctx context.Context, userEmail string, recipe *api.RecipeDetail) error {
	if m.updateRecipeFunc != nil {
		return m.updateRecipeFunc(ctx, userEmail, recipe)
	}
	return nil
}

func (m *mockRecipeRepository) DeleteRecipe(ctx context.Context, userEmail, id string) error {
	if m.deleteRecipeFunc != nil {
		return m.deleteRecipeFunc(ctx, userEmail, id)
	}
	return nil
}

func (m *mockRecipeRepository) SetRecipeImage(ctx context.Context, userEmail, id, imageKey string) error {
	if m.setRecipeImageFunc != nil {
		return m.setRecipeImageFunc(ctx, userEmail, id, imageKey)
	}
	return nil
}

// mockTagRepository implements database.TagRepository for testing
type mockTagRepository struct {
	createTagFunc    func(ctx context.Context, userEmail string, tag *api.Tag) error
	getTagByNameFunc func(ctx context.Context, userEmail, name string) (*api.Tag, error)
	listTagsFunc     func(ctx context.Context, userEmail string) ([]*api.Tag, error)
	updateTagFunc    func(ctx context.Context, userEmail, id, name string) error
	deleteTagFunc    func(ctx context.Context, userEmail, id string) error
}

func (m *mockTagRepository) CreateTag(ctx context.Context, userEmail string, tag *api.Tag) error {
	if m.createTagFunc != nil {
		return m.createTagFunc(ctx, userEmail, tag)
	}
	return nil
}

func (m *mockTagRepository) GetTagByName(ctx context.Context, userEmail, name string) (*api.Tag, error) {
	if m.getTagByNameFunc != nil {
		return m.getTagByNameFunc(ctx, userEmail, name)
	}
	return nil, nil
}

func (m *mockTagRepository) ListTags(ctx context.Context, userEmail string) ([]*api.Tag, error) {
	if m.listTagsFunc != nil {
		return m.listTagsFunc(ctx, userEmail)
	}
	return []*api.Tag{}, nil
}

func (m *mockTagRepository) UpdateTag(ctx context.Context, userEmail, id, name string) error {
	if m.updateTagFunc != nil {
		return m.updateTagFunc(ctx, userEmail, id, name)
	}
	return nil
}

func (m *mockTagRepository) DeleteTag(ctx context.Context, userEmail, id string) error {
	if m.deleteTagFunc != nil {
		return m.deleteTagFunc(ctx, userEmail, id)
	}
	return nil
}

// mockIngredientRepository implements database.IngredientRepository for testing
type mockIngredientRepository struct {
	createIngredientFunc    func(ctx context.Context, userEmail string, ingredient *api.Ingredient) error
	getIngredientByNameFunc func(ctx context.Context, userEmail, name string) (*api.Ingredient, error)
	listIngredientsFunc     func(ctx context.Context, userEmail string) ([]*api.Ingredient, error)
	updateIngredientFunc    func(ctx context.Context, userEmail, id, name string) error
	deleteIngredientFunc    func(ctx context.Context, userEmail, id string) error
}

func (m *mockIngredientRepository) CreateIngredient(
	ctx context.Context,
	userEmail string,
	ingredient *api.Ingredient) error {
	if m.createIngredientFunc != nil {
		return m.createIngredientFunc(ctx, userEmail, ingredient)
	}
	return nil
}

func (m *mockIngredientRepository) GetIngredientByName(
	ctx context.Context,
	userEmail, name string) (*api.Ingredient, error) {
	if m.getIngredientByNameFunc != nil {
		return m.getIngredientByNameFunc(ctx, userEmail, name)
	}
	return nil, nil
}

func (m *mockIngredientRepository) ListIngredients(ctx context.Context, userEmail string) ([]*api.Ingredient, error) {
	if m.listIngredientsFunc != nil {
		return m.listIngredientsFunc(ctx, userEmail)
	}
	return []*api.Ingredient{}, nil
}

func (m *mockIngredientRepository) UpdateIngredient(ctx context.Context, userEmail, id, name string) error {
	if m.updateIngredientFunc != nil {
		return m.updateIngredientFunc(ctx, userEmail, id, name)
	}
	return nil
}

func (m *mockIngredientRepository) DeleteIngredient(ctx context.Context, userEmail, id string) error {
	if m.deleteIngredientFunc != nil {
		return m.deleteIngredientFunc(ctx, userEmail, id)
	}
	return nil
}

// mockImageStore implements ImageStore for testing
type mockImageStore struct {
	putFunc    func(ctx context.Context, data []byte, contentType string) (string, error)
	deleteFunc func(ctx context.Context, key string) error
	urlFunc    func(key string) string
}

func (m *mockImageStore) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	if m.putFunc != nil {
		return m.putFunc(ctx, data, contentType)
	}
	return "uploads/recipe/mock-key.png", nil
}

func (m *mockImageStore) Delete(ctx context.Context, key string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, key)
	}
	return nil
}

func (m *mockImageStore) URL(key string) string {
	if m.urlFunc != nil {
		return m.urlFunc(key)
	}
	return "https://images.example.com/" + key
}

// mockAuthorizer implements Authorizer for testing
type mockAuthorizer struct {
	enforceFunc           func(subject, object string, action authorization.Action) (bool, error)
	addRoleForUserFunc    func(user string, role authorization.Role) error
	removeRoleForUserFunc func(user string, role authorization.Role) error
}

func (m *mockAuthorizer) Enforce(subject, object string, action authorization.Action) (bool, error) {
	if m.enforceFunc != nil {
		return m.enforceFunc(subject, object, action)
	}
	return true, nil
}

func (m *mockAuthorizer) AddRoleForUser(user string, role authorization.Role) error {
	if m.addRoleForUserFunc != nil {
		return m.addRoleForUserFunc(user, role)
	}
	return nil
}

func (m *mockAuthorizer) RemoveRoleForUser(user string, role authorization.Role) error {
	if m.removeRoleForUserFunc != nil {
		return m.removeRoleForUserFunc(user, role)
	}
	return nil
}

// serviceMocks bundles the doubles wired into a test service. Nil fields
// leave the matching dependency unset.
type serviceMocks struct {
	users       *mockUserRepository
	tokens      *mockTokenRepository
	recipes     *mockRecipeRepository
	tags        *mockTagRepository
	ingredients *mockIngredientRepository
	images      *mockImageStore
	authz       *mockAuthorizer
}

// newTestService creates a Service with the given mocks for testing.
func newTestService(mocks serviceMocks) *Service {
	svc := &Service{Logger: testutil.SilentLogger()}
	if mocks.users != nil {
		svc.userRepo = mocks.users
	}
	if mocks.tokens != nil {
		svc.tokenRepo = mocks.tokens
	}
	if mocks.recipes != nil {
		svc.recipeRepo = mocks.recipes
	}
	if mocks.tags != nil {
		svc.tagRepo = mocks.tags
	}
	if mocks.ingredients != nil {
		svc.ingredientRepo = mocks.ingredients
	}
	if mocks.images != nil {
		svc.images = mocks.images
	}
	if mocks.authz != nil {
		svc.authz = mocks.authz
	}
	return svc
}
