package dynamodb

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/souschef/souschef/internal/api"
	apperrors "github.com/souschef/souschef/internal/errors"
	"github.com/souschef/souschef/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const recipeExistsCondition = "attribute_exists(user_email) AND attribute_exists(id)"

// RecipeRepository implements the database.RecipeRepository interface using DynamoDB.
// The table is keyed by user_email (partition) and id (sort). Recipe IDs are
// time-sortable, so querying a partition in reverse yields newest first.
type RecipeRepository struct {
	client    Client
	tableName string
	logger    *slog.Logger
}

// NewRecipeRepository creates a new DynamoDB-backed recipe repository.
func NewRecipeRepository(
	client Client,
	tableName string,
	log *slog.Logger,
) *RecipeRepository {
	return &RecipeRepository{
		client:    client,
		tableName: tableName,
		logger:    log,
	}
}

// recipeItem represents the structure stored in DynamoDB.
type recipeItem struct {
	UserEmail           string    `dynamodbav:"user_email"`
	ID                  string    `dynamodbav:"id"`
	Title               string    `dynamodbav:"title"`
	TimeMinutes         int       `dynamodbav:"time_minutes"`
	Price               string    `dynamodbav:"price"`
	Link                string    `dynamodbav:"link,omitempty"`
	Description         string    `dynamodbav:"description,omitempty"`
	ImageKey            string    `dynamodbav:"image_key,omitempty"`
	TagIDs              []string  `dynamodbav:"tag_ids,omitempty"`
	IngredientIDs       []string  `dynamodbav:"ingredient_ids,omitempty"`
	CreatedAt           time.Time `dynamodbav:"created_at"`
	CreatedByRequestID  string    `dynamodbav:"created_by_request_id,omitempty"`
	ModifiedByRequestID string    `dynamodbav:"modified_by_request_id,omitempty"`
}

// toRecipeItem converts the API type to the stored structure.
func toRecipeItem(userEmail string, recipe *api.RecipeDetail) recipeItem {
	return recipeItem{
		UserEmail:     userEmail,
		ID:            recipe.ID,
		Title:         recipe.Title,
		TimeMinutes:   recipe.TimeMinutes,
		Price:         recipe.Price,
		Link:          recipe.Link,
		Description:   recipe.Description,
		ImageKey:      recipe.ImageKey,
		TagIDs:        recipe.TagIDs,
		IngredientIDs: recipe.IngredientIDs,
		CreatedAt:     recipe.CreatedAt,
	}
}

// toRecipeDetail converts a stored item to the API type.
// Tag and ingredient expansion is left to the caller.
func (item *recipeItem) toRecipeDetail() *api.RecipeDetail {
	tagIDs := item.TagIDs
	if tagIDs == nil {
		tagIDs = []string{}
	}
	ingredientIDs := item.IngredientIDs
	if ingredientIDs == nil {
		ingredientIDs = []string{}
	}

	return &api.RecipeDetail{
		Recipe: api.Recipe{
			ID:            item.ID,
			Title:         item.Title,
			TimeMinutes:   item.TimeMinutes,
			Price:         item.Price,
			Link:          item.Link,
			TagIDs:        tagIDs,
			IngredientIDs: ingredientIDs,
			CreatedAt:     item.CreatedAt,
		},
		Description: item.Description,
		ImageKey:    item.ImageKey,
	}
}

// CreateRecipe stores a new recipe for the user.
func (r *RecipeRepository) CreateRecipe(ctx context.Context, userEmail string, recipe *api.RecipeDetail) error {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	item := toRecipeItem(userEmail, recipe)
	item.CreatedByRequestID = logger.GetRequestID(ctx)

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe item: %w", err)
	}

	logArgs := []any{
		"operation", "DynamoDB.PutItem",
		"table", r.tableName,
		"user_email", userEmail,
		"recipe_id", recipe.ID,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	// Recipe IDs are minted by the caller; the condition guards against a collision
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(user_email) AND attribute_not_exists(id)"),
	})

	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if stderrors.As(err, &ccf) {
			return apperrors.ErrConflict("recipe with this ID already exists", nil)
		}
		return apperrors.ErrDatabaseError("failed to create recipe", err)
	}

	return nil
}

// GetRecipe retrieves one of the user's recipes by ID.
// Returns nil if the recipe doesn't exist for this user.
func (r *RecipeRepository) GetRecipe(ctx context.Context, userEmail, id string) (*api.RecipeDetail, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	logArgs := []any{
		"operation", "DynamoDB.GetItem",
		"table", r.tableName,
		"user_email", userEmail,
		"recipe_id", id,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"user_email": &types.AttributeValueMemberS{Value: userEmail},
			"id":         &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, apperrors.ErrDatabaseError("failed to get recipe", err)
	}

	if result.Item == nil {
		reqLogger.Debug("recipe not found", "user_email", userEmail, "recipe_id", id)

		return nil, nil
	}

	var item recipeItem
	if unmarshalErr := attributevalue.UnmarshalMap(result.Item, &item); unmarshalErr != nil {
		return nil, apperrors.ErrDatabaseError("failed to unmarshal recipe",
			fmt.Errorf("unmarshal recipe item: %w", unmarshalErr))
	}

	return item.toRecipeDetail(), nil
}

// ListRecipes returns all of the user's recipes, newest first.
func (r *RecipeRepository) ListRecipes(ctx context.Context, userEmail string) ([]*api.RecipeDetail, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	logArgs := []any{
		"operation", "DynamoDB.Query",
		"table", r.tableName,
		"user_email", userEmail,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: userEmail},
		},
		ScanIndexForward: aws.Bool(false), // Sort descending by id (the range key) to get newest first
	})
	if err != nil {
		return nil, apperrors.ErrDatabaseError("failed to list recipes", err)
	}

	recipes := make([]*api.RecipeDetail, 0, len(result.Items))
	for _, rawItem := range result.Items {
		var item recipeItem
		if err = attributevalue.UnmarshalMap(rawItem, &item); err != nil {
			reqLogger.Warn("failed to unmarshal recipe item", "error", err)
			continue
		}

		recipes = append(recipes, item.toRecipeDetail())
	}

	return recipes, nil
}

// UpdateRecipe replaces an existing recipe.
func (r *RecipeRepository) UpdateRecipe(ctx context.Context, userEmail string, recipe *api.RecipeDetail) error {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	item := toRecipeItem(userEmail, recipe)
	item.ModifiedByRequestID = logger.GetRequestID(ctx)

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe item: %w", err)
	}

	logArgs := []any{
		"operation", "DynamoDB.PutItem",
		"table", r.tableName,
		"user_email", userEmail,
		"recipe_id", recipe.ID,
		"purpose", "recipe_update",
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String(recipeExistsCondition),
	})

	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if stderrors.As(err, &ccf) {
			return apperrors.ErrNotFound("recipe not found", nil)
		}
		return apperrors.ErrDatabaseError("failed to update recipe", err)
	}

	return nil
}

// DeleteRecipe removes one of the user's recipes.
func (r *RecipeRepository) DeleteRecipe(ctx context.Context, userEmail, id string) error {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	logArgs := []any{
		"operation", "DynamoDB.DeleteItem",
		"table", r.tableName,
		"user_email", userEmail,
		"recipe_id", id,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"user_email": &types.AttributeValueMemberS{Value: userEmail},
			"id":         &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String(recipeExistsCondition),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if stderrors.As(err, &ccf) {
			return apperrors.ErrNotFound("recipe not found", nil)
		}
		return apperrors.ErrDatabaseError("failed to delete recipe", err)
	}

	return nil
}

// buildImageUpdateExpression builds the update expression for SetRecipeImage.
// The request ID is recorded alongside the key when one is present.
func buildImageUpdateExpression(imageKey, requestID string) (expression.Expression, error) {
	update := expression.Set(expression.Name("image_key"), expression.Value(imageKey))
	if requestID != "" {
		update = update.Set(expression.Name("modified_by_request_id"), expression.Value(requestID))
	}

	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("failed to build update expression: %w", err)
	}
	return expr, nil
}

// SetRecipeImage records the storage key of the recipe's image.
func (r *RecipeRepository) SetRecipeImage(ctx context.Context, userEmail, id, imageKey string) error {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	logArgs := []any{
		"operation", "DynamoDB.UpdateItem",
		"table", r.tableName,
		"user_email", userEmail,
		"recipe_id", id,
		"purpose", "image_update",
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	expr, err := buildImageUpdateExpression(imageKey, logger.GetRequestID(ctx))
	if err != nil {
		return apperrors.ErrDatabaseError("failed to set recipe image", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"user_email": &types.AttributeValueMemberS{Value: userEmail},
			"id":         &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConditionExpression:       aws.String(recipeExistsCondition),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if stderrors.As(err, &ccf) {
			return apperrors.ErrNotFound("recipe not found", nil)
		}
		return apperrors.ErrDatabaseError("failed to set recipe image", err)
	}

	return nil
}
