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
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// IngredientRepository implements the database.IngredientRepository interface
// using DynamoDB. It mirrors the tag repository layout.
type IngredientRepository struct {
	client    Client
	tableName string
	logger    *slog.Logger
}

// NewIngredientRepository creates a new DynamoDB-backed ingredient repository.
func NewIngredientRepository(
	client Client,
	tableName string,
	log *slog.Logger,
) *IngredientRepository {
	return &IngredientRepository{
		client:    client,
		tableName: tableName,
		logger:    log,
	}
}

// ingredientItem represents the structure stored in DynamoDB.
type ingredientItem struct {
	UserEmail           string    `dynamodbav:"user_email"`
	ID                  string    `dynamodbav:"id"`
	Name                string    `dynamodbav:"name"`
	CreatedAt           time.Time `dynamodbav:"created_at"`
	CreatedByRequestID  string    `dynamodbav:"created_by_request_id,omitempty"`
	ModifiedByRequestID string    `dynamodbav:"modified_by_request_id,omitempty"`
}

func (item *ingredientItem) toIngredient() *api.Ingredient {
	return &api.Ingredient{
		ID:        item.ID,
		Name:      item.Name,
		CreatedAt: item.CreatedAt,
	}
}

// CreateIngredient stores a new ingredient for the user.
func (r *IngredientRepository) CreateIngredient(ctx context.Context, userEmail string, ingredient *api.Ingredient) error {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	item := ingredientItem{
		UserEmail:          userEmail,
		ID:                 ingredient.ID,
		Name:               ingredient.Name,
		CreatedAt:          ingredient.CreatedAt,
		CreatedByRequestID: logger.GetRequestID(ctx),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal ingredient item: %w", err)
	}

	logArgs := []any{
		"operation", "DynamoDB.PutItem",
		"table", r.tableName,
		"user_email", userEmail,
		"ingredient_id", ingredient.ID,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(user_email) AND attribute_not_exists(id)"),
	})

	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if stderrors.As(err, &ccf) {
			return apperrors.ErrConflict("ingredient with this ID already exists", nil)
		}
		return apperrors.ErrDatabaseError("failed to create ingredient", err)
	}

	return nil
}

// GetIngredientByName retrieves one of the user's ingredients by exact name.
// Returns nil if no ingredient with that name exists for this user.
func (r *IngredientRepository) GetIngredientByName(ctx context.Context, userEmail, name string) (*api.Ingredient, error) {
	ingredients, err := r.ListIngredients(ctx, userEmail)
	if err != nil {
		return nil, err
	}

	for _, ingredient := range ingredients {
		if ingredient.Name == name {
			return ingredient, nil
		}
	}

	return nil, nil
}

// ListIngredients returns all of the user's ingredients in storage order.
func (r *IngredientRepository) ListIngredients(ctx context.Context, userEmail string) ([]*api.Ingredient, error) {
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
	})
	if err != nil {
		return nil, apperrors.ErrDatabaseError("failed to list ingredients", err)
	}

	ingredients := make([]*api.Ingredient, 0, len(result.Items))
	for _, rawItem := range result.Items {
		var item ingredientItem
		if err = attributevalue.UnmarshalMap(rawItem, &item); err != nil {
			reqLogger.Warn("failed to unmarshal ingredient item", "error", err)
			continue
		}

		ingredients = append(ingredients, item.toIngredient())
	}

	return ingredients, nil
}

// UpdateIngredient renames one of the user's ingredients.
func (r *IngredientRepository) UpdateIngredient(ctx context.Context, userEmail, id, name string) error {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	logArgs := []any{
		"operation", "DynamoDB.UpdateItem",
		"table", r.tableName,
		"user_email", userEmail,
		"ingredient_id", id,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	// "name" is a DynamoDB reserved word
	updateExpr := "SET #name = :name"
	exprValues := map[string]types.AttributeValue{
		":name": &types.AttributeValueMemberS{Value: name},
	}

	// Extract request ID from context and set it if available
	requestID := logger.GetRequestID(ctx)
	if requestID != "" {
		updateExpr += updateExprModifiedByRequestID
		exprValues[":request_id"] = &types.AttributeValueMemberS{Value: requestID}
	}

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"user_email": &types.AttributeValueMemberS{Value: userEmail},
			"id":         &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String(updateExpr),
		ConditionExpression: aws.String("attribute_exists(user_email) AND attribute_exists(id)"),
		ExpressionAttributeNames: map[string]string{
			"#name": "name",
		},
		ExpressionAttributeValues: exprValues,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if stderrors.As(err, &ccf) {
			return apperrors.ErrNotFound("ingredient not found", nil)
		}
		return apperrors.ErrDatabaseError("failed to update ingredient", err)
	}

	return nil
}

// DeleteIngredient removes one of the user's ingredients.
func (r *IngredientRepository) DeleteIngredient(ctx context.Context, userEmail, id string) error {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	logArgs := []any{
		"operation", "DynamoDB.DeleteItem",
		"table", r.tableName,
		"user_email", userEmail,
		"ingredient_id", id,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"user_email": &types.AttributeValueMemberS{Value: userEmail},
			"id":         &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression: aws.String("attribute_exists(user_email) AND attribute_exists(id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if stderrors.As(err, &ccf) {
			return apperrors.ErrNotFound("ingredient not found", nil)
		}
		return apperrors.ErrDatabaseError("failed to delete ingredient", err)
	}

	return nil
}
