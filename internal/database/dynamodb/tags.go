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

// TagRepository implements the database.TagRepository interface using DynamoDB.
// Tags share the recipes table layout: user_email partitions, id sorts.
type TagRepository struct {
	client    Client
	tableName string
	logger    *slog.Logger
}

// NewTagRepository creates a new DynamoDB-backed tag repository.
func NewTagRepository(
	client Client,
	tableName string,
	log *slog.Logger,
) *TagRepository {
	return &TagRepository{
		client:    client,
		tableName: tableName,
		logger:    log,
	}
}

// tagItem represents the structure stored in DynamoDB.
type tagItem struct {
	UserEmail           string    `dynamodbav:"user_email"`
	ID                  string    `dynamodbav:"id"`
	Name                string    `dynamodbav:"name"`
	CreatedAt           time.Time `dynamodbav:"created_at"`
	CreatedByRequestID  string    `dynamodbav:"created_by_request_id,omitempty"`
	ModifiedByRequestID string    `dynamodbav:"modified_by_request_id,omitempty"`
}

func (item *tagItem) toTag() *api.Tag {
	return &api.Tag{
		ID:        item.ID,
		Name:      item.Name,
		CreatedAt: item.CreatedAt,
	}
}

// CreateTag stores a new tag for the user.
func (r *TagRepository) CreateTag(ctx context.Context, userEmail string, tag *api.Tag) error {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	item := tagItem{
		UserEmail:          userEmail,
		ID:                 tag.ID,
		Name:               tag.Name,
		CreatedAt:          tag.CreatedAt,
		CreatedByRequestID: logger.GetRequestID(ctx),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal tag item: %w", err)
	}

	logArgs := []any{
		"operation", "DynamoDB.PutItem",
		"table", r.tableName,
		"user_email", userEmail,
		"tag_id", tag.ID,
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
			return apperrors.ErrConflict("tag with this ID already exists", nil)
		}
		return apperrors.ErrDatabaseError("failed to create tag", err)
	}

	return nil
}

// GetTagByName retrieves one of the user's tags by exact name.
// Returns nil if no tag with that name exists for this user.
func (r *TagRepository) GetTagByName(ctx context.Context, userEmail, name string) (*api.Tag, error) {
	tags, err := r.ListTags(ctx, userEmail)
	if err != nil {
		return nil, err
	}

	// Name lookups scan the user's partition. Tag counts per user are small,
	// so a name GSI would cost more than it saves.
	for _, tag := range tags {
		if tag.Name == name {
			return tag, nil
		}
	}

	return nil, nil
}

// ListTags returns all of the user's tags in storage order.
func (r *TagRepository) ListTags(ctx context.Context, userEmail string) ([]*api.Tag, error) {
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
		return nil, apperrors.ErrDatabaseError("failed to list tags", err)
	}

	tags := make([]*api.Tag, 0, len(result.Items))
	for _, rawItem := range result.Items {
		var item tagItem
		if err = attributevalue.UnmarshalMap(rawItem, &item); err != nil {
			reqLogger.Warn("failed to unmarshal tag item", "error", err)
			continue
		}

		tags = append(tags, item.toTag())
	}

	return tags, nil
}

// UpdateTag renames one of the user's tags.
func (r *TagRepository) UpdateTag(ctx context.Context, userEmail, id, name string) error {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	logArgs := []any{
		"operation", "DynamoDB.UpdateItem",
		"table", r.tableName,
		"user_email", userEmail,
		"tag_id", id,
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
			return apperrors.ErrNotFound("tag not found", nil)
		}
		return apperrors.ErrDatabaseError("failed to update tag", err)
	}

	return nil
}

// DeleteTag removes one of the user's tags.
func (r *TagRepository) DeleteTag(ctx context.Context, userEmail, id string) error {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	logArgs := []any{
		"operation", "DynamoDB.DeleteItem",
		"table", r.tableName,
		"user_email", userEmail,
		"tag_id", id,
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
			return apperrors.ErrNotFound("tag not found", nil)
		}
		return apperrors.ErrDatabaseError("failed to delete tag", err)
	}

	return nil
}
