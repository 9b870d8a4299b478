package dynamodb

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/souschef/souschef/internal/api"
	"github.com/souschef/souschef/internal/constants"
	apperrors "github.com/souschef/souschef/internal/errors"
	"github.com/souschef/souschef/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	allUsersIndexName             = "all-user_email"
	allUsersPartitionValue        = "USER"
	updateExprModifiedByRequestID = ", modified_by_request_id = :request_id"
)

// UserRepository implements the database.UserRepository interface using DynamoDB.
type UserRepository struct {
	client    Client
	tableName string
	logger    *slog.Logger
}

// NewUserRepository creates a new DynamoDB-backed user repository.
func NewUserRepository(
	client Client,
	tableName string,
	log *slog.Logger,
) *UserRepository {
	return &UserRepository{
		client:    client,
		tableName: tableName,
		logger:    log,
	}
}

// userItem represents the structure stored in DynamoDB.
// This keeps the database schema separate from the API types.
type userItem struct {
	UserEmail           string    `dynamodbav:"user_email"`
	Name                string    `dynamodbav:"name"`
	Role                string    `dynamodbav:"role"`
	PasswordHash        string    `dynamodbav:"password_hash"`
	CreatedAt           time.Time `dynamodbav:"created_at"`
	LastLogin           time.Time `dynamodbav:"last_login,omitempty"`
	Active              bool      `dynamodbav:"active"`
	CreatedByRequestID  string    `dynamodbav:"created_by_request_id,omitempty"`
	ModifiedByRequestID string    `dynamodbav:"modified_by_request_id,omitempty"`
	All                 string    `dynamodbav:"_all"` // Constant partition key for listing all users
}

// toUser converts a stored item to the API type.
// Note: the password hash is intentionally omitted.
func (item *userItem) toUser() *api.User {
	user := &api.User{
		Email:               item.UserEmail,
		Name:                item.Name,
		Role:                item.Role,
		CreatedAt:           item.CreatedAt,
		IsActive:            item.Active,
		CreatedByRequestID:  item.CreatedByRequestID,
		ModifiedByRequestID: item.ModifiedByRequestID,
	}
	if !item.LastLogin.IsZero() {
		user.LastLogin = &item.LastLogin
	}
	return user
}

// CreateUser stores a new user with their password hash in DynamoDB.
func (r *UserRepository) CreateUser(ctx context.Context, user *api.User, passwordHash string) error {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	item := userItem{
		UserEmail:           user.Email,
		Name:                user.Name,
		Role:                user.Role,
		PasswordHash:        passwordHash,
		CreatedAt:           user.CreatedAt,
		Active:              true,
		CreatedByRequestID:  user.CreatedByRequestID,
		ModifiedByRequestID: user.ModifiedByRequestID,
		All:                 allUsersPartitionValue, // Constant partition key for GSI to enable sorted queries
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal user item: %w", err)
	}

	logArgs := []any{
		"operation", "DynamoDB.PutItem",
		"table", r.tableName,
		"user_email", user.Email,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	// Use ConditionExpression to ensure we don't overwrite existing users
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(user_email)"),
	})

	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if stderrors.As(err, &ccf) {
			return apperrors.ErrConflict("user with this email already exists", nil)
		}
		return apperrors.ErrDatabaseError("failed to create user", err)
	}

	return nil
}

// getUserItem retrieves the raw stored item for an email. Returns nil if absent.
func (r *UserRepository) getUserItem(ctx context.Context, email string) (*userItem, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	logArgs := []any{
		"operation", "DynamoDB.GetItem",
		"table", r.tableName,
		"user_email", email,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"user_email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return nil, apperrors.ErrDatabaseError("failed to get user by email", err)
	}

	if result.Item == nil {
		reqLogger.Debug("user not found", "email", email)

		return nil, nil
	}

	var item userItem
	if unmarshalErr := attributevalue.UnmarshalMap(result.Item, &item); unmarshalErr != nil {
		return nil, apperrors.ErrDatabaseError("failed to unmarshal user",
			fmt.Errorf("unmarshal user item: %w", unmarshalErr))
	}

	return &item, nil
}

// GetUserByEmail retrieves a user by their email (the table's primary key).
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*api.User, error) {
	item, err := r.getUserItem(ctx, email)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	return item.toUser(), nil
}

// GetUserCredentials retrieves a user together with their password hash.
// Used only by the login flow.
func (r *UserRepository) GetUserCredentials(ctx context.Context, email string) (*api.User, string, error) {
	item, err := r.getUserItem(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if item == nil {
		return nil, "", nil
	}

	return item.toUser(), item.PasswordHash, nil
}

// UpdateUser applies a partial update to a user's profile.
// Nil fields are left unchanged.
func (r *UserRepository) UpdateUser(
	ctx context.Context,
	email string,
	name, passwordHash *string,
) (*api.User, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	setClauses := make([]string, 0, 3)
	exprValues := map[string]types.AttributeValue{}
	exprNames := map[string]string{}

	if name != nil {
		// "name" is a DynamoDB reserved word
		setClauses = append(setClauses, "#name = :name")
		exprNames["#name"] = "name"
		exprValues[":name"] = &types.AttributeValueMemberS{Value: *name}
	}
	if passwordHash != nil {
		setClauses = append(setClauses, "password_hash = :password_hash")
		exprValues[":password_hash"] = &types.AttributeValueMemberS{Value: *passwordHash}
	}

	if len(setClauses) == 0 {
		return r.GetUserByEmail(ctx, email)
	}

	requestID := logger.GetRequestID(ctx)
	if requestID != "" {
		setClauses = append(setClauses, "modified_by_request_id = :request_id")
		exprValues[":request_id"] = &types.AttributeValueMemberS{Value: requestID}
	}

	logArgs := []any{
		"operation", "DynamoDB.UpdateItem",
		"table", r.tableName,
		"user_email", email,
		"purpose", "profile_update",
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"user_email": &types.AttributeValueMemberS{Value: email},
		},
		UpdateExpression:          aws.String("SET " + strings.Join(setClauses, ", ")),
		ConditionExpression:       aws.String("attribute_exists(user_email)"),
		ExpressionAttributeValues: exprValues,
	}
	if len(exprNames) > 0 {
		input.ExpressionAttributeNames = exprNames
	}

	if _, err := r.client.UpdateItem(ctx, input); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if stderrors.As(err, &ccf) {
			return nil, apperrors.ErrNotFound("user not found", nil)
		}
		return nil, apperrors.ErrDatabaseError("failed to update user", err)
	}

	return r.GetUserByEmail(ctx, email)
}

// UpdateLastLogin updates the last_login timestamp for a user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, email string) (*time.Time, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	now := time.Now().UTC()

	logArgs := []any{
		"operation", "DynamoDB.UpdateItem",
		"table", r.tableName,
		"user_email", email,
		"purpose", "last_login_update",
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	updateExpr := "SET last_login = :now"
	exprValues := map[string]types.AttributeValue{
		":now": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
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
			"user_email": &types.AttributeValueMemberS{Value: email},
		},
		UpdateExpression:          aws.String(updateExpr),
		ConditionExpression:       aws.String("attribute_exists(user_email)"),
		ExpressionAttributeValues: exprValues,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if stderrors.As(err, &ccf) {
			return nil, apperrors.ErrNotFound("user not found", nil)
		}
		return nil, apperrors.ErrDatabaseError("failed to update last_login", err)
	}

	return &now, nil
}

// DeactivateUser marks a user as inactive.
func (r *UserRepository) DeactivateUser(ctx context.Context, email string) error {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	logArgs := []any{
		"operation", "DynamoDB.UpdateItem",
		"table", r.tableName,
		"user_email", email,
		"action", "deactivate",
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	updateExpr := "SET active = :active"
	exprValues := map[string]types.AttributeValue{
		":active": &types.AttributeValueMemberBOOL{Value: false},
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
			"user_email": &types.AttributeValueMemberS{Value: email},
		},
		UpdateExpression:          aws.String(updateExpr),
		ConditionExpression:       aws.String("attribute_exists(user_email)"),
		ExpressionAttributeValues: exprValues,
	})

	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if stderrors.As(err, &ccf) {
			return apperrors.ErrNotFound("user not found", nil)
		}
		return apperrors.ErrDatabaseError("failed to deactivate user", err)
	}

	return nil
}

// ListUsers returns all users in the system sorted by email (excluding password hashes for security).
// Uses the all-user_email GSI to retrieve users in sorted order directly from DynamoDB.
func (r *UserRepository) ListUsers(ctx context.Context) ([]*api.User, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	logArgs := []any{
		"operation", "DynamoDB.Query",
		"table", r.tableName,
		"index", allUsersIndexName,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	// Query the all-user_email GSI to get users sorted by email
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(allUsersIndexName),
		KeyConditionExpression: aws.String("#all = :user"),
		ExpressionAttributeNames: map[string]string{
			"#all": constants.AllItemsAttribute,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user": &types.AttributeValueMemberS{Value: allUsersPartitionValue},
		},
		ScanIndexForward: aws.Bool(true), // Sort ascending by user_email (the range key)
	})
	if err != nil {
		return nil, apperrors.ErrDatabaseError("failed to list users", err)
	}

	users := make([]*api.User, 0, len(result.Items))
	for _, rawItem := range result.Items {
		var item userItem
		if err = attributevalue.UnmarshalMap(rawItem, &item); err != nil {
			reqLogger.Warn("failed to unmarshal user item", "error", err)
			continue
		}

		users = append(users, item.toUser())
	}

	return users, nil
}
