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

const (
	tokenUserEmailIndexName = "user_email-index"

	// DynamoDB limits BatchWriteItem to 25 requests per call.
	batchWriteChunkSize = 25
)

// TokenRepository implements the database.TokenRepository interface using DynamoDB.
type TokenRepository struct {
	client    Client
	tableName string
	logger    *slog.Logger
}

// NewTokenRepository creates a new DynamoDB-backed token repository.
func NewTokenRepository(
	client Client,
	tableName string,
	log *slog.Logger,
) *TokenRepository {
	return &TokenRepository{
		client:    client,
		tableName: tableName,
		logger:    log,
	}
}

// tokenItem represents the structure stored in DynamoDB.
type tokenItem struct {
	TokenHash string    `dynamodbav:"token_hash"`
	UserEmail string    `dynamodbav:"user_email"`
	CreatedAt time.Time `dynamodbav:"created_at"`
	LastUsed  time.Time `dynamodbav:"last_used,omitempty"`
	ExpiresAt int64     `dynamodbav:"expires_at,omitempty"` // Unix timestamp for TTL
}

// toToken converts a stored item to the API type.
func (item *tokenItem) toToken() *api.Token {
	token := &api.Token{
		TokenHash: item.TokenHash,
		UserEmail: item.UserEmail,
		CreatedAt: item.CreatedAt,
		ExpiresAt: item.ExpiresAt,
	}
	if !item.LastUsed.IsZero() {
		token.LastUsed = &item.LastUsed
	}
	return token
}

// CreateToken stores a new token record.
func (r *TokenRepository) CreateToken(ctx context.Context, token *api.Token) error {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	item := tokenItem{
		TokenHash: token.TokenHash,
		UserEmail: token.UserEmail,
		CreatedAt: token.CreatedAt,
		ExpiresAt: token.ExpiresAt,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.ErrDatabaseError("failed to marshal token item", err)
	}

	logArgs := []any{
		"operation", "DynamoDB.PutItem",
		"table", r.tableName,
		"user_email", token.UserEmail,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return apperrors.ErrDatabaseError("failed to create token", err)
	}

	return nil
}

// GetTokenByHash retrieves a token record by its hash.
// Returns nil if the token doesn't exist (DynamoDB TTL automatically removes expired tokens).
func (r *TokenRepository) GetTokenByHash(ctx context.Context, tokenHash string) (*api.Token, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	logArgs := []any{
		"operation", "DynamoDB.GetItem",
		"table", r.tableName,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"token_hash": &types.AttributeValueMemberS{Value: tokenHash},
		},
	})
	if err != nil {
		return nil, apperrors.ErrDatabaseError("failed to get token", err)
	}

	if result.Item == nil {
		return nil, nil // Token doesn't exist (either never existed or expired)
	}

	var item tokenItem
	if unmarshalErr := attributevalue.UnmarshalMap(result.Item, &item); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal token item: %w", unmarshalErr)
	}

	return item.toToken(), nil
}

// UpdateTokenLastUsed updates the last_used timestamp for a token.
func (r *TokenRepository) UpdateTokenLastUsed(ctx context.Context, tokenHash string) (*time.Time, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	now := time.Now().UTC()

	logArgs := []any{
		"operation", "DynamoDB.UpdateItem",
		"table", r.tableName,
		"purpose", "last_used_update",
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"token_hash": &types.AttributeValueMemberS{Value: tokenHash},
		},
		UpdateExpression:    aws.String("SET last_used = :now"),
		ConditionExpression: aws.String("attribute_exists(token_hash)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if stderrors.As(err, &ccf) {
			return nil, apperrors.ErrNotFound("token not found", nil)
		}
		return nil, apperrors.ErrDatabaseError("failed to update token last_used", err)
	}

	return &now, nil
}

// DeleteToken removes a single token from the database.
func (r *TokenRepository) DeleteToken(ctx context.Context, tokenHash string) error {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	logArgs := []any{
		"operation", "DynamoDB.DeleteItem",
		"table", r.tableName,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(logArgs))

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"token_hash": &types.AttributeValueMemberS{Value: tokenHash},
		},
	})
	if err != nil {
		return apperrors.ErrDatabaseError("failed to delete token", err)
	}

	return nil
}

// DeleteTokensForUser removes every token belonging to a user.
// Queries the user_email GSI for the user's token hashes, then deletes them
// in batches of 25 (the BatchWriteItem limit).
func (r *TokenRepository) DeleteTokensForUser(ctx context.Context, email string) (int, error) {
	reqLogger := logger.DeriveRequestLogger(ctx, r.logger)

	queryLogArgs := []any{
		"operation", "DynamoDB.Query",
		"table", r.tableName,
		"index", tokenUserEmailIndexName,
		"email", email,
		"purpose", "revoke_tokens",
	}
	queryLogArgs = append(queryLogArgs, logger.GetDeadlineInfo(ctx)...)
	reqLogger.Debug("calling external service", "context", logger.SliceToMap(queryLogArgs))

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(tokenUserEmailIndexName),
		KeyConditionExpression: aws.String("user_email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return 0, apperrors.ErrDatabaseError("failed to query tokens for user", err)
	}

	hashes := make([]string, 0, len(result.Items))
	for _, rawItem := range result.Items {
		if v, ok := rawItem["token_hash"]; ok {
			if s, isString := v.(*types.AttributeValueMemberS); isString && s.Value != "" {
				hashes = append(hashes, s.Value)
			}
		}
	}

	if len(hashes) == 0 {
		return 0, nil
	}

	for start := 0; start < len(hashes); start += batchWriteChunkSize {
		end := min(start+batchWriteChunkSize, len(hashes))

		requests := make([]types.WriteRequest, 0, end-start)
		for _, hash := range hashes[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: map[string]types.AttributeValue{
						"token_hash": &types.AttributeValueMemberS{Value: hash},
					},
				},
			})
		}

		batchLogArgs := []any{
			"operation", "DynamoDB.BatchWriteItem",
			"table", r.tableName,
			"email", email,
			"count", len(requests),
		}
		batchLogArgs = append(batchLogArgs, logger.GetDeadlineInfo(ctx)...)
		reqLogger.Debug("calling external service", "context", logger.SliceToMap(batchLogArgs))

		_, err = r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				r.tableName: requests,
			},
		})
		if err != nil {
			return 0, apperrors.ErrDatabaseError("failed to delete tokens for user", err)
		}
	}

	reqLogger.Debug("tokens deleted for user", "context", map[string]any{
		"email": email,
		"count": len(hashes),
	})

	return len(hashes), nil
}
