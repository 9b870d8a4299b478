package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/souschef/souschef/internal/api"
	"github.com/souschef/souschef/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestToken(hash, email string) *api.Token {
	return &api.Token{
		TokenHash: hash,
		UserEmail: email,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
	}
}

func TestTokenRepository_CreateToken(t *testing.T) {
	ctx := context.Background()
	logger := testutil.SilentLogger()
	tableName := "test-tokens-table"

	t.Run("successfully creates token", func(t *testing.T) {
		mockClient := NewMockDynamoDBClient()
		repo := NewTokenRepository(mockClient, tableName, logger)

		err := repo.CreateToken(ctx, newTestToken("hash123", "user@example.com"))

		require.NoError(t, err)
		assert.Equal(t, 1, mockClient.PutItemCalls)
	})

	t.Run("handles database error", func(t *testing.T) {
		mockClient := NewMockDynamoDBClient()
		mockClient.PutItemError = errors.New("database error")
		repo := NewTokenRepository(mockClient, tableName, logger)

		err := repo.CreateToken(ctx, newTestToken("hash123", "user@example.com"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create token")
	})
}

func TestTokenRepository_GetTokenByHash(t *testing.T) {
	ctx := context.Background()
	logger := testutil.SilentLogger()
	tableName := "test-tokens-table"

	t.Run("retrieves stored token", func(t *testing.T) {
		mockClient := NewMockDynamoDBClient()
		repo := NewTokenRepository(mockClient, tableName, logger)

		require.NoError(t, repo.CreateToken(ctx, newTestToken("hash123", "user@example.com")))

		token, err := repo.GetTokenByHash(ctx, "hash123")

		require.NoError(t, err)
		require.NotNil(t, token)
		assert.Equal(t, "hash123", token.TokenHash)
		assert.Equal(t, "user@example.com", token.UserEmail)
		assert.Nil(t, token.LastUsed)
	})

	t.Run("returns nil for unknown hash", func(t *testing.T) {
		mockClient := NewMockDynamoDBClient()
		repo := NewTokenRepository(mockClient, tableName, logger)

		token, err := repo.GetTokenByHash(ctx, "unknown")

		require.NoError(t, err)
		assert.Nil(t, token)
	})

	t.Run("handles get item error", func(t *testing.T) {
		mockClient := NewMockDynamoDBClient()
		mockClient.GetItemError = errors.New("get item failed")
		repo := NewTokenRepository(mockClient, tableName, logger)

		token, err := repo.GetTokenByHash(ctx, "hash123")

		require.Error(t, err)
		assert.Nil(t, token)
		assert.Contains(t, err.Error(), "failed to get token")
	})
}

func TestTokenRepository_UpdateTokenLastUsed(t *testing.T) {
	ctx := context.Background()
	logger := testutil.SilentLogger()
	tableName := "test-tokens-table"

	t.Run("successfully updates last used", func(t *testing.T) {
		mockClient := NewMockDynamoDBClient()
		repo := NewTokenRepository(mockClient, tableName, logger)

		require.NoError(t, repo.CreateToken(ctx, newTestToken("hash123", "user@example.com")))

		lastUsed, err := repo.UpdateTokenLastUsed(ctx, "hash123")

		require.NoError(t, err)
		require.NotNil(t, lastUsed)
		assert.Less(t, time.Since(*lastUsed), time.Second)
		assert.Equal(t, 1, mockClient.UpdateItemCalls)

		token, err := repo.GetTokenByHash(ctx, "hash123")
		require.NoError(t, err)
		require.NotNil(t, token)
		assert.NotNil(t, token.LastUsed)
	})

	t.Run("handles token not found", func(t *testing.T) {
		mockClient := NewMockDynamoDBClient()
		repo := NewTokenRepository(mockClient, tableName, logger)

		lastUsed, err := repo.UpdateTokenLastUsed(ctx, "unknown")

		require.Error(t, err)
		assert.Nil(t, lastUsed)
		assert.Contains(t, err.Error(), "token not found")
	})

	t.Run("handles update error", func(t *testing.T) {
		mockClient := NewMockDynamoDBClient()
		mockClient.UpdateItemError = errors.New("update failed")
		repo := NewTokenRepository(mockClient, tableName, logger)

		lastUsed, err := repo.UpdateTokenLastUsed(ctx, "hash123")

		require.Error(t, err)
		assert.Nil(t, lastUsed)
		assert.Contains(t, err.Error(), "failed to update token last_used")
	})
}

func TestTokenRepository_DeleteToken(t *testing.T) {
	ctx := context.Background()
	logger := testutil.SilentLogger()
	tableName := "test-tokens-table"

	t.Run("successfully deletes token", func(t *testing.T) {
		mockClient := NewMockDynamoDBClient()
		repo := NewTokenRepository(mockClient, tableName, logger)

		require.NoError(t, repo.CreateToken(ctx, newTestToken("hash123", "user@example.com")))

		err := repo.DeleteToken(ctx, "hash123")
		require.NoError(t, err)

		token, err := repo.GetTokenByHash(ctx, "hash123")
		require.NoError(t, err)
		assert.Nil(t, token)
	})

	t.Run("deleting unknown token is not an error", func(t *testing.T) {
		mockClient := NewMockDynamoDBClient()
		repo := NewTokenRepository(mockClient, tableName, logger)

		err := repo.DeleteToken(ctx, "unknown")

		require.NoError(t, err)
		assert.Equal(t, 1, mockClient.DeleteItemCalls)
	})

	t.Run("handles delete error", func(t *testing.T) {
		mockClient := NewMockDynamoDBClient()
		mockClient.DeleteItemError = errors.New("delete failed")
		repo := NewTokenRepository(mockClient, tableName, logger)

		err := repo.DeleteToken(ctx, "hash123")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to delete token")
	})
}

func TestTokenRepository_DeleteTokensForUser(t *testing.T) {
	ctx := context.Background()
	logger := testutil.SilentLogger()
	tableName := "test-tokens-table"

	t.Run("deletes all of a user's tokens", func(t *testing.T) {
		mockClient := NewMockDynamoDBClient()
		repo := NewTokenRepository(mockClient, tableName, logger)

		for i := range 3 {
			hash := fmt.Sprintf("hash-%d", i)
			require.NoError(t, repo.CreateToken(ctx, newTestToken(hash, "user@example.com")))
		}
		require.NoError(t, repo.CreateToken(ctx, newTestToken("other-hash", "other@example.com")))

		deleted, err := repo.DeleteTokensForUser(ctx, "user@example.com")

		require.NoError(t, err)
		assert.Equal(t, 3, deleted)
		assert.Equal(t, 1, mockClient.BatchWriteItemCalls)

		// The other user's token survives
		token, err := repo.GetTokenByHash(ctx, "other-hash")
		require.NoError(t, err)
		assert.NotNil(t, token)

		// The deleted tokens are gone
		token, err = repo.GetTokenByHash(ctx, "hash-0")
		require.NoError(t, err)
		assert.Nil(t, token)
	})

	t.Run("returns zero when user has no tokens", func(t *testing.T) {
		mockClient := NewMockDynamoDBClient()
		repo := NewTokenRepository(mockClient, tableName, logger)

		deleted, err := repo.DeleteTokensForUser(ctx, "user@example.com")

		require.NoError(t, err)
		assert.Zero(t, deleted)
		assert.Equal(t, 0, mockClient.BatchWriteItemCalls)
	})

	t.Run("handles query error", func(t *testing.T) {
		mockClient := NewMockDynamoDBClient()
		mockClient.QueryError = errors.New("query failed")
		repo := NewTokenRepository(mockClient, tableName, logger)

		deleted, err := repo.DeleteTokensForUser(ctx, "user@example.com")

		require.Error(t, err)
		assert.Zero(t, deleted)
		assert.Contains(t, err.Error(), "failed to query tokens for user")
	})

	t.Run("handles batch write error", func(t *testing.T) {
		mockClient := NewMockDynamoDBClient()
		repo := NewTokenRepository(mockClient, tableName, logger)

		require.NoError(t, repo.CreateToken(ctx, newTestToken("hash123", "user@example.com")))
		mockClient.BatchWriteItemError = errors.New("batch write failed")

		deleted, err := repo.DeleteTokensForUser(ctx, "user@example.com")

		require.Error(t, err)
		assert.Zero(t, deleted)
		assert.Contains(t, err.Error(), "failed to delete tokens")
	})
}
