package dynamodb

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MockDynamoDBClient is a simple in-memory mock implementation of Client for testing.
// It provides basic support for Put, Get, Query, Update, Delete, and BatchWrite
// operations, including the condition expressions the repositories rely on.
type MockDynamoDBClient struct {
	mu sync.RWMutex

	// Tables maps table name -> partition key -> sort key -> item
	// For tables without sort key, use empty string as sort key
	Tables map[string]map[string]map[string]map[string]types.AttributeValue

	// Indexes stores items by index name for Query operations
	// Format: tableName -> indexName -> keyValue -> list of items
	Indexes map[string]map[string]map[string][]map[string]types.AttributeValue

	// Error injection for testing error scenarios
	PutItemError        error
	GetItemError        error
	QueryError          error
	UpdateItemError     error
	DeleteItemError     error
	BatchWriteItemError error

	// Call tracking for test assertions
	PutItemCalls        int
	GetItemCalls        int
	QueryCalls          int
	UpdateItemCalls     int
	DeleteItemCalls     int
	BatchWriteItemCalls int
}

// NewMockDynamoDBClient creates a new mock DynamoDB client for testing.
func NewMockDynamoDBClient() *MockDynamoDBClient {
	return &MockDynamoDBClient{
		Tables:  make(map[string]map[string]map[string]map[string]types.AttributeValue),
		Indexes: make(map[string]map[string]map[string][]map[string]types.AttributeValue),
	}
}

// PutItem stores an item in the mock table.
func (m *MockDynamoDBClient) PutItem(
	_ context.Context,
	params *dynamodb.PutItemInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PutItemCalls++

	if m.PutItemError != nil {
		return nil, m.PutItemError
	}

	tableName := *params.TableName
	partitionKey, sortKey := extractKeyValues(params.Item)
	if partitionKey == "" {
		return nil, fmt.Errorf("failed to extract partition key from item")
	}

	exists := m.itemExists(tableName, partitionKey, sortKey)
	if params.ConditionExpression != nil {
		if err := evaluateCondition(*params.ConditionExpression, exists); err != nil {
			return nil, err
		}
	}

	if m.Tables[tableName] == nil {
		m.Tables[tableName] = make(map[string]map[string]map[string]types.AttributeValue)
	}
	if m.Indexes[tableName] == nil {
		m.Indexes[tableName] = make(map[string]map[string][]map[string]types.AttributeValue)
	}
	if m.Tables[tableName][partitionKey] == nil {
		m.Tables[tableName][partitionKey] = make(map[string]map[string]types.AttributeValue)
	}

	// Get old item before replacing (to remove from indexes)
	oldItem := m.Tables[tableName][partitionKey][sortKey]

	m.Tables[tableName][partitionKey][sortKey] = params.Item

	if oldItem != nil {
		m.removeItemFromIndexes(tableName, oldItem)
	}

	// Index items for GSI queries
	m.addItemToIndexes(tableName, params.Item)

	return &dynamodb.PutItemOutput{}, nil
}

// GetItem retrieves an item from the mock table.
func (m *MockDynamoDBClient) GetItem(
	_ context.Context,
	params *dynamodb.GetItemInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.GetItemOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	m.GetItemCalls++

	if m.GetItemError != nil {
		return nil, m.GetItemError
	}

	tableName := *params.TableName
	partitionKey, sortKey := extractKeyValues(params.Key)

	var item map[string]types.AttributeValue
	if m.Tables[tableName] != nil && m.Tables[tableName][partitionKey] != nil {
		item = m.Tables[tableName][partitionKey][sortKey]
	}

	return &dynamodb.GetItemOutput{
		Item: item,
	}, nil
}

// Query searches for items in the mock table.
func (m *MockDynamoDBClient) Query(
	_ context.Context,
	params *dynamodb.QueryInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.QueryOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	m.QueryCalls++

	if m.QueryError != nil {
		return nil, m.QueryError
	}

	tableName := *params.TableName
	var items []map[string]types.AttributeValue

	// If querying against an index, use the index
	if params.IndexName != nil {
		indexName := *params.IndexName
		if m.Indexes[tableName] != nil && m.Indexes[tableName][indexName] != nil {
			// Extract key value from ExpressionAttributeValues
			var keyValue string
			if params.ExpressionAttributeValues != nil {
				if emailVal, ok := params.ExpressionAttributeValues[":email"]; ok {
					keyValue = getStringValue(emailVal)
				} else {
					// Try to find any string value as key
					for _, v := range params.ExpressionAttributeValues {
						keyValue = getStringValue(v)
						if keyValue != "" {
							break
						}
					}
				}
			}

			if keyValue != "" {
				if indexItems, exists := m.Indexes[tableName][indexName][keyValue]; exists {
					items = append(items, indexItems...)
				}
			}
		}

		// The all-user_email index keeps user_email as its sort key
		if indexName == allUsersIndexName {
			slices.SortFunc(items, func(a, b map[string]types.AttributeValue) int {
				return strings.Compare(getStringValue(a["user_email"]), getStringValue(b["user_email"]))
			})
		}
	} else {
		// Query against the main table: return the partition's items ordered by sort key
		var partitionKey string
		if params.ExpressionAttributeValues != nil {
			for _, v := range params.ExpressionAttributeValues {
				partitionKey = getStringValue(v)
				if partitionKey != "" {
					break
				}
			}
		}

		if partitionKey != "" && m.Tables[tableName] != nil && m.Tables[tableName][partitionKey] != nil {
			partition := m.Tables[tableName][partitionKey]
			sortKeys := make([]string, 0, len(partition))
			for sortKey := range partition {
				sortKeys = append(sortKeys, sortKey)
			}
			slices.Sort(sortKeys)
			if params.ScanIndexForward != nil && !*params.ScanIndexForward {
				slices.Reverse(sortKeys)
			}
			for _, sortKey := range sortKeys {
				items = append(items, partition[sortKey])
			}
		}
	}

	return &dynamodb.QueryOutput{
		Items: items,
		Count: safeInt32Count(len(items)),
	}, nil
}

// UpdateItem updates an item in the mock table.
// Only plain "SET a = :x, b = :y" expressions are applied, which is all the
// repositories use.
func (m *MockDynamoDBClient) UpdateItem(
	_ context.Context,
	params *dynamodb.UpdateItemInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateItemCalls++

	if m.UpdateItemError != nil {
		return nil, m.UpdateItemError
	}

	tableName := *params.TableName
	partitionKey, sortKey := extractKeyValues(params.Key)

	exists := m.itemExists(tableName, partitionKey, sortKey)
	if params.ConditionExpression != nil {
		if err := evaluateCondition(*params.ConditionExpression, exists); err != nil {
			return nil, err
		}
	}
	if !exists {
		return nil, fmt.Errorf("item not found")
	}

	item := m.Tables[tableName][partitionKey][sortKey]
	if params.UpdateExpression != nil {
		applySetExpression(item, *params.UpdateExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues)
	}

	return &dynamodb.UpdateItemOutput{}, nil
}

// DeleteItem removes an item from the mock table.
func (m *MockDynamoDBClient) DeleteItem(
	_ context.Context,
	params *dynamodb.DeleteItemInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteItemCalls++

	if m.DeleteItemError != nil {
		return nil, m.DeleteItemError
	}

	tableName := *params.TableName
	partitionKey, sortKey := extractKeyValues(params.Key)

	exists := m.itemExists(tableName, partitionKey, sortKey)
	if params.ConditionExpression != nil {
		if err := evaluateCondition(*params.ConditionExpression, exists); err != nil {
			return nil, err
		}
	}

	// Get the item before deleting to remove from indexes
	var item map[string]types.AttributeValue
	if exists {
		item = m.Tables[tableName][partitionKey][sortKey]
		delete(m.Tables[tableName][partitionKey], sortKey)
	}

	if item != nil {
		m.removeItemFromIndexes(tableName, item)
	}

	return &dynamodb.DeleteItemOutput{}, nil
}

// BatchWriteItem performs batch write operations.
func (m *MockDynamoDBClient) BatchWriteItem(
	_ context.Context,
	params *dynamodb.BatchWriteItemInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.BatchWriteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BatchWriteItemCalls++

	if m.BatchWriteItemError != nil {
		return nil, m.BatchWriteItemError
	}

	// Process delete requests
	for tableName, requests := range params.RequestItems {
		for _, request := range requests {
			if request.DeleteRequest == nil {
				continue
			}

			partitionKey, sortKey := extractKeyValues(request.DeleteRequest.Key)

			// Get the item before deleting to remove from indexes
			var item map[string]types.AttributeValue
			if m.Tables[tableName] != nil && m.Tables[tableName][partitionKey] != nil {
				item = m.Tables[tableName][partitionKey][sortKey]
				delete(m.Tables[tableName][partitionKey], sortKey)
			}

			if item != nil {
				m.removeItemFromIndexes(tableName, item)
			}
		}
	}

	return &dynamodb.BatchWriteItemOutput{}, nil
}

// ResetCallCounts resets all call counters to zero.
func (m *MockDynamoDBClient) ResetCallCounts() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PutItemCalls = 0
	m.GetItemCalls = 0
	m.QueryCalls = 0
	m.UpdateItemCalls = 0
	m.DeleteItemCalls = 0
	m.BatchWriteItemCalls = 0
}

// ClearTables removes all data from the mock tables.
func (m *MockDynamoDBClient) ClearTables() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Tables = make(map[string]map[string]map[string]map[string]types.AttributeValue)
	m.Indexes = make(map[string]map[string]map[string][]map[string]types.AttributeValue)
}

// extractKeyValues extracts the partition and sort key values from a key or item.
// It tries the known partition key names first, then falls back to the first
// string field. Tables without a sort key use the empty string.
func extractKeyValues(key map[string]types.AttributeValue) (string, string) {
	partitionKey := ""
	if hashVal, ok := key["token_hash"]; ok {
		partitionKey = getStringValue(hashVal)
	} else if emailVal, hasEmail := key["user_email"]; hasEmail {
		partitionKey = getStringValue(emailVal)
	} else {
		for _, v := range key {
			partitionKey = getStringValue(v)
			break
		}
	}

	sortKey := ""
	if idVal, ok := key["id"]; ok {
		sortKey = getStringValue(idVal)
	}

	return partitionKey, sortKey
}

// itemExists reports whether an item with the given keys is stored.
// Callers must hold the lock.
func (m *MockDynamoDBClient) itemExists(tableName, partitionKey, sortKey string) bool {
	return m.Tables[tableName] != nil &&
		m.Tables[tableName][partitionKey] != nil &&
		m.Tables[tableName][partitionKey][sortKey] != nil
}

// evaluateCondition checks an attribute_exists/attribute_not_exists condition
// against the current item state.
func evaluateCondition(condition string, exists bool) error {
	switch {
	case strings.Contains(condition, "attribute_not_exists") && exists:
		return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	case strings.Contains(condition, "attribute_exists") && !exists:
		return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}

	return nil
}

// applySetExpression applies a "SET a = :x, b = :y" update expression to an item.
func applySetExpression(
	item map[string]types.AttributeValue,
	expr string,
	names map[string]string,
	values map[string]types.AttributeValue,
) {
	expr = strings.TrimSpace(expr)
	if !strings.HasPrefix(expr, "SET ") {
		return
	}

	for _, clause := range strings.Split(strings.TrimPrefix(expr, "SET "), ",") {
		parts := strings.SplitN(clause, "=", 2)
		if len(parts) != 2 {
			continue
		}

		attr := strings.TrimSpace(parts[0])
		if resolved, ok := names[attr]; ok {
			attr = resolved
		}

		placeholder := strings.TrimSpace(parts[1])
		if value, ok := values[placeholder]; ok {
			item[attr] = value
		}
	}
}

// getStringValue extracts a string value from an AttributeValue.
// This is a simplified helper for the mock implementation.
func getStringValue(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	default:
		return ""
	}
}

// safeInt32Count safely converts an int count to int32, clamping to max int32 if necessary.
func safeInt32Count(count int) int32 {
	const maxInt32 = int32(math.MaxInt32)
	if count > int(maxInt32) {
		return maxInt32
	}
	//nolint:gosec // Safe conversion: count is already checked to be <= maxInt32
	return int32(count)
}

// addItemToIndexes adds an item to all relevant indexes for a table.
func (m *MockDynamoDBClient) addItemToIndexes(tableName string, item map[string]types.AttributeValue) {
	if m.Indexes[tableName] == nil {
		m.Indexes[tableName] = make(map[string]map[string][]map[string]types.AttributeValue)
	}

	// all-user_email: user rows carry the _all marker attribute
	if allVal, ok := item["_all"]; ok {
		keyValue := getStringValue(allVal)
		if keyValue == "" {
			return
		}

		if m.Indexes[tableName][allUsersIndexName] == nil {
			m.Indexes[tableName][allUsersIndexName] = make(map[string][]map[string]types.AttributeValue)
		}

		index := m.Indexes[tableName][allUsersIndexName]
		index[keyValue] = append(index[keyValue], item)

		return
	}

	// user_email-index: token rows carry both token_hash and user_email
	if _, ok := item["token_hash"]; ok {
		email := getStringValue(item["user_email"])
		if email == "" {
			return
		}

		if m.Indexes[tableName][tokenUserEmailIndexName] == nil {
			m.Indexes[tableName][tokenUserEmailIndexName] = make(map[string][]map[string]types.AttributeValue)
		}

		index := m.Indexes[tableName][tokenUserEmailIndexName]
		index[email] = append(index[email], item)
	}
}

// removeItemFromIndexes removes an item from all indexes for a table.
func (m *MockDynamoDBClient) removeItemFromIndexes(tableName string, item map[string]types.AttributeValue) {
	if m.Indexes[tableName] == nil {
		return
	}

	if allVal, ok := item["_all"]; ok {
		m.removeFromIndex(tableName, allUsersIndexName, getStringValue(allVal), "user_email", getStringValue(item["user_email"]))
		return
	}

	if hashVal, ok := item["token_hash"]; ok {
		m.removeFromIndex(tableName, tokenUserEmailIndexName, getStringValue(item["user_email"]), "token_hash", getStringValue(hashVal))
	}
}

// removeFromIndex removes the item identified by idAttr=idValue from one index entry.
func (m *MockDynamoDBClient) removeFromIndex(tableName, indexName, keyValue, idAttr, idValue string) {
	if keyValue == "" || idValue == "" {
		return
	}

	if m.Indexes[tableName][indexName] == nil {
		return
	}

	indexItems, exists := m.Indexes[tableName][indexName][keyValue]
	if !exists {
		return
	}

	for i, indexItem := range indexItems {
		if getStringValue(indexItem[idAttr]) == idValue {
			m.Indexes[tableName][indexName][keyValue] = append(indexItems[:i], indexItems[i+1:]...)
			break
		}
	}
}
