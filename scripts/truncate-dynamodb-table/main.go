// Package main provides a utility script to truncate (delete all records from)
// a DynamoDB table. It scans the table and deletes items in batches, honoring
// the configured endpoint so it works against dynamodb-local too.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/souschef/souschef/internal/config"
	"github.com/souschef/souschef/internal/constants"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("error: usage: %s <table-name>", os.Args[0])
	}

	tableName := os.Args[1]
	if tableName == "" {
		log.Fatalf("error: table name is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error: failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultContextTimeout)
	loadErr := cfg.AWS.LoadSDKConfig(ctx)
	cancel()
	if loadErr != nil {
		log.Fatalf("error: failed to load AWS configuration: %v", loadErr)
	}

	client := dynamodb.NewFromConfig(*cfg.AWS.SDKConfig, func(o *dynamodb.Options) {
		if cfg.AWS.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
		}
	})

	if err := truncateTable(context.Background(), client, tableName); err != nil {
		log.Fatalf("error: failed to truncate table: %v", err)
	}

	log.Printf("successfully truncated table: %s", tableName)
}

type tableKeySchema struct {
	hashKeyName  string
	rangeKeyName string
}

func truncateTable(ctx context.Context, client *dynamodb.Client, tableName string) error {
	schema, err := getTableKeySchema(ctx, client, tableName)
	if err != nil {
		return fmt.Errorf("failed to get table key schema: %w", err)
	}

	return scanAndDelete(ctx, client, tableName, schema)
}

func getTableKeySchema(ctx context.Context, client *dynamodb.Client, tableName string) (*tableKeySchema, error) {
	log.Printf("describing table: %s", tableName)

	describeOutput, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe table: %w", err)
	}

	table := describeOutput.Table
	if table == nil {
		return nil, fmt.Errorf("table %s not found", tableName)
	}

	if len(table.KeySchema) == 0 {
		return nil, fmt.Errorf("table %s has no key schema", tableName)
	}

	schema := &tableKeySchema{}
	for _, key := range table.KeySchema {
		switch key.KeyType {
		case types.KeyTypeHash:
			schema.hashKeyName = *key.AttributeName
		case types.KeyTypeRange:
			schema.rangeKeyName = *key.AttributeName
		}
	}

	if schema.hashKeyName == "" {
		return nil, fmt.Errorf("table %s has no hash key", tableName)
	}

	log.Printf("table key schema: hash=%s range=%s", schema.hashKeyName, schema.rangeKeyName)

	return schema, nil
}

func (s *tableKeySchema) projection() (expression string, names map[string]string) {
	expression = "#hash"
	names = map[string]string{"#hash": s.hashKeyName}
	if s.rangeKeyName != "" {
		expression = "#hash, #range"
		names["#range"] = s.rangeKeyName
	}
	return expression, names
}

func (s *tableKeySchema) itemKey(item map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	key := make(map[string]types.AttributeValue)

	hashAttr, ok := item[s.hashKeyName]
	if !ok {
		return nil, fmt.Errorf("item missing hash key attribute: %s", s.hashKeyName)
	}
	key[s.hashKeyName] = hashAttr

	if s.rangeKeyName != "" {
		rangeAttr, rangeOK := item[s.rangeKeyName]
		if !rangeOK {
			return nil, fmt.Errorf("item missing range key attribute: %s", s.rangeKeyName)
		}
		key[s.rangeKeyName] = rangeAttr
	}

	return key, nil
}

func scanAndDelete(ctx context.Context, client *dynamodb.Client, tableName string, schema *tableKeySchema) error {
	log.Printf("scanning table: %s", tableName)

	projectionExpression, expressionAttributeNames := schema.projection()

	var totalScanned int
	var totalDeleted int
	var lastEvaluatedKey map[string]types.AttributeValue

	for {
		scanOutput, err := client.Scan(ctx, &dynamodb.ScanInput{
			TableName:                aws.String(tableName),
			ProjectionExpression:     aws.String(projectionExpression),
			ExpressionAttributeNames: expressionAttributeNames,
			ExclusiveStartKey:        lastEvaluatedKey,
			Limit:                    aws.Int32(100),
		})
		if err != nil {
			return fmt.Errorf("failed to scan table: %w", err)
		}

		totalScanned += len(scanOutput.Items)

		deleted, err := deleteItems(ctx, client, tableName, schema, scanOutput.Items)
		if err != nil {
			return err
		}
		totalDeleted += deleted

		if len(scanOutput.LastEvaluatedKey) == 0 {
			break
		}
		lastEvaluatedKey = scanOutput.LastEvaluatedKey
	}

	log.Printf("truncation complete: scanned %d items, deleted %d items", totalScanned, totalDeleted)

	return nil
}

func deleteItems(
	ctx context.Context,
	client *dynamodb.Client,
	tableName string,
	schema *tableKeySchema,
	items []map[string]types.AttributeValue,
) (int, error) {
	var totalDeleted int

	for i := 0; i < len(items); i += constants.DynamoDBBatchWriteLimit {
		end := min(i+constants.DynamoDBBatchWriteLimit, len(items))

		requests := make([]types.WriteRequest, 0, end-i)
		for _, item := range items[i:end] {
			key, err := schema.itemKey(item)
			if err != nil {
				return totalDeleted, err
			}
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: key},
			})
		}

		if err := batchDelete(ctx, client, tableName, requests); err != nil {
			return totalDeleted, fmt.Errorf("failed to delete batch: %w", err)
		}
		totalDeleted += len(requests)
	}

	return totalDeleted, nil
}

func batchDelete(ctx context.Context, client *dynamodb.Client, tableName string, requests []types.WriteRequest) error {
	unprocessed := requests

	for len(unprocessed) > 0 {
		out, err := client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				tableName: unprocessed,
			},
		})
		if err != nil {
			return fmt.Errorf("batch write failed: %w", err)
		}

		remaining, ok := out.UnprocessedItems[tableName]
		if !ok || len(remaining) == 0 {
			break
		}

		log.Printf("retrying %d unprocessed items...", len(remaining))
		unprocessed = remaining
	}

	return nil
}
