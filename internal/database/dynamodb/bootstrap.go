package dynamodb

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	awscfg "github.com/souschef/souschef/internal/config/aws"
	"github.com/souschef/souschef/internal/constants"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"
)

const (
	// tableActiveTimeout bounds the wait for a table to reach ACTIVE.
	// Tables with a GSI can take a while on real AWS.
	tableActiveTimeout = 5 * time.Minute

	tokenTTLAttribute = "expires_at"
)

// BootstrapClient is the slice of the DynamoDB API used for table creation.
type BootstrapClient interface {
	CreateTable(
		ctx context.Context,
		params *dynamodb.CreateTableInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.CreateTableOutput, error)
	DescribeTable(
		ctx context.Context,
		params *dynamodb.DescribeTableInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.DescribeTableOutput, error)
	UpdateTimeToLive(
		ctx context.Context,
		params *dynamodb.UpdateTimeToLiveInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.UpdateTimeToLiveOutput, error)
}

// EnsureTables creates the configured souschef tables when they don't exist
// and waits for each to reach ACTIVE. Tables that already exist are left
// untouched, so the operation is safe to repeat. Returns the names of the
// tables that were created by this call.
//
// Schemas mirror the CloudFormation template; this path exists for local
// development against dynamodb-local, where there is no CloudFormation.
func EnsureTables(ctx context.Context, client BootstrapClient, cfg *awscfg.Config, log *slog.Logger) ([]string, error) {
	specs := tableSpecs(cfg)
	createdFlags := make([]bool, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		g.Go(func() error {
			created, err := ensureTable(gctx, client, spec, log)
			if err != nil {
				return err
			}
			createdFlags[i] = created

			// TTL can only be configured once the table exists. Skipped for
			// pre-existing tables, which already have it from a previous run
			// or from CloudFormation.
			if created && aws.ToString(spec.TableName) == cfg.TokensTable {
				return enableTokenTTL(gctx, client, cfg.TokensTable, log)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var created []string
	for i, spec := range specs {
		if createdFlags[i] {
			created = append(created, aws.ToString(spec.TableName))
		}
	}
	return created, nil
}

// ensureTable creates one table and waits for it to become ACTIVE.
// Returns true when the table was created by this call.
func ensureTable(ctx context.Context, client BootstrapClient, spec *dynamodb.CreateTableInput, log *slog.Logger) (bool, error) {
	name := aws.ToString(spec.TableName)

	created := true
	if _, err := client.CreateTable(ctx, spec); err != nil {
		var inUse *types.ResourceInUseException
		if !stderrors.As(err, &inUse) {
			return false, fmt.Errorf("failed to create table %s: %w", name, err)
		}
		log.Debug("table already exists", "table", name)
		created = false
	} else {
		log.Info("creating table", "table", name)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	input := &dynamodb.DescribeTableInput{TableName: spec.TableName}
	if err := waiter.Wait(ctx, input, tableActiveTimeout); err != nil {
		return created, fmt.Errorf("table %s did not become active: %w", name, err)
	}

	return created, nil
}

func enableTokenTTL(ctx context.Context, client BootstrapClient, tableName string, log *slog.Logger) error {
	_, err := client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String(tokenTTLAttribute),
			Enabled:       aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to enable TTL on %s: %w", tableName, err)
	}
	log.Debug("token TTL enabled", "table", tableName, "attribute", tokenTTLAttribute)
	return nil
}

// tableSpecs returns the CreateTable inputs for all five tables.
func tableSpecs(cfg *awscfg.Config) []*dynamodb.CreateTableInput {
	return []*dynamodb.CreateTableInput{
		usersTableSpec(cfg.UsersTable),
		tokensTableSpec(cfg.TokensTable),
		itemTableSpec(cfg.RecipesTable),
		itemTableSpec(cfg.TagsTable),
		itemTableSpec(cfg.IngredientsTable),
	}
}

// usersTableSpec keys users by email and carries the all-user_email GSI that
// backs sorted user listings via the constant _all partition attribute.
func usersTableSpec(tableName string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(tableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("user_email"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(constants.AllItemsAttribute), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("user_email"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(allUsersIndexName),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String(constants.AllItemsAttribute), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String("user_email"), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
	}
}

// tokensTableSpec keys tokens by hash with a GSI for listing a user's tokens.
func tokensTableSpec(tableName string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(tableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("token_hash"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("user_email"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("token_hash"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(tokenUserEmailIndexName),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("user_email"), KeyType: types.KeyTypeHash},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
	}
}

// itemTableSpec is the shared shape for recipes, tags, and ingredients:
// partitioned by owner email, sorted by item ID.
func itemTableSpec(tableName string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(tableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("user_email"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("user_email"), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeRange},
		},
	}
}
