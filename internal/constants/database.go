package constants

// Default DynamoDB table names. Overridable via configuration.
const (
	DefaultUsersTable       = "souschef-users"
	DefaultTokensTable      = "souschef-tokens"
	DefaultRecipesTable     = "souschef-recipes"
	DefaultTagsTable        = "souschef-tags"
	DefaultIngredientsTable = "souschef-ingredients"
)

// ItemIDTimeFormat is the time layout prefix for sortable item IDs.
// Full IDs append a microsecond suffix: 20060102-150405-000001.
const ItemIDTimeFormat = "20060102-150405"

// AllItemsAttribute is the constant partition attribute backing sorted list GSIs.
const AllItemsAttribute = "_all"

// ImageKeyPrefix is the object key prefix for recipe images.
const ImageKeyPrefix = "uploads/recipe/"

// DynamoDBBatchWriteLimit is the maximum number of items DynamoDB accepts
// in a single BatchWriteItem call.
const DynamoDBBatchWriteLimit = 25
