package app

import (
	"fmt"
	"time"

	"github.com/souschef/souschef/internal/constants"
)

// GenerateItemID creates a unique, time-sortable item ID.
// IDs double as DynamoDB sort keys, so lexicographic order is creation order.
func GenerateItemID() string {
	now := time.Now().UTC()
	return now.Format(constants.ItemIDTimeFormat+"-") + fmt.Sprintf("%06d", now.Nanosecond()/1000)
}
