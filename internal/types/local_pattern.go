package types

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// LocalPattern is written once by the mining worker that owns JobID.
// Confidence is informational metadata only (spec.md §9 open question
// 2) — aggregation never reads it.
type LocalPattern struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	JobID   uuid.UUID `gorm:"type:uuid;not null;index" json:"job_id"`
	StoreID uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`

	Items     datatypes.JSON `gorm:"column:items;type:jsonb;not null" json:"items"`
	ItemsKey  string         `gorm:"column:items_key;not null;index" json:"items_key"`
	Utility   float64        `gorm:"column:utility;not null" json:"utility"`
	Support   int            `gorm:"column:support;not null" json:"support"`
	Confidence float64       `gorm:"column:confidence;not null;default:0" json:"confidence"`

	// AttributedRoundID is set the moment a federated round's collect
	// step pulls this pattern in, so it is never double-counted by a
	// later round (spec.md §4.3 step 2).
	AttributedRoundID *uuid.UUID `gorm:"type:uuid;column:attributed_round_id;index" json:"attributed_round_id,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();index" json:"created_at"`
}

func (LocalPattern) TableName() string { return "local_pattern" }

// ItemsSlice decodes the canonical sorted item-id list.
func (p *LocalPattern) ItemsSlice() ([]int64, error) {
	return decodeInt64Slice(p.Items)
}

// CanonicalItemsKey renders a sorted item-id slice as a stable string
// key, used both as the ItemsKey column and as the in-memory
// aggregation grouping key in the federated coordinator.
func CanonicalItemsKey(items []int64) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = strconv.FormatInt(it, 10)
	}
	return strings.Join(parts, ",")
}

// NewLocalPattern builds a LocalPattern row from a sorted item-id
// slice, encoding Items/ItemsKey consistently.
func NewLocalPattern(jobID, storeID uuid.UUID, items []int64, utility float64, support int, confidence float64) *LocalPattern {
	return &LocalPattern{
		ID:         uuid.New(),
		JobID:      jobID,
		StoreID:    storeID,
		Items:      encodeInt64Slice(items),
		ItemsKey:   CanonicalItemsKey(items),
		Utility:    utility,
		Support:    support,
		Confidence: confidence,
	}
}
