package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GlobalPattern is written once per (round_id, items) by the
// coordinator's commit step.
type GlobalPattern struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoundID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_global_pattern_round_items,priority:1" json:"round_id"`

	Items    datatypes.JSON `gorm:"column:items;type:jsonb;not null" json:"items"`
	ItemsKey string         `gorm:"column:items_key;not null;uniqueIndex:idx_global_pattern_round_items,priority:2" json:"items_key"`

	AggregatedUtility  float64 `gorm:"column:aggregated_utility;not null" json:"aggregated_utility"`
	GlobalSupport      float64 `gorm:"column:global_support;not null" json:"global_support"`
	ContributingStores int     `gorm:"column:contributing_stores;not null" json:"contributing_stores"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();index" json:"created_at"`
}

func (GlobalPattern) TableName() string { return "global_pattern" }

func NewGlobalPattern(roundID uuid.UUID, items []int64, aggregatedUtility, globalSupport float64, contributingStores int) *GlobalPattern {
	return &GlobalPattern{
		ID:                 uuid.New(),
		RoundID:            roundID,
		Items:              encodeInt64Slice(items),
		ItemsKey:           CanonicalItemsKey(items),
		AggregatedUtility:  aggregatedUtility,
		GlobalSupport:      globalSupport,
		ContributingStores: contributingStores,
	}
}

// EncodeUUIDSlice renders a UUID slice as a jsonb column value, for
// callers outside this package building ParticipatingStores updates.
func EncodeUUIDSlice(ids []uuid.UUID) datatypes.JSON {
	return encodeUUIDSlice(ids)
}

func decodeUUIDSlice(raw datatypes.JSON) ([]uuid.UUID, error) {
	var strs []string
	if len(raw) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(raw, &strs); err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(strs))
	for _, s := range strs {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func encodeUUIDSlice(ids []uuid.UUID) datatypes.JSON {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	raw, _ := json.Marshal(strs)
	return datatypes.JSON(raw)
}
