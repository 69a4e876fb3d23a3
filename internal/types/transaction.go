package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Transaction is one store's point-of-sale basket: parallel arrays of
// item id, quantity, and per-item unit utility, equal length and
// non-empty per spec.md §6 "Upload payload invariants". Transactions
// are immutable once persisted.
type Transaction struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_txn_store_date,priority:1" json:"store_id"`
	TransactionDate time.Time      `gorm:"column:transaction_date;not null;index:idx_txn_store_date,priority:2" json:"transaction_date"`
	Items           datatypes.JSON `gorm:"column:items;type:jsonb;not null" json:"items"`
	Quantities      datatypes.JSON `gorm:"column:quantities;type:jsonb;not null" json:"quantities"`
	UnitUtilities   datatypes.JSON `gorm:"column:unit_utilities;type:jsonb;not null" json:"unit_utilities"`
	CreatedAt       time.Time      `gorm:"column:created_at;not null;default:now()" json:"created_at"`
}

func (Transaction) TableName() string { return "transaction" }

// NewTransaction builds a persistable Transaction from an upload row's
// parallel arrays; callers are expected to have validated equal,
// non-zero lengths already (§6).
func NewTransaction(storeID uuid.UUID, transactionDate time.Time, items []int64, quantities []int64, unitUtilities []float64) *Transaction {
	return &Transaction{
		ID:              uuid.New(),
		StoreID:         storeID,
		TransactionDate: transactionDate,
		Items:           encodeInt64Slice(items),
		Quantities:      encodeInt64Slice(quantities),
		UnitUtilities:   encodeFloat64Slice(unitUtilities),
	}
}

// ItemsSlice, QuantitiesSlice and UnitUtilitiesSlice decode the JSON
// columns into typed slices for the mining engine. Callers are
// expected to have validated equal lengths at upload time (§6).
func (t *Transaction) ItemsSlice() ([]int64, error) {
	return decodeInt64Slice(t.Items)
}

func (t *Transaction) QuantitiesSlice() ([]int64, error) {
	return decodeInt64Slice(t.Quantities)
}

func (t *Transaction) UnitUtilitiesSlice() ([]float64, error) {
	return decodeFloat64Slice(t.UnitUtilities)
}

func decodeInt64Slice(raw datatypes.JSON) ([]int64, error) {
	var out []int64
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeFloat64Slice(raw datatypes.JSON) ([]float64, error) {
	var out []float64
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeInt64Slice(vals []int64) datatypes.JSON {
	raw, _ := json.Marshal(vals)
	return datatypes.JSON(raw)
}

func encodeFloat64Slice(vals []float64) datatypes.JSON {
	raw, _ := json.Marshal(vals)
	return datatypes.JSON(raw)
}
