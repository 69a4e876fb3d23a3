package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RoundStatusPending   = "pending"
	RoundStatusRunning   = "running"
	RoundStatusCompleted = "completed"
	RoundStatusFailed    = "failed"
)

const (
	RoundFailureInsufficientClients = "insufficient_clients"
	RoundFailureBudgetExhausted     = "privacy_budget_exhausted"
	RoundFailureProcessRestart      = "process_restart"
)

// FederatedRound is owned exclusively by the coordinator. RoundNumber
// is globally unique and dense; rounds are strictly serialized.
type FederatedRound struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoundNumber int       `gorm:"column:round_number;not null;uniqueIndex" json:"round_number"`

	Status             string  `gorm:"column:status;not null;index" json:"status"`
	MinClientsRequired int     `gorm:"column:min_clients_required;not null" json:"min_clients_required"`
	PrivacyBudget      float64 `gorm:"column:privacy_budget;not null;default:0" json:"privacy_budget"`
	Sensitivity        float64 `gorm:"column:sensitivity;not null;default:1" json:"sensitivity"`

	// Seed is drawn once at Open and persisted so the round's Laplace
	// noise draws are reproducible post-hoc (spec.md §4.3
	// "Idempotence").
	Seed int64 `gorm:"column:seed;not null" json:"seed"`

	ParticipatingStores datatypes.JSON `gorm:"column:participating_stores;type:jsonb" json:"participating_stores"`
	PatternsAggregated  int            `gorm:"column:patterns_aggregated;not null;default:0" json:"patterns_aggregated"`
	FailureReason       string         `gorm:"column:failure_reason" json:"failure_reason,omitempty"`

	StartedAt   *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (FederatedRound) TableName() string { return "federated_round" }

func (r *FederatedRound) ParticipatingStoreIDs() ([]uuid.UUID, error) {
	ids, err := decodeUUIDSlice(r.ParticipatingStores)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
