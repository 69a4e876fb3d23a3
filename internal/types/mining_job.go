package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	MiningJobStatusPending   = "pending"
	MiningJobStatusRunning   = "running"
	MiningJobStatusCompleted = "completed"
	MiningJobStatusFailed    = "failed"
)

// MiningJob is owned exclusively by the worker that claims it. Status
// transitions are compare-and-set: pending -> running -> {completed,
// failed}.
type MiningJob struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StoreID uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`

	MinUtility       float64 `gorm:"column:min_utility;not null" json:"min_utility"`
	MinSupport       int     `gorm:"column:min_support;not null;default:0" json:"min_support"`
	MaxPatternLength int     `gorm:"column:max_pattern_length;not null;default:0" json:"max_pattern_length"`
	UsePruning       bool    `gorm:"column:use_pruning;not null;default:true" json:"use_pruning"`
	BatchSize        int     `gorm:"column:batch_size;not null;default:0" json:"batch_size"`

	Status       string `gorm:"column:status;not null;index" json:"status"`
	Cancelled    bool   `gorm:"column:cancelled;not null;default:false" json:"cancelled"`
	Attempts     int    `gorm:"column:attempts;not null;default:0" json:"attempts"`
	ErrorMessage string `gorm:"column:error_message" json:"error_message,omitempty"`

	PatternsFound        int     `gorm:"column:patterns_found;not null;default:0" json:"patterns_found"`
	ExecutionTimeSeconds float64 `gorm:"column:execution_time_seconds;not null;default:0" json:"execution_time_seconds"`

	LockedAt    *time.Time `gorm:"column:locked_at" json:"locked_at,omitempty"`
	HeartbeatAt *time.Time `gorm:"column:heartbeat_at" json:"heartbeat_at,omitempty"`
	StartedAt   *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (MiningJob) TableName() string { return "mining_job" }
