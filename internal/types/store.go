package types

import (
	"time"

	"github.com/google/uuid"
)

// Store connection statuses. Active/inactive is a derived projection of
// LastSeenAt, materialized here for query speed.
const (
	StoreStatusActive   = "active"
	StoreStatusInactive = "inactive"
)

type Store struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string    `gorm:"column:name;not null" json:"name"`
	IP               string    `gorm:"column:ip" json:"ip"`
	ConnectionStatus string    `gorm:"column:connection_status;not null;index;default:active" json:"connection_status"`
	LastSeenAt       time.Time `gorm:"column:last_seen_at;not null;index" json:"last_seen_at"`
	CreatedAt        time.Time `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (Store) TableName() string { return "store" }
