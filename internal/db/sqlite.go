package db

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ridgeline-retail/fedhui/internal/types"
)

// OpenSQLite opens a file-or-memory sqlite database for local dev and
// tests, where standing up Postgres is overkill. jsonb columns degrade
// to TEXT; datatypes.JSON round-trips fine through that.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAll(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&types.Store{},
		&types.Transaction{},
		&types.MiningJob{},
		&types.LocalPattern{},
		&types.FederatedRound{},
		&types.GlobalPattern{},
	)
}
