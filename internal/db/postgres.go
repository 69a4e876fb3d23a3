package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ridgeline-retail/fedhui/internal/logger"
	"github.com/ridgeline-retail/fedhui/internal/types"
	"github.com/ridgeline-retail/fedhui/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	log.Info("Loading environment variables...")
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "fedhui", log)
	log.Debug("Environment variables loaded")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}
	log.Info("uuid-ossp extension enabled")

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Store{},
		&types.Transaction{},
		&types.MiningJob{},
		&types.LocalPattern{},
		&types.FederatedRound{},
		&types.GlobalPattern{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		sql  string
	}{
		{
			name: "fk_transaction_store_id",
			sql: `ALTER TABLE "transaction"
				ADD CONSTRAINT "fk_transaction_store_id"
				FOREIGN KEY ("store_id")
				REFERENCES "store"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_mining_job_store_id",
			sql: `ALTER TABLE "mining_job"
				ADD CONSTRAINT "fk_mining_job_store_id"
				FOREIGN KEY ("store_id")
				REFERENCES "store"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_local_pattern_job_id",
			sql: `ALTER TABLE "local_pattern"
				ADD CONSTRAINT "fk_local_pattern_job_id"
				FOREIGN KEY ("job_id")
				REFERENCES "mining_job"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_local_pattern_store_id",
			sql: `ALTER TABLE "local_pattern"
				ADD CONSTRAINT "fk_local_pattern_store_id"
				FOREIGN KEY ("store_id")
				REFERENCES "store"("id")
				ON DELETE CASCADE`,
		},
		{
			name: "fk_local_pattern_attributed_round_id",
			sql: `ALTER TABLE "local_pattern"
				ADD CONSTRAINT "fk_local_pattern_attributed_round_id"
				FOREIGN KEY ("attributed_round_id")
				REFERENCES "federated_round"("id")
				ON DELETE SET NULL`,
		},
		{
			name: "fk_global_pattern_round_id",
			sql: `ALTER TABLE "global_pattern"
				ADD CONSTRAINT "fk_global_pattern_round_id"
				FOREIGN KEY ("round_id")
				REFERENCES "federated_round"("id")
				ON DELETE CASCADE`,
		},
	}
	for _, c := range constraints {
		if err := s.db.Exec(c.sql).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
