package app

import (
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	clientredis "github.com/ridgeline-retail/fedhui/internal/clients/redis"
	"github.com/ridgeline-retail/fedhui/internal/coordinator"
	"github.com/ridgeline-retail/fedhui/internal/logger"
	"github.com/ridgeline-retail/fedhui/internal/services"
)

type Services struct {
	Store       services.StoreService
	Transaction services.TransactionService
	Mining      services.MiningService
	Federated   services.FederatedService

	Coordinator *coordinator.Coordinator
	Budget      *coordinator.BudgetLedger
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, liveness clientredis.LivenessCache) Services {
	log.Info("Wiring services...")

	storeService := services.NewStoreService(log, reposet.Store, liveness, cfg.HeartbeatInactiveTimeout)
	transactionService := services.NewTransactionService(log, reposet.Store, reposet.Transaction)
	miningService := services.NewMiningService(log, reposet.Store, reposet.MiningJob, reposet.LocalPattern)

	budget := coordinator.NewBudgetLedger(log, redisClientOrNil(liveness), reposet.FederatedRound, cfg.PrivacyBudgetCap)

	coord := coordinator.NewCoordinator(
		log,
		db,
		reposet.FederatedRound,
		reposet.LocalPattern,
		reposet.GlobalPattern,
		reposet.Transaction,
		storeService,
		budget,
	)

	federatedService := services.NewFederatedService(
		log,
		coord,
		reposet.FederatedRound,
		reposet.GlobalPattern,
		cfg.MinClientsRequiredDefault,
		cfg.PrivacyEpsilonDefault,
		cfg.PrivacySensitivity,
	)

	return Services{
		Store:       storeService,
		Transaction: transactionService,
		Mining:      miningService,
		Federated:   federatedService,
		Coordinator: coord,
		Budget:      budget,
	}
}

// redisClientOrNil lets the BudgetLedger degrade to its Postgres
// fallback when no liveness cache (and therefore no Redis connection)
// is configured, the same "optional external cache" shape as
// StoreService's liveness dependency.
func redisClientOrNil(liveness clientredis.LivenessCache) *goredis.Client {
	if liveness == nil {
		return nil
	}
	return liveness.Client()
}
