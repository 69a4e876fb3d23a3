package app

import (
	"github.com/ridgeline-retail/fedhui/internal/handlers"
	"github.com/ridgeline-retail/fedhui/internal/logger"
)

type Handlers struct {
	Store       *handlers.StoreHandler
	Transaction *handlers.TransactionHandler
	Mining      *handlers.MiningHandler
	Federated   *handlers.FederatedHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Store:       handlers.NewStoreHandler(serviceset.Store),
		Transaction: handlers.NewTransactionHandler(serviceset.Transaction),
		Mining:      handlers.NewMiningHandler(serviceset.Mining),
		Federated:   handlers.NewFederatedHandler(serviceset.Federated),
	}
}
