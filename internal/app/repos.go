package app

import (
	"gorm.io/gorm"

	"github.com/ridgeline-retail/fedhui/internal/logger"
	"github.com/ridgeline-retail/fedhui/internal/repos"
)

type Repos struct {
	Store          repos.StoreRepo
	Transaction    repos.TransactionRepo
	MiningJob      repos.MiningJobRepo
	LocalPattern   repos.LocalPatternRepo
	FederatedRound repos.FederatedRoundRepo
	GlobalPattern  repos.GlobalPatternRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Store:          repos.NewStoreRepo(db, log),
		Transaction:    repos.NewTransactionRepo(db, log),
		MiningJob:      repos.NewMiningJobRepo(db, log),
		LocalPattern:   repos.NewLocalPatternRepo(db, log),
		FederatedRound: repos.NewFederatedRoundRepo(db, log),
		GlobalPattern:  repos.NewGlobalPatternRepo(db, log),
	}
}
