package app

import (
	"github.com/gin-gonic/gin"

	"github.com/ridgeline-retail/fedhui/internal/server"
)

func wireRouter(handlerset Handlers, middlewareset Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		StoreHandler:       handlerset.Store,
		TransactionHandler: handlerset.Transaction,
		MiningHandler:      handlerset.Mining,
		FederatedHandler:   handlerset.Federated,
		HeartbeatLimiter:   middlewareset.HeartbeatLimiter,
	})
}
