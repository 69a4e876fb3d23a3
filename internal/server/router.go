package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ridgeline-retail/fedhui/internal/handlers"
	"github.com/ridgeline-retail/fedhui/internal/middleware"
)

type RouterConfig struct {
	StoreHandler       *handlers.StoreHandler
	TransactionHandler *handlers.TransactionHandler
	MiningHandler      *handlers.MiningHandler
	FederatedHandler   *handlers.FederatedHandler
	HeartbeatLimiter   *middleware.RateLimiter
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Requested-With"},
		AllowCredentials: false,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		stores := api.Group("/stores")
		stores.POST("/register", cfg.StoreHandler.Register)
		stores.GET("", cfg.StoreHandler.List)
		heartbeat := stores.Group("/:id")
		if cfg.HeartbeatLimiter != nil {
			heartbeat.Use(cfg.HeartbeatLimiter.PerStoreLimit())
		}
		heartbeat.POST("/heartbeat", cfg.StoreHandler.Heartbeat)

		txns := api.Group("/transactions")
		txns.POST("/upload/:store_id", cfg.TransactionHandler.Upload)
		txns.GET("/:store_id", cfg.TransactionHandler.ListByStore)

		mining := api.Group("/mining")
		mining.POST("/start", cfg.MiningHandler.Start)
		mining.GET("/status/:job_id", cfg.MiningHandler.Status)
		mining.GET("/results/:job_id", cfg.MiningHandler.Results)

		federated := api.Group("/federated")
		federated.POST("/start-round", cfg.FederatedHandler.StartRound)
		federated.GET("/rounds", cfg.FederatedHandler.ListRounds)
		federated.GET("/rounds/:id/patterns", cfg.FederatedHandler.RoundPatterns)
	}

	return router
}
