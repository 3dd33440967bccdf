package handlers

import (
	"github.com/gin-gonic/gin"
)

// Router handles HTTP routing setup
type Router struct {
	feedHandler   *FeedHandler
	walletHandler *WalletHandler
	mintHandler   *MintHandler
	nftHandler    *NFTHandler
	healthHandler *HealthHandler
}

// NewRouter creates a new Router instance with all handlers
func NewRouter(
	feedHandler *FeedHandler,
	walletHandler *WalletHandler,
	mintHandler *MintHandler,
	nftHandler *NFTHandler,
	healthHandler *HealthHandler,
) *Router {
	return &Router{
		feedHandler:   feedHandler,
		walletHandler: walletHandler,
		mintHandler:   mintHandler,
		nftHandler:    nftHandler,
		healthHandler: healthHandler,
	}
}

// SetupAPIRoutes registers all API routes on the given group. Middleware
// such as authentication is attached to the group by the caller.
func (r *Router) SetupAPIRoutes(api *gin.RouterGroup) {
	// Feed endpoints
	api.GET("/feed", r.feedHandler.GetFeed)
	api.POST("/feed/tab", r.feedHandler.SetTab)
	api.POST("/feed/chain", r.feedHandler.SetChain)
	api.POST("/feed/refresh", r.feedHandler.Refresh)
	api.GET("/feed/cards/:card_id", r.feedHandler.GetCard)

	// Wallet session endpoints
	api.GET("/wallet", r.walletHandler.GetSession)
	api.POST("/wallet/connect", r.walletHandler.Connect)
	api.POST("/wallet/disconnect", r.walletHandler.Disconnect)

	// Mint endpoints
	api.POST("/mint", r.mintHandler.Mint)
	api.GET("/mint/:card_id", r.mintHandler.GetStatus)
	api.GET("/notifications", r.mintHandler.GetNotifications)

	// NFT creation
	api.POST("/nfts", r.nftHandler.Create)
}

// SetupHealthRoutes configures health check routes
func (r *Router) SetupHealthRoutes(engine *gin.Engine) {
	health := engine.Group("/health")
	{
		health.GET("", r.healthHandler.GetHealth)            // Overall health
		health.GET("/live", r.healthHandler.GetLiveness)     // Liveness probe
		health.GET("/ready", r.healthHandler.GetReadiness)   // Readiness probe
		health.GET("/db", r.healthHandler.GetDatabaseHealth) // Database health
	}
}
