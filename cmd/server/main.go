package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nft-marketplace-api/internal/config"
	"nft-marketplace-api/internal/handlers"
	"nft-marketplace-api/internal/middleware"
	"nft-marketplace-api/internal/models"
	"nft-marketplace-api/internal/services"
	"nft-marketplace-api/pkg/cache"
	"nft-marketplace-api/pkg/logger"
	"nft-marketplace-api/pkg/metrics"
	"nft-marketplace-api/pkg/mutex"
	"nft-marketplace-api/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server represents the main application server
type Server struct {
	httpServer    *http.Server
	config        *config.Config
	authService   *services.AuthService
	solanaClient  *services.SolanaClient
	controller    *services.FeedController
	sessions      *services.SessionManager
	healthService *services.HealthService
	collector     *metrics.MetricsCollector
	cardLocks     *mutex.KeyedMutex
	rateLimiter   *ratelimiter.RateLimiter
	router        *handlers.Router
}

func main() {
	cfg := config.LoadConfig()

	loggerConfig := &logger.Config{
		Level:       cfg.Logging.Level,
		Environment: cfg.Logging.Environment,
		OutputPaths: cfg.Logging.OutputPaths,
	}

	if err := logger.Initialize(loggerConfig); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log := logger.GetLogger()

	log.Info("Starting NFT marketplace API server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("indexer_endpoint", cfg.Indexer.Endpoint),
		zap.String("rpc_endpoint", cfg.RPC.Endpoint),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
		zap.Int("rate_limit_rpm", cfg.RateLimit.RequestsPerMinute),
		zap.String("environment", cfg.Logging.Environment),
	)

	server, err := NewServer(cfg)
	if err != nil {
		log.Fatal("Failed to create server", zap.Error(err))
	}

	if err := server.Start(); err != nil {
		log.Fatal("Server failed to start", zap.Error(err))
	}
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	log := logger.GetLogger()

	log.Info("Initializing server components")

	collector := metrics.NewMetricsCollector()

	// MongoDB is optional: without it the server runs with authentication
	// disabled and the feed snapshot kept in memory only
	authService, err := services.NewAuthService(&cfg.MongoDB)
	if err != nil {
		log.Warn("MongoDB unavailable; running without authentication or durable snapshots",
			zap.Error(err),
		)
		authService = nil
	}

	var snapshotStore cache.Store = cache.NewMemoryStore()
	if authService != nil {
		snapshotStore = services.NewSnapshotStore(authService.Database(), cfg.MongoDB.FeedCacheCollection)
	}
	feedCache := cache.New(cfg.Cache.TTL, snapshotStore)

	solanaClient := services.NewSolanaClient(&cfg.RPC)
	if err := solanaClient.IsHealthy(); err != nil {
		log.Warn("Solana RPC health check failed", zap.Error(err))
	}

	indexer := services.NewIndexerClient(&cfg.Indexer)
	pricing := services.NewPricingClient(&cfg.Pricing)

	var metadata *services.MetadataClient
	if cfg.Feed.EnrichMetadata {
		metadata = services.NewMetadataClient(&cfg.Feed)
	}

	fetcher := services.NewFeedFetcher(indexer, pricing, metadata, feedCache, collector, &cfg.Indexer, &cfg.Feed)

	controller := services.NewFeedController(fetcher, feedCache, collector, &cfg.Feed)
	controller.Start(context.Background())

	sessions := services.NewSessionManager(
		services.NewSimulatedProvider(models.ProviderPhantom),
		services.NewSimulatedProvider(models.ProviderSolflare),
	)

	cardLocks := mutex.New(10 * time.Minute)
	notifications := services.NewNotificationBuffer()
	settler := services.NewSimulatedSettler(solanaClient, sessions, &cfg.Mint)
	simulator := services.NewMintSimulator(controller, sessions, settler, notifications, collector, cardLocks)
	creator := services.NewNFTCreator(solanaClient, sessions, &cfg.Mint)

	var healthService *services.HealthService
	if authService != nil {
		healthService = services.NewHealthService(authService.Database(), solanaClient)
	} else {
		healthService = services.NewHealthService(nil, solanaClient)
	}

	rateLimiter := ratelimiter.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.WindowSize)

	router := handlers.NewRouter(
		handlers.NewFeedHandler(controller),
		handlers.NewWalletHandler(sessions),
		handlers.NewMintHandler(simulator, notifications),
		handlers.NewNFTHandler(creator),
		handlers.NewHealthHandler(healthService),
	)

	log.Info("Server components initialized successfully")

	return &Server{
		config:        cfg,
		authService:   authService,
		solanaClient:  solanaClient,
		controller:    controller,
		sessions:      sessions,
		healthService: healthService,
		collector:     collector,
		cardLocks:     cardLocks,
		rateLimiter:   rateLimiter,
		router:        router,
	}, nil
}

// Start starts the HTTP server with graceful shutdown handling
func (s *Server) Start() error {
	log := logger.GetLogger()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	s.setupMiddleware(engine)
	s.setupRoutes(engine)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.Server.Port),
		Handler:           engine,
		ReadTimeout:       s.config.Server.ReadTimeout,
		WriteTimeout:      s.config.Server.WriteTimeout,
		IdleTimeout:       s.config.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	log.Info("HTTP server configured",
		zap.String("address", s.httpServer.Addr),
		zap.Duration("read_timeout", s.config.Server.ReadTimeout),
		zap.Duration("write_timeout", s.config.Server.WriteTimeout),
	)

	s.startCleanupRoutines()

	go func() {
		log.Info("Starting HTTP server", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	return s.waitForShutdown()
}

// setupMiddleware configures the middleware stack
func (s *Server) setupMiddleware(engine *gin.Engine) {
	// Recovery first so everything below is covered
	engine.Use(logger.RecoveryMiddleware())
	engine.Use(logger.LoggingMiddleware())
	engine.Use(middleware.MetricsMiddleware(s.collector))
	engine.Use(s.corsMiddleware())

	// Rate limiting before auth to stop credential probing early
	engine.Use(s.rateLimiter.Middleware())
}

// setupRoutes configures all application routes
func (s *Server) setupRoutes(engine *gin.Engine) {
	// Health check routes (no authentication required)
	s.router.SetupHealthRoutes(engine)

	api := engine.Group("/api")
	if s.authService != nil {
		api.Use(middleware.AuthMiddleware(s.authService))
	}
	s.router.SetupAPIRoutes(api)

	engine.GET("/metrics", s.metricsHandler)
	engine.GET("/status", s.statusHandler)
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// metricsHandler exposes collected metrics
func (s *Server) metricsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":         "nft-marketplace-api",
		"version":         "1.0.0",
		"uptime":          s.collector.GetUptime().String(),
		"metrics":         s.collector.GetMetrics(),
		"cache_hit_ratio": s.collector.GetCacheHitRatio(),
		"success_rate":    s.collector.GetSuccessRate(),
	})
}

// statusHandler provides a condensed status view
func (s *Server) statusHandler(c *gin.Context) {
	rpcHealthy := s.solanaClient.IsHealthy() == nil
	snapshot := s.controller.Snapshot()

	c.JSON(http.StatusOK, gin.H{
		"service":      "nft-marketplace-api",
		"status":       "running",
		"rpc_healthy":  rpcHealthy,
		"active_tab":   snapshot.ActiveTab,
		"active_chain": snapshot.ActiveChain,
		"cards":        len(snapshot.Cards),
		"is_loading":   snapshot.IsLoading,
		"uptime":       s.collector.GetUptime().String(),
		"version":      "1.0.0",
	})
}

// startCleanupRoutines starts background cleanup tasks
func (s *Server) startCleanupRoutines() {
	log := logger.GetLogger()

	go func() {
		ticker := time.NewTicker(s.config.RateLimit.CleanupInterval)
		defer ticker.Stop()

		for range ticker.C {
			s.rateLimiter.Cleanup()
		}
	}()

	log.Info("Background cleanup routines started")
}

// waitForShutdown waits for interrupt signal and performs graceful shutdown
func (s *Server) waitForShutdown() error {
	log := logger.GetLogger()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	s.cleanup()

	log.Info("Server gracefully stopped")
	return nil
}

// cleanup performs cleanup of all services
func (s *Server) cleanup() {
	log := logger.GetLogger()

	log.Info("Cleaning up services...")

	if s.controller != nil {
		s.controller.Close()
	}
	if s.cardLocks != nil {
		s.cardLocks.Stop()
	}
	if s.authService != nil {
		if err := s.authService.Close(); err != nil {
			log.Error("Error closing auth service", zap.Error(err))
		}
	}

	if err := logger.GetLogger().Sync(); err != nil {
		fmt.Printf("Error syncing logger: %v\n", err)
	}

	log.Info("Cleanup completed")
}
