package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"wealthplan/internal/advisory"
	"wealthplan/internal/config"
	"wealthplan/internal/database"
	_ "wealthplan/internal/docs" // Import swagger docs
	"wealthplan/internal/handlers"
	"wealthplan/internal/logger"
	"wealthplan/internal/metrics"
	"wealthplan/internal/middleware"
	"wealthplan/internal/pricing"
	"wealthplan/internal/services"
	"wealthplan/internal/validator"
)

// @title           Wealthplan API
// @version         1.0
// @description     Wealthplan turns an investor's objective into conservative and aggressive portfolios of concrete, priced positions.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(database.DefaultMigrationsSource); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	collector, err := metrics.NewCollector()
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	pipelineMetrics := collector.Pipeline()

	// External collaborators
	advisor := advisory.NewClient(advisory.NewOpenAICompleter(advisory.OpenAIConfig{
		APIKey:  appConfig.AdvisoryAPIKey,
		BaseURL: appConfig.AdvisoryBaseURL,
		Model:   appConfig.AdvisoryModel,
	}), appConfig.AdvisoryTimeout)

	quoter, err := newQuoter(appConfig)
	if err != nil {
		return err
	}
	priceCache, closeCache := newPriceCache(appConfig)
	defer closeCache()
	resolver := pricing.NewResolver(quoter, priceCache, pricing.ResolverConfig{
		Concurrency: appConfig.PriceConcurrency,
		Timeout:     appConfig.PriceTimeout,
	}, pipelineMetrics)
	log.Infof("Using %s for market prices", quoter.Name())

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	objectiveService := services.NewObjectiveService(db)
	allocationStore := services.NewAllocationStore(db, pipelineMetrics)
	selectionService := services.NewSelectionService(db, allocationStore)
	portfolioService := services.NewPortfolioService(
		objectiveService,
		services.NewDistributionGenerator(advisor, pipelineMetrics),
		services.NewAssetSelector(advisor, pipelineMetrics),
		services.NewExplainer(advisor, pipelineMetrics),
		resolver,
		allocationStore,
		selectionService,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	objectiveHandler := handlers.NewObjectiveHandler(objectiveService, auditService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService, auditService)

	validator.Register()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(collector.Middleware())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", middleware.APIKeyMiddleware(appConfig.MetricsAPIKey), gin.WrapH(collector.Handler()))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile", authHandler.UpdateProfile)

	objectives := protected.Group("/objectives")
	objectives.POST("", objectiveHandler.CreateObjective)
	objectives.GET("/latest", objectiveHandler.GetLatestObjective)
	objectives.GET("/history", objectiveHandler.ListObjectives)
	objectives.GET("/:id", objectiveHandler.GetObjective)

	portfolios := protected.Group("/portfolios")
	portfolios.POST("/distribution", portfolioHandler.GenerateDistribution)
	portfolios.POST("/assets", portfolioHandler.GenerateAssets)
	portfolios.POST("/generate", portfolioHandler.Regenerate)
	portfolios.GET("/allocation", portfolioHandler.GetAllocation)
	portfolios.POST("/selection", portfolioHandler.ConfirmSelection)
	portfolios.GET("/selection", portfolioHandler.GetSelection)
	portfolios.GET("/simulation", portfolioHandler.GetSimulation)
	portfolios.DELETE("/simulation", portfolioHandler.DeleteSimulation)
	portfolios.POST("/chat", portfolioHandler.Explain)

	log.Infof("Starting Wealthplan server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}

// newQuoter selects the market price provider named by PRICE_PROVIDER.
func newQuoter(cfg *config.Config) (pricing.Quoter, error) {
	switch cfg.PriceProvider {
	case "brapi":
		return pricing.NewBrapiQuoter(cfg.PriceAPIURL, cfg.PriceAPIKey, cfg.PriceTimeout), nil
	case "yahoo":
		return pricing.NewYahooQuoter(cfg.PriceAPIURL, cfg.PriceTimeout), nil
	default:
		return nil, fmt.Errorf("unknown price provider %q (use brapi or yahoo)", cfg.PriceProvider)
	}
}

// newPriceCache returns a Redis price cache when REDIS_ADDR is set. The
// returned func releases the connection.
func newPriceCache(cfg *config.Config) (pricing.Cache, func()) {
	if cfg.RedisAddr == "" {
		return nil, func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	logger.Get().Infof("Caching prices in Redis at %s for %s", cfg.RedisAddr, cfg.PriceCacheTTL)
	return pricing.NewRedisCache(client, cfg.PriceCacheTTL), func() {
		if err := client.Close(); err != nil {
			logger.Get().Warnf("redis close error: %v", err)
		}
	}
}
