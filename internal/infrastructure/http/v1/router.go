// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"kardex/internal/domain/auth"
	"kardex/internal/domain/credit"
	"kardex/internal/domain/ledger"
	"kardex/internal/domain/product"
	"kardex/internal/domain/reports"
	"kardex/internal/domain/sale"
	"kardex/internal/domain/settings"
	"kardex/internal/infrastructure/http/v1/handlers"
	"kardex/internal/infrastructure/http/v1/middleware"
	"kardex/internal/infrastructure/storage/postgres"
	"kardex/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// TokenValidator for JWT validation
	TokenValidator middleware.TokenValidator

	// Auth service for registration and login
	Auth *auth.Service

	// Domain services
	Products *product.Service
	Stock    *ledger.Service
	Sales    *sale.Service
	Credits  *credit.Service
	Settings *settings.Service
	Reports  *reports.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	v1 := router.Group("/api/v1")

	// Public auth endpoints (no JWT required)
	registerAuthRoutes(v1, cfg)

	v1.Use(middleware.Auth(cfg.TokenValidator))
	{
		registerProductRoutes(v1, cfg)
		registerSaleRoutes(v1, cfg)
		registerInventoryRoutes(v1, cfg)
		registerCreditorRoutes(v1, cfg)
		registerSettingsRoutes(v1, cfg)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints. Register, login
// and refresh are public; the rest run behind the auth middleware.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Auth == nil {
		return
	}

	authHandler := handlers.NewAuthHandler(cfg.Auth)

	public := rg.Group("/auth")
	{
		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)
		public.POST("/refresh", authHandler.Refresh)
	}

	protected := rg.Group("/auth")
	protected.Use(middleware.Auth(cfg.TokenValidator))
	{
		protected.POST("/logout", authHandler.Logout)
		protected.GET("/me", authHandler.Me)
		protected.POST("/staff", authHandler.AddStaff)
		protected.GET("/staff", authHandler.ListStaff)
	}
}

// registerProductRoutes registers the product catalog and per-product
// stock endpoints.
func registerProductRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	productHandler := handlers.NewProductHandler(cfg.Products)
	movementHandler := handlers.NewMovementHandler(cfg.Stock)

	products := rg.Group("/products")
	{
		products.POST("", productHandler.Create)
		products.GET("", productHandler.List)
		products.GET("/:id", productHandler.Get)
		products.PUT("/:id", productHandler.Update)
		products.DELETE("/:id", productHandler.Delete)

		products.POST("/:id/movements", movementHandler.Record)
		products.GET("/:id/movements", movementHandler.List)
		products.GET("/:id/batches", movementHandler.Batches)
		products.GET("/:id/stock", movementHandler.Stock)
	}
}

// registerSaleRoutes registers sale and return endpoints.
func registerSaleRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	saleHandler := handlers.NewSaleHandler(cfg.Sales)
	returnHandler := handlers.NewReturnHandler(cfg.Sales)

	sales := rg.Group("/sales")
	{
		sales.POST("", saleHandler.Create)
		sales.POST("/bulk", saleHandler.CreateBulk)
		sales.GET("", saleHandler.List)
		sales.GET("/:id", saleHandler.Get)
		sales.DELETE("/:id", saleHandler.Reverse)
		sales.GET("/:id/returns", returnHandler.ForSale)
	}

	returns := rg.Group("/returns")
	{
		returns.POST("", returnHandler.Create)
		returns.GET("", returnHandler.List)
		returns.GET("/summary", returnHandler.Summary)
	}
}

// registerInventoryRoutes registers branch-level inventory endpoints.
func registerInventoryRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	inventoryHandler := handlers.NewInventoryHandler(cfg.Stock, cfg.Reports)

	inventory := rg.Group("/inventory")
	{
		inventory.POST("/write-off-expired", inventoryHandler.WriteOffExpired)
		inventory.GET("/analytics", inventoryHandler.Analytics)
		inventory.GET("/movements", inventoryHandler.Movements)
	}
}

// registerCreditorRoutes registers creditor account endpoints.
func registerCreditorRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	creditorHandler := handlers.NewCreditorHandler(cfg.Credits)

	creditors := rg.Group("/creditors")
	{
		creditors.GET("", creditorHandler.List)
		creditors.GET("/:id", creditorHandler.Get)
		creditors.GET("/:id/transactions", creditorHandler.Transactions)
	}
}

// registerSettingsRoutes registers tenant settings endpoints.
func registerSettingsRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	settingsHandler := handlers.NewSettingsHandler(cfg.Settings)

	rg.GET("/settings", settingsHandler.Get)
	rg.PUT("/settings", settingsHandler.Update)
}
