// Package main is the entry point for the Kardex API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"kardex/internal/config"
	"kardex/internal/domain/auth"
	"kardex/internal/domain/credit"
	"kardex/internal/domain/ledger"
	"kardex/internal/domain/product"
	"kardex/internal/domain/reports"
	"kardex/internal/domain/sale"
	"kardex/internal/domain/settings"
	"kardex/internal/infrastructure/cache"
	v1 "kardex/internal/infrastructure/http/v1"
	"kardex/internal/infrastructure/http/v1/middleware"
	"kardex/internal/infrastructure/numerator"
	"kardex/internal/infrastructure/storage/postgres"
	"kardex/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := context.Background()
	log.Info("starting kardex server")

	if cfg.Postgres.DSN == "" {
		log.Fatal("postgres DSN is required (KARDEX_POSTGRES_DSN)")
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT secret is required (KARDEX_AUTH_JWT_SECRET)")
	}

	// --- Migrations ---
	if err := postgres.Migrate(ctx, cfg.Postgres.DSN); err != nil {
		log.Fatalw("failed to run migrations", "error", err)
	}

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Postgres.DSN)
	if cfg.Postgres.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolCfg.MinConns = cfg.Postgres.MinConns
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)
	if cfg.Postgres.StatementTimeout > 0 {
		txManager.SetStatementTimeout(cfg.Postgres.StatementTimeout)
	}

	// --- Stock cache (optional) ---
	var stockCache *cache.StockCache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warnw("redis unavailable, stock cache disabled", "error", err)
		} else {
			stockCache = cache.New(redisClient, cfg.Redis.TTL)
			defer redisClient.Close()
			log.Info("stock cache enabled")
		}
	}

	// --- Repositories ---
	ledgerRepo := postgres.NewLedgerRepo(txManager)
	productRepo := postgres.NewProductRepo(txManager)
	saleRepo := postgres.NewSaleRepo(txManager)
	creditRepo := postgres.NewCreditRepo(txManager)
	settingsRepo := postgres.NewSettingsRepo(txManager)
	userRepo := postgres.NewUserRepo(txManager)
	tokenRepo := postgres.NewTokenRepo(txManager)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Domain services ---
	settingsService := settings.NewService(settingsRepo)

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(cfg.Auth.JWTSecret))
	authService := auth.NewService(userRepo, tokenRepo, txManager, jwtService, auth.DefaultServiceConfig())

	receiptNumerator := numerator.New(pool)

	var invalidator ledger.StockInvalidator
	if stockCache != nil {
		invalidator = stockCache
	}
	ledgerService := ledger.NewService(
		ledgerRepo,
		product.LookupAdapter{Repo: productRepo},
		settingsService,
		txManager,
		invalidator,
	)

	productService := product.NewService(productRepo, ledgerService, txManager)
	creditService := credit.NewService(creditRepo)
	saleService := sale.NewService(
		saleRepo,
		ledgerService,
		creditService,
		product.LookupAdapter{Repo: productRepo},
		txManager,
		auditService,
		receiptNumerator,
	)

	var reportsCache reports.StockCache
	if stockCache != nil {
		reportsCache = stockCache
	}
	reportsService := reports.NewService(
		ledgerRepo,
		productRepo,
		settingsService,
		ledgerService,
		txManager,
		reportsCache,
	)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		Logger:         log,
		TokenValidator: middleware.NewJWTValidator(cfg.Auth.JWTSecret),
		Auth:           authService,
		Products:       productService,
		Stock:          ledgerService,
		Sales:          saleService,
		Credits:        creditService,
		Settings:       settingsService,
		Reports:        reportsService,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
