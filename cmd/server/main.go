package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appbill "github.com/splitledger/backend/internal/application/bill"
	appdirectory "github.com/splitledger/backend/internal/application/directory"
	appledger "github.com/splitledger/backend/internal/application/ledger"
	"github.com/splitledger/backend/internal/domain/bill"
	"github.com/splitledger/backend/internal/infrastructure/config"
	"github.com/splitledger/backend/internal/infrastructure/event"
	"github.com/splitledger/backend/internal/infrastructure/logger"
	"github.com/splitledger/backend/internal/infrastructure/persistence"
	"github.com/splitledger/backend/internal/interfaces/http/handler"
	"github.com/splitledger/backend/internal/interfaces/http/middleware"
	"github.com/splitledger/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database with a gorm logger that shares the zap core
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database migrated", zap.String("driver", cfg.Database.Driver))

	// Repositories
	billRepo := persistence.NewGormBillRepository(db.DB)
	balanceRepo := persistence.NewGormPairwiseBalanceRepository(db.DB)
	groupLedgerRepo := persistence.NewGormGroupLedgerRepository(db.DB)
	linkedUserRepo := persistence.NewGormLinkedUserRepository(db.DB)

	// Ledger pipeline wiring. The rebuilder is optional: with rebuilds
	// disabled the pipeline still keeps pairwise balances consistent and
	// group ledgers are only recomputed on demand.
	rebuilder := appledger.NewGroupLedgerRebuilder(billRepo, groupLedgerRepo, linkedUserRepo, log)
	scope := persistence.NewGormLedgerTransactionScope(db.DB,
		persistence.WithMaxConflictRetries(cfg.Ledger.ApplyMaxRetries))

	pipelineRebuilder := rebuilder
	if !cfg.Ledger.RebuildEnabled {
		pipelineRebuilder = nil
		log.Info("Automatic group ledger rebuilds disabled")
	}
	pipeline := appledger.NewPipeline(scope, linkedUserRepo, pipelineRebuilder, log,
		appledger.WithPipelineTimeout(cfg.Ledger.PipelineTimeout))

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(pipeline,
		bill.EventTypeBillCreated,
		bill.EventTypeBillUpdated,
		bill.EventTypeBillDeleted,
	)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Failed to stop event bus", zap.Error(err))
		}
	}()

	// Application services
	billService := appbill.NewBillService(billRepo, eventBus, log)
	settlementService := appbill.NewSettlementService(billService, log)
	balanceService := appledger.NewBalanceService(balanceRepo, groupLedgerRepo, rebuilder, log)
	directoryService := appdirectory.NewDirectoryService(linkedUserRepo, log)

	// HTTP handlers
	billHandler := handler.NewBillHandler(billService)
	settlementHandler := handler.NewSettlementHandler(settlementService)
	balanceHandler := handler.NewBalanceHandler(balanceService)
	groupHandler := handler.NewGroupHandler(balanceService, billService)
	friendHandler := handler.NewFriendHandler(directoryService)
	systemHandler := handler.NewSystemHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(billHandler).
		Register(settlementHandler).
		Register(balanceHandler).
		Register(groupHandler).
		Register(friendHandler).
		Register(systemHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
