package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	reconapp "github.com/retailops/backend/internal/application/reconciliation"
	taxapp "github.com/retailops/backend/internal/application/taxonomy"
	"github.com/retailops/backend/internal/infrastructure/cache"
	"github.com/retailops/backend/internal/infrastructure/config"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"github.com/retailops/backend/internal/infrastructure/persistence"
	"github.com/retailops/backend/internal/interfaces/http/handler"
	"github.com/retailops/backend/internal/interfaces/http/middleware"
	"github.com/retailops/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.NewFromSettings(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Reconciliation Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	recordRepo := persistence.NewGormRecordRepository(db.DB)
	entryRepo := persistence.NewGormTaxonomyEntryRepository(db.DB)
	codeTableRepo := persistence.NewGormCodeTableRepository(db.DB)
	ruleRepo := persistence.NewGormCategoryRuleRepository(db.DB)

	// Initialize taxonomy cache
	cacheFactory := cache.NewTaxonomyCacheFactory(cfg.Cache, cfg.Redis, cache.WithLogger(log))
	taxonomyCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to create taxonomy cache", zap.Error(err))
	}

	// Initialize application services
	reconciliationService := reconapp.NewReconciliationService(recordRepo)
	classificationService := taxapp.NewClassificationService(entryRepo, codeTableRepo, ruleRepo, taxonomyCache)

	// Initialize handlers
	reconciliationHandler := handler.NewReconciliationHandler(reconciliationService, handler.ReconciliationHandlerConfig{
		DefaultWarehouses:    cfg.Recon.DefaultWarehouses,
		DefaultPricePriority: cfg.Recon.DefaultPricePriority,
		MaxPageSize:          cfg.Recon.MaxPageSize,
	})
	taxonomyHandler := handler.NewTaxonomyHandler(classificationService)
	systemHandler := handler.NewSystemHandler(db)

	// Set up the HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	middleware.SetupValidator()

	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(1 << 20)) // 1MB
	if cfg.HTTP.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}

	// Liveness probe outside the versioned API
	engine.GET("/health", systemHandler.Health)

	// Reconciliation routes
	reconciliationGroup := router.NewDomainGroup("reconciliation", "/reconciliation")
	reconciliationGroup.
		POST("/sync", reconciliationHandler.Reconcile).
		GET("/records", reconciliationHandler.List).
		GET("/records/:id", reconciliationHandler.GetByID).
		GET("/records/:id/conflicts", reconciliationHandler.PreviewConflicts).
		POST("/records/link", reconciliationHandler.Link).
		POST("/records/:id/confirm", reconciliationHandler.Confirm).
		POST("/records/:id/unlock", reconciliationHandler.Unlock).
		DELETE("/records/:id/linkage", reconciliationHandler.RemoveLinkage).
		PUT("/records/:id/notes", reconciliationHandler.UpdateNotes)

	// Taxonomy routes
	taxonomyGroup := router.NewDomainGroup("taxonomy", "/taxonomy")
	taxonomyGroup.
		GET("/resolve", taxonomyHandler.Resolve).
		POST("/mappings", taxonomyHandler.SaveMapping).
		DELETE("/mappings/:kind/:code", taxonomyHandler.DeleteMapping).
		GET("/entries/:kind", taxonomyHandler.ListEntries).
		PUT("/entries/:kind", taxonomyHandler.RefreshEntries).
		POST("/classify", taxonomyHandler.Classify).
		POST("/rules", taxonomyHandler.CreateRule).
		GET("/rules", taxonomyHandler.ListRules).
		PUT("/rules/:id", taxonomyHandler.UpdateRule).
		POST("/rules/:id/activate", taxonomyHandler.ActivateRule).
		POST("/rules/:id/deactivate", taxonomyHandler.DeactivateRule).
		DELETE("/rules/:id", taxonomyHandler.DeleteRule)

	// System routes
	systemGroup := router.NewDomainGroup("system", "/system")
	systemGroup.
		GET("/info", systemHandler.GetSystemInfo).
		GET("/ping", systemHandler.Ping)

	r := router.NewRouter(engine)
	r.Register(reconciliationGroup).
		Register(taxonomyGroup).
		Register(systemGroup).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
