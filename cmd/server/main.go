package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"molvis-backend/internal/config"
	"molvis-backend/internal/database"
	"molvis-backend/internal/handlers"
	"molvis-backend/internal/middleware"
	"molvis-backend/internal/repository"
	"molvis-backend/internal/services"
	"molvis-backend/internal/storage"
	"molvis-backend/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	store, err := newStorage(cfg)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	pool := worker.NewPool(cfg.WorkerCount, logger)

	entryRepo := repository.NewGormEntryRepository(db)
	linkRepo := repository.NewGormShareLinkRepository(db)
	viewRepo := repository.NewGormViewRepository(db)
	volsegRepo := repository.NewGormVolsegRepository(db)
	userRepo := repository.NewGormUserRepository(db)

	processingService := services.NewProcessingService(entryRepo, store, logger)
	entryService := services.NewEntryService(entryRepo, store, processingService, pool, cfg.MaxUploadSizeBytes, logger)
	linkService := services.NewShareLinkService(linkRepo)
	viewService := services.NewViewService(viewRepo, entryRepo)
	volsegService := services.NewVolsegService(volsegRepo, store, logger)

	entriesHandler := handlers.NewEntriesHandler(entryService, processingService, logger)
	linksHandler := handlers.NewShareLinksHandler(linkService, entriesHandler, logger)
	viewsHandler := handlers.NewViewsHandler(viewService)
	volsegHandler := handlers.NewVolsegHandler(volsegService)
	meHandler := handlers.NewMeHandler(entryService)

	auth := middleware.RequireAuth(cfg, userRepo)
	optionalAuth := middleware.OptionalAuth(cfg, userRepo)

	router := gin.Default()
	router.MaxMultipartMemory = 32 << 20

	router.GET("/health", handlers.Health)

	api := router.Group("/api/v1")
	{
		api.GET("/me", auth, meHandler.Get)

		api.POST("/entries", auth, entriesHandler.Upload)
		api.GET("/entries", auth, entriesHandler.List)
		api.GET("/entries/:entry_id", auth, entriesHandler.Get)
		api.PUT("/entries/:entry_id", auth, entriesHandler.Update)
		api.DELETE("/entries/:entry_id", auth, entriesHandler.Delete)
		api.GET("/entries/:entry_id/download", auth, entriesHandler.Download)
		api.GET("/entries/:entry_id/share-link", auth, entriesHandler.GetShareLink)

		api.POST("/entries/:entry_id/views", auth, viewsHandler.Create)
		api.GET("/entries/:entry_id/views", auth, viewsHandler.List)
		api.GET("/entries/:entry_id/thumbnail", auth, viewsHandler.Thumbnail)
		api.GET("/views/:view_id", auth, viewsHandler.Get)
		api.PUT("/views/:view_id", auth, viewsHandler.Update)
		api.DELETE("/views/:view_id", auth, viewsHandler.Delete)

		api.GET("/share_links/:share_link_id", linksHandler.Resolve)
		api.GET("/share_links/:share_link_id/download", linksHandler.Download)
		api.PUT("/share_links/:share_link_id", auth, linksHandler.Update)

		api.POST("/volseg", auth, volsegHandler.Create)
		api.GET("/volseg", auth, volsegHandler.ListMine)
		api.GET("/volseg/public", volsegHandler.ListPublic)
		api.GET("/volseg/:volseg_entry_id", optionalAuth, volsegHandler.Get)
		api.GET("/volseg/:volseg_entry_id/data", optionalAuth, volsegHandler.Data)
		api.GET("/volseg/:volseg_entry_id/annotations", optionalAuth, volsegHandler.Annotations)
		api.DELETE("/volseg/:volseg_entry_id", auth, volsegHandler.Delete)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}

	// Let in-flight conversions reach a terminal status before exiting.
	pool.Shutdown()

	logger.Info("server stopped")
}

func newStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.StorageBackendLocal:
		return storage.NewLocalStorage(cfg.LocalStoragePath)
	default:
		return storage.NewS3Storage(context.Background(), storage.S3Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
}
