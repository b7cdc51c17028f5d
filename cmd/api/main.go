package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/contoso/jobsite-api/docs"
	"github.com/contoso/jobsite-api/internal/cache"
	"github.com/contoso/jobsite-api/internal/config"
	"github.com/contoso/jobsite-api/internal/database"
	"github.com/contoso/jobsite-api/internal/events"
	"github.com/contoso/jobsite-api/internal/http/handler"
	"github.com/contoso/jobsite-api/internal/http/middleware"
	"github.com/contoso/jobsite-api/internal/http/router"
	"github.com/contoso/jobsite-api/internal/jobs"
	"github.com/contoso/jobsite-api/internal/logger"
	"github.com/contoso/jobsite-api/internal/repository"
	"github.com/contoso/jobsite-api/internal/service"
	"github.com/contoso/jobsite-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// @title Job Site API
// @version 1.0
// @description Job site records and geotagged photo ingestion for construction projects

// @contact.name API Support
// @contact.email support@contoso.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Basic configuration first, for logging setup
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)

	// Full configuration, with secrets from Key Vault when enabled
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	jobCache, err := cache.NewJobCache(&cfg.Cache, log)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	defer closeQuietly(log, "cache", jobCache)

	publisher, err := events.NewPublisher(&cfg.Events, log)
	if err != nil {
		return fmt.Errorf("failed to initialize event publisher: %w", err)
	}
	defer closeQuietly(log, "event publisher", publisher)

	// Services
	jobService := service.NewJobService(store, fileStorage, jobCache, publisher, log)
	photoService := service.NewPhotoService(store, fileStorage, jobCache, publisher, log)

	// Handlers
	healthHandler := handler.NewHealthHandler(db, log)
	jobHandler := handler.NewJobHandler(jobService, log)
	photoHandler := handler.NewPhotoHandler(photoService, jobService, cfg.Storage.MaxUploadBytes(), log)

	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	var uploadsDir string
	if local, ok := fileStorage.(*storage.LocalStorage); ok {
		uploadsDir = local.BasePath()
	}

	rt := router.NewRouter(cfg, log, rateLimiter, healthHandler, jobHandler, photoHandler, uploadsDir)

	var scheduler *jobs.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler = jobs.NewScheduler(log)
		statsJob := jobs.NewStoreStatsJob(jobService, log, 30*time.Second)
		if err := scheduler.AddJob(jobs.StoreStatsJobName, cfg.Scheduler.StatsCron, statsJob.Run); err != nil {
			log.Error("Failed to register store stats job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started", zap.Strings("jobs", scheduler.JobNames()))
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}

// openStore returns the job store for the configured driver. The gorm handle
// is nil for the in-memory store.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, service.JobStore, error) {
	if cfg.Database.Driver == "memory" {
		log.Warn("Using in-memory job store, data is lost on restart")
		return nil, repository.NewMemoryJobRepository(), nil
	}

	db, err := database.NewDatabase(ctx, &cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, cfg.Database.Driver, log); err != nil {
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return db, repository.NewJobRepository(db), nil
}

func closeQuietly(log *zap.Logger, name string, v any) {
	c, ok := v.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		log.Warn("Error closing "+name, zap.Error(err))
	}
}
