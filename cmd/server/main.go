package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/recruitops-api/internal/api"
	"github.com/recruitops-api/internal/cache"
	"github.com/recruitops-api/internal/config"
	"github.com/recruitops-api/internal/database"
	"github.com/recruitops-api/internal/repository"
	"github.com/recruitops-api/internal/service"
	"github.com/recruitops-api/internal/sheets"
	"github.com/recruitops-api/pkg/logger"
)

func main() {
	// Initialize logger
	log := logger.New()
	log.Info().Msg("Starting RecruitOps API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.NewWithWriter(os.Stdout, cfg.Log.Level, cfg.Log.Format == "pretty")

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Last-good result cache
	results, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create result cache")
	}
	if r, ok := results.(*cache.Redis); ok {
		defer r.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Msg("Redis unreachable, stale fallback will be unavailable until it recovers")
		}
		cancel()
	}

	// Initialize repositories
	repos := repository.New(db)

	// Spreadsheet fetch chain
	var credential []byte
	if path := cfg.Sheets.CredentialsFile; path != "" {
		credential, err = os.ReadFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to read credentials file")
		}
	}
	fetcher := sheets.NewDefaultChain(cfg.Sheets, credential, log)

	// Initialize services
	services := service.NewServices(repos, fetcher, results, cfg, log)

	// Rebuild refresh timers from stored sources
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	if err := services.Scheduler.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	// Initialize router
	router := api.NewRouter(services, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop refresh timers and wait for in-flight runs
	stop()
	services.Scheduler.Shutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
