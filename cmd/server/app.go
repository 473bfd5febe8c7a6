package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/draftforge/draftforge-api/internal/api"
	"github.com/draftforge/draftforge-api/internal/config"
	"github.com/draftforge/draftforge-api/internal/events"
	"github.com/draftforge/draftforge-api/internal/executors"
	"github.com/draftforge/draftforge-api/internal/job"
	"github.com/draftforge/draftforge-api/internal/platform/gemini"
	"github.com/draftforge/draftforge-api/internal/platform/logger"
	"github.com/draftforge/draftforge-api/internal/platform/postgres"
	"github.com/draftforge/draftforge-api/internal/reconciler"
	"github.com/draftforge/draftforge-api/internal/service"
	"github.com/draftforge/draftforge-api/internal/service/auth"
	"github.com/draftforge/draftforge-api/internal/worker"
)

// application holds the wired-up components of the server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	router http.Handler
}

// Close releases the application's resources.
func (a *application) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close database", "error", err)
		}
	}
}

// initializeApp loads configuration and wires every component together:
// config -> logger -> database (+ migrations) -> stores -> generator ->
// executors -> worker/reconciler -> services -> HTTP router.
func initializeApp() (*application, error) {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := setupDatabase(ctx, cfg, appLogger)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, appLogger); err != nil {
		return nil, err
	}

	jobStore := postgres.NewPostgresJobStore(db)
	materialStore := postgres.NewPostgresMaterialStore(db)

	generator, err := gemini.NewGenerator(ctx, appLogger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create content generator: %w", err)
	}

	registry := job.NewRegistry()
	if err := executors.RegisterAll(registry, generator, materialStore, appLogger); err != nil {
		return nil, fmt.Errorf("failed to register executors: %w", err)
	}

	emitter := events.NewLogEmitter(appLogger)

	jobWorker, err := worker.New(jobStore, registry, emitter, worker.Config{
		HeartbeatInterval: cfg.Worker.HeartbeatInterval,
		MaxYields:         cfg.Worker.MaxYields,
		BackoffBase:       cfg.Worker.BackoffBase,
		BackoffMax:        cfg.Worker.BackoffMax,
		MaxJobsPerRun:     cfg.Worker.MaxJobsPerRun,
		MaxPayloadBytes:   cfg.Worker.MaxPayloadBytes,
	}, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker: %w", err)
	}

	checker, err := executors.NewMaterialChecker(materialStore)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact checker: %w", err)
	}

	jobReconciler, err := reconciler.New(jobStore, checker, emitter, reconciler.Config{
		StallThreshold: cfg.Reconciler.StallThreshold,
	}, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create reconciler: %w", err)
	}

	jobService, err := service.NewJobService(
		jobStore, materialStore, registry, cfg.Worker.MaxPayloadBytes, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create job service: %w", err)
	}

	tokens, err := auth.NewTriggerTokenService(cfg.Server.TriggerTokenSecret, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create trigger token service: %w", err)
	}

	router := buildRouter(
		api.NewJobHandler(jobService),
		api.NewTriggerHandler(jobWorker, jobReconciler),
		tokens,
	)

	appLogger.Info("application initialized",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"job_types", registry.Types())

	return &application{
		config: cfg,
		logger: appLogger,
		db:     db,
		router: router,
	}, nil
}
