package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mealsmith/mealsmith-api/internal/config"
	"github.com/mealsmith/mealsmith-api/internal/mailer"
	"github.com/mealsmith/mealsmith-api/internal/platform/gemini"
	"github.com/mealsmith/mealsmith-api/internal/platform/heb"
	"github.com/mealsmith/mealsmith-api/internal/platform/postgres"
	"github.com/mealsmith/mealsmith-api/internal/scheduler"
	"github.com/mealsmith/mealsmith-api/internal/service"
	"github.com/mealsmith/mealsmith-api/internal/task"
)

// application holds the wired dependencies of one server process.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	genQueue   *task.Queue
	schedQueue *task.Queue
	scheduler  *scheduler.Scheduler

	planService   *service.PlanService
	statusService *service.StatusService
}

// newApplication wires every component: database, stores, model client,
// queues, scheduler, and services.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := setupDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, logger); err != nil {
		return nil, err
	}

	planStore := postgres.NewPlanStore(db)
	prefStore := postgres.NewPreferenceStore(db)
	mealStore := postgres.NewMealRecordStore(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	planner, err := gemini.NewPlanner(ctx, logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create planner: %w", err)
	}

	mail, err := setupMailer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create mailer: %w", err)
	}

	genQueue := task.NewQueue("generation", task.QueueConfig{
		WorkerCount:          cfg.Queue.GenerationWorkers,
		QueueSize:            100,
		MaxAttempts:          cfg.Queue.MaxAttempts,
		BackoffBase:          cfg.Queue.BackoffBase,
		Limiter:              task.NewAdmissionLimiter(cfg.Queue.RateLimitMax, cfg.Queue.RateLimitWindow),
		CompletedRetainCount: cfg.Queue.CompletedRetainCount,
		CompletedRetainAge:   cfg.Queue.CompletedRetainAge,
		FailedRetainCount:    cfg.Queue.FailedRetainCount,
	}, logger)

	schedQueue := task.NewQueue("scheduling", task.QueueConfig{
		WorkerCount:          cfg.Queue.SchedulingWorkers,
		QueueSize:            100,
		MaxAttempts:          cfg.Queue.MaxAttempts,
		BackoffBase:          cfg.Queue.BackoffBase,
		CompletedRetainCount: cfg.Queue.CompletedRetainCount,
		CompletedRetainAge:   cfg.Queue.CompletedRetainAge,
		FailedRetainCount:    cfg.Queue.FailedRetainCount,
	}, logger)

	planService, err := service.NewPlanService(
		planStore, prefStore, mealStore,
		planner, mail, heb.NewOfflineConnector(),
		genQueue, schedQueue,
		service.PlanServiceConfig{
			TaskConfig: task.PlanGenerationTaskConfig{
				AttemptTimeout:  cfg.LLM.AttemptTimeout,
				RecentMealNames: cfg.Scheduler.RecentMealNames,
			},
			DefaultModelID: cfg.LLM.ModelName,
			TestMode:       cfg.Email.TestMode,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create plan service: %w", err)
	}

	statusService, err := service.NewStatusService(logger, genQueue, schedQueue)
	if err != nil {
		return nil, fmt.Errorf("failed to create status service: %w", err)
	}

	return &application{
		config:        cfg,
		logger:        logger,
		db:            db,
		genQueue:      genQueue,
		schedQueue:    schedQueue,
		scheduler:     scheduler.New(planService, logger),
		planService:   planService,
		statusService: statusService,
	}, nil
}

// setupMailer picks the delivery implementation: log-only in test mode,
// SMTP otherwise.
func setupMailer(cfg *config.Config, logger *slog.Logger) (mailer.Mailer, error) {
	if cfg.Email.TestMode {
		return mailer.NewLogMailer(logger), nil
	}

	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Username: cfg.Email.SMTPUsername,
		Password: cfg.Email.SMTPPassword,
		From:     cfg.Email.From,
	})
}

// run starts the queues, resyncs the scheduler from the stored policies,
// and serves HTTP until a shutdown signal arrives.
func (app *application) run() error {
	app.genQueue.Start()
	app.schedQueue.Start()

	if err := app.recoverPlans(); err != nil {
		return err
	}

	if err := app.resyncScheduler(); err != nil {
		return err
	}
	app.scheduler.Start()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.setupRouter(),
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	serverErrCh := make(chan error, 1)
	go func() {
		app.logger.Info("Starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	select {
	case sig := <-shutdownCh:
		app.logger.Info("Shutting down", "signal", sig.String())
	case err := <-serverErrCh:
		app.logger.Error("Server failed", "error", err)
		app.cleanup()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("Server shutdown failed", "error", err)
	}

	app.cleanup()
	app.logger.Info("Server shutdown completed")
	return nil
}

// recoverPlans re-enqueues generation work a previous run left unfinished,
// so a crash never strands a plan in pending or processing.
func (app *application) recoverPlans() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	recovered, err := app.planService.RecoverUnfinishedPlans(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover unfinished plans: %w", err)
	}
	if recovered > 0 {
		app.logger.Info("Recovered unfinished plans", "count", recovered)
	}
	return nil
}

// resyncScheduler rebuilds the trigger set from the stored schedule
// policies, so triggers survive process restarts.
func (app *application) resyncScheduler() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	policies, err := app.planService.ListSchedulePolicies(ctx)
	if err != nil {
		return fmt.Errorf("failed to load schedule policies: %w", err)
	}

	app.scheduler.Resync(policies)
	return nil
}

// cleanup stops background components in dependency order: no new trigger
// firings, then drain in-flight jobs, then close the database.
func (app *application) cleanup() {
	app.scheduler.Stop()
	app.schedQueue.Stop()
	app.genQueue.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("Failed to close database connection", "error", err)
	}
}
