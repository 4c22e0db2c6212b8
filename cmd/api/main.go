package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldops_backend/internal/config"
	"fieldops_backend/internal/directory"
	"fieldops_backend/internal/estimates"
	apphttp "fieldops_backend/internal/http"
	"fieldops_backend/internal/jobs"
	"fieldops_backend/internal/numbering"
	"fieldops_backend/internal/pricing"
	"fieldops_backend/internal/settings"
	"fieldops_backend/internal/templates"
	"fieldops_backend/internal/workorders"
	"fieldops_backend/internal/worksheets"
	"fieldops_backend/platform/db"
	"fieldops_backend/platform/logger"
	"fieldops_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg.DatabaseURL, cfg.MigrationsDir)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	settingsModule := settings.NewModule(pool)
	numberingSvc := numbering.NewService(numbering.NewRepository(pool), settingsModule.Service())

	pricingModule := pricing.NewModule(pool, settingsModule.Service(), val)
	jobsModule := jobs.NewModule(pool, numberingSvc, log, val)
	worksheetsModule := worksheets.NewModule(pool, log, val)
	templatesModule := templates.NewModule(pool, worksheetsModule.Service(), log, val)
	directoryModule := directory.NewModule(pool, jobsModule.Service(), log, val)

	estimatesModule := estimates.NewModule(pool, worksheetsModule.Service(), pricingModule.Service(),
		jobsModule.Service(), directoryModule.Service(), settingsModule.Service(),
		numberingSvc, log, val)

	// Acceptance flows into execution: the work orders module listens for
	// accepted estimates and materializes their line items as tasks.
	workordersModule := workorders.NewModule(pool, estimatesModule.Service(), numberingSvc, log, val)
	estimatesModule.Service().AddStatusObserver(workordersModule.EstimateObserver())

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: pool,
		Modules: []apphttp.Module{
			settingsModule,
			pricingModule,
			directoryModule,
			jobsModule,
			templatesModule,
			worksheetsModule,
			estimatesModule,
			workordersModule,
		},
	}

	engine := app.BuildEngine()

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
