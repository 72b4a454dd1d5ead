package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/solarpo-backend/internal/app"
	"github.com/angelmondragon/solarpo-backend/internal/cron"
	"github.com/angelmondragon/solarpo-backend/pkg/config"
	"github.com/angelmondragon/solarpo-backend/pkg/db"
	"github.com/angelmondragon/solarpo-backend/pkg/instance"
	"github.com/angelmondragon/solarpo-backend/pkg/logger"
	"github.com/angelmondragon/solarpo-backend/pkg/metrics"
	"github.com/angelmondragon/solarpo-backend/pkg/migrate"
	"github.com/angelmondragon/solarpo-backend/pkg/outbox"
	"github.com/angelmondragon/solarpo-backend/pkg/redis"
)

const serviceName = "cron-worker"

func main() {
	bootLog := logger.New(logger.Options{ServiceName: serviceName})
	if err := godotenv.Load(); err != nil {
		bootLog.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Env:         cfg.App.Env,
		Instance:    instance.GetID(serviceName),
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"interval": cfg.Scheduler.Interval.String(),
		"run_once": cfg.Scheduler.RunOnce,
	})

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		stop()
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer closeWith(logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	var (
		redisClient *redis.Client
		lock        cron.Lock = &cron.ProcessLock{}
	)
	if cfg.Redis.Enabled() {
		if redisClient, err = redis.New(ctx, cfg.Redis, logg); err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		defer closeWith(logg, "redis", redisClient.Close)
		if lock, err = cron.NewRedisLock(redisClient, cfg.App.Env, cfg.Scheduler.LockTTL); err != nil {
			return fmt.Errorf("cron lock: %w", err)
		}
	} else {
		logg.Warn(ctx, "redis not configured, run a single cron worker")
	}

	services, err := app.New(cfg, dbClient, redisClient, prometheus.DefaultRegisterer, logg)
	if err != nil {
		return fmt.Errorf("wire procurement services: %w", err)
	}
	registry, err := buildRegistry(cfg, logg, dbClient, services)
	if err != nil {
		return err
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    metrics.NewBatchMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Scheduler.Interval,
		JobTimeout: cfg.Scheduler.JobTimeout,
	})
	if err != nil {
		return fmt.Errorf("cron service: %w", err)
	}

	if cfg.Scheduler.RunOnce {
		ran, err := service.RunOnce(ctx)
		if err == nil && !ran {
			logg.Warn(ctx, "cron cycle skipped, another instance holds the lock")
		}
		return err
	}

	shutdownMetrics := serveMetrics(ctx, logg, cfg.Scheduler.MetricsPort)
	defer shutdownMetrics()

	logg.Info(ctx, "starting cron worker")
	return service.Run(ctx)
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, services *app.App) (*cron.Registry, error) {
	sweepJob, err := cron.NewMaterialOrderSweepJob(cron.MaterialOrderSweepJobParams{
		Logger: logg,
		Gate:   services.Gate,
		Limit:  cfg.Scheduler.SweepLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("sweep job: %w", err)
	}
	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        logg,
		DB:            dbClient,
		Repository:    outbox.NewRepository(dbClient.DB()),
		RetentionDays: cfg.Scheduler.OutboxRetentionDays,
		DeadAttempts:  cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("outbox retention job: %w", err)
	}
	return cron.NewRegistry(sweepJob, retentionJob)
}

// serveMetrics exposes the prometheus registry for the long-running worker.
func serveMetrics(ctx context.Context, logg *logger.Logger, port string) func() {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logg.WithField(ctx, "metrics_port", port), "metrics server stopped", err)
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}
}

func closeWith(logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(context.Background(), "error closing "+name, err)
	}
}
