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

	"github.com/angelmondragon/solarpo-backend/api/routes"
	"github.com/angelmondragon/solarpo-backend/internal/app"
	"github.com/angelmondragon/solarpo-backend/pkg/config"
	"github.com/angelmondragon/solarpo-backend/pkg/db"
	"github.com/angelmondragon/solarpo-backend/pkg/instance"
	"github.com/angelmondragon/solarpo-backend/pkg/logger"
	"github.com/angelmondragon/solarpo-backend/pkg/migrate"
	"github.com/angelmondragon/solarpo-backend/pkg/redis"
)

const (
	serviceName       = "api"
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
)

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

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		stop()
		os.Exit(1)
	}
}

// run owns every resource so deferred closes happen before main exits.
func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer closeWith(logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		if redisClient, err = redis.New(ctx, cfg.Redis, logg); err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		defer closeWith(logg, "redis", redisClient.Close)
	} else {
		logg.Warn(ctx, "redis not configured, generation lock is process-local")
	}

	services, err := app.New(cfg, dbClient, redisClient, prometheus.DefaultRegisterer, logg)
	if err != nil {
		return fmt.Errorf("wire procurement services: %w", err)
	}

	deps := routes.Deps{
		DB:        dbClient,
		Generator: services.Gate,
		Orders:    services.Orders,
		Gatherer:  prometheus.DefaultGatherer,
	}
	// A typed nil would defeat the router's nil check on the interface.
	if redisClient != nil {
		deps.Redis = redisClient
	}

	addr := ":" + listenPort(cfg)
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	ctx = logg.WithField(ctx, "addr", addr)

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logg.Info(ctx, "api server stopped")
	return nil
}

// listenPort prefers PORT, which Cloud Run injects, over the configured port.
func listenPort(cfg *config.Config) string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return cfg.App.Port
}

func closeWith(logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(context.Background(), "error closing "+name, err)
	}
}
