package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/angelmondragon/solarpo-backend/internal/app"
	"github.com/angelmondragon/solarpo-backend/pkg/config"
	"github.com/angelmondragon/solarpo-backend/pkg/db"
	"github.com/angelmondragon/solarpo-backend/pkg/logger"
	"github.com/angelmondragon/solarpo-backend/pkg/migrate"
	"github.com/angelmondragon/solarpo-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "materials", Output: os.Stderr})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(bootstrap).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads config and wires the gate against the configured database.
// Logs go to stderr so stdout stays clean for --json.
func bootstrap(c *cli.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logg := logger.New(logger.Options{
		ServiceName: "materials",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})
	ctx := logg.WithField(c.Context, "command", c.Command.Name)

	rt := &runtime{}
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}
	rt.closers = append(rt.closers, dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		_ = rt.close()
		return nil, fmt.Errorf("dev migrations: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			_ = rt.close()
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		rt.closers = append(rt.closers, redisClient.Close)
	}

	// one-shot process; nothing scrapes it
	services, err := app.New(cfg, dbClient, redisClient, prometheus.NewRegistry(), logg)
	if err != nil {
		_ = rt.close()
		return nil, err
	}
	rt.gate = services.Gate
	return rt, nil
}
