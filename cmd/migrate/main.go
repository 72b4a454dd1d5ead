package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/angelmondragon/solarpo-backend/pkg/config"
	"github.com/angelmondragon/solarpo-backend/pkg/db"
	"github.com/angelmondragon/solarpo-backend/pkg/logger"
	"github.com/angelmondragon/solarpo-backend/pkg/migrate"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(connect).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// target is the database a schema command runs against.
type target struct {
	logg   *logger.Logger
	sqlDB  *sql.DB
	sqlite func(ctx context.Context) error
	close  func() error
}

type connectFunc func(ctx context.Context) (*target, error)

// connect loads config and opens the configured database. In sqlite mode only
// the model-driven schema sync is available.
func connect(ctx context.Context) (*target, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logg := newLogger(cfg)

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	t := &target{logg: logg, close: dbClient.Close}
	if cfg.FeatureFlags.UseSQLite {
		t.sqlite = func(ctx context.Context) error {
			return migrate.AutoMigrateSQLite(dbClient.DB().WithContext(ctx))
		}
		return t, nil
	}
	t.sqlDB, err = dbClient.DB().DB()
	if err != nil {
		_ = dbClient.Close()
		return nil, fmt.Errorf("sql database: %w", err)
	}
	return t, nil
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "migrate",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})
}

func newApp(open connectFunc) *cli.App {
	dirFlag := &cli.StringFlag{Name: "dir", Value: migrate.DefaultDir, Usage: "goose migrations directory"}

	gooseCommand := func(cmd migrate.Command, usage string) *cli.Command {
		return &cli.Command{
			Name:  string(cmd),
			Usage: usage,
			Flags: []cli.Flag{dirFlag},
			Action: func(c *cli.Context) error {
				return withTarget(c, open, cmd == migrate.CommandUp, func(ctx context.Context, t *target) error {
					return migrate.Run(ctx, t.sqlDB, c.String("dir"), cmd)
				})
			},
		}
	}

	return &cli.App{
		Name:  "migrate",
		Usage: "Manage the purchase order database schema",
		Commands: []*cli.Command{
			gooseCommand(migrate.CommandUp, "Apply all pending migrations"),
			gooseCommand(migrate.CommandDown, "Roll back the latest migration"),
			gooseCommand(migrate.CommandStatus, "Print applied and pending migrations"),
			gooseCommand(migrate.CommandRedo, "Roll back and reapply the latest migration"),
			{
				Name:      "to",
				Usage:     "Migrate up or down to a specific version",
				ArgsUsage: "YYYYMMDDHHMMSS",
				Flags:     []cli.Flag{dirFlag},
				Action: func(c *cli.Context) error {
					version := c.Args().First()
					if _, err := migrate.ParseVersion(version); err != nil {
						return cli.Exit(err.Error(), 2)
					}
					return withTarget(c, open, false, func(ctx context.Context, t *target) error {
						return migrate.MigrateToVersion(ctx, t.sqlDB, c.String("dir"), version)
					})
				},
			},
			{
				Name:      "create",
				Usage:     "Write an empty SQL migration",
				ArgsUsage: "NAME",
				Flags:     []cli.Flag{dirFlag},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("create takes exactly one migration name", 2)
					}
					path, err := migrate.CreateSQLMigration(c.String("dir"), c.Args().First())
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Fprintln(c.App.Writer, "created", path)
					return nil
				},
			},
			{
				Name:  "validate",
				Usage: "Check migration file names and goose annotations",
				Flags: []cli.Flag{dirFlag},
				Action: func(c *cli.Context) error {
					if err := migrate.ValidateDir(c.String("dir")); err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Fprintln(c.App.Writer, "migrations valid")
					return nil
				},
			},
		},
	}
}

// withTarget opens the database, runs fn and closes it. SQLite targets only
// support up, which syncs the schema from the models.
func withTarget(c *cli.Context, open connectFunc, allowSQLite bool, fn func(context.Context, *target) error) error {
	t, err := open(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer func() { _ = t.close() }()

	ctx := t.logg.WithFields(c.Context, map[string]any{"cmd": c.Command.Name, "dir": c.String("dir")})
	if t.sqlite != nil {
		if !allowSQLite {
			return cli.Exit("sqlite mode only supports up", 2)
		}
		if err := t.sqlite(ctx); err != nil {
			t.logg.Error(ctx, "sqlite schema sync failed", err)
			return cli.Exit(err.Error(), 1)
		}
		t.logg.Info(ctx, "sqlite schema up to date")
		return nil
	}

	if err := fn(ctx, t); err != nil {
		t.logg.Error(ctx, "migration failed", err)
		return cli.Exit(err.Error(), 1)
	}
	t.logg.Info(ctx, "migration complete")
	return nil
}
