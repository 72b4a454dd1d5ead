package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/solarpo-backend/pkg/config"
	"github.com/angelmondragon/solarpo-backend/pkg/db"
	"github.com/angelmondragon/solarpo-backend/pkg/db/models"
	"github.com/angelmondragon/solarpo-backend/pkg/logger"
)

// MaybeRunDev executes migrations automatically when the app is running in dev
// mode and the feature flag is enabled. SQLite databases are always brought up
// to date from the models since the SQL files are Postgres specific.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg.FeatureFlags.UseSQLite {
		ctx = logg.WithField(ctx, "path", cfg.FeatureFlags.SQLitePath)
		logg.Info(ctx, "auto-migrating sqlite schema")
		if err := AutoMigrateSQLite(client.DB().WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrating sqlite: %w", err)
		}
		return nil
	}

	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})
	logg.Info(ctx, "running Goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, DefaultDir, CommandUp); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}

// Models lists every table owned by the service in dependency order.
func Models() []any {
	return []any{
		&models.Supplier{},
		&models.SupplierProduct{},
		&models.SupplierOffer{},
		&models.InstallationJob{},
		&models.MaterialOrder{},
		&models.MaterialOrderItem{},
		&models.POSequence{},
		&models.MaterialGenerationRun{},
		&models.ActivityLog{},
		&models.OutboxEvent{},
		&models.OutboxDLQ{},
	}
}

// AutoMigrateSQLite creates the schema, including unique indexes, from the
// GORM models. Used for local SQLite mode and repository tests.
func AutoMigrateSQLite(conn *gorm.DB) error {
	return conn.AutoMigrate(Models()...)
}
