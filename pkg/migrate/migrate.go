package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/pressly/goose/v3"
)

// DefaultDir holds the Postgres migrations relative to the repo root.
const DefaultDir = "pkg/migrate/migrations"

// Command is a goose command the migrate tool exposes.
type Command string

const (
	CommandUp     Command = "up"
	CommandDown   Command = "down"
	CommandStatus Command = "status"
	CommandRedo   Command = "redo"
)

var (
	errNoDB  = errors.New("migrate: db is required")
	errNoDir = errors.New("migrate: dir is required")

	dialectOnce sync.Once
	dialectErr  error
)

// ParseCommand accepts only the commands that run against a live database.
func ParseCommand(raw string) (Command, error) {
	switch c := Command(raw); c {
	case CommandUp, CommandDown, CommandStatus, CommandRedo:
		return c, nil
	}
	return "", fmt.Errorf("migrate: unsupported command %q", raw)
}

// Run executes cmd against db using the SQL files in dir. The files are
// Postgres only; SQLite databases go through AutoMigrateSQLite.
func Run(ctx context.Context, db *sql.DB, dir string, cmd Command) error {
	if err := prepare(db, dir); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, string(cmd), db, dir); err != nil {
		return fmt.Errorf("goose %s: %w", cmd, err)
	}
	return nil
}

// MigrateToVersion moves the schema up or down to the given goose version.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir string, targetVersion string) error {
	target, err := ParseVersion(targetVersion)
	if err != nil {
		return err
	}
	if err := prepare(db, dir); err != nil {
		return err
	}

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}
	switch {
	case current < target:
		err = goose.UpToContext(ctx, db, dir, target)
	case current > target:
		err = goose.DownToContext(ctx, db, dir, target)
	}
	if err != nil {
		return fmt.Errorf("goose %d -> %d: %w", current, target, err)
	}
	return nil
}

// ParseVersion validates a YYYYMMDDHHMMSS migration version.
func ParseVersion(raw string) (int64, error) {
	if len(raw) != 14 {
		return 0, fmt.Errorf("migrate: version %q must be YYYYMMDDHHMMSS", raw)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("migrate: version %q: %w", raw, err)
	}
	return v, nil
}

func prepare(db *sql.DB, dir string) error {
	if db == nil {
		return errNoDB
	}
	if dir == "" {
		return errNoDir
	}
	dialectOnce.Do(func() {
		dialectErr = goose.SetDialect("postgres")
	})
	if dialectErr != nil {
		return fmt.Errorf("set goose dialect: %w", dialectErr)
	}
	return nil
}
