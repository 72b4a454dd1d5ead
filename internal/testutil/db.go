// Package testutil opens isolated SQLite databases for repository tests.
package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/solarpo-backend/pkg/db"
	"github.com/angelmondragon/solarpo-backend/pkg/migrate"
)

// NewDB returns a fresh in-memory database with the full schema. The pool is
// pinned to one connection, so queries issued inside a transaction must use
// the transaction handle.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrate.AutoMigrateSQLite(conn))
	return conn
}

// NewClient wraps NewDB in the service's db client.
func NewClient(t *testing.T) (*db.Client, *gorm.DB) {
	t.Helper()
	conn := NewDB(t)
	return db.NewFromConn(conn), conn
}
