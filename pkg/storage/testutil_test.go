package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB opens a silent in-memory SQLite database pinned to a single
// connection so every query sees the same database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open in-memory sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// newTestStorage returns a migrated GormStorage with retries disabled.
func newTestStorage(t *testing.T) *GormStorage {
	t.Helper()
	s := NewGormStorage(openTestDB(t))
	s.SetRetryConfig(RetryConfig{MaxAttempts: 1})
	require.NoError(t, s.Migrate(context.Background()), "migrate schema")
	return s
}
