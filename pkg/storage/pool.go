package storage

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// PoolConfig holds connection pool configuration for the history database.
type PoolConfig struct {
	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of connections in the idle pool.
	// Default: 2
	MaxIdleConns int

	// ConnMaxLifetime is the maximum amount of time a connection may be reused.
	// Default: 30 minutes
	ConnMaxLifetime time.Duration

	// ConnMaxIdleTime is the maximum amount of time a connection may be idle.
	// Default: 5 minutes
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig returns pool settings for a run-history sink. History
// writes happen once per run, so a small pool is enough.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// SQLitePoolConfig returns pool settings for SQLite. A single connection
// avoids "database is locked" errors and keeps ":memory:" databases alive
// for the lifetime of the pool.
func SQLitePoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
}

// PoolOption configures connection pool settings.
type PoolOption interface {
	applyPool(*PoolConfig)
}

type poolOptionFunc func(*PoolConfig)

func (f poolOptionFunc) applyPool(c *PoolConfig) { f(c) }

// WithPoolConfig replaces the whole configuration, typically with one of the
// presets. Options after it still apply.
func WithPoolConfig(cfg PoolConfig) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		*c = cfg
	})
}

// MaxOpenConns sets the maximum number of open connections.
// Set to 0 for unlimited.
func MaxOpenConns(n int) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		c.MaxOpenConns = n
	})
}

// MaxIdleConns sets the maximum number of idle connections.
func MaxIdleConns(n int) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		c.MaxIdleConns = n
	})
}

// ConnMaxLifetime sets the maximum connection lifetime. 0 means no limit.
func ConnMaxLifetime(d time.Duration) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		c.ConnMaxLifetime = d
	})
}

// ConnMaxIdleTime sets the maximum idle time for connections. 0 means no limit.
func ConnMaxIdleTime(d time.Duration) PoolOption {
	return poolOptionFunc(func(c *PoolConfig) {
		c.ConnMaxIdleTime = d
	})
}

// ConfigurePool applies pool configuration to a GORM database connection,
// starting from DefaultPoolConfig.
func ConfigurePool(db *gorm.DB, opts ...PoolOption) error {
	config := DefaultPoolConfig()
	for _, opt := range opts {
		opt.applyPool(&config)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	return nil
}

// NewGormStorageWithPool configures the pool and returns a GormStorage.
//
// Example:
//
//	history, err := NewGormStorageWithPool(db, WithPoolConfig(SQLitePoolConfig()))
func NewGormStorageWithPool(db *gorm.DB, opts ...PoolOption) (*GormStorage, error) {
	if err := ConfigurePool(db, opts...); err != nil {
		return nil, err
	}
	return NewGormStorage(db), nil
}
