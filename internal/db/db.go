// Package db provides database connection management and the repositories
// backing the catalog, schedule definitions and generated timelines.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/stwalsh4118/lineup/internal/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute

	// sqlite waits this long on a locked database before returning SQLITE_BUSY
	busyTimeoutMs = 5000
)

// DB wraps a GORM database connection
type DB struct {
	*gorm.DB
}

// New creates a new database connection with WAL enabled and the default ping timeout.
// dbPath should be the path to the SQLite database file, e.g. "./data/lineup.db".
func New(dbPath string) (*DB, error) {
	return Open(config.DatabaseConfig{
		Path:              dbPath,
		ConnectionTimeout: 5 * time.Second,
		EnableWAL:         true,
	})
}

// Open creates a new database connection from the database configuration section
func Open(cfg config.DatabaseConfig) (*DB, error) {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=%d", cfg.Path, busyTimeoutMs)
	if cfg.EnableWAL {
		dsn += "&_journal_mode=WAL"
	}

	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		// Multi-statement writes go through WithRepositories
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		Logger:                 newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	timeout := cfg.ConnectionTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: gormDB}, nil
}

// Health checks database connectivity
func (db *DB) Health(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// GetSQLDB returns the underlying sql.DB for migrations
func (db *DB) GetSQLDB() (*sql.DB, error) {
	return db.DB.DB()
}
