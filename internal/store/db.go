// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

// Package store provides database access for users and persisted log
// batches. SQLite is the default dialect; MySQL is supported for
// deployments that run against the original schema.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"

	_ "github.com/go-sql-driver/mysql" // MySQL driver for database/sql
	_ "modernc.org/sqlite"             // SQLite driver for database/sql
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var migrations embed.FS

// Supported dialects.
const (
	DialectSQLite = "sqlite"
	DialectMySQL  = "mysql"
)

// DBConfig holds database connection options.
type DBConfig struct {
	Dialect string // DialectSQLite or DialectMySQL
	Path    string // SQLite file path
	DSN     string // MySQL DSN

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultDBConfig returns sensible defaults for the given dialect.
func DefaultDBConfig(dialect string) DBConfig {
	return DBConfig{
		Dialect:         dialect,
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// NewDB opens a database connection for the configured dialect and
// verifies it with a ping.
func NewDB(cfg DBConfig) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.Dialect {
	case DialectSQLite:
		db, err = sql.Open("sqlite", cfg.Path)
	case DialectMySQL:
		db, err = sql.Open("mysql", cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", cfg.Dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if cfg.Dialect == DialectSQLite {
		// Configure SQLite for better performance and concurrency
		pragmas := []string{
			"PRAGMA journal_mode=WAL",   // Write-Ahead Logging for better concurrency
			"PRAGMA busy_timeout=5000",  // Wait 5s when database is locked
			"PRAGMA synchronous=NORMAL", // Good balance of safety and speed
			"PRAGMA foreign_keys=ON",    // Enforce foreign key constraints
			"PRAGMA temp_store=MEMORY",  // Store temp tables in memory
		}
		for _, pragma := range pragmas {
			if _, err := db.Exec(pragma); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
			}
		}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// Migrate runs all pending database migrations for the given dialect.
func Migrate(db *sql.DB, dialect string) error {
	gooseDialect := "sqlite3"
	dir := "migrations/sqlite"
	if dialect == DialectMySQL {
		gooseDialect = "mysql"
		dir = "migrations/mysql"
	}

	sub, err := fs.Sub(migrations, dir)
	if err != nil {
		return fmt.Errorf("locating migrations: %w", err)
	}
	goose.SetBaseFS(sub)

	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// Store wraps a database handle with dialect-aware queries.
type Store struct {
	db      *sql.DB
	dialect string
}

// New creates a Store over an open database handle.
func New(db *sql.DB, dialect string) *Store {
	return &Store{db: db, dialect: dialect}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}
