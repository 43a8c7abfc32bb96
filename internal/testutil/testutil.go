// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

// Package testutil provides shared test helpers.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/yuno-tw/stb-api/internal/store"
)

// TestDB creates a temporary SQLite database with migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "stb-test.db")

	cfg := store.DefaultDBConfig(store.DialectSQLite)
	cfg.Path = dbPath

	db, err := store.NewDB(cfg)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db, store.DialectSQLite); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
	}
}

// TestStore creates a Store over a temporary migrated SQLite database.
func TestStore(t *testing.T) (*store.Store, func()) {
	t.Helper()
	db, cleanup := TestDB(t)
	return store.New(db, store.DialectSQLite), cleanup
}
