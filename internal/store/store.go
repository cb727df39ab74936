// Package store is the transactional persistence layer. It wraps a
// *gorm.DB and exposes typed row accessors only — no ad-hoc query
// surface is part of the core contract.
//
// Concurrent writers serialize at the store boundary (single-writer
// discipline): every mutating operation the trading engine or
// resolver performs happens inside one call to Transaction.
package store

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/glebarez/sqlite"

	"lmsrexchange/internal/migration"
	_ "lmsrexchange/internal/migration/migrations"
	"lmsrexchange/internal/models"
)

// Config selects the backing driver and connection string. Both
// gorm.io/driver/postgres and github.com/glebarez/sqlite are wired
// here rather than committing to a single backend.
type Config struct {
	Driver string // "sqlite" (default, embedded) or "postgres"
	DSN    string // file path for sqlite, connection string for postgres
}

// Store is the persistence layer. The zero value is not usable;
// construct with Open.
type Store struct {
	db *gorm.DB
}

// Open connects to the configured backend, applies the WAL and
// foreign-key pragmas for the embedded case, runs AutoMigrate for the
// core tables, and then the migration registry for anything
// AutoMigrate can't express (indexes, data backfills).
func Open(cfg Config) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	if cfg.Driver == "" || cfg.Driver == "sqlite" {
		if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
			return nil, fmt.Errorf("store: enable WAL: %w", err)
		}
		if err := db.Exec("PRAGMA foreign_keys=ON").Error; err != nil {
			return nil, fmt.Errorf("store: enable foreign keys: %w", err)
		}
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Market{},
		&models.Position{},
		&models.Transaction{},
		&models.PricePoint{},
		&models.Resolution{},
	); err != nil {
		return nil, fmt.Errorf("store: automigrate: %w", err)
	}

	if err := migration.RunAll(db); err != nil {
		return nil, fmt.Errorf("store: migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Transaction is the scoped transaction primitive: every read and
// write fn performs through the *Store it is handed commits
// atomically, or rolls back if fn returns an error (including a
// panic, which gorm recovers and re-panics after rolling back).
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// DB exposes the underlying handle bound to ctx. Every typed accessor
// in operations.go goes through it; the trading engine and resolver
// never call it directly.
func (s *Store) DB(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}
