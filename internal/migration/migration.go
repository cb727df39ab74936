// Package migration is a small self-registering migration registry:
// each migrations/*.go file registers a named, idempotent Func from
// its own init(), and RunAll applies them in name order.
package migration

import (
	"fmt"
	"sort"

	"gorm.io/gorm"
)

// Func applies one migration against db. Migrations must be
// idempotent — RunAll may be invoked against a database that already
// has some or all of them applied.
type Func func(db *gorm.DB) error

var registry = map[string]Func{}

// Register adds a migration under a unique name. Called from init()
// in each migrations/*.go file, e.g.
// migration.Register("001_indexes", migrate001).
func Register(name string, fn Func) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("migration: duplicate registration for %q", name))
	}
	registry[name] = fn
}

// RunAll applies every registered migration in name order. Names carry
// a zero-padded sequence prefix (see migrations/) so lexical order is
// the order they were added.
func RunAll(db *gorm.DB) error {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := registry[name](db); err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
	}
	return nil
}
