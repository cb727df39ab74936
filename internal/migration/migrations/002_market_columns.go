package migrations

import (
	"gorm.io/gorm"

	"lmsrexchange/internal/migration"
)

func init() {
	migration.Register("002_market_columns", migrate002)
}

// migrate002 backfills columns added after the initial schema: try the
// batch form first (works on postgres), then fall back to per-column
// statements and ignore "already exists" errors (SQLite has no ADD
// COLUMN IF NOT EXISTS).
func migrate002(db *gorm.DB) error {
	batch := `ALTER TABLE markets
		ADD COLUMN IF NOT EXISTS category TEXT DEFAULT 'general',
		ADD COLUMN IF NOT EXISTS criteria_path TEXT,
		ADD COLUMN IF NOT EXISTS criteria_operator TEXT,
		ADD COLUMN IF NOT EXISTS criteria_value_json TEXT`

	if err := db.Exec(batch).Error; err != nil {
		columns := []string{
			"ALTER TABLE markets ADD COLUMN category TEXT DEFAULT 'general'",
			"ALTER TABLE markets ADD COLUMN criteria_path TEXT",
			"ALTER TABLE markets ADD COLUMN criteria_operator TEXT",
			"ALTER TABLE markets ADD COLUMN criteria_value_json TEXT",
		}
		for _, stmt := range columns {
			db.Exec(stmt) // ignore errors for columns that already exist
		}
	}
	return nil
}
