package migrations

import (
	"gorm.io/gorm"

	"lmsrexchange/internal/migration"
)

func init() {
	migration.Register("001_indexes", migrate001)
}

// migrate001 ensures the (market, timestamp) composite indexes exist
// even when AutoMigrate's own index inference changes across gorm
// versions. CREATE INDEX IF NOT EXISTS is idempotent on both sqlite
// and postgres, so no per-driver fallback is needed here (unlike
// ALTER TABLE ADD COLUMN, which SQLite doesn't support with IF NOT
// EXISTS).
func migrate001(db *gorm.DB) error {
	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_tx_market_ts ON transactions(market_id, timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_price_market_ts ON price_points(market_id, timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_markets_status_close ON markets(status, close_at)",
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
