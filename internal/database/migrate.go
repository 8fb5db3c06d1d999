package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Migrate creates the StorePulse tables if they do not exist. The catalog
// tables (users, products, stores) normally belong to the host platform;
// they are created here too so the service can run standalone and in tests.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range tableStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	// MySQL has no CREATE INDEX IF NOT EXISTS; a duplicate-index error on
	// re-run is harmless, so index creation is best-effort on all drivers.
	for _, stmt := range indexStatements() {
		db.ExecContext(ctx, stmt)
	}
	return nil
}

func tableStatements() []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS activity_events (
			id %s,
			product_id BIGINT NOT NULL,
			kind VARCHAR(20) NOT NULL,
			created_at %s NOT NULL
		)`, pkAutoIncrement(), timestampType()),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS active_sessions (
			visitor_key VARCHAR(128) NOT NULL PRIMARY KEY,
			user_id BIGINT NOT NULL DEFAULT 0,
			session_token VARCHAR(64) NOT NULL,
			last_activity %s NOT NULL
		)`, timestampType()),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id %s,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL
		)`, pkAutoIncrement()),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS stores (
			id %s,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL DEFAULT ''
		)`, pkAutoIncrement()),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS products (
			id %s,
			title VARCHAR(255) NOT NULL,
			store_id BIGINT NOT NULL,
			published %s NOT NULL DEFAULT %s
		)`, pkAutoIncrement(), boolType(), boolDefaultTrue()),
	}
}

func indexStatements() []string {
	return []string{
		`CREATE INDEX idx_activity_events_product ON activity_events (product_id)`,
		`CREATE INDEX idx_activity_events_kind ON activity_events (kind)`,
		`CREATE INDEX idx_activity_events_created ON activity_events (created_at)`,
		`CREATE INDEX idx_active_sessions_user ON active_sessions (user_id)`,
		`CREATE INDEX idx_active_sessions_activity ON active_sessions (last_activity)`,
		`CREATE INDEX idx_products_store ON products (store_id)`,
	}
}

func pkAutoIncrement() string {
	switch {
	case IsPostgreSQL():
		return "BIGSERIAL PRIMARY KEY"
	case IsSQLite():
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	default:
		return "BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY"
	}
}

func timestampType() string {
	if IsPostgreSQL() {
		return "TIMESTAMP"
	}
	return "DATETIME"
}

func boolType() string {
	switch {
	case IsPostgreSQL():
		return "BOOLEAN"
	case IsSQLite():
		return "INTEGER"
	default:
		return "TINYINT(1)"
	}
}

func boolDefaultTrue() string {
	if IsPostgreSQL() {
		return "TRUE"
	}
	return "1"
}
