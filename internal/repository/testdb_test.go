package repository

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/storepulse/internal/database"
)

// openTestDB opens a migrated in-memory SQLite database and pins the
// active driver for the duration of the test.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	previous := database.GetDBDriver()
	database.SetDriver("sqlite3")
	t.Cleanup(func() { database.SetDriver(previous) })

	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// seedCatalog inserts a small users/stores/products fixture shared by the
// report and export tests.
func seedCatalog(t *testing.T, db *sqlx.DB) {
	t.Helper()

	stmts := []string{
		`INSERT INTO users (id, name, email) VALUES
			(1, 'Ada', 'ada@example.com'),
			(2, 'Grace', 'grace@example.com')`,
		`INSERT INTO stores (id, name) VALUES
			(1, 'North Store'),
			(2, 'South Store')`,
		`INSERT INTO products (id, title, store_id, published) VALUES
			(10, 'Red Chair', 1, 1),
			(11, 'Blue Table', 1, 1),
			(12, 'Green Lamp', 2, 1),
			(13, 'Hidden Rug', 2, 0)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}
