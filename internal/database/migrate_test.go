package database

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	withDriver(t, "sqlite3")

	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate(t *testing.T) {
	t.Run("CreatesTables", func(t *testing.T) {
		db := openTestDB(t)
		require.NoError(t, Migrate(context.Background(), db))

		for _, table := range []string{"activity_events", "active_sessions", "users", "stores", "products"} {
			var count int
			err := db.Get(&count, "SELECT COUNT(*) FROM "+table)
			assert.NoError(t, err, "table %s should exist", table)
			assert.Equal(t, 0, count)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		db := openTestDB(t)
		require.NoError(t, Migrate(context.Background(), db))
		require.NoError(t, Migrate(context.Background(), db))
	})

	t.Run("AcceptsWrites", func(t *testing.T) {
		db := openTestDB(t)
		require.NoError(t, Migrate(context.Background(), db))

		_, err := db.Exec("INSERT INTO activity_events (product_id, kind, created_at) VALUES (1, 'visit', '2026-08-01 10:00:00')")
		require.NoError(t, err)

		_, err = db.Exec("INSERT INTO active_sessions (visitor_key, user_id, session_token, last_activity) VALUES ('guest:abc', 0, 'abc', '2026-08-01 10:00:00')")
		require.NoError(t, err)

		var kind string
		require.NoError(t, db.Get(&kind, "SELECT kind FROM activity_events WHERE product_id = 1"))
		assert.Equal(t, "visit", kind)
	})
}
