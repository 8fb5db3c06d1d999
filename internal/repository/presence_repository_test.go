package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/storepulse/internal/models"
)

func TestPresenceSQLRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	t.Run("UpsertInsertsRow", func(t *testing.T) {
		repo := NewPresenceRepository(openTestDB(t))

		err := repo.Upsert(ctx, &models.Presence{
			VisitorKey:   "guest:tok-1",
			SessionToken: "tok-1",
			LastActivity: base,
		})
		require.NoError(t, err)

		got, err := repo.GetByKey(ctx, "guest:tok-1")
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.UserID)
		assert.Equal(t, "tok-1", got.SessionToken)
		assert.True(t, got.LastActivity.Equal(base))
	})

	t.Run("UpsertRefreshesExistingRow", func(t *testing.T) {
		repo := NewPresenceRepository(openTestDB(t))

		require.NoError(t, repo.Upsert(ctx, &models.Presence{
			VisitorKey:   "user:1",
			UserID:       1,
			LastActivity: base,
		}))
		require.NoError(t, repo.Upsert(ctx, &models.Presence{
			VisitorKey:   "user:1",
			UserID:       1,
			LastActivity: base.Add(time.Minute),
		}))

		got, err := repo.GetByKey(ctx, "user:1")
		require.NoError(t, err)
		assert.True(t, got.LastActivity.Equal(base.Add(time.Minute)))

		var count int
		require.NoError(t, repo.db.Get(&count, "SELECT COUNT(*) FROM active_sessions"))
		assert.Equal(t, 1, count, "upsert must not duplicate rows")
	})

	t.Run("UpsertAppliesInArrivalOrder", func(t *testing.T) {
		repo := NewPresenceRepository(openTestDB(t))

		require.NoError(t, repo.Upsert(ctx, &models.Presence{
			VisitorKey:   "user:9",
			UserID:       9,
			LastActivity: base.Add(10 * time.Second),
		}))
		require.NoError(t, repo.Upsert(ctx, &models.Presence{
			VisitorKey:   "user:9",
			UserID:       9,
			LastActivity: base.Add(5 * time.Second),
		}))

		got, err := repo.GetByKey(ctx, "user:9")
		require.NoError(t, err)
		assert.True(t, got.LastActivity.Equal(base.Add(5*time.Second)),
			"the write applied last wins, even with an earlier timestamp")
	})

	t.Run("UpsertNeverDowngradesUserID", func(t *testing.T) {
		repo := NewPresenceRepository(openTestDB(t))

		require.NoError(t, repo.Upsert(ctx, &models.Presence{
			VisitorKey:   "user:7",
			UserID:       7,
			LastActivity: base,
		}))
		require.NoError(t, repo.Upsert(ctx, &models.Presence{
			VisitorKey:   "user:7",
			UserID:       0,
			LastActivity: base.Add(time.Minute),
		}))

		got, err := repo.GetByKey(ctx, "user:7")
		require.NoError(t, err)
		assert.Equal(t, int64(7), got.UserID)
		assert.True(t, got.LastActivity.Equal(base.Add(time.Minute)), "activity still refreshes")
	})

	t.Run("UpsertRequiresKey", func(t *testing.T) {
		repo := NewPresenceRepository(openTestDB(t))
		err := repo.Upsert(ctx, &models.Presence{LastActivity: base})
		assert.Error(t, err)
	})

	t.Run("GetByKeyNotFound", func(t *testing.T) {
		repo := NewPresenceRepository(openTestDB(t))
		_, err := repo.GetByKey(ctx, "guest:missing")
		assert.ErrorIs(t, err, ErrPresenceNotFound)
	})

	t.Run("CountActiveSplitsUsersAndGuests", func(t *testing.T) {
		repo := NewPresenceRepository(openTestDB(t))

		rows := []*models.Presence{
			{VisitorKey: "user:1", UserID: 1, LastActivity: base},
			{VisitorKey: "user:2", UserID: 2, LastActivity: base.Add(-time.Minute)},
			{VisitorKey: "guest:a", SessionToken: "a", LastActivity: base},
			{VisitorKey: "guest:b", SessionToken: "b", LastActivity: base.Add(-10 * time.Minute)},
		}
		for _, row := range rows {
			require.NoError(t, repo.Upsert(ctx, row))
		}

		loggedIn, guests, err := repo.CountActive(ctx, base.Add(-5*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(2), loggedIn)
		assert.Equal(t, int64(1), guests)
	})

	t.Run("CountActiveBoundaryInclusive", func(t *testing.T) {
		repo := NewPresenceRepository(openTestDB(t))

		cutoff := base.Add(-5 * time.Minute)
		require.NoError(t, repo.Upsert(ctx, &models.Presence{
			VisitorKey:   "guest:edge",
			SessionToken: "edge",
			LastActivity: cutoff,
		}))

		_, guests, err := repo.CountActive(ctx, cutoff)
		require.NoError(t, err)
		assert.Equal(t, int64(1), guests, "row exactly at the cutoff counts as active")
	})

	t.Run("ListActiveNewestFirst", func(t *testing.T) {
		repo := NewPresenceRepository(openTestDB(t))

		require.NoError(t, repo.Upsert(ctx, &models.Presence{VisitorKey: "user:1", UserID: 1, LastActivity: base.Add(-2 * time.Minute)}))
		require.NoError(t, repo.Upsert(ctx, &models.Presence{VisitorKey: "user:2", UserID: 2, LastActivity: base}))
		require.NoError(t, repo.Upsert(ctx, &models.Presence{VisitorKey: "user:3", UserID: 3, LastActivity: base.Add(-time.Hour)}))

		active, err := repo.ListActive(ctx, base.Add(-5*time.Minute))
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, "user:2", active[0].VisitorKey)
		assert.Equal(t, "user:1", active[1].VisitorKey)
	})

	t.Run("DeleteInactiveRemovesOnlyStale", func(t *testing.T) {
		repo := NewPresenceRepository(openTestDB(t))

		cutoff := base.Add(-5 * time.Minute)
		require.NoError(t, repo.Upsert(ctx, &models.Presence{VisitorKey: "guest:stale", SessionToken: "stale", LastActivity: cutoff.Add(-time.Second)}))
		require.NoError(t, repo.Upsert(ctx, &models.Presence{VisitorKey: "guest:edge", SessionToken: "edge", LastActivity: cutoff}))
		require.NoError(t, repo.Upsert(ctx, &models.Presence{VisitorKey: "guest:fresh", SessionToken: "fresh", LastActivity: base}))

		removed, err := repo.DeleteInactive(ctx, cutoff)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		_, err = repo.GetByKey(ctx, "guest:stale")
		assert.ErrorIs(t, err, ErrPresenceNotFound)
		_, err = repo.GetByKey(ctx, "guest:edge")
		assert.NoError(t, err, "row exactly at the cutoff survives")

		removed, err = repo.DeleteInactive(ctx, cutoff)
		require.NoError(t, err)
		assert.Equal(t, int64(0), removed, "second sweep with no new activity is a no-op")
	})
}

func TestMemoryPresenceRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	t.Run("UpsertSemanticsMatchSQL", func(t *testing.T) {
		repo := NewMemoryPresenceRepository()

		require.NoError(t, repo.Upsert(ctx, &models.Presence{VisitorKey: "user:7", UserID: 7, SessionToken: "", LastActivity: base}))
		require.NoError(t, repo.Upsert(ctx, &models.Presence{VisitorKey: "user:7", UserID: 0, SessionToken: "t", LastActivity: base.Add(time.Minute)}))

		got, err := repo.GetByKey(ctx, "user:7")
		require.NoError(t, err)
		assert.Equal(t, int64(7), got.UserID, "user id is never downgraded")
		assert.Equal(t, "t", got.SessionToken, "token follows the last write")
		assert.True(t, got.LastActivity.Equal(base.Add(time.Minute)))
		assert.Equal(t, 1, repo.Len())
	})

	t.Run("UpsertAppliesInArrivalOrder", func(t *testing.T) {
		repo := NewMemoryPresenceRepository()

		require.NoError(t, repo.Upsert(ctx, &models.Presence{VisitorKey: "user:9", UserID: 9, LastActivity: base.Add(10 * time.Second)}))
		require.NoError(t, repo.Upsert(ctx, &models.Presence{VisitorKey: "user:9", UserID: 9, LastActivity: base.Add(5 * time.Second)}))

		got, err := repo.GetByKey(ctx, "user:9")
		require.NoError(t, err)
		assert.True(t, got.LastActivity.Equal(base.Add(5*time.Second)),
			"the write applied last wins, even with an earlier timestamp")
	})

	t.Run("DeleteInactive", func(t *testing.T) {
		repo := NewMemoryPresenceRepository()
		require.NoError(t, repo.Upsert(ctx, &models.Presence{VisitorKey: "guest:old", LastActivity: base.Add(-time.Hour)}))
		require.NoError(t, repo.Upsert(ctx, &models.Presence{VisitorKey: "guest:new", LastActivity: base}))

		removed, err := repo.DeleteInactive(ctx, base.Add(-5*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)
		assert.Equal(t, 1, repo.Len())
	})

	t.Run("ListActiveNewestFirst", func(t *testing.T) {
		repo := NewMemoryPresenceRepository()
		require.NoError(t, repo.Upsert(ctx, &models.Presence{VisitorKey: "user:1", UserID: 1, LastActivity: base.Add(-time.Minute)}))
		require.NoError(t, repo.Upsert(ctx, &models.Presence{VisitorKey: "user:2", UserID: 2, LastActivity: base}))

		active, err := repo.ListActive(ctx, base.Add(-5*time.Minute))
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, "user:2", active[0].VisitorKey)
	})
}
