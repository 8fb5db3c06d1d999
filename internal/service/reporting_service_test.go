package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/storepulse/internal/config"
	"github.com/goatkit/storepulse/internal/models"
	"github.com/goatkit/storepulse/internal/repository"
)

// stubReportRepository returns canned aggregates.
type stubReportRepository struct {
	top     []models.ProductStats
	ranking []models.StoreActivity
	stats   []models.ProductStats

	lastLimit int
	lastRange models.DateRange
}

func (s *stubReportRepository) TopProducts(_ context.Context, limit int, dateRange models.DateRange) ([]models.ProductStats, error) {
	s.lastLimit = limit
	s.lastRange = dateRange
	return s.top, nil
}

func (s *stubReportRepository) StoreRanking(_ context.Context, limit int, dateRange models.DateRange) ([]models.StoreActivity, error) {
	s.lastLimit = limit
	s.lastRange = dateRange
	return s.ranking, nil
}

func (s *stubReportRepository) ProductStats(_ context.Context, dateRange models.DateRange) ([]models.ProductStats, error) {
	s.lastRange = dateRange
	return s.stats, nil
}

// stubCatalogRepository serves a fixed user directory.
type stubCatalogRepository struct {
	users map[int64]models.User
}

func (s *stubCatalogRepository) UsersByIDs(_ context.Context, ids []int64) (map[int64]models.User, error) {
	out := make(map[int64]models.User)
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (s *stubCatalogRepository) ProductExists(_ context.Context, productID int64) (bool, error) {
	return false, nil
}

type reportingFixture struct {
	svc      *ReportingService
	presence *repository.MemoryPresenceRepository
	events   *repository.MemoryEventRepository
	reports  *stubReportRepository
	catalog  *stubCatalogRepository
	now      time.Time
}

func newReportingFixture(t *testing.T) *reportingFixture {
	t.Helper()

	f := &reportingFixture{
		presence: repository.NewMemoryPresenceRepository(),
		events:   repository.NewMemoryEventRepository(),
		reports:  &stubReportRepository{},
		catalog: &stubCatalogRepository{users: map[int64]models.User{
			1: {ID: 1, Name: "Ada", Email: "ada@example.com"},
			2: {ID: 2, Name: "Grace", Email: "grace@example.com"},
		}},
		now: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewReportingService(
		f.presence, f.events, f.reports, f.catalog,
		config.TrackingConfig{ThresholdMinutes: 5},
		WithReportingClock(func() time.Time { return f.now }),
	)
	return f
}

func TestActiveSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("SplitsAndDecoratesVisitors", func(t *testing.T) {
		f := newReportingFixture(t)

		rows := []*models.Presence{
			{VisitorKey: "user:1", UserID: 1, LastActivity: f.now.Add(-time.Minute)},
			{VisitorKey: "user:2", UserID: 2, LastActivity: f.now.Add(-2 * time.Minute)},
			{VisitorKey: "guest:a", SessionToken: "a", LastActivity: f.now},
			{VisitorKey: "guest:stale", SessionToken: "stale", LastActivity: f.now.Add(-time.Hour)},
		}
		for _, row := range rows {
			require.NoError(t, f.presence.Upsert(ctx, row))
		}

		summary, err := f.svc.ActiveSummary(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(3), summary.Total)
		assert.Equal(t, int64(2), summary.LoggedIn)
		assert.Equal(t, int64(1), summary.Guests)
		assert.Equal(t, 5*time.Minute, summary.Threshold)

		require.Len(t, summary.Visitors, 2)
		assert.Equal(t, "Ada", summary.Visitors[0].Name, "newest first")
		assert.Equal(t, "Grace", summary.Visitors[1].Name)
		assert.NotEmpty(t, summary.Visitors[0].LastSeen)
	})

	t.Run("UnknownUsersDropped", func(t *testing.T) {
		f := newReportingFixture(t)

		require.NoError(t, f.presence.Upsert(ctx, &models.Presence{
			VisitorKey: "user:99", UserID: 99, LastActivity: f.now,
		}))

		summary, err := f.svc.ActiveSummary(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), summary.LoggedIn, "still counted")
		assert.Empty(t, summary.Visitors, "no catalog entry, no listing row")
	})
}

func TestActivitySeries(t *testing.T) {
	ctx := context.Background()

	t.Run("ByDayUsesWeekdayLabels", func(t *testing.T) {
		f := newReportingFixture(t)

		// f.now is a Thursday; the day before is a Wednesday.
		require.NoError(t, f.events.Insert(ctx, &models.ActivityEvent{ProductID: 10, Kind: models.EventVisit, CreatedAt: f.now}))
		require.NoError(t, f.events.Insert(ctx, &models.ActivityEvent{ProductID: 10, Kind: models.EventVisit, CreatedAt: f.now}))
		require.NoError(t, f.events.Insert(ctx, &models.ActivityEvent{ProductID: 10, Kind: models.EventCall, CreatedAt: f.now.Add(-24 * time.Hour)}))

		series, err := f.svc.ActivityByDay(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, []string{"Wed", "Thu"}, series.Labels)
		assert.Equal(t, []int64{1, 2}, series.Data)
	})

	t.Run("ByHourFormatsLabels", func(t *testing.T) {
		f := newReportingFixture(t)

		require.NoError(t, f.events.Insert(ctx, &models.ActivityEvent{ProductID: 10, Kind: models.EventVisit, CreatedAt: time.Date(2026, 8, 20, 9, 15, 0, 0, time.UTC)}))
		require.NoError(t, f.events.Insert(ctx, &models.ActivityEvent{ProductID: 10, Kind: models.EventVisit, CreatedAt: time.Date(2026, 8, 20, 9, 45, 0, 0, time.UTC)}))

		series, err := f.svc.ActivityByHour(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, []string{"09:00"}, series.Labels)
		assert.Equal(t, []int64{2}, series.Data)
	})

	t.Run("EmptyWindowYieldsEmptyArrays", func(t *testing.T) {
		f := newReportingFixture(t)

		series, err := f.svc.ActivityByDay(ctx, 0)
		require.NoError(t, err)
		assert.NotNil(t, series.Labels)
		assert.NotNil(t, series.Data)
		assert.Empty(t, series.Labels)
	})
}

func TestTopProductsDefaults(t *testing.T) {
	ctx := context.Background()
	f := newReportingFixture(t)

	_, err := f.svc.TopProducts(ctx, 0, models.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 10, f.reports.lastLimit, "zero limit falls back to the default")

	from := time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC)
	to := time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)
	_, err = f.svc.TopProducts(ctx, 3, models.DateRange{From: from, To: to})
	require.NoError(t, err)
	assert.Equal(t, 3, f.reports.lastLimit)
	assert.Equal(t, 0, f.reports.lastRange.From.Hour(), "range normalized to whole days")
	assert.Equal(t, 23, f.reports.lastRange.To.Hour())
}

func TestStoreRanking(t *testing.T) {
	ctx := context.Background()
	f := newReportingFixture(t)

	f.reports.ranking = []models.StoreActivity{
		{StoreID: 1, Name: "A", Total: 9},
		{StoreID: 2, Name: "B", Total: 7},
		{StoreID: 3, Name: "C", Total: 5},
		{StoreID: 4, Name: "D", Total: 3},
		{StoreID: 5, Name: "E", Total: 2},
		{StoreID: 6, Name: "F", Total: 1},
		{StoreID: 7, Name: "G", Total: 0},
	}

	ranking, err := f.svc.StoreRanking(ctx, models.DateRange{})
	require.NoError(t, err)
	require.Len(t, ranking, 5, "capped at five entries")
	assert.Equal(t, "A", ranking[0].Name)
	for _, entry := range ranking {
		assert.NotZero(t, entry.Total, "zero-activity stores are dropped")
	}
}

func TestProductsByStore(t *testing.T) {
	ctx := context.Background()
	f := newReportingFixture(t)

	f.reports.stats = []models.ProductStats{
		{ProductID: 11, Title: "Blue Table", StoreID: 1, StoreName: "North Store", Visits: 1},
		{ProductID: 10, Title: "Red Chair", StoreID: 1, StoreName: "North Store", Visits: 2},
		{ProductID: 12, Title: "Green Lamp", StoreID: 2, StoreName: "South Store"},
	}

	grouped, err := f.svc.ProductsByStore(ctx, models.DateRange{})
	require.NoError(t, err)
	require.Len(t, grouped, 2)

	assert.Equal(t, "North Store", grouped[0].Name)
	require.Len(t, grouped[0].Products, 2)
	assert.Equal(t, "Blue Table", grouped[0].Products[0].Title, "input order preserved")

	assert.Equal(t, "South Store", grouped[1].Name)
	require.Len(t, grouped[1].Products, 1)
}
