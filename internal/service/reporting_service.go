package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xeonx/timeago"

	"github.com/goatkit/storepulse/internal/config"
	"github.com/goatkit/storepulse/internal/constants"
	"github.com/goatkit/storepulse/internal/models"
	"github.com/goatkit/storepulse/internal/repository"
)

var weekdayLabels = [8]string{"", "Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// ReportingService assembles the admin panel datasets. It shares the
// tracking configuration with the recorder and the reclaimer so all three
// observe the same inactivity threshold within one evaluation.
type ReportingService struct {
	presence repository.PresenceRepository
	events   repository.EventRepository
	reports  repository.ReportRepository
	catalog  repository.CatalogRepository
	cfg      config.TrackingConfig
	now      func() time.Time
}

// ReportingOption configures a ReportingService.
type ReportingOption func(*ReportingService)

// WithReportingClock injects a custom time source.
func WithReportingClock(now func() time.Time) ReportingOption {
	return func(s *ReportingService) { s.now = now }
}

// NewReportingService creates a reporting service.
func NewReportingService(
	presence repository.PresenceRepository,
	events repository.EventRepository,
	reports repository.ReportRepository,
	catalog repository.CatalogRepository,
	cfg config.TrackingConfig,
	opts ...ReportingOption,
) *ReportingService {
	s := &ReportingService{
		presence: presence,
		events:   events,
		reports:  reports,
		catalog:  catalog,
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ActiveSummary returns the headline presence report: active totals split
// into logged-in and guest visitors, plus the detailed list of active
// authenticated visitors newest first.
func (s *ReportingService) ActiveSummary(ctx context.Context) (*models.ActiveSummary, error) {
	now := s.now()
	threshold := s.cfg.Threshold()
	cutoff := now.Add(-threshold)

	loggedIn, guests, err := s.presence.CountActive(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("active summary counts: %w", err)
	}

	rows, err := s.presence.ListActive(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("active summary rows: %w", err)
	}

	var userIDs []int64
	for _, row := range rows {
		if row.IsAuthenticated() {
			userIDs = append(userIDs, row.UserID)
		}
	}
	users, err := s.catalog.UsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("active summary users: %w", err)
	}

	summary := &models.ActiveSummary{
		Total:     loggedIn + guests,
		LoggedIn:  loggedIn,
		Guests:    guests,
		Threshold: threshold,
		Visitors:  make([]models.ActiveVisitor, 0, len(userIDs)),
	}
	for _, row := range rows {
		if !row.IsAuthenticated() {
			continue
		}
		user, ok := users[row.UserID]
		if !ok {
			continue
		}
		summary.Visitors = append(summary.Visitors, models.ActiveVisitor{
			UserID:       row.UserID,
			Name:         user.Name,
			Email:        user.Email,
			LastActivity: row.LastActivity,
			LastSeen:     timeago.English.FormatReference(row.LastActivity, now),
		})
	}
	return summary, nil
}

// ActivityByDay returns event counts bucketed by weekday over the trailing
// window, as chart-ready label/value arrays. Only days with activity appear.
func (s *ReportingService) ActivityByDay(ctx context.Context, days int) (models.ActivitySeries, error) {
	if days <= 0 {
		days = constants.DefaultChartWindowDays
	}
	since := s.now().AddDate(0, 0, -days)

	points, err := s.events.SeriesByDayOfWeek(ctx, since)
	if err != nil {
		return models.ActivitySeries{}, err
	}

	series := models.ActivitySeries{Labels: []string{}, Data: []int64{}}
	for _, p := range points {
		label := fmt.Sprintf("Day %d", p.Bucket)
		if p.Bucket >= 1 && p.Bucket <= 7 {
			label = weekdayLabels[p.Bucket]
		}
		series.Labels = append(series.Labels, label)
		series.Data = append(series.Data, p.Count)
	}
	return series, nil
}

// ActivityByHour returns event counts bucketed by hour of day over the
// trailing window. Only hours with activity appear.
func (s *ReportingService) ActivityByHour(ctx context.Context, days int) (models.ActivitySeries, error) {
	if days <= 0 {
		days = constants.DefaultChartWindowDays
	}
	since := s.now().AddDate(0, 0, -days)

	points, err := s.events.SeriesByHour(ctx, since)
	if err != nil {
		return models.ActivitySeries{}, err
	}

	series := models.ActivitySeries{Labels: []string{}, Data: []int64{}}
	for _, p := range points {
		series.Labels = append(series.Labels, fmt.Sprintf("%02d:00", p.Bucket))
		series.Data = append(series.Data, p.Count)
	}
	return series, nil
}

// TopProducts returns the most visited published products within the
// optional date range.
func (s *ReportingService) TopProducts(ctx context.Context, limit int, dateRange models.DateRange) ([]models.ProductStats, error) {
	if limit <= 0 {
		limit = constants.DefaultTopProductLimit
	}
	return s.reports.TopProducts(ctx, limit, dateRange.NormalizeDay())
}

// StoreRanking returns the most active stores within the optional date
// range. Stores with zero interactions in the range are dropped.
func (s *ReportingService) StoreRanking(ctx context.Context, dateRange models.DateRange) ([]models.StoreActivity, error) {
	ranking, err := s.reports.StoreRanking(ctx, 0, dateRange.NormalizeDay())
	if err != nil {
		return nil, err
	}

	out := make([]models.StoreActivity, 0, constants.DefaultStoreRankLimit)
	for _, entry := range ranking {
		if entry.Total == 0 {
			continue
		}
		out = append(out, entry)
		if len(out) == constants.DefaultStoreRankLimit {
			break
		}
	}
	return out, nil
}

// ProductsByStore groups every published product under its store with the
// per-kind interaction counts for the optional date range.
func (s *ReportingService) ProductsByStore(ctx context.Context, dateRange models.DateRange) ([]models.StoreProducts, error) {
	stats, err := s.reports.ProductStats(ctx, dateRange.NormalizeDay())
	if err != nil {
		return nil, err
	}

	var out []models.StoreProducts
	index := make(map[int64]int)
	for _, stat := range stats {
		i, ok := index[stat.StoreID]
		if !ok {
			i = len(out)
			index[stat.StoreID] = i
			out = append(out, models.StoreProducts{StoreID: stat.StoreID, Name: stat.StoreName})
		}
		out[i].Products = append(out[i].Products, stat)
	}
	return out, nil
}
