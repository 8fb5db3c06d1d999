package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goatkit/storepulse/internal/models"
)

// MemoryEventRepository is an in-memory EventRepository for tests.
type MemoryEventRepository struct {
	mu     sync.RWMutex
	nextID int64
	events []models.ActivityEvent
}

// NewMemoryEventRepository creates an empty in-memory event repository.
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{nextID: 1}
}

// Insert appends one event.
func (r *MemoryEventRepository) Insert(_ context.Context, event *models.ActivityEvent) error {
	if event.ProductID <= 0 {
		return errors.New("product ID is required")
	}
	if !models.ValidEventKind(event.Kind) {
		return fmt.Errorf("invalid event kind %q", event.Kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *event
	stored.ID = r.nextID
	r.nextID++
	r.events = append(r.events, stored)
	return nil
}

// SeriesByDayOfWeek buckets stored events by weekday, 1=Sunday.
func (r *MemoryEventRepository) SeriesByDayOfWeek(_ context.Context, since time.Time) ([]models.SeriesPoint, error) {
	return r.series(since, func(t time.Time) int { return int(t.UTC().Weekday()) + 1 })
}

// SeriesByHour buckets stored events by hour of day.
func (r *MemoryEventRepository) SeriesByHour(_ context.Context, since time.Time) ([]models.SeriesPoint, error) {
	return r.series(since, func(t time.Time) int { return t.UTC().Hour() })
}

func (r *MemoryEventRepository) series(since time.Time, bucket func(time.Time) int) ([]models.SeriesPoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[int]int64)
	for _, e := range r.events {
		if e.CreatedAt.Before(since) {
			continue
		}
		counts[bucket(e.CreatedAt)]++
	}

	points := make([]models.SeriesPoint, 0, len(counts))
	for b, c := range counts {
		points = append(points, models.SeriesPoint{Bucket: b, Count: c})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Bucket < points[j].Bucket })
	return points, nil
}

// ExportRows returns the date-filtered events newest first. The in-memory
// repository has no catalog, so titles and store names are empty.
func (r *MemoryEventRepository) ExportRows(_ context.Context, dateRange models.DateRange) ([]models.ExportRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rows []models.ExportRow
	for _, e := range r.events {
		if !dateRange.From.IsZero() && e.CreatedAt.Before(dateRange.From) {
			continue
		}
		if !dateRange.To.IsZero() && e.CreatedAt.After(dateRange.To) {
			continue
		}
		rows = append(rows, models.ExportRow{
			ProductID: e.ProductID,
			Kind:      e.Kind,
			CreatedAt: e.CreatedAt,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	return rows, nil
}

// Events returns a snapshot of everything recorded, oldest first.
func (r *MemoryEventRepository) Events() []models.ActivityEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ActivityEvent, len(r.events))
	copy(out, r.events)
	return out
}
