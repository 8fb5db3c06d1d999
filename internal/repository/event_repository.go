package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/goatkit/storepulse/internal/database"
	"github.com/goatkit/storepulse/internal/models"
)

// EventRepository defines operations on the append-only activity_events
// table. Events are never updated or deleted.
type EventRepository interface {
	Insert(ctx context.Context, event *models.ActivityEvent) error
	SeriesByDayOfWeek(ctx context.Context, since time.Time) ([]models.SeriesPoint, error)
	SeriesByHour(ctx context.Context, since time.Time) ([]models.SeriesPoint, error)
	ExportRows(ctx context.Context, dateRange models.DateRange) ([]models.ExportRow, error)
}

// EventSQLRepository is the relational implementation.
type EventSQLRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *sqlx.DB) *EventSQLRepository {
	return &EventSQLRepository{db: db}
}

// Insert appends one interaction event.
func (r *EventSQLRepository) Insert(ctx context.Context, event *models.ActivityEvent) error {
	if event.ProductID <= 0 {
		return errors.New("product ID is required")
	}
	if !models.ValidEventKind(event.Kind) {
		return fmt.Errorf("invalid event kind %q", event.Kind)
	}

	query := database.ConvertPlaceholders(`
		INSERT INTO activity_events (product_id, kind, created_at)
		VALUES (?, ?, ?)`)

	if _, err := r.db.ExecContext(ctx, query, event.ProductID, event.Kind, event.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert activity event: %w", err)
	}
	return nil
}

// SeriesByDayOfWeek groups events since the given instant by weekday,
// 1=Sunday .. 7=Saturday. Only buckets with activity are returned.
func (r *EventSQLRepository) SeriesByDayOfWeek(ctx context.Context, since time.Time) ([]models.SeriesPoint, error) {
	expr := database.DayOfWeekExpr("created_at")
	query := database.ConvertPlaceholders(fmt.Sprintf(`
		SELECT %s AS bucket, COUNT(*) AS count
		FROM activity_events
		WHERE created_at >= ?
		GROUP BY bucket
		ORDER BY bucket`, expr))

	var points []models.SeriesPoint
	if err := r.db.SelectContext(ctx, &points, query, since.UTC()); err != nil {
		return nil, fmt.Errorf("series by day of week: %w", err)
	}
	return points, nil
}

// SeriesByHour groups events since the given instant by hour of day (0..23).
func (r *EventSQLRepository) SeriesByHour(ctx context.Context, since time.Time) ([]models.SeriesPoint, error) {
	expr := database.HourExpr("created_at")
	query := database.ConvertPlaceholders(fmt.Sprintf(`
		SELECT %s AS bucket, COUNT(*) AS count
		FROM activity_events
		WHERE created_at >= ?
		GROUP BY bucket
		ORDER BY bucket`, expr))

	var points []models.SeriesPoint
	if err := r.db.SelectContext(ctx, &points, query, since.UTC()); err != nil {
		return nil, fmt.Errorf("series by hour: %w", err)
	}
	return points, nil
}

// ExportRows streams the date-filtered event dump joined with catalog names,
// newest first. Products that vanished from the catalog export with empty
// title and store name rather than being dropped.
func (r *EventSQLRepository) ExportRows(ctx context.Context, dateRange models.DateRange) ([]models.ExportRow, error) {
	query := `
		SELECT
			e.product_id,
			COALESCE(p.title, '') AS product_title,
			COALESCE(s.name, '') AS store_name,
			e.kind,
			e.created_at
		FROM activity_events e
		LEFT JOIN products p ON p.id = e.product_id
		LEFT JOIN stores s ON s.id = p.store_id`

	where, args := dateFilter("e.created_at", dateRange)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY e.created_at DESC"

	var rows []models.ExportRow
	if err := r.db.SelectContext(ctx, &rows, database.ConvertPlaceholders(query), args...); err != nil {
		return nil, fmt.Errorf("export rows: %w", err)
	}
	return rows, nil
}

// dateFilter builds a WHERE fragment for an optional date range against the
// given column. Returns an empty fragment when no bound is set.
func dateFilter(column string, dateRange models.DateRange) (string, []any) {
	var conditions []string
	var args []any
	if !dateRange.From.IsZero() {
		conditions = append(conditions, column+" >= ?")
		args = append(args, dateRange.From.UTC())
	}
	if !dateRange.To.IsZero() {
		conditions = append(conditions, column+" <= ?")
		args = append(args, dateRange.To.UTC())
	}
	switch len(conditions) {
	case 0:
		return "", nil
	case 1:
		return conditions[0], args
	default:
		return conditions[0] + " AND " + conditions[1], args
	}
}
