package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/goatkit/storepulse/internal/database"
	"github.com/goatkit/storepulse/internal/models"
)

// ErrPresenceNotFound is returned when no presence row exists for a key.
var ErrPresenceNotFound = errors.New("presence not found")

// PresenceRepository defines the operations on the active_sessions table.
// The write surface is deliberately minimal: atomic upsert plus bulk delete
// by age. There is no row-level update or single-row delete.
type PresenceRepository interface {
	Upsert(ctx context.Context, p *models.Presence) error
	GetByKey(ctx context.Context, visitorKey string) (*models.Presence, error)
	CountActive(ctx context.Context, cutoff time.Time) (loggedIn, guests int64, err error)
	ListActive(ctx context.Context, cutoff time.Time) ([]*models.Presence, error)
	DeleteInactive(ctx context.Context, cutoff time.Time) (int64, error)
}

// PresenceSQLRepository is the relational implementation.
type PresenceSQLRepository struct {
	db *sqlx.DB
}

// NewPresenceRepository creates a new presence repository.
func NewPresenceRepository(db *sqlx.DB) *PresenceSQLRepository {
	return &PresenceSQLRepository{db: db}
}

// Upsert inserts or refreshes the row for p.VisitorKey. The store applies
// the insert-or-update atomically on the unique key; concurrent writers for
// the same key converge to whichever write the store applies last.
func (r *PresenceSQLRepository) Upsert(ctx context.Context, p *models.Presence) error {
	if p.VisitorKey == "" {
		return errors.New("visitor key is required")
	}

	query := database.PresenceUpsertQuery()
	if _, err := r.db.ExecContext(ctx, query, p.VisitorKey, p.UserID, p.SessionToken, p.LastActivity.UTC()); err != nil {
		return fmt.Errorf("upsert presence %s: %w", p.VisitorKey, err)
	}
	return nil
}

// GetByKey loads a single presence row.
func (r *PresenceSQLRepository) GetByKey(ctx context.Context, visitorKey string) (*models.Presence, error) {
	query := database.ConvertPlaceholders(`
		SELECT visitor_key, user_id, session_token, last_activity
		FROM active_sessions
		WHERE visitor_key = ?`)

	var p models.Presence
	if err := r.db.GetContext(ctx, &p, query, visitorKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPresenceNotFound
		}
		return nil, fmt.Errorf("get presence %s: %w", visitorKey, err)
	}
	return &p, nil
}

// CountActive returns the number of distinct active logged-in users and the
// number of active guest rows at the given cutoff (rows with
// last_activity >= cutoff count as active).
func (r *PresenceSQLRepository) CountActive(ctx context.Context, cutoff time.Time) (int64, int64, error) {
	var loggedIn int64
	query := database.ConvertPlaceholders(`
		SELECT COUNT(DISTINCT user_id)
		FROM active_sessions
		WHERE user_id > 0 AND last_activity >= ?`)
	if err := r.db.GetContext(ctx, &loggedIn, query, cutoff.UTC()); err != nil {
		return 0, 0, fmt.Errorf("count active users: %w", err)
	}

	var guests int64
	query = database.ConvertPlaceholders(`
		SELECT COUNT(*)
		FROM active_sessions
		WHERE user_id = 0 AND last_activity >= ?`)
	if err := r.db.GetContext(ctx, &guests, query, cutoff.UTC()); err != nil {
		return 0, 0, fmt.Errorf("count active guests: %w", err)
	}

	return loggedIn, guests, nil
}

// ListActive returns the active rows ordered by recency, newest first.
func (r *PresenceSQLRepository) ListActive(ctx context.Context, cutoff time.Time) ([]*models.Presence, error) {
	query := database.ConvertPlaceholders(`
		SELECT visitor_key, user_id, session_token, last_activity
		FROM active_sessions
		WHERE last_activity >= ?
		ORDER BY last_activity DESC`)

	var rows []*models.Presence
	if err := r.db.SelectContext(ctx, &rows, query, cutoff.UTC()); err != nil {
		return nil, fmt.Errorf("list active presence: %w", err)
	}
	return rows, nil
}

// DeleteInactive removes rows with last_activity strictly before the cutoff.
// Returns the number of rows removed; running it again with no new activity
// is a no-op.
func (r *PresenceSQLRepository) DeleteInactive(ctx context.Context, cutoff time.Time) (int64, error) {
	query := database.ConvertPlaceholders(`DELETE FROM active_sessions WHERE last_activity < ?`)

	result, err := r.db.ExecContext(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete inactive presence: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return removed, nil
}
