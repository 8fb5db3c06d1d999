package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goatkit/storepulse/internal/models"
)

// MemoryPresenceRepository is an in-memory PresenceRepository used by tests
// and as a degraded fallback when no database is available.
type MemoryPresenceRepository struct {
	mu   sync.RWMutex
	rows map[string]models.Presence
}

// NewMemoryPresenceRepository creates an empty in-memory repository.
func NewMemoryPresenceRepository() *MemoryPresenceRepository {
	return &MemoryPresenceRepository{rows: make(map[string]models.Presence)}
}

// Upsert applies the same semantics as the SQL implementation: last applied
// write wins for session_token and last_activity, and a non-zero user_id is
// never downgraded to zero.
func (r *MemoryPresenceRepository) Upsert(_ context.Context, p *models.Presence) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[p.VisitorKey]
	if !ok {
		r.rows[p.VisitorKey] = *p
		return nil
	}
	if p.UserID > 0 {
		row.UserID = p.UserID
	}
	row.SessionToken = p.SessionToken
	row.LastActivity = p.LastActivity
	r.rows[p.VisitorKey] = row
	return nil
}

// GetByKey loads a single row.
func (r *MemoryPresenceRepository) GetByKey(_ context.Context, visitorKey string) (*models.Presence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.rows[visitorKey]
	if !ok {
		return nil, ErrPresenceNotFound
	}
	out := row
	return &out, nil
}

// CountActive counts distinct active logged-in users and active guest rows.
func (r *MemoryPresenceRepository) CountActive(_ context.Context, cutoff time.Time) (int64, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make(map[int64]struct{})
	var guests int64
	for _, row := range r.rows {
		if row.LastActivity.Before(cutoff) {
			continue
		}
		if row.UserID > 0 {
			users[row.UserID] = struct{}{}
		} else {
			guests++
		}
	}
	return int64(len(users)), guests, nil
}

// ListActive returns active rows newest first.
func (r *MemoryPresenceRepository) ListActive(_ context.Context, cutoff time.Time) ([]*models.Presence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Presence
	for _, row := range r.rows {
		if row.LastActivity.Before(cutoff) {
			continue
		}
		copied := row
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out, nil
}

// DeleteInactive removes rows older than the cutoff.
func (r *MemoryPresenceRepository) DeleteInactive(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for key, row := range r.rows {
		if row.LastActivity.Before(cutoff) {
			delete(r.rows, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored rows, active or not.
func (r *MemoryPresenceRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}
