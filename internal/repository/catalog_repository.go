package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/goatkit/storepulse/internal/database"
	"github.com/goatkit/storepulse/internal/models"
)

// CatalogRepository reads the host platform's user and catalog tables.
// StorePulse never writes them.
type CatalogRepository interface {
	UsersByIDs(ctx context.Context, ids []int64) (map[int64]models.User, error)
	ProductExists(ctx context.Context, productID int64) (bool, error)
}

// CatalogSQLRepository is the relational implementation.
type CatalogSQLRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogSQLRepository {
	return &CatalogSQLRepository{db: db}
}

// UsersByIDs loads user details for the given ids, keyed by id. Unknown ids
// are simply absent from the result.
func (r *CatalogSQLRepository) UsersByIDs(ctx context.Context, ids []int64) (map[int64]models.User, error) {
	out := make(map[int64]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	query := database.ConvertPlaceholders(fmt.Sprintf(
		`SELECT id, name, email FROM users WHERE id IN (%s)`, placeholders))

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("users by ids: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// ProductExists reports whether a published product with the given id exists.
func (r *CatalogSQLRepository) ProductExists(ctx context.Context, productID int64) (bool, error) {
	query := database.ConvertPlaceholders(fmt.Sprintf(
		`SELECT COUNT(*) FROM products WHERE id = ? AND %s`, database.IsTrueExpr("published")))

	var count int64
	if err := r.db.GetContext(ctx, &count, query, productID); err != nil {
		return false, fmt.Errorf("product exists: %w", err)
	}
	return count > 0, nil
}
