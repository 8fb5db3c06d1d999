package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/goatkit/storepulse/internal/database"
	"github.com/goatkit/storepulse/internal/models"
)

// ReportRepository runs the aggregate queries behind the admin panel. All of
// them join the append-only event table against the read-only catalog.
type ReportRepository interface {
	TopProducts(ctx context.Context, limit int, dateRange models.DateRange) ([]models.ProductStats, error)
	StoreRanking(ctx context.Context, limit int, dateRange models.DateRange) ([]models.StoreActivity, error)
	ProductStats(ctx context.Context, dateRange models.DateRange) ([]models.ProductStats, error)
}

// ReportSQLRepository is the relational implementation.
type ReportSQLRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *sqlx.DB) *ReportSQLRepository {
	return &ReportSQLRepository{db: db}
}

// productStatsQuery is the shared SELECT for per-product interaction counts
// over published products. The date filter lives in the JOIN condition so
// products without events in the range still appear with zero counts.
func productStatsQuery(dateRange models.DateRange) (string, []any) {
	join := "LEFT JOIN activity_events e ON e.product_id = p.id"
	where, args := dateFilter("e.created_at", dateRange)
	if where != "" {
		join += " AND " + where
	}

	query := fmt.Sprintf(`
		SELECT
			p.id AS product_id,
			p.title,
			p.store_id,
			COALESCE(s.name, '') AS store_name,
			COALESCE(SUM(CASE WHEN e.kind = 'visit' THEN 1 ELSE 0 END), 0) AS visits,
			COALESCE(SUM(CASE WHEN e.kind = 'whatsapp' THEN 1 ELSE 0 END), 0) AS whatsapps,
			COALESCE(SUM(CASE WHEN e.kind = 'call' THEN 1 ELSE 0 END), 0) AS calls
		FROM products p
		LEFT JOIN stores s ON s.id = p.store_id
		%s
		WHERE %s
		GROUP BY p.id, p.title, p.store_id, s.name`, join, database.IsTrueExpr("p.published"))

	return query, args
}

// TopProducts returns the top published products by visit count within the
// optional date range.
func (r *ReportSQLRepository) TopProducts(ctx context.Context, limit int, dateRange models.DateRange) ([]models.ProductStats, error) {
	query, args := productStatsQuery(dateRange)
	query += " ORDER BY visits DESC, p.id ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var stats []models.ProductStats
	if err := r.db.SelectContext(ctx, &stats, database.ConvertPlaceholders(query), args...); err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	return stats, nil
}

// StoreRanking returns stores ordered by total interactions on their
// published products within the optional date range. Stores with no
// activity in the range report zero and rank last.
func (r *ReportSQLRepository) StoreRanking(ctx context.Context, limit int, dateRange models.DateRange) ([]models.StoreActivity, error) {
	join := "LEFT JOIN activity_events e ON e.product_id = p.id"
	where, args := dateFilter("e.created_at", dateRange)
	if where != "" {
		join += " AND " + where
	}

	query := fmt.Sprintf(`
		SELECT
			s.id AS store_id,
			s.name,
			COUNT(e.id) AS total
		FROM stores s
		LEFT JOIN products p ON p.store_id = s.id AND %s
		%s
		GROUP BY s.id, s.name
		ORDER BY total DESC, s.name ASC`, database.IsTrueExpr("p.published"), join)

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var ranking []models.StoreActivity
	if err := r.db.SelectContext(ctx, &ranking, database.ConvertPlaceholders(query), args...); err != nil {
		return nil, fmt.Errorf("store ranking: %w", err)
	}
	return ranking, nil
}

// ProductStats returns interaction counts for every published product,
// ordered by store then title, for the per-store listing.
func (r *ReportSQLRepository) ProductStats(ctx context.Context, dateRange models.DateRange) ([]models.ProductStats, error) {
	query, args := productStatsQuery(dateRange)
	query += " ORDER BY store_name ASC, p.title ASC"

	var stats []models.ProductStats
	if err := r.db.SelectContext(ctx, &stats, database.ConvertPlaceholders(query), args...); err != nil {
		return nil, fmt.Errorf("product stats: %w", err)
	}
	return stats, nil
}
