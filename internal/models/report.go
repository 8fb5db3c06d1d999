package models

import "time"

// DateRange is an optional reporting filter. A zero From or To leaves that
// side of the range open. NormalizeDay expands date-only bounds the way the
// admin panel expects: From becomes start of day, To becomes end of day.
type DateRange struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether no filter is set.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// NormalizeDay aligns the bounds to whole days: From to 00:00:00 and To to
// 23:59:59 of their respective dates.
func (r DateRange) NormalizeDay() DateRange {
	out := r
	if !r.From.IsZero() {
		y, m, d := r.From.Date()
		out.From = time.Date(y, m, d, 0, 0, 0, 0, r.From.Location())
	}
	if !r.To.IsZero() {
		y, m, d := r.To.Date()
		out.To = time.Date(y, m, d, 23, 59, 59, 0, r.To.Location())
	}
	return out
}

// ProductStats aggregates interaction counts for one product.
type ProductStats struct {
	ProductID int64  `db:"product_id" json:"product_id"`
	Title     string `db:"title" json:"title"`
	StoreID   int64  `db:"store_id" json:"store_id"`
	StoreName string `db:"store_name" json:"store_name"`
	Visits    int64  `db:"visits" json:"visits"`
	WhatsApps int64  `db:"whatsapps" json:"whatsapps"`
	Calls     int64  `db:"calls" json:"calls"`
}

// StoreActivity is one entry of the store ranking: total interactions over
// all of the store's published products within the filter range.
type StoreActivity struct {
	StoreID int64  `db:"store_id" json:"store_id"`
	Name    string `db:"name" json:"name"`
	Total   int64  `db:"total" json:"total"`
}

// StoreProducts groups the per-product stats of one store.
type StoreProducts struct {
	StoreID  int64          `json:"store_id"`
	Name     string         `json:"name"`
	Products []ProductStats `json:"products"`
}

// SeriesPoint is one labeled bucket of an activity series (a weekday or an
// hour of day) with its event count.
type SeriesPoint struct {
	Bucket int    `db:"bucket" json:"-"`
	Label  string `json:"label"`
	Count  int64  `db:"count" json:"count"`
}

// ActivitySeries is a chart-ready series: parallel label and value arrays.
type ActivitySeries struct {
	Labels []string `json:"labels"`
	Data   []int64  `json:"data"`
}

// ActiveVisitor is one active authenticated visitor with user details for
// the admin panel listing.
type ActiveVisitor struct {
	UserID       int64     `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	LastActivity time.Time `json:"last_activity"`
	LastSeen     string    `json:"last_seen"`
}

// ActiveSummary is the headline presence report: totals plus the detailed
// list of active logged-in visitors.
type ActiveSummary struct {
	Total     int64           `json:"total"`
	LoggedIn  int64           `json:"logged_in"`
	Guests    int64           `json:"guests"`
	Threshold time.Duration   `json:"-"`
	Visitors  []ActiveVisitor `json:"visitors"`
}

// ExportRow is one line of the event export (CSV or XLSX).
type ExportRow struct {
	ProductID    int64     `db:"product_id"`
	ProductTitle string    `db:"product_title"`
	StoreName    string    `db:"store_name"`
	Kind         EventKind `db:"kind"`
	CreatedAt    time.Time `db:"created_at"`
}

// User is a platform account referenced by presence rows and product
// ownership. The host platform owns this table; StorePulse reads it only.
type User struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
}

// Product is a catalog item owned by the host platform, read-only here.
type Product struct {
	ID        int64  `db:"id" json:"id"`
	Title     string `db:"title" json:"title"`
	StoreID   int64  `db:"store_id" json:"store_id"`
	Published bool   `db:"published" json:"published"`
}

// Store is a seller account on the platform, read-only here.
type Store struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
}
