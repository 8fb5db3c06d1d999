package database

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
)

var (
	driverMu     sync.RWMutex
	activeDriver string
)

// SetDriver records the driver opened by Connect. Tests that open their own
// database call this directly.
func SetDriver(driver string) {
	driverMu.Lock()
	activeDriver = strings.ToLower(driver)
	driverMu.Unlock()
}

// GetDBDriver returns the active database driver. Falls back to the
// DB_DRIVER environment variable, then to mysql.
func GetDBDriver() string {
	driverMu.RLock()
	driver := activeDriver
	driverMu.RUnlock()
	if driver == "" {
		driver = strings.ToLower(os.Getenv("DB_DRIVER"))
	}
	if driver == "" {
		driver = "mysql"
	}
	return driver
}

// IsMySQL returns true if using MySQL/MariaDB.
func IsMySQL() bool {
	driver := GetDBDriver()
	return driver == "mysql" || driver == "mariadb"
}

// IsPostgreSQL returns true if using PostgreSQL.
func IsPostgreSQL() bool {
	return GetDBDriver() == "postgres"
}

// IsSQLite returns true if using SQLite.
func IsSQLite() bool {
	driver := GetDBDriver()
	return driver == "sqlite3" || driver == "sqlite"
}

var dollarPlaceholder = regexp.MustCompile(`\$\d+`)

// ConvertPlaceholders converts SQL placeholders to the format required by
// the current database. Queries are written with ? placeholders only:
// MySQL and SQLite take them as-is, PostgreSQL gets $1, $2, ...
//
// Using $N placeholders in the input is a programming error and panics.
func ConvertPlaceholders(query string) string {
	if dollarPlaceholder.MatchString(query) {
		panic(fmt.Sprintf("ConvertPlaceholders: $N placeholders are not allowed, use ?\nQuery: %s", query))
	}

	if IsPostgreSQL() && strings.Contains(query, "?") {
		var b strings.Builder
		param := 1
		for _, c := range query {
			if c == '?' {
				fmt.Fprintf(&b, "$%d", param)
				param++
			} else {
				b.WriteRune(c)
			}
		}
		query = b.String()
	}

	return query
}

// PresenceUpsertQuery returns the driver-specific insert-or-update statement
// for the active_sessions table. Parameters in order: visitor_key, user_id,
// session_token, last_activity. The update arm refreshes session_token and
// last_activity from the incoming write but never downgrades a non-zero
// user_id back to zero.
func PresenceUpsertQuery() string {
	if IsMySQL() {
		return `
			INSERT INTO active_sessions (visitor_key, user_id, session_token, last_activity)
			VALUES (?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE
				user_id = IF(VALUES(user_id) > 0, VALUES(user_id), user_id),
				session_token = VALUES(session_token),
				last_activity = VALUES(last_activity)`
	}
	// PostgreSQL and SQLite share ON CONFLICT syntax.
	return ConvertPlaceholders(`
		INSERT INTO active_sessions (visitor_key, user_id, session_token, last_activity)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (visitor_key) DO UPDATE SET
			user_id = CASE WHEN excluded.user_id > 0 THEN excluded.user_id ELSE active_sessions.user_id END,
			session_token = excluded.session_token,
			last_activity = excluded.last_activity`)
}

// DayOfWeekExpr returns a SQL expression yielding the day of week of the
// given timestamp column, normalized to 1=Sunday .. 7=Saturday across
// drivers (MySQL DAYOFWEEK convention).
func DayOfWeekExpr(column string) string {
	switch {
	case IsPostgreSQL():
		return fmt.Sprintf("CAST(EXTRACT(DOW FROM %s) AS INTEGER) + 1", column)
	case IsSQLite():
		return fmt.Sprintf("CAST(strftime('%%w', %s) AS INTEGER) + 1", column)
	default:
		return fmt.Sprintf("DAYOFWEEK(%s)", column)
	}
}

// HourExpr returns a SQL expression yielding the hour of day (0..23) of the
// given timestamp column for the active driver.
func HourExpr(column string) string {
	switch {
	case IsPostgreSQL():
		return fmt.Sprintf("CAST(EXTRACT(HOUR FROM %s) AS INTEGER)", column)
	case IsSQLite():
		return fmt.Sprintf("CAST(strftime('%%H', %s) AS INTEGER)", column)
	default:
		return fmt.Sprintf("HOUR(%s)", column)
	}
}

// IsTrueExpr returns a boolean test for a flag column that works on the
// active driver. PostgreSQL has real booleans; MySQL and SQLite store 0/1.
func IsTrueExpr(column string) string {
	if IsPostgreSQL() {
		return column
	}
	return column + " = 1"
}

// QuoteIdentifier quotes table/column names based on database.
func QuoteIdentifier(name string) string {
	if IsMySQL() {
		return fmt.Sprintf("`%s`", name)
	}
	return name
}
