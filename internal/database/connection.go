package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/goatkit/storepulse/internal/config"
)

// Connect opens the configured database, verifies it with a ping and records
// the active driver for the SQL compatibility helpers.
func Connect(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	driver := normalizeDriver(cfg.Driver)
	dsn := cfg.DSN
	if dsn == "" {
		var err error
		dsn, err = buildDSN(driver, cfg)
		if err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}

	SetDriver(driver)
	return db, nil
}

func buildDSN(driver string, cfg config.DatabaseConfig) (string, error) {
	switch driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name), nil
	case "postgres":
		sslmode := cfg.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, sslmode), nil
	case "sqlite3":
		return "file:storepulse.db?_loc=UTC", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

func normalizeDriver(driver string) string {
	switch driver {
	case "", "mariadb":
		return "mysql"
	case "sqlite":
		return "sqlite3"
	default:
		return driver
	}
}
