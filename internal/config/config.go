// Package config loads the StorePulse configuration from file and
// environment. Components receive the sub-structs they need through their
// constructors; nothing outside this package reads viper directly.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/goatkit/storepulse/internal/constants"
)

// Config is the root configuration document.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Tracking TrackingConfig `mapstructure:"tracking"`
	Runner   RunnerConfig   `mapstructure:"runner"`
}

// AppConfig holds process-level settings.
type AppConfig struct {
	Env string `mapstructure:"env"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds the relational store connection settings.
// DSN, when set, wins over the discrete fields.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// AuthConfig holds the admin-surface token settings. StorePulse does not
// issue tokens; it validates tokens minted by the host platform.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// TrackingConfig is the explicit configuration object threaded into the
// recorder, the reclaimer and the reporting layer. All three must observe
// the same threshold within one evaluation, so it travels as one value.
type TrackingConfig struct {
	ThresholdMinutes int      `mapstructure:"threshold_minutes"`
	CookieName       string   `mapstructure:"cookie_name"`
	CookieDomain     string   `mapstructure:"cookie_domain"`
	SkipPathPrefixes []string `mapstructure:"skip_path_prefixes"`
}

// Threshold returns the inactivity threshold as a duration, clamped to the
// supported range. A missing or unreadable value falls back to the default
// rather than failing the caller.
func (t TrackingConfig) Threshold() time.Duration {
	if t.ThresholdMinutes <= 0 {
		return constants.DefaultInactivityThreshold
	}
	d := time.Duration(t.ThresholdMinutes) * time.Minute
	if d < constants.MinInactivityThreshold {
		return constants.MinInactivityThreshold
	}
	if d > constants.MaxInactivityThreshold {
		return constants.MaxInactivityThreshold
	}
	return d
}

// GuestCookieName returns the configured cookie name or the default.
func (t TrackingConfig) GuestCookieName() string {
	if t.CookieName == "" {
		return constants.GuestCookieName
	}
	return t.CookieName
}

// RunnerConfig holds background task settings.
type RunnerConfig struct {
	ReclaimInterval time.Duration `mapstructure:"reclaim_interval"`
}

// Load reads the configuration from the given file (optional) plus
// STOREPULSE_* environment overrides. The returned value is threaded
// through explicitly; there is no package-level config.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("STOREPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "file:storepulse.db?_loc=UTC")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("tracking.threshold_minutes", 5)
	v.SetDefault("tracking.cookie_name", constants.GuestCookieName)
	v.SetDefault("tracking.skip_path_prefixes", []string{"/admin", "/api", "/metrics", "/health", "/static"})
	v.SetDefault("runner.reclaim_interval", 5*time.Minute)
}
