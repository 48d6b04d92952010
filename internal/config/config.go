// Package config loads process configuration from YAML, following
// internal/config's shape: a top-level struct with sensible defaults,
// overridden by an optional file on disk.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Server holds all configuration for the blaze-compatible server process.
type Server struct {
	// Binary protocol listener.
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// HTTP/REST listener.
	HTTPBindAddress string `yaml:"http_bind_address"`
	HTTPPort        int    `yaml:"http_port"`

	Database DatabaseConfig `yaml:"database"`

	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	// Session lifecycle (spec.md §5).
	KeepAliveIdleSeconds int `yaml:"keep_alive_idle_seconds"`
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
	PingPeriodSeconds    int `yaml:"ping_period_seconds"`

	// Token signing.
	TokenKeyPath   string `yaml:"token_key_path"`
	TokenTTLDays   int    `yaml:"token_ttl_days"`

	// Mission scheduler.
	MissionSchedulerEnabled bool `yaml:"mission_scheduler_enabled"`

	// RefDataPath points at the static content seed consumed by
	// internal/refdata.LoadFromFile. Out of scope per spec.md §1; a missing
	// file loads as empty tables.
	RefDataPath string `yaml:"refdata_path"`
}

// KeepAliveIdle returns KeepAliveIdleSeconds as a time.Duration.
func (s Server) KeepAliveIdle() time.Duration {
	return time.Duration(s.KeepAliveIdleSeconds) * time.Second
}

// RequestTimeout returns RequestTimeoutSeconds as a time.Duration.
func (s Server) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// PingPeriod returns PingPeriodSeconds as a time.Duration.
func (s Server) PingPeriod() time.Duration {
	return time.Duration(s.PingPeriodSeconds) * time.Second
}

// TokenTTL returns TokenTTLDays as a time.Duration.
func (s Server) TokenTTL() time.Duration {
	return time.Duration(s.TokenTTLDays) * 24 * time.Hour
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`

	MaxConns          int32  `yaml:"max_conns"`
	MinConns          int32  `yaml:"min_conns"`
	MaxConnLifetime   string `yaml:"max_conn_lifetime"`
	MaxConnIdleTime   string `yaml:"max_conn_idle_time"`
	HealthCheckPeriod string `yaml:"health_check_period"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	base := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)

	var params []string
	if d.MaxConns > 0 {
		params = append(params, fmt.Sprintf("pool_max_conns=%d", d.MaxConns))
	}
	if d.MinConns > 0 {
		params = append(params, fmt.Sprintf("pool_min_conns=%d", d.MinConns))
	}
	if d.MaxConnLifetime != "" {
		params = append(params, fmt.Sprintf("pool_max_conn_lifetime=%s", d.MaxConnLifetime))
	}
	if d.MaxConnIdleTime != "" {
		params = append(params, fmt.Sprintf("pool_max_conn_idle_time=%s", d.MaxConnIdleTime))
	}
	if d.HealthCheckPeriod != "" {
		params = append(params, fmt.Sprintf("pool_health_check_period=%s", d.HealthCheckPeriod))
	}

	if len(params) > 0 {
		return base + "&" + strings.Join(params, "&")
	}
	return base
}

// Default returns Server config with the defaults from spec.md §5.
func Default() Server {
	return Server{
		BindAddress:           "0.0.0.0",
		Port:                  10000,
		HTTPBindAddress:       "0.0.0.0",
		HTTPPort:              8080,
		LogLevel:              "info",
		KeepAliveIdleSeconds:  40,
		RequestTimeoutSeconds: 20,
		PingPeriodSeconds:     20,
		TokenKeyPath:          "token.key",
		TokenTTLDays:          30,
		MissionSchedulerEnabled: true,
		RefDataPath:           "refdata.yaml",
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "blazecoop",
			Password: "blazecoop",
			DBName:   "blazecoop",
			SSLMode:  "disable",
		},
	}
}

// Load reads Server config from a YAML file, falling back to Default for
// any field the file doesn't set. If path does not exist, returns defaults.
func Load(path string) (Server, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
