// Package config loads rentalcharts settings from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RENTALCHARTS"

// Source drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverHTTP     = "http"
)

type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Cache     CacheConfig     `yaml:"cache"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
	Chart     ChartConfig     `yaml:"chart"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Log       LogConfig       `yaml:"log"`
}

type SourceConfig struct {
	Driver   string         `yaml:"driver"`
	Postgres PostgresConfig `yaml:"postgres"`
	HTTP     HTTPConfig     `yaml:"http"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
	MaxIdle  int    `yaml:"max_idle"`
}

// DSN returns the lib/pq connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type HTTPConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
	Token   string        `yaml:"token"`
}

type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// TimeoutConfig holds the client-side fetch timeouts.
type TimeoutConfig struct {
	Fetch     time.Duration `yaml:"fetch"`
	Dashboard time.Duration `yaml:"dashboard"`
}

type ChartConfig struct {
	DateLayout string   `yaml:"date_layout"`
	TableLimit int      `yaml:"table_limit"`
	Timezone   string   `yaml:"timezone"`
	Currency   string   `yaml:"currency"`
	Palette    []string `yaml:"palette"`
}

// Location resolves Timezone; UTC when empty.
func (c ChartConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

type DashboardConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads path (optional: empty means defaults only), applies
// RENTALCHARTS_* environment overrides and defaults, then validates.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Source.Driver == "" {
		c.Source.Driver = DriverMemory
	}
	if c.Source.Postgres.Port == 0 {
		c.Source.Postgres.Port = 5432
	}
	if c.Source.Postgres.SSLMode == "" {
		c.Source.Postgres.SSLMode = "disable"
	}
	if c.Source.Postgres.MaxConns == 0 {
		c.Source.Postgres.MaxConns = 10
	}
	if c.Source.HTTP.Timeout == 0 {
		c.Source.HTTP.Timeout = 10 * time.Second
	}
	if c.Cache.Addr == "" {
		c.Cache.Addr = "localhost:6379"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Timeouts.Fetch == 0 {
		c.Timeouts.Fetch = 5 * time.Second
	}
	if c.Timeouts.Dashboard == 0 {
		c.Timeouts.Dashboard = 10 * time.Second
	}
	if c.Chart.DateLayout == "" {
		c.Chart.DateLayout = "2006-01-02"
	}
	if c.Chart.TableLimit == 0 {
		c.Chart.TableLimit = 50
	}
	if c.Dashboard.Concurrency == 0 {
		c.Dashboard.Concurrency = 4
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

func (c *Config) validate() error {
	switch c.Source.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Source.Postgres.Host == "" || c.Source.Postgres.Database == "" {
			return fmt.Errorf("source.postgres.host and source.postgres.database are required")
		}
	case DriverHTTP:
		if c.Source.HTTP.BaseURL == "" {
			return fmt.Errorf("source.http.base_url is required")
		}
		if c.Source.HTTP.Retries < 0 {
			return fmt.Errorf("source.http.retries must not be negative")
		}
	default:
		return fmt.Errorf("source.driver %q is not one of memory, postgres, http", c.Source.Driver)
	}
	if c.Cache.Enabled && c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Timeouts.Fetch < 0 || c.Timeouts.Dashboard < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if c.Chart.TableLimit < 0 {
		return fmt.Errorf("chart.table_limit must not be negative")
	}
	if _, err := c.Chart.Location(); err != nil {
		return fmt.Errorf("chart.timezone: %w", err)
	}
	if c.Dashboard.Concurrency < 0 {
		return fmt.Errorf("dashboard.concurrency must not be negative")
	}
	return nil
}

// ============================================================================
// ENVIRONMENT OVERRIDES
// ============================================================================

func (c *Config) loadFromEnv() error {
	setString(&c.Source.Driver, "SOURCE_DRIVER")

	pg := &c.Source.Postgres
	setString(&pg.Host, "PG_HOST")
	setString(&pg.User, "PG_USER")
	setString(&pg.Password, "PG_PASSWORD")
	setString(&pg.Database, "PG_DATABASE")
	setString(&pg.SSLMode, "PG_SSLMODE")
	if err := setInt(&pg.Port, "PG_PORT"); err != nil {
		return err
	}

	setString(&c.Source.HTTP.BaseURL, "HTTP_BASE_URL")
	setString(&c.Source.HTTP.Token, "HTTP_TOKEN")

	setString(&c.Cache.Addr, "REDIS_ADDR")
	setString(&c.Cache.Password, "REDIS_PASSWORD")
	if err := setInt(&c.Cache.DB, "REDIS_DB"); err != nil {
		return err
	}
	if v, ok := lookup("CACHE_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s_CACHE_ENABLED: %w", EnvPrefix, err)
		}
		c.Cache.Enabled = enabled
	}
	if err := setDuration(&c.Timeouts.Fetch, "FETCH_TIMEOUT"); err != nil {
		return err
	}

	setString(&c.Chart.Timezone, "TIMEZONE")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + "_" + name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func setString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func setInt(dst *int, name string) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s_%s: %w", EnvPrefix, name, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, name string) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s_%s: %w", EnvPrefix, name, err)
	}
	*dst = d
	return nil
}
