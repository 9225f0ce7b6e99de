package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/claude/runplan/internal/progression"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Defaults  ModelDefaults   `yaml:"defaults"`
	Plot      PlotConfig      `yaml:"plot"`
	Log       LogConfig       `yaml:"log"`
	Storage   StorageConfig   `yaml:"storage"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// ModelDefaults are the parameters used when a request leaves a field out.
type ModelDefaults struct {
	Model    string  `yaml:"model"`
	Target   float64 `yaml:"target_mileage"`
	Starting float64 `yaml:"starting_mileage"`
	A        float64 `yaml:"a_parameter"`
	B        float64 `yaml:"b_parameter"`
}

type PlotConfig struct {
	Weeks  int `yaml:"weeks"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StorageConfig struct {
	Driver     string         `yaml:"driver"`
	SQLitePath string         `yaml:"sqlite_path"`
	Postgres   DatabaseConfig `yaml:"postgres"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Addr returns host:port for a plain TCP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SlogLevel maps the configured level name to a slog.Level. Unknown names fall back to Info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 8000},
		Defaults: ModelDefaults{
			Model:    string(progression.KindExponential),
			Target:   50,
			Starting: 10,
			A:        0.8,
			B:        4,
		},
		Plot: PlotConfig{Weeks: 20, Width: 1200, Height: 800},
		Log:  LogConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			SQLitePath: "runplan.db",
			Postgres:   DatabaseConfig{Port: 5432},
		},
		Tailscale: TailscaleConfig{Hostname: "runplan"},
	}
}

// Load reads config from a YAML file on top of Default, then applies
// environment variable overrides. Keys absent from the file keep their default.
// Env vars use the prefix RUNPLAN_:
//
//	RUNPLAN_SERVER_HOST, RUNPLAN_SERVER_PORT, RUNPLAN_AUTH_API_KEY,
//	RUNPLAN_MODEL, RUNPLAN_TARGET_MILEAGE, RUNPLAN_STARTING_MILEAGE,
//	RUNPLAN_A_PARAMETER, RUNPLAN_B_PARAMETER, RUNPLAN_PLOT_WEEKS,
//	RUNPLAN_LOG_LEVEL, RUNPLAN_LOG_FORMAT,
//	RUNPLAN_STORAGE_DRIVER, RUNPLAN_SQLITE_PATH,
//	RUNPLAN_DB_HOST, RUNPLAN_DB_PORT, RUNPLAN_DB_NAME,
//	RUNPLAN_DB_USER, RUNPLAN_DB_PASSWORD, RUNPLAN_DB_SSLMODE,
//	RUNPLAN_TAILSCALE_ENABLED, RUNPLAN_TAILSCALE_HOSTNAME
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return finish(cfg)
}

// LoadOrDefault behaves like Load but starts from the built-in defaults when
// the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return finish(Default())
	}
	return cfg, err
}

func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.Host, "RUNPLAN_SERVER_HOST")
	setInt(&cfg.Server.Port, "RUNPLAN_SERVER_PORT")
	setString(&cfg.Auth.APIKey, "RUNPLAN_AUTH_API_KEY")

	setString(&cfg.Defaults.Model, "RUNPLAN_MODEL")
	setFloat(&cfg.Defaults.Target, "RUNPLAN_TARGET_MILEAGE")
	setFloat(&cfg.Defaults.Starting, "RUNPLAN_STARTING_MILEAGE")
	setFloat(&cfg.Defaults.A, "RUNPLAN_A_PARAMETER")
	setFloat(&cfg.Defaults.B, "RUNPLAN_B_PARAMETER")

	setInt(&cfg.Plot.Weeks, "RUNPLAN_PLOT_WEEKS")
	setString(&cfg.Log.Level, "RUNPLAN_LOG_LEVEL")
	setString(&cfg.Log.Format, "RUNPLAN_LOG_FORMAT")

	setString(&cfg.Storage.Driver, "RUNPLAN_STORAGE_DRIVER")
	setString(&cfg.Storage.SQLitePath, "RUNPLAN_SQLITE_PATH")
	setString(&cfg.Storage.Postgres.Host, "RUNPLAN_DB_HOST")
	setInt(&cfg.Storage.Postgres.Port, "RUNPLAN_DB_PORT")
	setString(&cfg.Storage.Postgres.Name, "RUNPLAN_DB_NAME")
	setString(&cfg.Storage.Postgres.User, "RUNPLAN_DB_USER")
	setString(&cfg.Storage.Postgres.Password, "RUNPLAN_DB_PASSWORD")
	setString(&cfg.Storage.Postgres.SSLMode, "RUNPLAN_DB_SSLMODE")

	if v := os.Getenv("RUNPLAN_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	setString(&cfg.Tailscale.Hostname, "RUNPLAN_TAILSCALE_HOSTNAME")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 1024 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1024..65535, got %d", c.Server.Port)
	}
	if _, err := c.Defaults.Build(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	if c.Plot.Weeks <= 0 {
		return fmt.Errorf("plot.weeks must be positive")
	}
	if c.Plot.Width <= 0 || c.Plot.Height <= 0 {
		return fmt.Errorf("plot.width and plot.height must be positive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	switch c.Storage.Driver {
	case DriverSQLite, DriverNone:
	case DriverPostgres:
		pg := c.Storage.Postgres
		if pg.Host == "" {
			return fmt.Errorf("storage.postgres.host is required")
		}
		if pg.Name == "" {
			return fmt.Errorf("storage.postgres.name is required")
		}
		if pg.User == "" {
			return fmt.Errorf("storage.postgres.user is required")
		}
	default:
		return fmt.Errorf("storage.driver must be one of sqlite, postgres, none; got %q", c.Storage.Driver)
	}
	if c.Tailscale.Enabled && c.Tailscale.StateDir == "" {
		return fmt.Errorf("tailscale.state_dir is required when tailscale is enabled")
	}
	return nil
}
