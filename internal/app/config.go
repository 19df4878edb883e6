package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the Retroline backend.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Board       BoardConfig       `mapstructure:"board"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Menu        MenuConfig        `mapstructure:"menu"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// BoardConfig shapes the board identity and per-caller session behavior.
type BoardConfig struct {
	Name    string `mapstructure:"name"`
	Tagline string `mapstructure:"tagline"`
	// MaxNodes is the number of simultaneous caller lines.
	MaxNodes int `mapstructure:"max_nodes"`
	// DailyMinutes is the allowance for new registrations. Zero means
	// unlimited time.
	DailyMinutes int `mapstructure:"daily_minutes"`
	// ChatCapacity bounds the teleconference room.
	ChatCapacity      int           `mapstructure:"chat_capacity"`
	TypeAheadCapacity int           `mapstructure:"typeahead_capacity"`
	Rows              int           `mapstructure:"rows"`
	Cols              int           `mapstructure:"cols"`
	CeremonyDelay     time.Duration `mapstructure:"ceremony_delay"`
	GoodbyePause      time.Duration `mapstructure:"goodbye_pause"`
}

// AuthConfig captures login and session-token settings.
type AuthConfig struct {
	TokenTTL         time.Duration `mapstructure:"token_ttl"`
	LockoutThreshold int           `mapstructure:"lockout_threshold"`
	LockoutWindow    time.Duration `mapstructure:"lockout_window"`
}

// MenuConfig points at an optional menu tree file. An empty path uses the
// built-in stock menu.
type MenuConfig struct {
	Path string `mapstructure:"path"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// MaintenanceConfig schedules background cleanup of expired tokens and old
// login attempts.
type MaintenanceConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Schedule         string        `mapstructure:"schedule"`
	AttemptRetention time.Duration `mapstructure:"attempt_retention"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("RETROLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Board.MaxNodes <= 0 {
		return fmt.Errorf("config: board.max_nodes must be positive")
	}
	if c.Board.ChatCapacity <= 0 {
		return fmt.Errorf("config: board.chat_capacity must be positive")
	}
	if c.Board.DailyMinutes < 0 {
		return fmt.Errorf("config: board.daily_minutes cannot be negative")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/retroline.sqlite")

	v.SetDefault("board.name", "RETROLINE BBS")
	v.SetDefault("board.tagline", "Where it is forever 1993")
	v.SetDefault("board.max_nodes", 8)
	v.SetDefault("board.daily_minutes", 60)
	v.SetDefault("board.chat_capacity", 8)
	v.SetDefault("board.typeahead_capacity", 16)
	v.SetDefault("board.rows", 24)
	v.SetDefault("board.cols", 80)
	v.SetDefault("board.ceremony_delay", "400ms")
	v.SetDefault("board.goodbye_pause", "1500ms")

	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.lockout_threshold", 5)
	v.SetDefault("auth.lockout_window", "15m")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.schedule", "@hourly")
	v.SetDefault("maintenance.attempt_retention", "720h") // 30 days
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
