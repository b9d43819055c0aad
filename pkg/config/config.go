package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides
const EnvPrefix = "PATTERN_ATLAS"

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Logging LoggingConfig `mapstructure:"logging"`
	Render  RenderConfig  `mapstructure:"render"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	Mode            string        `mapstructure:"mode"` // gin mode: debug, release, test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Metrics         bool          `mapstructure:"metrics"`
	CORS            CORSConfig    `mapstructure:"cors"`
	RateLimit       RateLimit     `mapstructure:"rate_limit"`
}

// CORSConfig controls cross-origin access for the browser front end
type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxAge         int      `mapstructure:"max_age"`
}

// RateLimit is a per-client token bucket. A zero rate disables limiting.
type RateLimit struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// CatalogConfig controls where pattern records are loaded from.
// RescanSchedule is a cron spec for a periodic full reload, e.g. "@every 10m";
// empty disables it.
type CatalogConfig struct {
	Directory      string        `mapstructure:"directory"`
	Builtin        bool          `mapstructure:"builtin"`
	Watch          bool          `mapstructure:"watch"`
	Debounce       time.Duration `mapstructure:"debounce"`
	Workers        int           `mapstructure:"workers"`
	RescanSchedule string        `mapstructure:"rescan_schedule"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// RenderConfig holds diagram presentation options
type RenderConfig struct {
	NeutralFill string `mapstructure:"neutral_fill"`
	ShowTitles  bool   `mapstructure:"show_titles"`
}

// Default returns the configuration used when no file or environment is present
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			Mode:            "release",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			Metrics:         true,
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				MaxAge:         600,
			},
			RateLimit: RateLimit{
				RequestsPerSecond: 0,
				Burst:             20,
			},
		},
		Catalog: CatalogConfig{
			Directory: "",
			Builtin:   true,
			Watch:     true,
			Debounce:  500 * time.Millisecond,
			Workers:   0,
		},
		Logging: LoggingConfig{Level: "INFO"},
		Render: RenderConfig{
			NeutralFill: "#1f2937",
			ShowTitles:  true,
		},
	}
}

// Load reads the configuration from an optional YAML file and the environment.
// An empty path skips the file and uses defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.metrics", d.Server.Metrics)
	v.SetDefault("server.cors.enabled", d.Server.CORS.Enabled)
	v.SetDefault("server.cors.allowed_origins", d.Server.CORS.AllowedOrigins)
	v.SetDefault("server.cors.max_age", d.Server.CORS.MaxAge)
	v.SetDefault("server.rate_limit.requests_per_second", d.Server.RateLimit.RequestsPerSecond)
	v.SetDefault("server.rate_limit.burst", d.Server.RateLimit.Burst)

	v.SetDefault("catalog.directory", d.Catalog.Directory)
	v.SetDefault("catalog.builtin", d.Catalog.Builtin)
	v.SetDefault("catalog.watch", d.Catalog.Watch)
	v.SetDefault("catalog.debounce", d.Catalog.Debounce)
	v.SetDefault("catalog.workers", d.Catalog.Workers)
	v.SetDefault("catalog.rescan_schedule", d.Catalog.RescanSchedule)

	v.SetDefault("logging.level", d.Logging.Level)

	v.SetDefault("render.neutral_fill", d.Render.NeutralFill)
	v.SetDefault("render.show_titles", d.Render.ShowTitles)
}

// Validate checks settings that would otherwise fail later at startup
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be one of debug, release, test; got %q", c.Server.Mode)
	}
	if !c.Catalog.Builtin && c.Catalog.Directory == "" {
		return fmt.Errorf("catalog.directory is required when the builtin catalog is disabled")
	}
	if c.Catalog.Debounce < 0 {
		return fmt.Errorf("catalog.debounce must not be negative")
	}
	if c.Catalog.Workers < 0 {
		return fmt.Errorf("catalog.workers must not be negative")
	}
	if c.Catalog.RescanSchedule != "" {
		if _, err := cron.ParseStandard(c.Catalog.RescanSchedule); err != nil {
			return fmt.Errorf("catalog.rescan_schedule is not a valid cron spec: %w", err)
		}
	}
	if c.Server.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must not be negative")
	}
	if c.Server.RateLimit.RequestsPerSecond > 0 && c.Server.RateLimit.Burst < 1 {
		return fmt.Errorf("server.rate_limit.burst must be at least 1 when limiting is enabled")
	}
	return nil
}

// LoadEnvFile exports the variables of a dotenv file without overriding the
// ones already set. A missing file is ignored unless required is true.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}
