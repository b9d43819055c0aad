package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Catalog.Builtin)
	assert.True(t, cfg.Catalog.Watch)
	assert.Equal(t, 500*time.Millisecond, cfg.Catalog.Debounce)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "#1f2937", cfg.Render.NeutralFill)
	assert.True(t, cfg.Server.Metrics)
	assert.Equal(t, []string{"*"}, cfg.Server.CORS.AllowedOrigins)
	assert.Zero(t, cfg.Server.RateLimit.RequestsPerSecond)
	assert.Empty(t, cfg.Catalog.RescanSchedule)
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "atlas.yaml")
	content := `
server:
  address: "127.0.0.1:9090"
  mode: debug
  read_timeout: 3s
catalog:
  directory: ./catalog
  watch: false
  debounce: 250ms
  rescan_schedule: "@every 10m"
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Address)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, "./catalog", cfg.Catalog.Directory)
	assert.False(t, cfg.Catalog.Watch)
	assert.Equal(t, 250*time.Millisecond, cfg.Catalog.Debounce)
	assert.Equal(t, "@every 10m", cfg.Catalog.RescanSchedule)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PATTERN_ATLAS_SERVER_ADDRESS", ":7070")
	t.Setenv("PATTERN_ATLAS_LOGGING_LEVEL", "WARN")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, "WARN", cfg.Logging.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty address", func(c *Config) { c.Server.Address = "" }},
		{"bad mode", func(c *Config) { c.Server.Mode = "production" }},
		{"no catalog source", func(c *Config) { c.Catalog.Builtin = false }},
		{"negative debounce", func(c *Config) { c.Catalog.Debounce = -time.Second }},
		{"bad rescan schedule", func(c *Config) { c.Catalog.RescanSchedule = "every tuesday" }},
		{"negative rate", func(c *Config) { c.Server.RateLimit.RequestsPerSecond = -1 }},
		{"rate without burst", func(c *Config) {
			c.Server.RateLimit.RequestsPerSecond = 5
			c.Server.RateLimit.Burst = 0
		}},
	}

	require.NoError(t, Default().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestIsCatalogFile(t *testing.T) {
	assert.True(t, IsCatalogFile(".yaml"))
	assert.True(t, IsCatalogFile(".json"))
	assert.False(t, IsCatalogFile(".md"))
}

func TestLoadEnvFile(t *testing.T) {
	const key = "PATTERN_ATLAS_RENDER_NEUTRAL_FILL"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=\"#000000\"\n"), 0o644))

	require.NoError(t, LoadEnvFile(path, true))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "#000000", cfg.Render.NeutralFill)
}

func TestLoadEnvFile_Missing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), ".env")

	assert.NoError(t, LoadEnvFile(missing, false))
	assert.Error(t, LoadEnvFile(missing, true))
	assert.NoError(t, LoadEnvFile("", true))
}
