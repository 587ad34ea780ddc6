package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hearth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "hearth.db", cfg.DB.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.Production)
	assert.Equal(t, time.Hour, cfg.Reaper.Interval)
	assert.Equal(t, 30*24*time.Hour, cfg.Reaper.Retention)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
http:
  addr: ":9090"
db:
  path: /var/lib/hearth/hearth.db
log:
  format: json
production: true
reaper:
  interval: 15m
`)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "/var/lib/hearth/hearth.db", cfg.DB.Path)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level, "unset keys keep their defaults")
	assert.True(t, cfg.Production)
	assert.Equal(t, 15*time.Minute, cfg.Reaper.Interval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "db:\n  path: from-file.db\nlog:\n  level: warn\n")
	t.Setenv("HEARTH_DB_PATH", "from-env.db")
	t.Setenv("HEARTH_PRODUCTION", "true")
	t.Setenv("HEARTH_REAPER_RETENTION", "48h")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "from-env.db", cfg.DB.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Production)
	assert.Equal(t, 48*time.Hour, cfg.Reaper.Retention)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("HEARTH_HTTP_ADDR", ":7000")
	t.Setenv("HEARTH_LOG_LEVEL", "debug")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "config file")
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--http-addr", ":7100", "--metrics-enabled=false", "--reaper-interval", "5m"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)

	assert.Equal(t, ":7100", cfg.HTTP.Addr)
	assert.Equal(t, "debug", cfg.Log.Level, "unchanged flags do not clobber env")
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Reaper.Interval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.HTTP.Addr = "" }},
		{"empty db path", func(c *Config) { c.DB.Path = " " }},
		{"bad level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"zero interval", func(c *Config) { c.Reaper.Interval = 0 }},
		{"negative retention", func(c *Config) { c.Reaper.Retention = -time.Hour }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("", nil)
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("HEARTH_LOG_FORMAT", "xml")
	_, err := Load("", nil)
	assert.ErrorContains(t, err, "log.format")
}
