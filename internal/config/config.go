// Package config loads runtime settings from defaults, an optional YAML
// file, HEARTH_* environment variables and command-line flags, in that
// order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

const envPrefix = "HEARTH_"

type Config struct {
	HTTP       HTTPConfig    `koanf:"http"`
	DB         DBConfig      `koanf:"db"`
	Log        LogConfig     `koanf:"log"`
	Production bool          `koanf:"production"`
	Reaper     ReaperConfig  `koanf:"reaper"`
	Metrics    MetricsConfig `koanf:"metrics"`
}

type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

type DBConfig struct {
	Path string `koanf:"path"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type ReaperConfig struct {
	Interval  time.Duration `koanf:"interval"`
	Retention time.Duration `koanf:"retention"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

var defaults = map[string]any{
	"http.addr":        ":8080",
	"db.path":          "hearth.db",
	"log.level":        "info",
	"log.format":       "text",
	"production":       false,
	"reaper.interval":  time.Hour,
	"reaper.retention": 30 * 24 * time.Hour,
	"metrics.enabled":  true,
}

// RegisterFlags adds a flag per setting. Flag names are the keys with
// dots replaced by dashes, e.g. --db-path.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", defaults["http.addr"].(string), "HTTP listen address")
	fs.String("db-path", defaults["db.path"].(string), "SQLite database path")
	fs.String("log-level", defaults["log.level"].(string), "log level (debug, info, warn, error)")
	fs.String("log-format", defaults["log.format"].(string), "log format (text, json)")
	fs.Bool("production", false, "production mode (secure cookies)")
	fs.Duration("reaper-interval", defaults["reaper.interval"].(time.Duration), "how often abandoned homes are swept")
	fs.Duration("reaper-retention", defaults["reaper.retention"].(time.Duration), "how long an empty home is kept")
	fs.Bool("metrics-enabled", defaults["metrics.enabled"].(bool), "serve Prometheus metrics at /metrics")
}

// Load builds the configuration. path may be empty; fs may be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("key", key).Wrap(err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrapf(err, "load config file")
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrapf(err, "load environment")
	}

	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, flagKey(fs)), nil); err != nil {
			return nil, oops.Code("CONFIG_INVALID").Wrapf(err, "load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrapf(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps HEARTH_DB_PATH to db.path.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
}

// flagKey maps --db-path to db.path. Flags that are not settings, such as
// --config, are skipped.
func flagKey(fs *pflag.FlagSet) func(*pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		key := strings.ReplaceAll(f.Name, "-", ".")
		if _, ok := defaults[key]; !ok {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	}
}

func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		problems = append(problems, "http.addr is required")
	}
	if strings.TrimSpace(c.DB.Path) == "" {
		problems = append(problems, "db.path is required")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q is not one of text, json", c.Log.Format))
	}
	if c.Reaper.Interval <= 0 {
		problems = append(problems, "reaper.interval must be positive")
	}
	if c.Reaper.Retention <= 0 {
		problems = append(problems, "reaper.retention must be positive")
	}
	if len(problems) > 0 {
		return oops.Code("CONFIG_INVALID").Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
