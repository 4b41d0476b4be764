// Package config loads routemesh settings from a TOML file and ROUTEMESH_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hupe1980/routemesh/engine"
	"github.com/hupe1980/routemesh/logging"
	"github.com/hupe1980/routemesh/selftest"
)

// EnvPrefix prefixes every environment override, e.g.
// ROUTEMESH_ROUTER_MAX_REDIRECT_DEPTH.
const EnvPrefix = "ROUTEMESH"

// Config holds application configuration.
type Config struct {
	Router   RouterConfig   `mapstructure:"router"`
	Log      LogConfig      `mapstructure:"log"`
	SelfTest SelfTestConfig `mapstructure:"selftest"`
}

// RouterConfig holds engine settings.
type RouterConfig struct {
	Scheme           string        `mapstructure:"scheme"`
	MaxRedirectDepth int           `mapstructure:"max_redirect_depth"`
	DefaultCacheTTL  time.Duration `mapstructure:"default_cache_ttl"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AddSource bool   `mapstructure:"add_source"`
}

// SelfTestConfig holds self-test runner settings.
type SelfTestConfig struct {
	SettleDelay time.Duration `mapstructure:"settle_delay"`
}

// DefaultPath returns the config file used when ROUTEMESH_CONFIG is unset.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "routemesh", "config.toml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("router.scheme", "routemesh")
	v.SetDefault("router.max_redirect_depth", engine.DefaultConfig.MaxRedirectDepth)
	v.SetDefault("router.default_cache_ttl", engine.DefaultConfig.DefaultCacheTTL)
	v.SetDefault("router.sweep_interval", engine.DefaultConfig.SweepInterval)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.add_source", false)
	v.SetDefault("selftest.settle_delay", selftest.DefaultSettleDelay)
}

// Load reads configuration from file and env. The file is taken from
// ROUTEMESH_CONFIG, else DefaultPath(); a missing file is not an error.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")

	if cfgPath := os.Getenv(EnvPrefix + "_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Router: RouterConfig{
			Scheme:           "routemesh",
			MaxRedirectDepth: engine.DefaultConfig.MaxRedirectDepth,
			DefaultCacheTTL:  engine.DefaultConfig.DefaultCacheTTL,
			SweepInterval:    engine.DefaultConfig.SweepInterval,
		},
		Log:      LogConfig{Level: "info", Format: "text"},
		SelfTest: SelfTestConfig{SettleDelay: selftest.DefaultSettleDelay},
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Router.Scheme) == "":
		return fmt.Errorf("router.scheme must not be empty")
	case c.Router.MaxRedirectDepth < 1:
		return fmt.Errorf("router.max_redirect_depth must be >= 1, got %d", c.Router.MaxRedirectDepth)
	case c.Router.DefaultCacheTTL < 0:
		return fmt.Errorf("router.default_cache_ttl must be >= 0, got %s", c.Router.DefaultCacheTTL)
	case c.Router.SweepInterval <= 0:
		return fmt.Errorf("router.sweep_interval must be > 0, got %s", c.Router.SweepInterval)
	case c.SelfTest.SettleDelay < 0:
		return fmt.Errorf("selftest.settle_delay must be >= 0, got %s", c.SelfTest.SettleDelay)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if f := c.Log.Format; f != "json" && f != "text" {
		return fmt.Errorf("log.format must be json or text, got %q", f)
	}
	return nil
}

// Engine returns the engine tuning derived from c.
func (c Config) Engine() engine.Config {
	return engine.Config{
		MaxRedirectDepth: c.Router.MaxRedirectDepth,
		DefaultCacheTTL:  c.Router.DefaultCacheTTL,
		SweepInterval:    c.Router.SweepInterval,
	}
}

// Logger builds a RouterLogger writing to out.
func (c Config) Logger(out io.Writer) *logging.RouterLogger {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		level = logging.LogLevelInfo
	}

	cfg := logging.DefaultLoggerConfig()
	cfg.Level = level
	cfg.Format = c.Log.Format
	cfg.AddSource = c.Log.AddSource
	if out != nil {
		cfg.Output = out
	}

	return logging.NewLogger(cfg)
}

// Save writes cfg as TOML to path, or to ROUTEMESH_CONFIG / DefaultPath()
// when path is empty, creating the directory if needed.
func Save(cfg Config, path string) error {
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("router.scheme", cfg.Router.Scheme)
	v.Set("router.max_redirect_depth", cfg.Router.MaxRedirectDepth)
	v.Set("router.default_cache_ttl", cfg.Router.DefaultCacheTTL.String())
	v.Set("router.sweep_interval", cfg.Router.SweepInterval.String())
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("log.add_source", cfg.Log.AddSource)
	v.Set("selftest.settle_delay", cfg.SelfTest.SettleDelay.String())

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
