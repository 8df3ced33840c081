// Package config loads walletgate settings from defaults, an optional YAML
// file, WALLETGATE_* environment variables and command-line flags, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/layer-3/walletgate/core"
	"github.com/spf13/pflag"
)

// EnvPrefix is stripped from environment variables; WALLETGATE_COOKIE_NAME maps to cookie.name
const EnvPrefix = "WALLETGATE_"

// DefaultCookieName is used when cookie.name is not configured
const DefaultCookieName = "walletgate_session"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	HTTP       HTTP      `koanf:"http"`
	Cookie     Cookie    `koanf:"cookie"`
	Production bool      `koanf:"production"`
	App        App       `koanf:"app"`
	Challenge  Challenge `koanf:"challenge"`
	Session    Session   `koanf:"session"`
	Sweep      Sweep     `koanf:"sweep"`
	Redis      Redis     `koanf:"redis"`
	Log        Log       `koanf:"log"`
	Metrics    Metrics   `koanf:"metrics"`
}

type HTTP struct {
	Address         string        `koanf:"address"`
	ShutdownTimeout time.Duration `koanf:"shutdowntimeout"`
}

type Cookie struct {
	Name string `koanf:"name"`
}

type App struct {
	// Name is the first line of every challenge message
	Name string `koanf:"name"`
}

type Challenge struct {
	TTL time.Duration `koanf:"ttl"`
}

type Session struct {
	TTL time.Duration `koanf:"ttl"`
}

type Sweep struct {
	// Interval between sweeps of expired challenges and sessions; 0 disables sweeping
	Interval time.Duration `koanf:"interval"`
}

type Redis struct {
	// URL selects the Redis-backed stores and event stream; empty keeps everything in memory
	URL    string `koanf:"url"`
	Prefix string `koanf:"prefix"`
}

type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type Metrics struct {
	Enabled bool `koanf:"enabled"`
}

// RegisterFlags declares every setting on fs. Flag defaults double as the configuration defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("http.address", ":9000", "HTTP listen address")
	fs.Duration("http.shutdowntimeout", 10*time.Second, "graceful shutdown timeout")
	fs.String("cookie.name", DefaultCookieName, "session cookie name")
	fs.Bool("production", false, "production mode; marks the session cookie Secure")
	fs.String("app.name", core.DefaultAppName, "application identifier shown in challenge messages")
	fs.Duration("challenge.ttl", 5*time.Minute, "challenge lifetime")
	fs.Duration("session.ttl", 7*24*time.Hour, "session and cookie lifetime")
	fs.Duration("sweep.interval", time.Minute, "interval between expiry sweeps (0 disables)")
	fs.String("redis.url", "", "Redis URL for shared stores and events (empty = in memory)")
	fs.String("redis.prefix", "walletgate", "Redis key prefix")
	fs.String("log.level", "info", "log level (debug, info, warn, error)")
	fs.String("log.format", "json", "log format (json or text)")
	fs.Bool("metrics.enabled", true, "expose Prometheus metrics on /metrics")
}

// Load merges configFile (optional), the environment and fs into a validated Config
func Load(fs *pflag.FlagSet, configFile string) (Config, error) {
	k := koanf.New(".")

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", configFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	// Flags that were not set explicitly only fill keys still missing
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return Config{}, fmt.Errorf("loading flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects settings the service cannot run with
func (c Config) Validate() error {
	switch {
	case c.HTTP.Address == "":
		return fmt.Errorf("%w: http.address is required", ErrInvalidConfig)
	case strings.TrimSpace(c.Cookie.Name) == "":
		return fmt.Errorf("%w: cookie.name is required", ErrInvalidConfig)
	case c.App.Name == "":
		return fmt.Errorf("%w: app.name is required", ErrInvalidConfig)
	case c.Challenge.TTL <= 0:
		return fmt.Errorf("%w: challenge.ttl must be positive", ErrInvalidConfig)
	case c.Session.TTL <= 0:
		return fmt.Errorf("%w: session.ttl must be positive", ErrInvalidConfig)
	case c.Sweep.Interval < 0:
		return fmt.Errorf("%w: sweep.interval must not be negative", ErrInvalidConfig)
	case c.Log.Format != "json" && c.Log.Format != "text":
		return fmt.Errorf("%w: log.format must be 'json' or 'text', got %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
}
