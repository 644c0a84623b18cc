// Package config loads console settings from built-in defaults, an optional
// YAML file, a .env file and MILVUS_ADMIN_* environment variables, in that
// order of increasing precedence. Command-line flags are applied on top by
// the CLI.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g.
// MILVUS_ADMIN_ADMIN_HOST for admin.host.
const EnvPrefix = "MILVUS_ADMIN"

type Config struct {
	Admin   AdminConfig   `yaml:"admin"`
	Session SessionConfig `yaml:"session"`
	Refresh RefreshConfig `yaml:"refresh"`
	State   StateConfig   `yaml:"state"`
	Log     LogConfig     `yaml:"log"`
	Watch   WatchConfig   `yaml:"watch"`
}

// AdminConfig locates the admin HTTP API.
type AdminConfig struct {
	Scheme  string        `yaml:"scheme"`
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	LivenessInterval time.Duration `yaml:"liveness_interval"`
	DefaultHost      string        `yaml:"default_host"`
	DefaultPort      int           `yaml:"default_port"`
}

type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type StateConfig struct {
	Dir string `yaml:"dir"` // empty means $XDG_STATE_HOME/milvus-admin
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // console log file; CLI commands log to stderr
}

type WatchConfig struct {
	Listen         string   `yaml:"listen"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Admin: AdminConfig{
			Scheme:  "http",
			Host:    "localhost",
			Port:    8080,
			Timeout: 10 * time.Second,
		},
		Session: SessionConfig{
			LivenessInterval: 30 * time.Second,
			DefaultHost:      "localhost",
			DefaultPort:      19530,
		},
		Refresh: RefreshConfig{Interval: 30 * time.Second},
		Log:     LogConfig{Level: "info"},
		Watch: WatchConfig{
			Listen:         ":9090",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// keys lists every setting that can be overridden from the environment.
var keys = []string{
	"admin.scheme", "admin.host", "admin.port", "admin.timeout",
	"session.liveness_interval", "session.default_host", "session.default_port",
	"refresh.interval",
	"state.dir",
	"log.level", "log.file",
	"watch.listen", "watch.allowed_origins",
}

// NewEnv returns a viper instance bound to the MILVUS_ADMIN_* variables.
func NewEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	return v
}

// ApplyEnv overrides settings with any bound environment variables.
func (c *Config) ApplyEnv(v *viper.Viper) error {
	if v == nil {
		v = NewEnv()
	}
	var errs []error
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if !v.IsSet(key) {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
	dur := func(key string, dst *time.Duration) {
		if !v.IsSet(key) {
			return
		}
		d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}

	str("admin.scheme", &c.Admin.Scheme)
	str("admin.host", &c.Admin.Host)
	num("admin.port", &c.Admin.Port)
	dur("admin.timeout", &c.Admin.Timeout)
	dur("session.liveness_interval", &c.Session.LivenessInterval)
	str("session.default_host", &c.Session.DefaultHost)
	num("session.default_port", &c.Session.DefaultPort)
	dur("refresh.interval", &c.Refresh.Interval)
	str("state.dir", &c.State.Dir)
	str("log.level", &c.Log.Level)
	str("log.file", &c.Log.File)
	str("watch.listen", &c.Watch.Listen)
	if v.IsSet("watch.allowed_origins") {
		c.Watch.AllowedOrigins = splitList(v.GetString("watch.allowed_origins"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Resolve runs the whole chain: .env, YAML file, environment, validation.
func Resolve(path, dotenv string) (*Config, error) {
	if err := LoadDotEnv(dotenv); err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(NewEnv()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the console cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Admin.Scheme != "http" && c.Admin.Scheme != "https":
		return fmt.Errorf("admin.scheme must be http or https, got %q", c.Admin.Scheme)
	case c.Admin.Host == "":
		return errors.New("admin.host is empty")
	case c.Admin.Port <= 0 || c.Admin.Port > 65535:
		return fmt.Errorf("admin.port out of range: %d", c.Admin.Port)
	case c.Session.LivenessInterval <= 0:
		return errors.New("session.liveness_interval must be positive")
	case c.Refresh.Interval <= 0:
		return errors.New("refresh.interval must be positive")
	case c.Session.DefaultPort <= 0 || c.Session.DefaultPort > 65535:
		return fmt.Errorf("session.default_port out of range: %d", c.Session.DefaultPort)
	}
	for _, o := range c.Watch.AllowedOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("watch.allowed_origins: %q must start with http:// or https://", o)
		}
	}
	return nil
}

// BaseURL returns the admin API root, e.g. "http://localhost:8080".
func (c *Config) BaseURL() string {
	return c.Admin.Scheme + "://" + net.JoinHostPort(c.Admin.Host, strconv.Itoa(c.Admin.Port))
}
