// Package config handles application configuration from a .env file, an
// optional YAML file, and environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/randytsao24/routereplay/internal/models"
)

const (
	DefaultEnvFile    = ".env"
	DefaultConfigFile = "config.yaml"
)

// Config holds all application configuration.
type Config struct {
	Port               string  `mapstructure:"port"`
	Env                string  `mapstructure:"env"`
	LogLevel           string  `mapstructure:"log_level"`
	RouteSource        string  `mapstructure:"route_source"`
	TickIntervalMS     int     `mapstructure:"tick_interval_ms"`
	CenterLat          float64 `mapstructure:"center_lat"`
	CenterLng          float64 `mapstructure:"center_lng"`
	CacheTTLSeconds    int     `mapstructure:"cache_ttl_seconds"`
	HTTPTimeoutSeconds int     `mapstructure:"http_timeout_seconds"`
	VehicleID          string  `mapstructure:"vehicle_id"`

	// File is the YAML file the values were read from, empty when none existed.
	File string `mapstructure:"-"`
}

var defaults = map[string]any{
	"port":                 "3000",
	"env":                  "development",
	"log_level":            "info",
	"route_source":         "data/dummy-route.json",
	"tick_interval_ms":     2000,
	"center_lat":           17.385044,
	"center_lng":           78.486671,
	"cache_ttl_seconds":    120,
	"http_timeout_seconds": 10,
	"vehicle_id":           "vehicle-1",
}

// Load reads configuration with sensible defaults. Variables from .env are
// added to the environment without overriding ones already set; the YAML
// file named by CONFIG_FILE (default config.yaml) is optional.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = DefaultConfigFile
	}
	return LoadFrom(DefaultEnvFile, path)
}

// LoadFrom is Load with explicit .env and YAML paths. Missing files are skipped.
func LoadFrom(envFile, configFile string) (*Config, error) {
	if envFile != "" && fileExists(envFile) {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if !fileExists(configFile) {
		configFile = ""
	}
	if configFile == "" {
		return decode(newViper(""), "")
	}
	return readFile(configFile)
}

// Watcher reports changes to a YAML config file.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
}

// NewWatcher starts watching configFile. Its directory is watched rather
// than the file, since editors often replace the file on save. Call Run to
// receive changes; Run releases the watcher when it returns.
func NewWatcher(configFile string) (*Watcher, error) {
	if !fileExists(configFile) {
		return nil, fmt.Errorf("watching %s: %w", configFile, os.ErrNotExist)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(configFile)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", configFile, err)
	}
	return &Watcher{path: filepath.Clean(configFile), watcher: fw}, nil
}

// Run re-reads the file on every write and passes the result to onChange
// until ctx is done. Invalid configurations are reported with a nil Config.
func (w *Watcher) Run(ctx context.Context, onChange func(*Config, error)) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			slog.Debug("config file changed", "file", event.Name, "op", event.Op.String())
			onChange(readFile(w.path))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", "error", err)
		}
	}
}

func readFile(configFile string) (*Config, error) {
	v := newViper(configFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return decode(v, configFile)
}

func newViper(configFile string) *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
	}
	return v
}

func decode(v *viper.Viper, configFile string) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.File = configFile
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if port, err := strconv.Atoi(c.Port); err != nil || port < 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %q", c.Port))
	}
	if c.TickIntervalMS <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval_ms must be positive, got %d", c.TickIntervalMS))
	}
	if c.CenterLat < -90 || c.CenterLat > 90 {
		errs = append(errs, fmt.Errorf("center_lat %v out of range", c.CenterLat))
	}
	if c.CenterLng < -180 || c.CenterLng > 180 {
		errs = append(errs, fmt.Errorf("center_lng %v out of range", c.CenterLng))
	}
	if c.RouteSource == "" {
		errs = append(errs, errors.New("route_source is required"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// TickInterval is the playback cadence.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// Center is the map's default center, used as the position when no route is loaded.
func (c *Config) Center() models.RoutePoint {
	return models.RoutePoint{Lat: c.CenterLat, Lng: c.CenterLng}
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return level, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
