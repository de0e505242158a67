// Package config handles layered YAML/TOML configuration with environment
// overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/Makepad-fr/tada/internal/model"
)

// Config holds all tada configuration.
type Config struct {
	API   API   `yaml:"api" toml:"api"`
	Cache Cache `yaml:"cache" toml:"cache"`
	Log   Log   `yaml:"log" toml:"log"`
	UI    UI    `yaml:"ui" toml:"ui"`
}

// API holds remote endpoint settings.
type API struct {
	URL     string        `yaml:"url" toml:"url"`
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
	Strict  bool          `yaml:"strict" toml:"strict"` // validate responses against schemas
}

// Cache holds query cache settings.
type Cache struct {
	StaleTime      time.Duration `yaml:"stale_time" toml:"stale_time"`
	ResyncInterval time.Duration `yaml:"resync_interval" toml:"resync_interval"` // 0 disables
	Persist        bool          `yaml:"persist" toml:"persist"`
}

// Log holds logger settings.
type Log struct {
	Level  string `yaml:"level" toml:"level"`   // debug | info | warn | error
	Format string `yaml:"format" toml:"format"` // text | json | logfmt
}

// UI holds rendering settings.
type UI struct {
	Theme  string `yaml:"theme" toml:"theme"`   // classic | neon | mono
	Color  string `yaml:"color" toml:"color"`   // auto | always | never
	Status string `yaml:"status" toml:"status"` // initial filter
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: API{
			URL:     "http://localhost:3000",
			Timeout: 10 * time.Second,
		},
		Cache: Cache{
			StaleTime: 30 * time.Second,
			Persist:   true,
		},
		Log: Log{
			Level:  "warn",
			Format: "text",
		},
		UI: UI{
			Theme:  "classic",
			Color:  "auto",
			Status: "all",
		},
	}
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped. The format
// is picked from the extension: .toml is TOML, anything else YAML.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()
	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}
	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.URL) == "" {
		return errors.New("config: api.url cannot be empty")
	}
	if !strings.HasPrefix(c.API.URL, "http://") && !strings.HasPrefix(c.API.URL, "https://") {
		return fmt.Errorf("config: api.url must start with http:// or https://, got %q", c.API.URL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("config: api.timeout must be positive, got %v", c.API.Timeout)
	}
	if c.Cache.StaleTime < 0 {
		return fmt.Errorf("config: cache.stale_time must be non-negative, got %v", c.Cache.StaleTime)
	}
	if c.Cache.ResyncInterval < 0 {
		return fmt.Errorf("config: cache.resync_interval must be non-negative, got %v", c.Cache.ResyncInterval)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("config: log.format must be text, json or logfmt, got %q", c.Log.Format)
	}
	switch c.UI.Theme {
	case "classic", "neon", "mono":
	default:
		return fmt.Errorf("config: ui.theme must be classic, neon or mono, got %q", c.UI.Theme)
	}
	switch c.UI.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("config: ui.color must be auto, always or never, got %q", c.UI.Color)
	}
	if _, err := model.ParseStatus(c.UI.Status); err != nil {
		return fmt.Errorf("config: ui.status: %w", err)
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: TADA_API_URL, TADA_TIMEOUT, TADA_STRICT,
// TADA_STALE_TIME, TADA_RESYNC_INTERVAL, TADA_LOG_LEVEL, TADA_LOG_FORMAT,
// TADA_THEME, TADA_COLOR.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("TADA_API_URL"); v != "" {
		c.API.URL = v
	}
	if err := envDuration("TADA_TIMEOUT", &c.API.Timeout); err != nil {
		return err
	}
	if v := os.Getenv("TADA_STRICT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: invalid TADA_STRICT %q: %w", v, err)
		}
		c.API.Strict = b
	}
	if err := envDuration("TADA_STALE_TIME", &c.Cache.StaleTime); err != nil {
		return err
	}
	if err := envDuration("TADA_RESYNC_INTERVAL", &c.Cache.ResyncInterval); err != nil {
		return err
	}
	if v := os.Getenv("TADA_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("TADA_LOG_FORMAT"); v != "" {
		c.Log.Format = strings.ToLower(v)
	}
	if v := os.Getenv("TADA_THEME"); v != "" {
		c.UI.Theme = strings.ToLower(v)
	}
	if v := os.Getenv("TADA_COLOR"); v != "" {
		c.UI.Color = strings.ToLower(v)
	}
	return nil
}

func envDuration(name string, dst *time.Duration) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: invalid %s %q: %w", name, v, err)
	}
	*dst = d
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	API   *rawAPI   `yaml:"api" toml:"api"`
	Cache *rawCache `yaml:"cache" toml:"cache"`
	Log   *rawLog   `yaml:"log" toml:"log"`
	UI    *rawUI    `yaml:"ui" toml:"ui"`
}

type rawAPI struct {
	URL     *string        `yaml:"url" toml:"url"`
	Timeout *time.Duration `yaml:"timeout" toml:"timeout"`
	Strict  *bool          `yaml:"strict" toml:"strict"`
}

type rawCache struct {
	StaleTime      *time.Duration `yaml:"stale_time" toml:"stale_time"`
	ResyncInterval *time.Duration `yaml:"resync_interval" toml:"resync_interval"`
	Persist        *bool          `yaml:"persist" toml:"persist"`
}

type rawLog struct {
	Level  *string `yaml:"level" toml:"level"`
	Format *string `yaml:"format" toml:"format"`
}

type rawUI struct {
	Theme  *string `yaml:"theme" toml:"theme"`
	Color  *string `yaml:"color" toml:"color"`
	Status *string `yaml:"status" toml:"status"`
}

func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var raw rawConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		md, err := toml.Decode(string(data), &raw)
		if err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config: parsing %s: unknown key %q", path, undecoded[0].String())
		}
		return &raw, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &raw, nil
}

func (c *Config) merge(r *rawConfig) {
	if a := r.API; a != nil {
		setIf(&c.API.URL, a.URL)
		setIf(&c.API.Timeout, a.Timeout)
		setIf(&c.API.Strict, a.Strict)
	}
	if ca := r.Cache; ca != nil {
		setIf(&c.Cache.StaleTime, ca.StaleTime)
		setIf(&c.Cache.ResyncInterval, ca.ResyncInterval)
		setIf(&c.Cache.Persist, ca.Persist)
	}
	if l := r.Log; l != nil {
		setIf(&c.Log.Level, l.Level)
		setIf(&c.Log.Format, l.Format)
	}
	if u := r.UI; u != nil {
		setIf(&c.UI.Theme, u.Theme)
		setIf(&c.UI.Color, u.Color)
		setIf(&c.UI.Status, u.Status)
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
