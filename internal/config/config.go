package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListen   = "127.0.0.1:8080"
	DefaultTimezone = "America/Los_Angeles"
	DefaultFeedURL  = "https://calendar.google.com/calendar/ical/tornadoclasstimes%40gmail.com/public/basic.ics"
	DefaultRefresh  = "*/15 * * * *"

	DefaultFetchTimeoutSeconds = 15
	DefaultSnapshotTTLSeconds  = 300
)

// TeamConfig maps a display name to the lower-case substring that selects
// its events by title.
type TeamConfig struct {
	Name  string `yaml:"name" json:"name"`
	Match string `yaml:"match" json:"match"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA reference zone every event is normalized into.
	Timezone string `yaml:"timezone" json:"timezone"`

	// FeedURL is the public ICS feed.
	FeedURL string `yaml:"feed_url" json:"feed_url"`

	// RefreshCron is a cron-style schedule string used to rebuild the
	// served snapshot.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds" json:"fetch_timeout_seconds"`

	// SnapshotTTLSeconds bounds how stale a served collection may get
	// between cron ticks.
	SnapshotTTLSeconds int `yaml:"snapshot_ttl_seconds" json:"snapshot_ttl_seconds"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	Teams []TeamConfig `yaml:"teams" json:"teams"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultTeams returns the four team buckets the club schedules for.
func DefaultTeams() []TeamConfig {
	return []TeamConfig{
		{Name: "A Team", Match: "a team"},
		{Name: "B Team", Match: "b team"},
		{Name: "Youth Team", Match: "youth"},
		{Name: "Beginners", Match: "beginners"},
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:              DefaultListen,
		Timezone:            DefaultTimezone,
		FeedURL:             DefaultFeedURL,
		RefreshCron:         DefaultRefresh,
		FetchTimeoutSeconds: DefaultFetchTimeoutSeconds,
		SnapshotTTLSeconds:  DefaultSnapshotTTLSeconds,
		LogLevel:            "info",
		Teams:               DefaultTeams(),
		BasicAuth:           nil,
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.FeedURL == "" {
		c.FeedURL = DefaultFeedURL
	}
	if c.RefreshCron == "" {
		c.RefreshCron = DefaultRefresh
	}
	if c.FetchTimeoutSeconds <= 0 {
		c.FetchTimeoutSeconds = DefaultFetchTimeoutSeconds
	}
	if c.SnapshotTTLSeconds <= 0 {
		c.SnapshotTTLSeconds = DefaultSnapshotTTLSeconds
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	// Drop unusable team rows; match is always compared lower-case.
	teams := make([]TeamConfig, 0, len(c.Teams))
	for _, t := range c.Teams {
		t.Name = strings.TrimSpace(t.Name)
		t.Match = strings.ToLower(strings.TrimSpace(t.Match))
		if t.Match == "" {
			t.Match = strings.ToLower(t.Name)
		}
		if t.Name == "" || t.Match == "" {
			continue
		}
		teams = append(teams, t)
	}
	if len(teams) == 0 {
		teams = DefaultTeams()
	}
	c.Teams = teams
}

// ReferenceLocation loads the configured reference timezone.
func (c *Config) ReferenceLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c *Config) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLSeconds) * time.Second
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms (creating the parent directory) and returned.
//   - Otherwise the YAML is unmarshalled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tornadocal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
