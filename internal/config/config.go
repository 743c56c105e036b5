// Package config loads and saves the client's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultBaseURL     = "http://localhost:8000"
	defaultTimeout     = "10s"
	defaultWeekStart   = "sunday"
	defaultRefresh     = "*/5 * * * *"
	defaultLogLevel    = "info"
	defaultCounterAddr = ":8080"
	defaultChatAddr    = ":8082"
	defaultPageSize    = 20
)

type APIConfig struct {
	// BaseURL of the scheduling backend.
	BaseURL string `yaml:"base_url"`
	// Timeout per request, as a Go duration string.
	Timeout string `yaml:"timeout"`
}

type HubConfig struct {
	CounterAddr string `yaml:"counter_addr"`
	ChatAddr    string `yaml:"chat_addr"`
}

type TasksConfig struct {
	PageSize int `yaml:"page_size"`
}

type Config struct {
	API APIConfig `yaml:"api"`

	// Timezone is the IANA zone items are displayed in. Empty means local.
	Timezone string `yaml:"timezone"`

	// WeekStart is "sunday" or "monday".
	WeekStart string `yaml:"week_start"`

	// Refresh is a cron spec for the periodic refetch. "off" disables it.
	Refresh string `yaml:"refresh"`

	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	// DBPath of the local preferences database. Empty means the default
	// location next to this file.
	DBPath string `yaml:"db_path"`

	Hub   HubConfig   `yaml:"hub"`
	Tasks TasksConfig `yaml:"tasks"`
}

func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in zero values and replaces unknown enum values.
func (c *Config) Normalize() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultBaseURL
	}
	if _, err := time.ParseDuration(c.API.Timeout); err != nil {
		c.API.Timeout = defaultTimeout
	}
	switch c.WeekStart {
	case "monday", "sunday":
	default:
		c.WeekStart = defaultWeekStart
	}
	if c.Refresh == "" {
		c.Refresh = defaultRefresh
	}
	switch c.LogLevel {
	case "debug", "info", "error":
	default:
		c.LogLevel = defaultLogLevel
	}
	if c.Hub.CounterAddr == "" {
		c.Hub.CounterAddr = defaultCounterAddr
	}
	if c.Hub.ChatAddr == "" {
		c.Hub.ChatAddr = defaultChatAddr
	}
	if c.Tasks.PageSize <= 0 {
		c.Tasks.PageSize = defaultPageSize
	}
}

// Timeout returns the parsed request timeout.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		d, _ = time.ParseDuration(defaultTimeout)
	}
	return d
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// RefreshEnabled reports whether periodic refetching is on.
func (c *Config) RefreshEnabled() bool {
	return c.Refresh != "off"
}

// DefaultPath returns ~/.config/asap/config.yaml
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "asap", "config.yaml"), nil
}

// Load reads the YAML file at path. A missing file is created with the
// defaults and those defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg atomically with 0600 permissions.
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

	tmp, err := os.CreateTemp(dir, ".asap-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
