// Package config loads the TOML settings file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// EnvConfigPath points at an explicit config file.
const EnvConfigPath = "TADA_CONFIG"

type Config struct {
	Remote  RemoteConfig  `toml:"remote"`
	View    ViewConfig    `toml:"view"`
	Logging LoggingConfig `toml:"logging"`
	Server  ServerConfig  `toml:"server"`
}

type RemoteConfig struct {
	BaseURL string `toml:"base_url"`
	UserID  int    `toml:"user_id"` // owner reference stamped on new todos
}

type ViewConfig struct {
	Theme string `toml:"theme"` // classic | neon | mono
	Color string `toml:"color"` // auto | always | never
}

type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
}

func Default() Config {
	return Config{
		Remote: RemoteConfig{
			BaseURL: "https://jsonplaceholder.typicode.com",
			UserID:  1,
		},
		View: ViewConfig{
			Theme: "classic",
			Color: "auto",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Bind: "127.0.0.1:8080",
		},
	}
}

// DefaultPath resolves $TADA_CONFIG, then <user config dir>/tada/config.toml.
func DefaultPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, "tada", "config.toml"), nil
}

// Load reads path over defaults. A missing or empty file yields defaults.
// The result is not validated: env and flag overrides are layered on top
// first, then the caller runs Validate.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	return cfg, nil
}

// ApplyEnv layers TADA_BASE_URL and TADA_LOG_LEVEL on top of cfg.
func (c Config) ApplyEnv(getenv func(string) string) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv("TADA_BASE_URL")); v != "" {
		c.Remote.BaseURL = v
	}
	if v := strings.TrimSpace(getenv("TADA_LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
	return c
}

func (c Config) Validate() error {
	raw := strings.TrimSpace(c.Remote.BaseURL)
	if raw == "" {
		return errors.New("remote.base_url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid remote.base_url: %q", c.Remote.BaseURL)
	}
	if c.Remote.UserID <= 0 {
		return fmt.Errorf("remote.user_id must be > 0, got %d", c.Remote.UserID)
	}

	switch strings.ToLower(strings.TrimSpace(c.View.Theme)) {
	case "", "classic", "neon", "mono":
	default:
		return fmt.Errorf("invalid view.theme: %q", c.View.Theme)
	}
	switch strings.ToLower(strings.TrimSpace(c.View.Color)) {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("invalid view.color: %q", c.View.Color)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind is required")
	}
	return nil
}
