// Package config holds the persistent viewer settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/OpenTraceLab/OpenTraceView/pkg/kicad/schview"
	"github.com/OpenTraceLab/OpenTraceView/pkg/viewer"
)

// Config stores persistent application settings
type Config struct {
	Theme     string  `json:"theme"`
	MinZoom   float64 `json:"min_zoom"`
	MaxZoom   float64 `json:"max_zoom"`
	WheelStep float64 `json:"wheel_step"`
	Hover     bool    `json:"hover"`
}

// Default returns the settings used when no config file exists.
func Default() *Config {
	opts := viewer.DefaultOptions()
	return &Config{
		Theme:     schview.ThemeLight.String(),
		MinZoom:   opts.MinZoom,
		MaxZoom:   opts.MaxZoom,
		WheelStep: opts.WheelStep,
		Hover:     opts.Hover,
	}
}

// DefaultPath returns the platform config file location. It does not create
// the directory.
func DefaultPath() (string, error) {
	// Windows: %APPDATA%\OpenTraceView
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "OpenTraceView", "config.json"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	// Linux/macOS: ~/.config/opentraceview
	return filepath.Join(homeDir, ".config", "opentraceview", "config.json"), nil
}

// Load reads the config at path. A missing file yields the defaults; fields
// absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings the viewer cannot use.
func (c *Config) Validate() error {
	if _, err := schview.ParseTheme(c.Theme); err != nil {
		return err
	}
	if c.MinZoom <= 0 {
		return fmt.Errorf("min_zoom must be positive, got %v", c.MinZoom)
	}
	if c.MaxZoom < c.MinZoom {
		return fmt.Errorf("max_zoom %v is below min_zoom %v", c.MaxZoom, c.MinZoom)
	}
	if c.WheelStep <= 1 {
		return fmt.Errorf("wheel_step must be greater than 1, got %v", c.WheelStep)
	}
	return nil
}

// ViewerOptions converts the settings for viewer.New.
func (c *Config) ViewerOptions() viewer.Options {
	opts := viewer.DefaultOptions()
	opts.MinZoom = c.MinZoom
	opts.MaxZoom = c.MaxZoom
	opts.WheelStep = c.WheelStep
	opts.Hover = c.Hover
	return opts
}

// SchematicTheme returns the parsed theme, falling back to light.
func (c *Config) SchematicTheme() schview.Theme {
	t, _ := schview.ParseTheme(c.Theme)
	return t
}
