// Package config handles configuration loading and validation for folio.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Compositor CompositorConfig `yaml:"compositor" json:"compositor"`
	Reader     ReaderConfig     `yaml:"reader" json:"reader"`
	TUI        TUIConfig        `yaml:"tui" json:"tui"`
	History    HistoryConfig    `yaml:"history" json:"history"`
	DataDir    string           `yaml:"-" json:"data_dir"` // set by caller, not from config file
}

// CompositorConfig controls the external image compositor.
type CompositorConfig struct {
	// Enabled is a pointer so an explicit false survives defaulting.
	Enabled *bool    `yaml:"enabled" json:"enabled"`
	Command []string `yaml:"command" json:"command"` // argv of the ueberzug layer process
	Scaler  string   `yaml:"scaler" json:"scaler"`
}

// ReaderConfig controls layout and scrolling.
type ReaderConfig struct {
	PaddingDivisor  int    `yaml:"padding_divisor" json:"padding_divisor"`   // cols/divisor blank columns on each side
	ScrollPolicy    string `yaml:"scroll_policy" json:"scroll_policy"`       // anchor or advance
	ScratchDir      string `yaml:"scratch_dir" json:"scratch_dir"`           // parent of per-chapter scratch directories
	ContentSelector string `yaml:"content_selector" json:"content_selector"` // CSS selector for HTML chapters
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme string `yaml:"theme" json:"theme"`
}

// HistoryConfig controls the recently read list.
type HistoryConfig struct {
	MaxEntries int `yaml:"max_entries" json:"max_entries"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	enabled := true
	return Config{
		Compositor: CompositorConfig{
			Enabled: &enabled,
			Command: []string{"ueberzug", "layer", "--silent"},
			Scaler:  "contain",
		},
		Reader: ReaderConfig{
			PaddingDivisor: 8,
			ScrollPolicy:   "anchor",
		},
		TUI: TUIConfig{
			Theme: "tokyo-night",
		},
		History: HistoryConfig{
			MaxEntries: 50,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Compositor.Enabled == nil {
		c.Compositor.Enabled = defaults.Compositor.Enabled
	}
	if len(c.Compositor.Command) == 0 {
		c.Compositor.Command = defaults.Compositor.Command
	}
	if c.Compositor.Scaler == "" {
		c.Compositor.Scaler = defaults.Compositor.Scaler
	}
	if c.Reader.PaddingDivisor == 0 {
		c.Reader.PaddingDivisor = defaults.Reader.PaddingDivisor
	}
	if c.Reader.ScrollPolicy == "" {
		c.Reader.ScrollPolicy = defaults.Reader.ScrollPolicy
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
	if c.History.MaxEntries == 0 {
		c.History.MaxEntries = defaults.History.MaxEntries
	}
}

// CompositorEnabled reports whether images are drawn.
func (c *Config) CompositorEnabled() bool {
	return c.Compositor.Enabled == nil || *c.Compositor.Enabled
}

// RecentFile returns the path to the recently read JSON file.
func (c *Config) RecentFile() string {
	return filepath.Join(c.DataDir, "recent.json")
}

// LogFile returns the default log file path.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "folio.log")
}
