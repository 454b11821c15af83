// Package config loads specnav settings from a workspace-local YAML
// file with environment overrides.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/lexcodex/specnav/session"
)

const configFileName = "specnav.yaml"

// Config matches specnav.yaml. Durations are given in milliseconds;
// negative values are clamped to zero on conversion.
type Config struct {
	UpdateOn               string   `yaml:"update_on"`
	UpdateOnTypeDelayMs    int      `yaml:"update_on_type_delay_ms"`
	DoubleClickThresholdMs int      `yaml:"double_click_threshold_ms"`
	Languages              []string `yaml:"languages"`
	Parser                 Parser   `yaml:"parser"`
}

// Parser configures the external structural parser command. An empty
// command selects the embedded tree-sitter extractor.
type Parser struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// DefaultConfigPath returns specnav.yaml within the workspace.
func DefaultConfigPath(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, configFileName)
}

// Default is the configuration used when no file exists.
func Default() *Config {
	return &Config{
		UpdateOn:               string(session.UpdateOnSave),
		UpdateOnTypeDelayMs:    300,
		DoubleClickThresholdMs: 500,
	}
}

// Load reads the config file, falling back to defaults when it is
// missing. A .env file in the working directory is loaded first, and
// SPECNAV_* environment variables override the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if mode := os.Getenv("SPECNAV_UPDATE_ON"); mode != "" {
		cfg.UpdateOn = mode
	}
	if delay := os.Getenv("SPECNAV_TYPE_DELAY_MS"); delay != "" {
		if ms, err := strconv.Atoi(delay); err == nil {
			cfg.UpdateOnTypeDelayMs = ms
		}
	}
	if cmd := os.Getenv("SPECNAV_PARSER_COMMAND"); cmd != "" {
		cfg.Parser.Command = cmd
	}
	return cfg, nil
}

// SessionSettings converts the file representation into the session's
// hot-reloadable settings.
func (c *Config) SessionSettings() session.Settings {
	mode := session.UpdateOnSave
	if c.UpdateOn == string(session.UpdateOnType) {
		mode = session.UpdateOnType
	}
	return session.Settings{
		Mode:           mode,
		TypeDelay:      time.Duration(c.UpdateOnTypeDelayMs) * time.Millisecond,
		ClickThreshold: time.Duration(c.DoubleClickThresholdMs) * time.Millisecond,
		Languages:      c.Languages,
	}
}
