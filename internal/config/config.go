// Package config loads and validates the tandem configuration file.
//
// Configuration is optional: every field has a default, and the loader
// returns the defaults untouched when no file is found. YAML is the
// primary format, JSON is accepted for generated configs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config contains all configuration sections for the application.
type Config struct {
	Workspace WorkspaceConfig `json:"workspace,omitempty" yaml:"workspace,omitempty"`
	Journal   JournalConfig   `json:"journal,omitempty" yaml:"journal,omitempty"`
	Log       LogConfig       `json:"log,omitempty" yaml:"log,omitempty"`
}

// WorkspaceConfig controls how patches are applied to files on disk.
type WorkspaceConfig struct {
	// Root is the directory patch targets are resolved against.
	Root string `json:"root,omitempty" yaml:"root,omitempty" validate:"required"`
	// Lenient switches patch application from strict verification to
	// clamp-and-continue semantics.
	Lenient bool `json:"lenient,omitempty" yaml:"lenient,omitempty"`
}

// JournalConfig controls the on-disk history of applied patches.
type JournalConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty" validate:"required"`
	// Keep bounds how many journal entries Prune retains. Zero keeps
	// everything.
	Keep int `json:"keep,omitempty" yaml:"keep,omitempty" validate:"min=0"`
}

// LogConfig defines configuration for logging.
type LogConfig struct {
	Level      string `json:"level,omitempty" yaml:"level,omitempty" validate:"omitempty,loglevel"`
	Format     string `json:"format,omitempty" yaml:"format,omitempty" validate:"omitempty,logformat"`
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty" validate:"min=1"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty" validate:"min=0"`
}

// NewDefaultConfig creates a new Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Workspace: NewDefaultWorkspaceConfig(),
		Journal:   NewDefaultJournalConfig(),
		Log:       NewDefaultLogConfig(),
	}
}

// NewDefaultWorkspaceConfig creates default workspace configuration.
func NewDefaultWorkspaceConfig() WorkspaceConfig {
	return WorkspaceConfig{
		Root: ".",
	}
}

// NewDefaultJournalConfig creates default journal configuration.
func NewDefaultJournalConfig() JournalConfig {
	home, _ := os.UserHomeDir()
	return JournalConfig{
		Path: filepath.Join(home, ".tandem", "journal.db"),
		Keep: 200,
	}
}

// NewDefaultLogConfig creates default log configuration.
func NewDefaultLogConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		Format:     "console",
		MaxSizeMB:  10,
		MaxBackups: 3,
	}
}

// ConfigPath determines the configuration file path.
// Priority:
//  1. the path provided on the command line
//  2. the TANDEM_CONFIG environment variable
//  3. tandem.yaml, tandem.yml, or tandem.json in the working directory
//
// An empty return means no config file exists and defaults apply.
func ConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if envPath := os.Getenv("TANDEM_CONFIG"); envPath != "" {
		return envPath
	}
	for _, name := range []string{"tandem.yaml", "tandem.yml", "tandem.json"} {
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			return name
		}
	}
	return ""
}

// Load reads the configuration from providedPath (or a default location)
// on top of the defaults and validates the result.
func Load(providedPath string) (*Config, error) {
	cfg := NewDefaultConfig()

	filePath := ConfigPath(providedPath)
	if filePath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", filePath, err)
	}
	if err := parseConfig(data, filePath, cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseConfig parses the config content based on file extension.
// YAML is assumed unless the extension says JSON.
func parseConfig(data []byte, filePath string, cfg *Config) error {
	if filepath.Ext(filePath) == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse JSON config %s: %w", filePath, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse YAML config %s: %w", filePath, err)
	}
	return nil
}
