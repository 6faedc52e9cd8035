package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the attest configuration.
type Config struct {
	AssertReceiveTimeout int      `json:"assertReceiveTimeout,omitempty" yaml:"assertReceiveTimeout,omitempty"` // milliseconds
	RefuteReceiveTimeout int      `json:"refuteReceiveTimeout,omitempty" yaml:"refuteReceiveTimeout,omitempty"` // milliseconds
	Parallel             *bool    `json:"parallel,omitempty" yaml:"parallel,omitempty"`
	Concurrency          int      `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
	Bail                 *bool    `json:"bail,omitempty" yaml:"bail,omitempty"`
	Verbose              *bool    `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	NoColor              *bool    `json:"noColor,omitempty" yaml:"noColor,omitempty"`
	Reporters            []string `json:"reporters,omitempty" yaml:"reporters,omitempty"`
	OutputDir            string   `json:"outputDir,omitempty" yaml:"outputDir,omitempty"`
	HistoryDB            string   `json:"historyDb,omitempty" yaml:"historyDb,omitempty"`
	NameFilter           string   `json:"nameFilter,omitempty" yaml:"nameFilter,omitempty"`
}

// BoolPtr returns a pointer to a bool value.
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil.
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetParallel returns the parallel setting, defaulting to false.
func (c *Config) GetParallel() bool {
	return getBool(c.Parallel, false)
}

// GetBail returns the bail setting, defaulting to false.
func (c *Config) GetBail() bool {
	return getBool(c.Bail, false)
}

// GetVerbose returns the verbose setting, defaulting to false.
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false.
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ConfigFilenames contains the possible config file names, in lookup order.
var ConfigFilenames = []string{
	".attest.config.json",
	"attest.config.json",
	".attest.config.yaml",
	"attest.config.yaml",
	".attestrc",
	".attestrc.json",
}

// LoadConfig loads configuration from the specified path, or searches the
// current directory when path is empty.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory.
// Defaults are returned when no file exists.
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}
	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if isYAML(path) {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return config, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Merge merges another config into this one, with other taking precedence.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // copy

	if other.AssertReceiveTimeout > 0 {
		result.AssertReceiveTimeout = other.AssertReceiveTimeout
	}
	if other.RefuteReceiveTimeout > 0 {
		result.RefuteReceiveTimeout = other.RefuteReceiveTimeout
	}
	if other.Concurrency > 0 {
		result.Concurrency = other.Concurrency
	}
	if other.OutputDir != "" {
		result.OutputDir = other.OutputDir
	}
	if other.HistoryDB != "" {
		result.HistoryDB = other.HistoryDB
	}
	if other.NameFilter != "" {
		result.NameFilter = other.NameFilter
	}

	// boolean flags only override when explicitly set
	if other.Parallel != nil {
		result.Parallel = other.Parallel
	}
	if other.Bail != nil {
		result.Bail = other.Bail
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(other.Reporters) > 0 {
		result.Reporters = other.Reporters
	}

	return &result
}

// SaveConfig saves the configuration to a file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
