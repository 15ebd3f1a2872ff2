// Package config provides configuration loading and structs for the Shirabe server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Assembly  AssemblyConfig  `yaml:"assembly"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the registry database, the page index, and
// the document files served for citation links.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
	FilesDir       string `yaml:"files_dir"`
	// Container is the logical container name stripped from absolute storage
	// URLs when building citation paths.
	Container string `yaml:"container"`
	// LinkSecret signs citation download links. Empty disables signing.
	LinkSecret string `yaml:"link_secret"`
	// LinkTTLSeconds bounds signed link validity.
	LinkTTLSeconds int `yaml:"link_ttl_seconds"`
}

// RetrievalConfig holds the staged-search policy knobs.
type RetrievalConfig struct {
	ExactMatchThreshold  int `yaml:"exact_match_threshold"`
	PrecisionLimit       int `yaml:"precision_limit"`
	RecallLimit          int `yaml:"recall_limit"`
	ForcedLimit          int `yaml:"forced_limit"`
	SearchTimeoutSeconds int `yaml:"search_timeout_seconds"`
}

// AssemblyConfig holds the context assembly budgets.
type AssemblyConfig struct {
	PageBudget int    `yaml:"page_budget"`
	CharBudget int    `yaml:"char_budget"`
	Policy     string `yaml:"policy"`
}

// WatchConfig holds drop-folder watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Storage.FilesDir = expandPath(cfg.Storage.FilesDir, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
