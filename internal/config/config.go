// Package config manages gitscribe's on-disk state directory.
// Tool settings live in config.toml; the selected model is a separate tiny
// JSON record (see selection.go) so other tooling can rewrite it without a
// TOML parser.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all tool configuration.
type Config struct {
	Models   ModelsConfig   `toml:"models"`
	Generate GenerateConfig `toml:"generate"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ModelsConfig controls artifact storage and downloads.
type ModelsConfig struct {
	Dir      string `toml:"dir"`
	Insecure bool   `toml:"insecure"` // Skip TLS verification on downloads
}

// GenerateConfig controls message generation.
type GenerateConfig struct {
	LlamaBin     string  `toml:"llama_bin"` // Explicit llama binary; empty = auto-detect
	MaxDiffBytes int     `toml:"max_diff_bytes"`
	MaxTokens    int     `toml:"max_tokens"`
	Temperature  float64 `toml:"temperature"`
}

// LoggingConfig controls the warning log.
type LoggingConfig struct {
	File string `toml:"file"`
}

// DefaultConfig returns the defaults for a fresh install.
func DefaultConfig() Config {
	home := Home()
	return Config{
		Models: ModelsConfig{
			Dir: filepath.Join(home, "models"),
		},
		Generate: GenerateConfig{
			MaxDiffBytes: 24 * 1024,
			MaxTokens:    256,
			Temperature:  0.2,
		},
		Logging: LoggingConfig{
			File: filepath.Join(home, "gitscribe.log"),
		},
	}
}

// LoadConfig reads config.toml from the gitscribe home, falling back to
// defaults when no file exists.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(Home(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to config.toml in the gitscribe home.
func SaveConfig(cfg Config) error {
	path := filepath.Join(Home(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Home returns the gitscribe data directory.
// GITSCRIBE_HOME overrides the default ~/.gitscribe.
func Home() string {
	if env := os.Getenv("GITSCRIBE_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".gitscribe")
}
