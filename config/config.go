// Package config loads and saves the Core's on-disk configuration: default
// run profile, initial tick interval, data directory, and hot-bloom top-k.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Config holds user-configurable defaults.
type Config struct {
	Profile     string `json:"profile"`
	IntervalSec float64 `json:"interval_sec"`
	DataDir     string `json:"data_dir"`
	HotBloomTopK int    `json:"hot_bloom_top_k"`
}

// Default returns a config with sensible defaults.
func Default() Config {
	return Config{
		Profile:      "default",
		IntervalSec:  1.0,
		DataDir:      "",
		HotBloomTopK: 5,
	}
}

// Path returns ~/.config/dawn/config.json (or XDG_CONFIG_HOME). Returns
// empty string if the home directory cannot be determined.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "" // refuse to fall back to /tmp
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "dawn", "config.json")
}

// Load loads config from disk; returns defaults on any error, logging a
// warning only if the file existed but failed to parse.
func Load() Config {
	cfg := Default()
	p := Path()
	if p == "" {
		return cfg
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Printf("dawn: warning: config parse error: %v", err)
		return Default()
	}
	return cfg
}

// Save writes cfg to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := Path()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// ResolvedDataDir resolves the effective data directory: explicit cfg.DataDir,
// else ~/.dawn.
func (c Config) ResolvedDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for data dir: %w (use -datadir)", err)
	}
	return filepath.Join(home, ".dawn"), nil
}
