package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/masmgr/govcs/vcs"
)

// FileName is the configuration file searched in the working directory and
// then the home directory.
const FileName = ".govcs.json"

// Config is the root configuration structure.
type Config struct {
	Backend string        `json:"backend"`
	Cache   CacheConfig   `json:"cache"`
	Filters FilterConfig  `json:"filters"`
	Listing ListingConfig `json:"listing"`
	Log     LogConfig     `json:"log"`
}

// CacheConfig bounds the per-repository changeset cache.
type CacheConfig struct {
	Size int `json:"size"` // Default: 0 (unbounded)
}

// FilterConfig holds file path filtering options.
type FilterConfig struct {
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
}

// PathFilter converts the filter configuration.
func (f FilterConfig) PathFilter() vcs.PathFilter {
	return vcs.PathFilter{Include: f.Include, Exclude: f.Exclude}
}

// ListingConfig holds defaults for list commands.
type ListingConfig struct {
	DefaultLimit int `json:"defaultLimit"` // 0 lists everything
}

// LogConfig selects diagnostic logging.
type LogConfig struct {
	Level  string `json:"level"`  // trace, debug, info, warn, error, none
	Format string `json:"format"` // text or json
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Backend: "gitrepo",
		Filters: FilterConfig{
			Include: []string{},
			Exclude: []string{},
		},
		Listing: ListingConfig{
			DefaultLimit: 0,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Validate reports settings no command could run with.
func (c *Config) Validate() error {
	if c.Backend == "" {
		return fmt.Errorf("backend must not be empty")
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("cache.size must not be negative, got %d", c.Cache.Size)
	}
	if c.Listing.DefaultLimit < 0 {
		return fmt.Errorf("listing.defaultLimit must not be negative, got %d", c.Listing.DefaultLimit)
	}
	return c.Filters.PathFilter().Validate()
}

// LoadConfig loads configuration from a file, merging with defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		// Try default locations
		candidates := []string{FileName}
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			candidates = append(candidates, filepath.Join(home, FileName))
		} else if envHome := os.Getenv("HOME"); envHome != "" {
			candidates = append(candidates, filepath.Join(envHome, FileName))
		}
		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to a file.
func SaveConfig(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
