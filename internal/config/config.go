package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds configuration options for the optimization pipeline
type Config struct {
	// SplitShorthands expands shorthands before cascade resolution
	SplitShorthands bool `yaml:"split_shorthands"`

	// RemoveIneffective drops overridden declarations and dead selectors
	RemoveIneffective bool `yaml:"remove_ineffective"`

	// MergeShorthands folds surviving longhands back into shorthands
	MergeShorthands bool `yaml:"merge_shorthands"`

	// ExtractMixins factors shared declaration sets into mixins
	ExtractMixins bool `yaml:"extract_mixins"`

	// MinMixinDeclarations is the smallest declaration set worth a mixin
	MinMixinDeclarations int `yaml:"min_mixin_declarations"`

	// IgnoreVendorPrefixes keeps vendor-prefixed code verbatim and unanalyzed
	IgnoreVendorPrefixes bool `yaml:"ignore_vendor_prefixes"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration running every pipeline stage
func Default() Config {
	return Config{
		SplitShorthands:      true,
		RemoveIneffective:    true,
		MergeShorthands:      true,
		ExtractMixins:        true,
		MinMixinDeclarations: 1,
		IgnoreVendorPrefixes: true,
		LogLevel:             "info",
	}
}

// LoadFile reads a YAML configuration file. Keys missing from the file keep
// their default values.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.defaults()
	return cfg, nil
}

func (c *Config) defaults() {
	if c.MinMixinDeclarations <= 0 {
		c.MinMixinDeclarations = 1
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Level maps LogLevel to a slog level, defaulting to info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
