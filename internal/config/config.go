// Package config handles global outsearch configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Defaults applied by WithDefaults.
const (
	DefaultFormat         = "auto"
	DefaultLogLevel       = "warn"
	DefaultSeparator      = " › "
	DefaultDebounceMS     = 150
	DefaultParseCacheSize = 128
)

// ErrNoOutline is returned when no outline file is configured.
var ErrNoOutline = errors.New("no outline file configured")

// Config represents the global outsearch configuration.
type Config struct {
	// Outline is the default outline file to search.
	Outline string `toml:"outline" json:"outline"`

	// Format forces the outline format: auto, yaml, json, or markdown.
	// "auto" picks by file extension.
	Format string `toml:"format" json:"format"`

	// LogLevel is one of debug, info, warn, error, off.
	LogLevel string `toml:"log_level" json:"log_level"`

	// Separator joins breadcrumb segments in human-readable paths.
	Separator string `toml:"separator" json:"separator"`

	// DebounceMS delays index flushes after a burst of changes.
	DebounceMS int `toml:"debounce_ms" json:"debounce_ms"`

	ParseCacheSize int `toml:"parse_cache_size" json:"parse_cache_size"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui" json:"ui"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown rendering.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent" json:"accent"`
}

// WithDefaults returns a copy of c with every unset field filled in.
func (c Config) WithDefaults() Config {
	if strings.TrimSpace(c.Format) == "" {
		c.Format = DefaultFormat
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Separator == "" {
		c.Separator = DefaultSeparator
	}
	if c.DebounceMS <= 0 {
		c.DebounceMS = DefaultDebounceMS
	}
	if c.ParseCacheSize <= 0 {
		c.ParseCacheSize = DefaultParseCacheSize
	}
	return c
}

// OutlinePath returns the configured outline path, with a leading ~ expanded.
// A relative path is resolved against the directory holding the config file
// when configPath is set.
func (c *Config) OutlinePath(configPath string) (string, error) {
	p := strings.TrimSpace(c.Outline)
	if p == "" {
		return "", ErrNoOutline
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand %s: %w", p, err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	if !filepath.IsAbs(p) && configPath != "" {
		p = filepath.Join(filepath.Dir(configPath), p)
	}
	return filepath.Clean(p), nil
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom loads the configuration from a specific path.
// Returns a default config if the file doesn't exist.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Config{}.WithDefaults()
		return &cfg, nil
	}

	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	config = config.WithDefaults()
	return &config, nil
}

// ResolveConfigPath resolves the effective config path from an optional override.
func ResolveConfigPath(explicitConfigPath string) string {
	if strings.TrimSpace(explicitConfigPath) != "" {
		return explicitConfigPath
	}
	return DefaultPath()
}

// DefaultPath returns the default config file path:
// $XDG_CONFIG_HOME/outsearch/config.toml, then ~/.config/outsearch/config.toml,
// then the OS-specific config directory.
func DefaultPath() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "outsearch", "config.toml")
	}

	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "outsearch", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "outsearch", "config.toml")
	}

	// Last resort fallback
	return filepath.Join(".", "config.toml")
}

const defaultConfig = `# outsearch configuration

# Outline file searched when --outline is not given.
# outline = "~/notes/outline.yaml"

# Outline format: auto (by extension), yaml, json, markdown
# format = "auto"

# log_level = "warn"

# Breadcrumb separator for human-readable paths.
# separator = " › "

# How long watch waits after a change before re-indexing.
# debounce_ms = 150

# parse_cache_size = 128

# Optional UI accent color for headers in terminal output.
# Supports ANSI color codes (0-255) or hex (#RRGGBB).
# [ui]
# accent = "39"
`

// CreateDefault writes a commented default config to path if it doesn't exist.
func CreateDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := writeAtomic(path, []byte(defaultConfig)); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}
