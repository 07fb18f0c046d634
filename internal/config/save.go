package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/outsearch/internal/atomicfile"
)

type persistedConfig struct {
	Outline        *string              `toml:"outline,omitempty"`
	Format         *string              `toml:"format,omitempty"`
	LogLevel       *string              `toml:"log_level,omitempty"`
	Separator      *string              `toml:"separator,omitempty"`
	DebounceMS     *int                 `toml:"debounce_ms,omitempty"`
	ParseCacheSize *int                 `toml:"parse_cache_size,omitempty"`
	UI             *persistedUISettings `toml:"ui,omitempty"`
}

type persistedUISettings struct {
	Accent *string `toml:"accent,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// nonDefaultPtr drops values equal to their default so saved files stay
// minimal.
func nonDefaultPtr(value, def int) *int {
	if value <= 0 || value == def {
		return nil
	}
	return &value
}

// SaveTo writes the config to path atomically. Fields left at their defaults
// are omitted.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	out := persistedConfig{
		Outline:        nonEmptyPtr(cfg.Outline),
		DebounceMS:     nonDefaultPtr(cfg.DebounceMS, DefaultDebounceMS),
		ParseCacheSize: nonDefaultPtr(cfg.ParseCacheSize, DefaultParseCacheSize),
	}
	if cfg.Format != DefaultFormat {
		out.Format = nonEmptyPtr(cfg.Format)
	}
	if cfg.LogLevel != DefaultLogLevel {
		out.LogLevel = nonEmptyPtr(cfg.LogLevel)
	}
	if cfg.Separator != "" && cfg.Separator != DefaultSeparator {
		sep := cfg.Separator
		out.Separator = &sep
	}
	if accent := nonEmptyPtr(cfg.UI.Accent); accent != nil {
		out.UI = &persistedUISettings{Accent: accent}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	err := atomicfile.Write(path, 0o644, func(w io.Writer) error {
		return toml.NewEncoder(w).Encode(out)
	})
	if err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	return atomicfile.WriteFile(path, data, 0o644)
}
