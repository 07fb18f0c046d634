// Package cli implements the command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aidanlsb/outsearch/internal/config"
	"github.com/aidanlsb/outsearch/internal/logger"
	"github.com/aidanlsb/outsearch/internal/metrics"
	"github.com/aidanlsb/outsearch/internal/outline"
	"github.com/aidanlsb/outsearch/internal/search"
	"github.com/aidanlsb/outsearch/internal/ui"
)

var (
	// Global flags
	configPath   string
	outlineFlag  string
	formatFlag   string
	logLevelFlag string

	// Resolved values
	resolvedConfigPath string
	cfg                *config.Config
	log                = zerolog.Nop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "outsearch",
	Short: "Structured search over an outline",
	Long: `outsearch searches a hierarchical outline with a small query language:
free text, field predicates (tag:, path:, type:, created:, updated:), ranges,
and AND / OR / NOT. Matches are shown in context with their ancestors.

Run 'outsearch syntax' for the full query reference.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "completion", "help", "version", "syntax":
			return nil
		}

		var err error
		cfg, resolvedConfigPath, err = loadGlobalConfigWithPath()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "Check the TOML syntax in "+config.ResolveConfigPath(configPath))
		}
		ui.ConfigureTheme(cfg.UI.Accent)

		level := cfg.LogLevel
		if logLevelFlag != "" {
			level = logLevelFlag
		}
		log = logger.New(logger.Config{
			Level:  level,
			Pretty: isatty.IsTerminal(os.Stderr.Fd()) && !jsonOutput,
		})
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	switch {
	case err == nil, errors.Is(err, errReported):
	case jsonOutput:
		outputError(ErrInternal, err.Error(), nil, "")
	default:
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&outlineFlag, "outline", "o", "", "Outline file to search (overrides config)")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "", "Outline format: auto, yaml, json, markdown")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error, off")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)
}

// normalizeFlagName accepts config-style spellings such as --log_level.
func normalizeFlagName(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func loadGlobalConfigWithPath() (*config.Config, string, error) {
	resolvedPath := config.ResolveConfigPath(configPath)
	loadedCfg, err := config.LoadFrom(resolvedPath)
	if err != nil {
		return nil, "", err
	}
	return loadedCfg, resolvedPath, nil
}

// getConfig returns the loaded config, or defaults when no command has
// loaded one.
func getConfig() *config.Config {
	if cfg == nil {
		c := config.Config{}.WithDefaults()
		cfg = &c
	}
	return cfg
}

// resolveOutlinePath picks the outline file: --outline flag, then config.
func resolveOutlinePath() (string, error) {
	if strings.TrimSpace(outlineFlag) != "" {
		return outlineFlag, nil
	}
	return getConfig().OutlinePath(resolvedConfigPath)
}

func resolveFormat() (outline.Format, error) {
	name := formatFlag
	if name == "" {
		name = getConfig().Format
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return outline.FormatAuto, nil
	case "yaml", "yml":
		return outline.FormatYAML, nil
	case "json", "jsonc":
		return outline.FormatJSON, nil
	case "markdown", "md":
		return outline.FormatMarkdown, nil
	}
	return "", fmt.Errorf("%s: %w", name, outline.ErrUnsupportedFormat)
}

// stateDir holds files that outlive one command, next to the config file.
func stateDir() string {
	if resolvedConfigPath == "" {
		return ""
	}
	return filepath.Dir(resolvedConfigPath)
}

// session is a loaded outline with an engine over it.
type session struct {
	path    string
	format  outline.Format
	handle  *outline.Handle
	engine  *search.Engine
	metrics *metrics.Metrics
}

// openSession loads the outline and builds the index. schedule may be nil
// for one-shot commands, which flush on every query anyway.
func openSession(schedule func(flush func())) (*session, error) {
	path, err := resolveOutlinePath()
	if err != nil {
		return nil, err
	}
	return openSessionAt(path, schedule)
}

func openSessionAt(path string, schedule func(flush func())) (*session, error) {
	format, err := resolveFormat()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	mem, err := outline.LoadFile(path, format)
	if err != nil {
		return nil, err
	}

	c := getConfig()
	handle := outline.NewHandle(mem)
	m := metrics.New()
	eng, err := search.New(search.Config{
		Source:         handle,
		Logger:         log,
		Metrics:        m,
		Schedule:       schedule,
		ParseCacheSize: c.ParseCacheSize,
		Separator:      c.Separator,
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("path", path).Dur("elapsed", time.Since(start)).Msg("outline loaded")

	return &session{path: path, format: format, handle: handle, engine: eng, metrics: m}, nil
}

// sessionError maps load failures to error codes.
func sessionError(err error) error {
	switch {
	case errors.Is(err, config.ErrNoOutline):
		return handleError(ErrOutlineNotSpecified, err, "Pass --outline <file> or set outline in "+config.ResolveConfigPath(configPath))
	case errors.Is(err, outline.ErrUnsupportedFormat):
		return handleError(ErrUnsupportedFormat, err, "Use --format yaml|json|markdown")
	case errors.Is(err, fs.ErrNotExist):
		return handleError(ErrOutlineNotFound, err, "")
	}
	return handleError(ErrOutlineInvalid, err, "")
}
