package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/aidanlsb/outsearch/internal/config"
	"github.com/aidanlsb/outsearch/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the outsearch config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ResolveConfigPath(configPath)
		created, err := config.CreateDefault(path)
		if err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"path": path, "created": created}, nil)
			return nil
		}
		if created {
			fmt.Println(ui.Success("Created " + path))
		} else {
			fmt.Println(ui.Info("Config already exists at " + path))
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := getConfig()
		outlinePath, _ := c.OutlinePath(resolvedConfigPath)

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"path":         resolvedConfigPath,
				"outline_path": outlinePath,
				"config":       c,
			}, nil)
			return nil
		}

		fmt.Println(ui.Hint("# " + resolvedConfigPath))
		if err := toml.NewEncoder(os.Stdout).Encode(c); err != nil {
			return handleError(ErrInternal, err, "")
		}
		return nil
	},
}

var configSetOutlineCmd = &cobra.Command{
	Use:   "set-outline <path>",
	Short: "Set the default outline file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return handleError(ErrOutlineInvalid, err, "")
		}
		if _, err := os.Stat(abs); err != nil {
			return handleError(ErrOutlineNotFound, err, "")
		}

		c := *getConfig()
		c.Outline = abs
		if err := config.SaveTo(resolvedConfigPath, &c); err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		cfg = &c

		if isJSONOutput() {
			outputSuccess(map[string]string{"path": resolvedConfigPath, "outline": abs}, nil)
			return nil
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default outline set to %s", abs)))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetOutlineCmd)
	rootCmd.AddCommand(configCmd)
}
