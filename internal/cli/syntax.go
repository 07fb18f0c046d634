package cli

import (
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	builtindocs "github.com/aidanlsb/outsearch/docs"
	"github.com/aidanlsb/outsearch/internal/ui"
)

const syntaxDocPath = "reference/query.md"

var syntaxCmd = &cobra.Command{
	Use:   "syntax",
	Short: "Show the query language reference",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := fs.ReadFile(builtindocs.FS, syntaxDocPath)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]string{"path": syntaxDocPath, "content": string(content)}, nil)
			return nil
		}

		display := ui.NewDisplayContext()
		if !display.IsTTY {
			fmt.Print(string(content))
			return nil
		}
		rendered, err := ui.RenderMarkdown(string(content), display.Width)
		if err != nil {
			fmt.Print(string(content))
			return nil
		}
		fmt.Print(rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syntaxCmd)
}
