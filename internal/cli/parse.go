package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/outsearch/internal/query"
	"github.com/aidanlsb/outsearch/internal/ui"
)

type tokenView struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Pos   int    `json:"pos"`
}

type parseView struct {
	Query       string           `json:"query"`
	Expression  string           `json:"expression"`
	Diagnostics []diagnosticView `json:"diagnostics"`
	Tokens      []tokenView      `json:"tokens,omitempty"`
}

var parseCmd = &cobra.Command{
	Use:   "parse <query>",
	Short: "Show how a query is parsed",
	Long: `Print the canonical form of a query and any diagnostics.

The canonical form makes grouping explicit, so "a b OR c" prints as
((text:a AND text:b) OR text:c). No outline is needed.

Examples:
  outsearch parse "tag:work created>2024-01-01"
  outsearch parse --tokens "path:\"Work / Q3\""`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().Bool("tokens", false, "Also print the token stream")
}

func runParse(cmd *cobra.Command, args []string) error {
	q := strings.Join(args, " ")
	withTokens, _ := cmd.Flags().GetBool("tokens")

	expr, errs := query.Parse(q)
	view := parseView{
		Query:       q,
		Expression:  query.Format(expr),
		Diagnostics: diagnosticViews(errs),
	}
	if withTokens {
		tokens, _ := query.Tokenize(q)
		for _, tok := range tokens {
			view.Tokens = append(view.Tokens, tokenView{Type: tok.Type.String(), Value: tok.Value, Pos: tok.Pos})
		}
	}

	if isJSONOutput() {
		outputSuccess(view, &Meta{Count: len(errs)})
		return nil
	}

	if view.Expression == "" {
		fmt.Println(ui.Hint("(empty query)"))
	} else {
		fmt.Println(view.Expression)
	}
	if withTokens {
		tbl := ui.NewTable(3)
		for _, tok := range view.Tokens {
			tbl.AddRow(fmt.Sprintf("%d", tok.Pos), tok.Type, tok.Value)
		}
		fmt.Print(ui.Hint(tbl.String()))
	}
	if len(errs) > 0 {
		fmt.Println()
		renderDiagnostics(os.Stdout, q, errs)
	}
	return nil
}
