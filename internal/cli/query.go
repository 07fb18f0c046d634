package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/outsearch/internal/lastquery"
	"github.com/aidanlsb/outsearch/internal/outline"
	"github.com/aidanlsb/outsearch/internal/search"
)

var queryCmd = &cobra.Command{
	Use:   "query <query>",
	Short: "Search the outline",
	Long: `Search the outline with the outsearch query language.

Matches are printed in outline order with their ancestors for context.
Rows marked ● match; rows marked ○ are shown because a descendant matches.
"+N hidden" means some children of a row did not match.

Query syntax:
  milk                      Text contains "milk"
  "project plan"            Phrase
  #urgent / tag:urgent      Tag equals "urgent" (case-insensitive)
  path:work/q3              Breadcrumb contains "work/q3"
  type:todo                 Checklist items (type:todo:done for completed)
  created>2024-01-01        Created after that day
  updated:[2024-03..2024-06]  Range, both ends inclusive
  a b  /  a AND b           Both
  a OR b                    Either
  NOT a                     Negation; parentheses group

Problems in a query are reported as warnings and the rest of the query
still runs. Use --strict to fail instead.

Examples:
  outsearch query "tag:errand NOT type:todo:done"
  outsearch query --flat "created:[2024-01-01..2024-12-31]"
  outsearch query --scope plan>ms milestones`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().String("scope", "", "Only search the subtree under this edge ID")
	queryCmd.Flags().Bool("flat", false, "List matches in a table instead of a tree")
	queryCmd.Flags().Bool("ids", false, "Show edge IDs")
	queryCmd.Flags().Bool("strict", false, "Fail on query diagnostics")
}

func runQuery(cmd *cobra.Command, args []string) error {
	start := time.Now()
	q := strings.Join(args, " ")
	scope, _ := cmd.Flags().GetString("scope")
	flat, _ := cmd.Flags().GetBool("flat")
	showIDs, _ := cmd.Flags().GetBool("ids")
	strict, _ := cmd.Flags().GetBool("strict")

	s, err := openSession(nil)
	if err != nil {
		return sessionError(err)
	}

	opts := search.Options{ScopeEdgeID: outline.EdgeID(scope)}
	if scope != "" {
		if _, ok := s.engine.Document(opts.ScopeEdgeID); !ok {
			return handleError(ErrEdgeNotFound, fmt.Errorf("edge %q not found", scope), "Run with --ids to see edge IDs")
		}
	}

	pr := s.engine.Parse(q)
	if strict && len(pr.Errors) > 0 {
		return handleErrorWithDetails(ErrQueryInvalid, pr.Errors.Error(), "Run 'outsearch parse' to inspect the query", diagnosticViews(pr.Errors))
	}
	res := s.engine.Run(pr.Expr, opts)
	elapsed := time.Since(start).Milliseconds()

	saveLastQuery(s, q, scope, res)

	if isJSONOutput() {
		meta := &Meta{Count: len(res.Matches), QueryTimeMs: elapsed}
		view := newQueryView(s.engine, pr, res)
		if len(pr.Errors) > 0 {
			outputSuccessWithWarnings(view, diagnosticWarnings(pr.Errors), meta)
		} else {
			outputSuccess(view, meta)
		}
		return nil
	}

	renderDiagnostics(os.Stderr, q, pr.Errors)
	return printResult(os.Stdout, s.engine, res, opts.ScopeEdgeID, flat, showIDs)
}

// saveLastQuery records the numbered matches for 'outsearch last'. Failures
// only get logged.
func saveLastQuery(s *session, q, scope string, res *search.Result) {
	dir := stateDir()
	if dir == "" {
		return
	}
	lq := &lastquery.LastQuery{
		Query:     q,
		Outline:   s.path,
		Scope:     scope,
		Timestamp: time.Now(),
		Results:   make([]lastquery.Entry, 0, len(res.Matches)),
	}
	for i, id := range res.Matches {
		doc, ok := s.engine.Document(id)
		if !ok {
			continue
		}
		lq.Results = append(lq.Results, lastquery.Entry{Num: i + 1, EdgeID: id, Text: doc.Text, Path: doc.Path})
	}
	if err := lastquery.Write(dir, lq); err != nil {
		log.Debug().Err(err).Msg("failed to save last query")
	}
}
