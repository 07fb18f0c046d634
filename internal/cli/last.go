package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/outsearch/internal/lastquery"
	"github.com/aidanlsb/outsearch/internal/ui"
)

// lastEntryView is one selected result, re-read from the current outline.
type lastEntryView struct {
	lastquery.Entry
	Missing bool       `json:"missing,omitempty"`
	Match   *matchView `json:"match,omitempty"`
}

var lastCmd = &cobra.Command{
	Use:   "last [numbers...]",
	Short: "Show results of the most recent query",
	Long: `Without arguments, list the numbered matches of the most recent query.

With numbers, show the full details of those matches as they are in the
outline now. Numbers can be single ("2"), lists ("1,3") or ranges ("2-5").

Examples:
  outsearch last
  outsearch last 1,3-4`,
	RunE: runLast,
}

func init() {
	rootCmd.AddCommand(lastCmd)
}

func runLast(cmd *cobra.Command, args []string) error {
	lq, err := lastquery.Read(stateDir())
	if err != nil {
		if errors.Is(err, lastquery.ErrNoLastQuery) {
			return handleError(ErrNoLastQuery, err, "Run 'outsearch query' first")
		}
		return handleError(ErrInternal, err, "")
	}

	if len(args) == 0 {
		return printLastList(lq)
	}

	nums, err := lastquery.ParseNumberArgs(args)
	if err != nil {
		return handleError(ErrInvalidInput, err, "")
	}
	entries, err := lq.Select(nums)
	if err != nil {
		return handleError(ErrInvalidInput, err, fmt.Sprintf("The last query had %d results", len(lq.Results)))
	}

	path := lq.Outline
	if strings.TrimSpace(outlineFlag) != "" {
		path = outlineFlag
	}
	s, err := openSessionAt(path, nil)
	if err != nil {
		return sessionError(err)
	}

	views := make([]lastEntryView, 0, len(entries))
	for _, e := range entries {
		v := lastEntryView{Entry: e}
		if doc, ok := s.engine.Document(e.EdgeID); ok {
			m := newMatchView(doc)
			v.Match = &m
		} else {
			v.Missing = true
		}
		views = append(views, v)
	}

	if isJSONOutput() {
		outputSuccess(views, &Meta{Count: len(views)})
		return nil
	}

	for i, v := range views {
		if i > 0 {
			fmt.Println()
		}
		if v.Missing {
			fmt.Println(ui.Warningf("%d. %s is no longer in the outline", v.Num, v.Text))
			continue
		}
		m := v.Match
		fmt.Println(ui.AccentBold.Render(fmt.Sprintf("%d. %s", v.Num, m.Text)))
		tbl := ui.NewTable(2)
		tbl.AddRow("path", m.Path)
		tbl.AddRow("edge", string(m.EdgeID))
		if len(m.Tags) > 0 {
			tbl.AddRow("tags", "#"+strings.Join(m.Tags, " #"))
		}
		tbl.AddRow("types", strings.Join(m.Types, ", "))
		tbl.AddRow("created", m.Created)
		tbl.AddRow("updated", m.Updated)
		if m.Mirror {
			tbl.AddRow("mirror", "yes")
		}
		fmt.Print(tbl.String())
	}
	return nil
}

func printLastList(lq *lastquery.LastQuery) error {
	if isJSONOutput() {
		outputSuccess(lq, &Meta{Count: len(lq.Results)})
		return nil
	}

	fmt.Fprintln(os.Stdout, ui.Header(lq.Query)+" "+ui.Hint(lq.Timestamp.Local().Format("2006-01-02 15:04")))
	if len(lq.Results) == 0 {
		fmt.Println(ui.Hint("No matches"))
		return nil
	}
	tbl := ui.NewResultsTable(ui.NewDisplayContext(), ui.MatchLayout)
	for _, e := range lq.Results {
		tbl.AddRow(ui.FormatRowNum(e.Num, len(lq.Results)), e.Text, e.Path, "")
	}
	fmt.Println(tbl.Render())
	return nil
}
