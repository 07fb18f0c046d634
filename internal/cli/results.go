package cli

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/aidanlsb/outsearch/internal/index"
	"github.com/aidanlsb/outsearch/internal/outline"
	"github.com/aidanlsb/outsearch/internal/query"
	"github.com/aidanlsb/outsearch/internal/search"
	"github.com/aidanlsb/outsearch/internal/ui"
)

// matchView is the JSON shape of one matching document.
type matchView struct {
	EdgeID  outline.EdgeID `json:"edge_id"`
	NodeID  outline.NodeID `json:"node_id"`
	Text    string         `json:"text"`
	Path    string         `json:"path"`
	Tags    []string       `json:"tags,omitempty"`
	Types   []string       `json:"types"`
	Created string         `json:"created"`
	Updated string         `json:"updated"`
	Mirror  bool           `json:"mirror,omitempty"`
}

// queryView is the JSON payload of query and watch.
type queryView struct {
	Query            string           `json:"query"`
	Expression       string           `json:"expression"`
	Matches          []matchView      `json:"matches"`
	Visible          []outline.EdgeID `json:"visible"`
	PartiallyVisible []outline.EdgeID `json:"partially_visible"`
}

// diagnosticView is the JSON shape of a parse diagnostic.
type diagnosticView struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Pos     int    `json:"pos"`
}

func newMatchView(doc *index.Document) matchView {
	return matchView{
		EdgeID:  doc.EdgeID,
		NodeID:  doc.NodeID,
		Text:    doc.Text,
		Path:    doc.Path,
		Tags:    doc.Tags,
		Types:   doc.Types,
		Created: doc.CreatedISO,
		Updated: doc.UpdatedISO,
		Mirror:  doc.Mirror,
	}
}

func newQueryView(eng *search.Engine, pr *search.ParseResult, res *search.Result) queryView {
	view := queryView{
		Query:            pr.Query,
		Expression:       query.Format(pr.Expr),
		Matches:          make([]matchView, 0, len(res.Matches)),
		Visible:          res.Visible,
		PartiallyVisible: res.PartiallyVisible,
	}
	for _, id := range res.Matches {
		if doc, ok := eng.Document(id); ok {
			view.Matches = append(view.Matches, newMatchView(doc))
		}
	}
	return view
}

func diagnosticViews(errs query.Errors) []diagnosticView {
	out := make([]diagnosticView, len(errs))
	for i, e := range errs {
		out[i] = diagnosticView{Kind: e.Kind.String(), Message: e.Message, Pos: e.Pos}
	}
	return out
}

func diagnosticWarnings(errs query.Errors) []Warning {
	out := make([]Warning, len(errs))
	for i, e := range errs {
		pos := e.Pos
		out[i] = Warning{Code: WarnQueryDiagnostic, Message: e.Message, Pos: &pos}
	}
	return out
}

// renderDiagnostics points at each problem in the query with a caret.
func renderDiagnostics(w io.Writer, q string, errs query.Errors) {
	for _, e := range errs {
		pos := e.Pos
		if pos > len(q) {
			pos = len(q)
		}
		col := utf8.RuneCountInString(q[:pos])
		fmt.Fprintf(w, "  %s\n", q)
		fmt.Fprintf(w, "  %s^\n", strings.Repeat(" ", col))
		fmt.Fprintf(w, "%s\n", ui.Warning(e.Message))
	}
}

// printResult writes matches as a context tree, or as a flat table.
func printResult(w io.Writer, eng *search.Engine, res *search.Result, scope outline.EdgeID, flat, showIDs bool) error {
	display := ui.NewDisplayContext()
	if len(res.Matches) == 0 {
		fmt.Fprintln(w, ui.Hint("No matches"))
		return nil
	}

	if flat {
		tbl := ui.NewResultsTable(display, ui.MatchLayout)
		for i, id := range res.Matches {
			doc, ok := eng.Document(id)
			if !ok {
				continue
			}
			text := doc.Text
			if showIDs {
				text += " " + string(id)
			}
			tbl.AddRow(ui.FormatRowNum(i+1, len(res.Matches)), text, doc.Path, strings.Join(doc.Tags, " "))
		}
		fmt.Fprintln(w, tbl.Render())
	} else {
		err := ui.RenderTree(w, eng, res, ui.TreeOptions{
			Root:    scope,
			ShowIDs: showIDs,
			Width:   display.ContentWidth(0),
		})
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(w, ui.Hint(ui.Count(len(res.Matches), "match", "matches")))
	return nil
}
