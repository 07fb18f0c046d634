package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aidanlsb/outsearch/internal/index"
	"github.com/aidanlsb/outsearch/internal/outline"
	"github.com/aidanlsb/outsearch/internal/search"
)

// TreeSource is the read side of an engine a tree view needs.
type TreeSource interface {
	Roots() []outline.EdgeID
	Children(id outline.EdgeID) []outline.EdgeID
	Document(id outline.EdgeID) (*index.Document, bool)
}

// TreeOptions controls RenderTree.
type TreeOptions struct {
	// Root starts rendering at this edge instead of the outline roots.
	Root outline.EdgeID
	// ShowIDs appends each edge ID.
	ShowIDs bool
	Width   int
}

// RenderTree writes the visible part of the outline: matches are marked,
// ancestors shown for context, and partially visible rows note how many
// children are hidden.
func RenderTree(w io.Writer, src TreeSource, res *search.Result, opts TreeOptions) error {
	start := src.Roots()
	if opts.Root != "" {
		start = []outline.EdgeID{opts.Root}
	}

	var walk func(ids []outline.EdgeID, depth int) error
	walk = func(ids []outline.EdgeID, depth int) error {
		for _, id := range ids {
			if !res.IsVisible(id) {
				continue
			}
			doc, ok := src.Document(id)
			if !ok {
				continue
			}
			children := src.Children(id)
			if _, err := fmt.Fprintln(w, treeLine(doc, res, children, depth, opts)); err != nil {
				return err
			}
			if err := walk(children, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(start, 0)
}

func treeLine(doc *index.Document, res *search.Result, children []outline.EdgeID, depth int, opts TreeOptions) string {
	indent := strings.Repeat("  ", depth)
	text := doc.Text
	if text == "" {
		text = "(empty)"
	}
	if opts.Width > 0 {
		text = TruncateWithEllipsis(text, opts.Width-len(indent)-2)
	}

	var line string
	if res.IsMatch(doc.EdgeID) {
		line = indent + Accent.Render(SymbolMatch) + " " + text
	} else {
		line = indent + Muted.Render(SymbolContext+" "+text)
	}
	if doc.Mirror {
		line += Muted.Render(" ↪")
	}

	if res.IsPartiallyVisible(doc.EdgeID) {
		hidden := 0
		for _, c := range children {
			if !res.IsVisible(c) {
				hidden++
			}
		}
		line += " " + Hint(fmt.Sprintf("+%d hidden", hidden))
	}
	if opts.ShowIDs {
		line += " " + Hint(string(doc.EdgeID))
	}
	return line
}
