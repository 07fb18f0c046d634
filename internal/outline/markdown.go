package outline

import (
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Mark types produced by the markdown loader.
const (
	MarkBold   = "bold"
	MarkItalic = "italic"
	MarkCode   = "code"
	MarkStrike = "strike"
	MarkLink   = "link"
)

// LoadMarkdown builds an outline from a markdown file. Headings become root
// items, bullet lists nest under the closest preceding heading (or at the root
// before the first heading), and task-list checkboxes set the todo flag.
// Node IDs are positional ("md-2.1"), so re-parsing an unchanged file yields the
// same IDs. Every node is stamped with modTime.
func LoadMarkdown(src []byte, modTime time.Time) (*Memory, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.TaskList, extension.Strikethrough))
	doc := md.Parser().Parse(text.NewReader(src))

	l := &mdLoader{src: src, b: newBuilder()}
	var heading NodeID
	var headingChildren int
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Heading:
			l.roots++
			id := NodeID(fmt.Sprintf("md-%d", l.roots))
			spans := l.inline(n)
			l.b.node(Node{ID: id, Text: PlainText(spans), Inline: spans})
			l.b.edge(Edge{ParentNodeID: "", ChildNodeID: id, Position: l.roots - 1})
			heading = id
			headingChildren = 0
		case *ast.List:
			if heading == "" {
				for item := n.FirstChild(); item != nil; item = item.NextSibling() {
					l.roots++
					l.item(item, "", fmt.Sprintf("md-%d", l.roots), l.roots-1)
				}
				continue
			}
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				headingChildren++
				l.item(item, heading, fmt.Sprintf("%s.%d", heading, headingChildren), headingChildren-1)
			}
		}
	}

	l.b.stampAll(modTime)
	return l.b.mem, nil
}

type mdLoader struct {
	src   []byte
	b     *builder
	roots int
}

func (l *mdLoader) item(n ast.Node, parent NodeID, id string, position int) {
	node := Node{ID: NodeID(id)}
	var nested []ast.Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c.Kind() {
		case ast.KindTextBlock, ast.KindParagraph:
			if len(node.Inline) > 0 {
				node.Inline = append(node.Inline, Span{Text: " "})
			}
			node.Inline = append(node.Inline, l.inline(c)...)
			if done, ok := taskState(c); ok {
				node.Meta.Todo = &done
			}
		case ast.KindList:
			nested = append(nested, c)
		}
	}
	node.Inline = trimSpans(node.Inline)
	node.Text = PlainText(node.Inline)

	l.b.node(node)
	l.b.edge(Edge{ParentNodeID: parent, ChildNodeID: node.ID, Position: position})

	child := 0
	for _, list := range nested {
		for item := list.FirstChild(); item != nil; item = item.NextSibling() {
			child++
			l.item(item, node.ID, fmt.Sprintf("%s.%d", id, child), child-1)
		}
	}
}

func taskState(block ast.Node) (bool, bool) {
	if first := block.FirstChild(); first != nil {
		if box, ok := first.(*east.TaskCheckBox); ok {
			return box.IsChecked, true
		}
	}
	return false, false
}

// inline flattens a block's inline children into spans.
func (l *mdLoader) inline(block ast.Node) []Span {
	var spans []Span
	var walk func(n ast.Node, marks []Mark)
	walk = func(n ast.Node, marks []Mark) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch c := c.(type) {
			case *ast.Text:
				s := string(c.Segment.Value(l.src))
				if c.SoftLineBreak() || c.HardLineBreak() {
					s += " "
				}
				spans = appendSpan(spans, s, marks)
			case *ast.String:
				spans = appendSpan(spans, string(c.Value), marks)
			case *ast.CodeSpan:
				walk(c, withMark(marks, Mark{Type: MarkCode}))
			case *ast.Emphasis:
				mark := MarkItalic
				if c.Level >= 2 {
					mark = MarkBold
				}
				walk(c, withMark(marks, Mark{Type: mark}))
			case *east.Strikethrough:
				walk(c, withMark(marks, Mark{Type: MarkStrike}))
			case *ast.Link:
				walk(c, withMark(marks, Mark{Type: MarkLink, Attrs: map[string]string{"href": string(c.Destination)}}))
			case *ast.AutoLink:
				url := string(c.URL(l.src))
				spans = appendSpan(spans, url, withMark(marks, Mark{Type: MarkLink, Attrs: map[string]string{"href": url}}))
			case *east.TaskCheckBox:
				// carried on Meta.Todo
			default:
				walk(c, marks)
			}
		}
	}
	walk(block, nil)
	return spans
}

func withMark(marks []Mark, m Mark) []Mark {
	out := make([]Mark, 0, len(marks)+1)
	out = append(out, marks...)
	return append(out, m)
}

// appendSpan merges s into the previous span when the marks match.
func appendSpan(spans []Span, s string, marks []Mark) []Span {
	if s == "" {
		return spans
	}
	if n := len(spans); n > 0 && len(marks) == 0 && len(spans[n-1].Marks) == 0 {
		spans[n-1].Text += s
		return spans
	}
	return append(spans, Span{Text: s, Marks: marks})
}

func trimSpans(spans []Span) []Span {
	if len(spans) == 0 {
		return spans
	}
	spans[0].Text = strings.TrimLeft(spans[0].Text, " ")
	last := len(spans) - 1
	spans[last].Text = strings.TrimRight(spans[last].Text, " ")
	return spans
}
