package index

import (
	"strings"

	"github.com/aidanlsb/outsearch/internal/dates"
	"github.com/aidanlsb/outsearch/internal/outline"
)

// Type tags derived for every document.
const (
	TypeNode     = "node"
	TypeTodo     = "todo"
	TypeTodoDone = "todo:done"
)

// DefaultSeparator joins breadcrumb segments for display.
const DefaultSeparator = " › "

// Document is the searchable projection of one edge: the node's content
// plus the breadcrumb of the placement the edge represents.
type Document struct {
	EdgeID outline.EdgeID
	NodeID outline.NodeID

	// Root first, not including this edge.
	AncestorEdgeIDs []outline.EdgeID
	AncestorNodeIDs []outline.NodeID

	Text      string
	TextLower string

	// Ancestor texts followed by the node's own text, whitespace-normalized.
	PathSegments      []string
	PathSegmentsLower []string
	PathLower         string // lower-cased segments joined with "/"
	Path              string // segments joined with the display separator

	Tags      []string
	TagsLower []string
	Types     []string

	CreatedAt  int64
	UpdatedAt  int64
	CreatedISO string
	UpdatedISO string

	Mirror bool
}

// Depth is the number of ancestors.
func (d *Document) Depth() int {
	return len(d.AncestorEdgeIDs)
}

// HasTag reports whether the document carries tag, ignoring case.
func (d *Document) HasTag(tag string) bool {
	tag = strings.ToLower(tag)
	for _, t := range d.TagsLower {
		if t == tag {
			return true
		}
	}
	return false
}

// HasType reports whether the document has the derived type tag.
func (d *Document) HasType(typ string) bool {
	for _, t := range d.Types {
		if t == typ {
			return true
		}
	}
	return false
}

// setContent fills the fields that depend only on the node.
func (d *Document) setContent(node outline.Node) {
	d.NodeID = node.ID
	d.Text = node.Text
	d.TextLower = strings.ToLower(node.Text)

	d.Tags = ExtractTags(node)
	d.TagsLower = make([]string, len(d.Tags))
	for i, t := range d.Tags {
		d.TagsLower[i] = strings.ToLower(t)
	}
	d.Types = deriveTypes(node.Meta)

	d.CreatedAt = node.Meta.CreatedAt
	d.UpdatedAt = node.Meta.UpdatedAt
	d.CreatedISO = dates.FormatISO(node.Meta.CreatedAt)
	d.UpdatedISO = dates.FormatISO(node.Meta.UpdatedAt)
}

// setPath fills the breadcrumb fields from the parent's segments.
func (d *Document) setPath(parentSegments []string, sep string) {
	segments := make([]string, 0, len(parentSegments)+1)
	segments = append(segments, parentSegments...)
	segments = append(segments, normalizeSegment(d.Text))

	lower := make([]string, len(segments))
	for i, s := range segments {
		lower[i] = strings.ToLower(s)
	}

	d.PathSegments = segments
	d.PathSegmentsLower = lower
	d.PathLower = strings.Join(lower, "/")
	d.Path = strings.Join(segments, sep)
}

func deriveTypes(meta outline.Meta) []string {
	types := []string{TypeNode}
	if meta.Todo != nil {
		types = append(types, TypeTodo)
		if *meta.Todo {
			types = append(types, TypeTodoDone)
		}
	}
	return types
}

// normalizeSegment collapses runs of whitespace so that breadcrumbs compare
// the same regardless of how the text was typed.
func normalizeSegment(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
