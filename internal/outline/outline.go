// Package outline defines the read-only view of an outline document that the
// search index consumes: nodes, the edges that place them in the tree, and the
// change notifications emitted when either is edited.
package outline

import (
	"sync"

	"github.com/google/uuid"
)

// NodeID identifies a node. IDs are opaque and lexically sortable.
type NodeID string

// EdgeID identifies one placement of a node in the tree.
type EdgeID string

// NewNodeID returns a fresh time-ordered node ID.
func NewNodeID() NodeID {
	return NodeID(uuid.Must(uuid.NewV7()).String())
}

// NewEdgeID returns a fresh time-ordered edge ID.
func NewEdgeID() EdgeID {
	return EdgeID(uuid.Must(uuid.NewV7()).String())
}

// Mark is a style applied to an inline span. Tag marks carry their label in
// Attrs["label"].
type Mark struct {
	Type  string            `yaml:"type" json:"type"`
	Attrs map[string]string `yaml:"attrs,omitempty" json:"attrs,omitempty"`
}

// MarkTag is the mark type for inline tags.
const MarkTag = "tag"

// Span is a run of inline text sharing the same marks.
type Span struct {
	Text  string `yaml:"text" json:"text"`
	Marks []Mark `yaml:"marks,omitempty" json:"marks,omitempty"`
}

// Meta is the metadata region of a node.
type Meta struct {
	CreatedAt int64    // milliseconds since epoch
	UpdatedAt int64    // milliseconds since epoch
	Tags      []string // ordered, free text
	Todo      *bool    // nil = not a checklist item; otherwise the done flag
}

// Node is a single outline item.
type Node struct {
	ID     NodeID
	Text   string // plain-text projection of Inline
	Inline []Span
	Meta   Meta
}

// Edge places a child node under a parent node. An empty ParentNodeID marks a
// root position.
type Edge struct {
	ID             EdgeID
	ParentNodeID   NodeID
	ChildNodeID    NodeID
	Collapsed      bool
	MirrorOfNodeID NodeID // non-empty for transclusions
	Position       int
}

// IsRoot reports whether the edge sits at the top level.
func (e Edge) IsRoot() bool { return e.ParentNodeID == "" }

// IsMirror reports whether the edge is a transclusion alias.
func (e Edge) IsMirror() bool { return e.MirrorOfNodeID != "" }

// Snapshot is an immutable view of the outline for the duration of a read.
type Snapshot interface {
	Node(id NodeID) (Node, bool)
	Edge(id EdgeID) (Edge, bool)
	// RootEdges returns top-level edges in sibling order.
	RootEdges() []EdgeID
	// ChildEdges returns the edges under parent in sibling order.
	ChildEdges(parent NodeID) []EdgeID
	// Nodes and Edges return every ID in sorted order.
	Nodes() []NodeID
	Edges() []EdgeID
}

// Source hands out the current snapshot.
type Source interface {
	Snapshot() Snapshot
}

// Handle is a Source whose snapshot can be swapped, e.g. after reloading a
// file. It is safe for concurrent use; the snapshots themselves must not be
// mutated once handed over.
type Handle struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewHandle returns a Handle pointing at snap.
func NewHandle(snap Snapshot) *Handle {
	return &Handle{snap: snap}
}

// Snapshot returns the current snapshot.
func (h *Handle) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap
}

// Set replaces the current snapshot.
func (h *Handle) Set(snap Snapshot) {
	h.mu.Lock()
	h.snap = snap
	h.mu.Unlock()
}

// PlainText concatenates span text.
func PlainText(spans []Span) string {
	switch len(spans) {
	case 0:
		return ""
	case 1:
		return spans[0].Text
	}
	n := 0
	for _, s := range spans {
		n += len(s.Text)
	}
	b := make([]byte, 0, n)
	for _, s := range spans {
		b = append(b, s.Text...)
	}
	return string(b)
}
