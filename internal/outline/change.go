package outline

import (
	"slices"
)

// ChangeKind classifies a change notification.
type ChangeKind int

const (
	NodeAdded ChangeKind = iota
	NodeRemoved
	EdgeAdded
	EdgeRemoved
	EdgeMoved
	RootsChanged
	ContentChanged
)

func (k ChangeKind) String() string {
	switch k {
	case NodeAdded:
		return "node-added"
	case NodeRemoved:
		return "node-removed"
	case EdgeAdded:
		return "edge-added"
	case EdgeRemoved:
		return "edge-removed"
	case EdgeMoved:
		return "edge-moved"
	case RootsChanged:
		return "roots-changed"
	case ContentChanged:
		return "content-changed"
	default:
		return "unknown"
	}
}

// Region is the part of a node touched by a ContentChanged notification.
type Region int

const (
	RegionText Region = iota // plain or rich text
	RegionMeta               // metadata map (tags, todo, timestamps)
)

func (r Region) String() string {
	if r == RegionMeta {
		return "meta"
	}
	return "text"
}

// Change is a single notification emitted by the outline document.
type Change struct {
	Kind   ChangeKind
	NodeID NodeID // set for node and content changes
	EdgeID EdgeID // set for edge changes
	Region Region // only meaningful for ContentChanged
}

// Structural reports whether the change alters tree shape.
func (c Change) Structural() bool {
	return c.Kind != ContentChanged
}

// Diff compares two snapshots and returns the notifications that turn old into
// next. Structural changes come first, then content changes in node ID order.
func Diff(old, next Snapshot) []Change {
	var changes []Change

	oldNodes := old.Nodes()
	nextNodes := next.Nodes()
	for _, id := range nextNodes {
		if _, ok := old.Node(id); !ok {
			changes = append(changes, Change{Kind: NodeAdded, NodeID: id})
		}
	}
	for _, id := range oldNodes {
		if _, ok := next.Node(id); !ok {
			changes = append(changes, Change{Kind: NodeRemoved, NodeID: id})
		}
	}

	for _, id := range next.Edges() {
		ne, _ := next.Edge(id)
		oe, ok := old.Edge(id)
		switch {
		case !ok:
			changes = append(changes, Change{Kind: EdgeAdded, EdgeID: id})
		case oe.ParentNodeID != ne.ParentNodeID || oe.ChildNodeID != ne.ChildNodeID || oe.Position != ne.Position:
			changes = append(changes, Change{Kind: EdgeMoved, EdgeID: id})
		}
	}
	for _, id := range old.Edges() {
		if _, ok := next.Edge(id); !ok {
			changes = append(changes, Change{Kind: EdgeRemoved, EdgeID: id})
		}
	}

	if !slices.Equal(old.RootEdges(), next.RootEdges()) {
		changes = append(changes, Change{Kind: RootsChanged})
	}

	for _, id := range nextNodes {
		on, ok := old.Node(id)
		if !ok {
			continue
		}
		nn, _ := next.Node(id)
		if on.Text != nn.Text || !spansEqual(on.Inline, nn.Inline) {
			changes = append(changes, Change{Kind: ContentChanged, NodeID: id, Region: RegionText})
		}
		if !metaEqual(on.Meta, nn.Meta) {
			changes = append(changes, Change{Kind: ContentChanged, NodeID: id, Region: RegionMeta})
		}
	}

	return changes
}

func spansEqual(a, b []Span) bool {
	return slices.EqualFunc(a, b, func(x, y Span) bool {
		if x.Text != y.Text || len(x.Marks) != len(y.Marks) {
			return false
		}
		for i := range x.Marks {
			if x.Marks[i].Type != y.Marks[i].Type || !mapsEqual(x.Marks[i].Attrs, y.Marks[i].Attrs) {
				return false
			}
		}
		return true
	})
}

func mapsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func metaEqual(a, b Meta) bool {
	if a.CreatedAt != b.CreatedAt || a.UpdatedAt != b.UpdatedAt {
		return false
	}
	if !slices.Equal(a.Tags, b.Tags) {
		return false
	}
	switch {
	case a.Todo == nil && b.Todo == nil:
		return true
	case a.Todo == nil || b.Todo == nil:
		return false
	default:
		return *a.Todo == *b.Todo
	}
}
