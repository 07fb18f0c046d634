package outline

import (
	"fmt"
	"slices"
	"sort"
	"time"
)

// Memory is a mutable in-memory outline. It satisfies Snapshot and Source
// (as a live view) and notifies subscribers of every edit.
type Memory struct {
	nodes    map[NodeID]*Node
	edges    map[EdgeID]*Edge
	roots    []EdgeID
	children map[NodeID][]EdgeID

	listeners map[int]func(Change)
	nextSub   int

	// Now stamps created/updated times. Defaults to time.Now.
	Now func() time.Time
}

// NewMemory returns an empty outline.
func NewMemory() *Memory {
	return &Memory{
		nodes:     make(map[NodeID]*Node),
		edges:     make(map[EdgeID]*Edge),
		children:  make(map[NodeID][]EdgeID),
		listeners: make(map[int]func(Change)),
		Now:       time.Now,
	}
}

// Snapshot returns the outline itself; reads see the live state.
func (m *Memory) Snapshot() Snapshot { return m }

// Node implements Snapshot.
func (m *Memory) Node(id NodeID) (Node, bool) {
	n, ok := m.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Edge implements Snapshot.
func (m *Memory) Edge(id EdgeID) (Edge, bool) {
	e, ok := m.edges[id]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// RootEdges implements Snapshot.
func (m *Memory) RootEdges() []EdgeID { return m.roots }

// ChildEdges implements Snapshot.
func (m *Memory) ChildEdges(parent NodeID) []EdgeID { return m.children[parent] }

// Nodes implements Snapshot.
func (m *Memory) Nodes() []NodeID {
	ids := make([]NodeID, 0, len(m.nodes))
	for id := range m.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Edges implements Snapshot.
func (m *Memory) Edges() []EdgeID {
	ids := make([]EdgeID, 0, len(m.edges))
	for id := range m.edges {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Subscribe registers fn for every subsequent change. The returned func
// removes the subscription.
func (m *Memory) Subscribe(fn func(Change)) func() {
	id := m.nextSub
	m.nextSub++
	m.listeners[id] = fn
	return func() { delete(m.listeners, id) }
}

func (m *Memory) emit(c Change) {
	// Listener order is irrelevant: each one sees every change.
	for _, fn := range m.listeners {
		fn(c)
	}
}

func (m *Memory) nowMillis() int64 {
	return m.Now().UnixMilli()
}

// AddNode inserts n, assigning an ID and timestamps when missing.
func (m *Memory) AddNode(n Node) NodeID {
	if n.ID == "" {
		n.ID = NewNodeID()
	}
	if n.Text == "" && len(n.Inline) > 0 {
		n.Text = PlainText(n.Inline)
	}
	now := m.nowMillis()
	if n.Meta.CreatedAt == 0 {
		n.Meta.CreatedAt = now
	}
	if n.Meta.UpdatedAt == 0 {
		n.Meta.UpdatedAt = n.Meta.CreatedAt
	}
	m.nodes[n.ID] = &n
	m.emit(Change{Kind: NodeAdded, NodeID: n.ID})
	return n.ID
}

// AddEdge places child as the last child of parent, or as the last root when
// parent is empty.
func (m *Memory) AddEdge(parent, child NodeID) EdgeID {
	return m.insertEdge(Edge{ID: NewEdgeID(), ParentNodeID: parent, ChildNodeID: child})
}

// AddMirror places an alias of node under parent.
func (m *Memory) AddMirror(parent, node NodeID) EdgeID {
	return m.insertEdge(Edge{ID: NewEdgeID(), ParentNodeID: parent, ChildNodeID: node, MirrorOfNodeID: node})
}

// InsertEdge adds e as-is, keeping siblings ordered by Position. It is used by
// loaders that carry their own edge IDs.
func (m *Memory) InsertEdge(e Edge) EdgeID {
	if e.ID == "" {
		e.ID = NewEdgeID()
	}
	return m.insertEdgeAt(e)
}

func (m *Memory) insertEdge(e Edge) EdgeID {
	e.Position = len(m.siblings(e.ParentNodeID))
	return m.insertEdgeAt(e)
}

func (m *Memory) insertEdgeAt(e Edge) EdgeID {
	m.edges[e.ID] = &e
	m.placeEdge(e.ID)
	m.emit(Change{Kind: EdgeAdded, EdgeID: e.ID})
	if e.IsRoot() {
		m.emit(Change{Kind: RootsChanged})
	}
	return e.ID
}

// AddChild creates a node with text and places it under parent.
func (m *Memory) AddChild(parent NodeID, text string) (NodeID, EdgeID) {
	id := m.AddNode(Node{Text: text, Inline: []Span{{Text: text}}})
	return id, m.AddEdge(parent, id)
}

func (m *Memory) siblings(parent NodeID) []EdgeID {
	if parent == "" {
		return m.roots
	}
	return m.children[parent]
}

func (m *Memory) setSiblings(parent NodeID, ids []EdgeID) {
	if parent == "" {
		m.roots = ids
		return
	}
	if len(ids) == 0 {
		delete(m.children, parent)
		return
	}
	m.children[parent] = ids
}

func (m *Memory) placeEdge(id EdgeID) {
	e := m.edges[id]
	sibs := append(slices.Clone(m.siblings(e.ParentNodeID)), id)
	sort.SliceStable(sibs, func(i, j int) bool {
		return m.edges[sibs[i]].Position < m.edges[sibs[j]].Position
	})
	m.setSiblings(e.ParentNodeID, sibs)
}

func (m *Memory) unplaceEdge(id EdgeID) {
	e := m.edges[id]
	sibs := slices.DeleteFunc(slices.Clone(m.siblings(e.ParentNodeID)), func(x EdgeID) bool { return x == id })
	m.setSiblings(e.ParentNodeID, sibs)
}

// SetText replaces a node's text with a single unmarked span.
func (m *Memory) SetText(id NodeID, text string) error {
	return m.SetInline(id, []Span{{Text: text}})
}

// SetInline replaces a node's rich content.
func (m *Memory) SetInline(id NodeID, spans []Span) error {
	n, ok := m.nodes[id]
	if !ok {
		return fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	n.Inline = spans
	n.Text = PlainText(spans)
	n.Meta.UpdatedAt = m.nowMillis()
	m.emit(Change{Kind: ContentChanged, NodeID: id, Region: RegionText})
	return nil
}

// UpdateMeta applies fn to a node's metadata.
func (m *Memory) UpdateMeta(id NodeID, fn func(*Meta)) error {
	n, ok := m.nodes[id]
	if !ok {
		return fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	fn(&n.Meta)
	m.emit(Change{Kind: ContentChanged, NodeID: id, Region: RegionMeta})
	return nil
}

// SetTags replaces a node's metadata tags.
func (m *Memory) SetTags(id NodeID, tags ...string) error {
	return m.UpdateMeta(id, func(meta *Meta) { meta.Tags = tags })
}

// SetTodo marks a node as a checklist item with the given done flag.
func (m *Memory) SetTodo(id NodeID, done bool) error {
	return m.UpdateMeta(id, func(meta *Meta) { meta.Todo = &done })
}

// RemoveEdge deletes a placement. The child node stays in the node table.
func (m *Memory) RemoveEdge(id EdgeID) error {
	e, ok := m.edges[id]
	if !ok {
		return fmt.Errorf("edge %s: %w", id, ErrNotFound)
	}
	root := e.IsRoot()
	m.unplaceEdge(id)
	delete(m.edges, id)
	m.emit(Change{Kind: EdgeRemoved, EdgeID: id})
	if root {
		m.emit(Change{Kind: RootsChanged})
	}
	return nil
}

// RemoveNode deletes a node together with every edge into or out of it.
func (m *Memory) RemoveNode(id NodeID) error {
	if _, ok := m.nodes[id]; !ok {
		return fmt.Errorf("node %s: %w", id, ErrNotFound)
	}
	for _, eid := range m.Edges() {
		e := m.edges[eid]
		if e.ChildNodeID == id || e.ParentNodeID == id {
			if err := m.RemoveEdge(eid); err != nil {
				return err
			}
		}
	}
	delete(m.nodes, id)
	m.emit(Change{Kind: NodeRemoved, NodeID: id})
	return nil
}

// MoveEdge reparents an edge, appending it after newParent's children.
func (m *Memory) MoveEdge(id EdgeID, newParent NodeID) error {
	e, ok := m.edges[id]
	if !ok {
		return fmt.Errorf("edge %s: %w", id, ErrNotFound)
	}
	if newParent != "" {
		if _, ok := m.nodes[newParent]; !ok {
			return fmt.Errorf("node %s: %w", newParent, ErrNotFound)
		}
	}
	rootsTouched := e.IsRoot() || newParent == ""
	m.unplaceEdge(id)
	e.ParentNodeID = newParent
	e.Position = len(m.siblings(newParent))
	m.placeEdge(id)
	m.emit(Change{Kind: EdgeMoved, EdgeID: id})
	if rootsTouched {
		m.emit(Change{Kind: RootsChanged})
	}
	return nil
}
