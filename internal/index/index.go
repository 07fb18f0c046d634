// Package index maintains an in-memory search index over an outline: one
// Document per reachable edge, kept current by full rebuilds and targeted
// per-node recomputes.
package index

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/aidanlsb/outsearch/internal/metrics"
	"github.com/aidanlsb/outsearch/internal/outline"
)

// Scope says how far a node recompute reaches.
type Scope int

const (
	// ScopeSelf recomputes only the node's own documents.
	ScopeSelf Scope = iota
	// ScopeSubtree also refreshes every descendant's breadcrumb.
	ScopeSubtree
)

func (s Scope) String() string {
	if s == ScopeSubtree {
		return "subtree"
	}
	return "self"
}

// Options configures an Index.
type Options struct {
	// Separator joins breadcrumb segments in Document.Path.
	Separator string
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
}

// Index is the document table plus the structure needed to cascade path
// changes. It is not safe for concurrent use.
type Index struct {
	source    outline.Source
	separator string
	log       zerolog.Logger
	metrics   *metrics.Metrics

	docs   map[outline.EdgeID]*Document
	byNode map[outline.NodeID][]outline.EdgeID

	// Breadcrumb segments per indexed edge, reused when descending.
	paths map[outline.EdgeID][]string

	parent   map[outline.EdgeID]outline.EdgeID
	children map[outline.EdgeID][]outline.EdgeID
	roots    []outline.EdgeID
}

// New creates an empty index reading from source. Call Rebuild to fill it.
func New(source outline.Source, opts Options) *Index {
	sep := opts.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	idx := &Index{
		source:    source,
		separator: sep,
		log:       opts.Logger,
		metrics:   opts.Metrics,
	}
	idx.reset()
	return idx
}

func (x *Index) reset() {
	x.docs = make(map[outline.EdgeID]*Document)
	x.byNode = make(map[outline.NodeID][]outline.EdgeID)
	x.paths = make(map[outline.EdgeID][]string)
	x.parent = make(map[outline.EdgeID]outline.EdgeID)
	x.children = make(map[outline.EdgeID][]outline.EdgeID)
	x.roots = nil
}

type pending struct {
	edge   outline.EdgeID
	parent outline.EdgeID // empty for roots
}

// Rebuild discards all state and indexes every edge reachable from the
// roots, breadth first. A mirror edge gets its own document, but its
// children are only visited after every primary placement, so a subtree
// reachable both ways is indexed under its primary parent. Each edge is
// indexed at most once, which also cuts cycles.
func (x *Index) Rebuild() {
	start := time.Now()
	x.reset()
	snap := x.source.Snapshot()

	var queue []pending
	for _, id := range snap.RootEdges() {
		queue = append(queue, pending{edge: id})
	}

	var mirrors []outline.EdgeID
	for len(queue) > 0 || len(mirrors) > 0 {
		if len(queue) == 0 {
			m := mirrors[0]
			mirrors = mirrors[1:]
			queue = x.expand(snap, m, queue)
			continue
		}

		item := queue[0]
		queue = queue[1:]
		edge, ok := x.index(snap, item)
		if !ok {
			continue
		}
		if edge.IsMirror() {
			mirrors = append(mirrors, edge.ID)
			continue
		}
		queue = x.expand(snap, edge.ID, queue)
	}

	x.log.Debug().
		Int("documents", len(x.docs)).
		Dur("duration", time.Since(start)).
		Msg("index rebuilt")
	x.metrics.RecordRebuild(len(x.docs))
}

// expand queues the child edges of an indexed edge.
func (x *Index) expand(snap outline.Snapshot, id outline.EdgeID, queue []pending) []pending {
	doc := x.docs[id]
	if doc == nil {
		return queue
	}
	for _, child := range snap.ChildEdges(doc.NodeID) {
		queue = append(queue, pending{edge: child, parent: id})
	}
	return queue
}

// index builds the document for one queued edge. Edges already indexed,
// missing, or pointing at a missing node are skipped.
func (x *Index) index(snap outline.Snapshot, item pending) (outline.Edge, bool) {
	if _, done := x.docs[item.edge]; done {
		return outline.Edge{}, false
	}
	edge, ok := snap.Edge(item.edge)
	if !ok {
		return outline.Edge{}, false
	}
	node, ok := snap.Node(edge.ChildNodeID)
	if !ok {
		return outline.Edge{}, false
	}

	doc := &Document{EdgeID: edge.ID, Mirror: edge.IsMirror()}
	var parentSegments []string
	if item.parent != "" {
		parentDoc := x.docs[item.parent]
		doc.AncestorEdgeIDs = append(append([]outline.EdgeID{}, parentDoc.AncestorEdgeIDs...), item.parent)
		doc.AncestorNodeIDs = append(append([]outline.NodeID{}, parentDoc.AncestorNodeIDs...), parentDoc.NodeID)
		parentSegments = x.paths[item.parent]
		x.parent[edge.ID] = item.parent
		x.children[item.parent] = append(x.children[item.parent], edge.ID)
	} else {
		x.roots = append(x.roots, edge.ID)
	}

	doc.setContent(node)
	doc.setPath(parentSegments, x.separator)

	x.docs[edge.ID] = doc
	x.paths[edge.ID] = doc.PathSegments
	x.byNode[node.ID] = append(x.byNode[node.ID], edge.ID)
	return edge, true
}

// UpdateNode recomputes the documents of one node. ScopeSelf refreshes the
// node's own fields; ScopeSubtree also pushes the new breadcrumb down to
// every indexed descendant. A self update whose text actually changed is
// promoted to a subtree update. When the node is gone its documents, their
// descendants, and their path cache entries are dropped.
func (x *Index) UpdateNode(id outline.NodeID, scope Scope) {
	edges := x.byNode[id]
	if len(edges) == 0 {
		return
	}
	snap := x.source.Snapshot()

	node, ok := snap.Node(id)
	if !ok {
		for _, e := range append([]outline.EdgeID{}, edges...) {
			x.dropSubtree(e)
		}
		x.log.Debug().Str("node", string(id)).Msg("dropped documents of deleted node")
		x.metrics.RecordNodeUpdate("delete", len(x.docs))
		return
	}

	effective := scope
	for _, e := range append([]outline.EdgeID{}, edges...) {
		if _, ok := snap.Edge(e); !ok {
			x.dropSubtree(e)
			continue
		}
		doc := x.docs[e]
		if doc == nil {
			continue
		}
		oldText := doc.Text
		doc.setContent(node)
		doc.setPath(x.paths[x.parent[e]], x.separator)
		x.paths[e] = doc.PathSegments

		if scope == ScopeSubtree || doc.Text != oldText {
			effective = ScopeSubtree
			x.cascade(e)
		}
	}
	x.metrics.RecordNodeUpdate(effective.String(), len(x.docs))
}

// cascade refreshes the breadcrumbs of every indexed descendant of e.
func (x *Index) cascade(e outline.EdgeID) {
	stack := append([]outline.EdgeID{}, x.children[e]...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		doc := x.docs[id]
		if doc == nil {
			continue
		}
		doc.setPath(x.paths[x.parent[id]], x.separator)
		x.paths[id] = doc.PathSegments
		stack = append(stack, x.children[id]...)
	}
}

// RemoveEdge drops one edge's document and path cache entry and unlinks it
// from its parent. Descendant documents stay in the table, unreachable from
// Walk, until the next rebuild.
func (x *Index) RemoveEdge(id outline.EdgeID) {
	doc, ok := x.docs[id]
	if !ok {
		return
	}
	delete(x.docs, id)
	delete(x.paths, id)
	x.unlinkNode(doc.NodeID, id)

	if p, ok := x.parent[id]; ok {
		x.children[p] = removeID(x.children[p], id)
		if len(x.children[p]) == 0 {
			delete(x.children, p)
		}
		delete(x.parent, id)
	} else {
		x.roots = removeID(x.roots, id)
	}
	delete(x.children, id)
}

// dropSubtree removes e and every indexed descendant.
func (x *Index) dropSubtree(e outline.EdgeID) {
	var order []outline.EdgeID
	stack := []outline.EdgeID{e}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, id)
		stack = append(stack, x.children[id]...)
	}
	// Children first so each RemoveEdge only unlinks from a live parent.
	for i := len(order) - 1; i >= 0; i-- {
		x.RemoveEdge(order[i])
	}
}

func (x *Index) unlinkNode(node outline.NodeID, id outline.EdgeID) {
	edges := removeID(x.byNode[node], id)
	if len(edges) == 0 {
		delete(x.byNode, node)
		return
	}
	x.byNode[node] = edges
}

func removeID[T comparable](ids []T, id T) []T {
	out := ids[:0:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

// Document returns the document for an edge.
func (x *Index) Document(id outline.EdgeID) (*Document, bool) {
	doc, ok := x.docs[id]
	return doc, ok
}

// Len returns the number of documents.
func (x *Index) Len() int {
	return len(x.docs)
}

// Roots returns the indexed root edges in sibling order.
func (x *Index) Roots() []outline.EdgeID {
	return x.roots
}

// ChildEdges returns the indexed children of an edge in sibling order.
func (x *Index) ChildEdges(id outline.EdgeID) []outline.EdgeID {
	return x.children[id]
}

// Parent returns the indexed parent of an edge; ok is false for roots and
// unknown edges.
func (x *Index) Parent(id outline.EdgeID) (outline.EdgeID, bool) {
	p, ok := x.parent[id]
	return p, ok
}

// EdgesForNode returns every indexed placement of a node.
func (x *Index) EdgesForNode(id outline.NodeID) []outline.EdgeID {
	return x.byNode[id]
}

// Documents returns every document in pre-order: each root followed by its
// descendants, siblings in position order.
func (x *Index) Documents() []*Document {
	out := make([]*Document, 0, len(x.docs))
	x.Walk(func(doc *Document) bool {
		out = append(out, doc)
		return true
	})
	return out
}

// Walk visits documents in pre-order. Returning false from fn skips the
// document's descendants.
func (x *Index) Walk(fn func(*Document) bool) {
	x.walkFrom(x.roots, fn)
}

// WalkSubtree visits the document for root and its descendants in pre-order.
func (x *Index) WalkSubtree(root outline.EdgeID, fn func(*Document) bool) {
	if _, ok := x.docs[root]; !ok {
		return
	}
	x.walkFrom([]outline.EdgeID{root}, fn)
}

func (x *Index) walkFrom(start []outline.EdgeID, fn func(*Document) bool) {
	stack := make([]outline.EdgeID, 0, len(start))
	for i := len(start) - 1; i >= 0; i-- {
		stack = append(stack, start[i])
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		doc := x.docs[id]
		if doc == nil {
			continue
		}
		if !fn(doc) {
			continue
		}
		kids := x.children[id]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
}
