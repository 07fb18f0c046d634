package index

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aidanlsb/outsearch/internal/outline"
)

func TestUpdaterClassifiesNotifications(t *testing.T) {
	tr := newTree(t)
	u := NewUpdater(tr.index(), nil)
	a, b := tr.nodes["Work"], tr.nodes["Plan"]

	if u.State() != StateIdle {
		t.Fatalf("State = %v, want idle", u.State())
	}

	u.Notify(outline.Change{Kind: outline.ContentChanged, NodeID: a, Region: outline.RegionMeta})
	u.Notify(outline.Change{Kind: outline.ContentChanged, NodeID: b, Region: outline.RegionText})
	if u.State() != StatePendingNodes {
		t.Errorf("State = %v, want pending-nodes", u.State())
	}
	_, nodes := u.Pending()
	want := map[outline.NodeID]Scope{a: ScopeSelf, b: ScopeSubtree}
	if diff := cmp.Diff(want, nodes); diff != "" {
		t.Errorf("pending mismatch (-want +got):\n%s", diff)
	}

	// Scopes widen but never narrow.
	u.Notify(outline.Change{Kind: outline.ContentChanged, NodeID: a, Region: outline.RegionText})
	u.Notify(outline.Change{Kind: outline.ContentChanged, NodeID: b, Region: outline.RegionMeta})
	_, nodes = u.Pending()
	want = map[outline.NodeID]Scope{a: ScopeSubtree, b: ScopeSubtree}
	if diff := cmp.Diff(want, nodes); diff != "" {
		t.Errorf("pending after upgrade mismatch (-want +got):\n%s", diff)
	}

	u.Notify(outline.Change{Kind: outline.EdgeMoved, EdgeID: tr.edges["Plan"]})
	structural, _ := u.Pending()
	if !structural || u.State() != StatePendingStructural {
		t.Errorf("structural = %v, State = %v; want pending-structural", structural, u.State())
	}
}

func TestUpdaterSchedulesOncePerBatch(t *testing.T) {
	tr := newTree(t)
	var scheduled []func()
	u := NewUpdater(tr.index(), func(flush func()) { scheduled = append(scheduled, flush) })

	for i := 0; i < 3; i++ {
		u.Notify(outline.Change{Kind: outline.ContentChanged, NodeID: tr.nodes["Task"], Region: outline.RegionText})
	}
	u.Notify(outline.Change{Kind: outline.RootsChanged})
	if len(scheduled) != 1 {
		t.Fatalf("schedule called %d times, want 1", len(scheduled))
	}

	scheduled[0]()
	if u.State() != StateIdle {
		t.Errorf("State after scheduled flush = %v, want idle", u.State())
	}

	u.Notify(outline.Change{Kind: outline.NodeAdded, NodeID: "x"})
	if len(scheduled) != 2 {
		t.Errorf("schedule called %d times after going idle, want 2", len(scheduled))
	}
}

func TestUpdaterFlushAppliesNodeWork(t *testing.T) {
	tr := newTree(t)
	idx := tr.index()
	u := NewUpdater(idx, nil)
	unsubscribe := tr.mem.Subscribe(u.Notify)
	defer unsubscribe()

	if err := tr.mem.SetText(tr.nodes["Plan"], "Roadmap"); err != nil {
		t.Fatal(err)
	}
	if err := tr.mem.SetTags(tr.nodes["Task"], "Later"); err != nil {
		t.Fatal(err)
	}

	// Nothing changes until the flush.
	if got := mustDoc(t, idx, tr.edges["Task"]).PathLower; got != "work/plan/task" {
		t.Errorf("PathLower before flush = %q", got)
	}

	u.Flush()
	task := mustDoc(t, idx, tr.edges["Task"])
	if task.PathLower != "work/roadmap/task" {
		t.Errorf("PathLower = %q, want work/roadmap/task", task.PathLower)
	}
	if !task.HasTag("later") {
		t.Errorf("Tags = %v, want later", task.Tags)
	}
	if u.State() != StateIdle {
		t.Errorf("State = %v, want idle", u.State())
	}
}

func TestUpdaterFlushRebuildsOnStructuralChange(t *testing.T) {
	tr := newTree(t)
	idx := tr.index()
	u := NewUpdater(idx, nil)
	unsubscribe := tr.mem.Subscribe(u.Notify)
	defer unsubscribe()

	_, added := tr.mem.AddChild(tr.nodes["Home"], "Garden")
	if err := tr.mem.SetText(tr.nodes["Work"], "Office"); err != nil {
		t.Fatal(err)
	}
	if err := tr.mem.RemoveEdge(tr.edges["Task"]); err != nil {
		t.Fatal(err)
	}
	if u.State() != StatePendingStructural {
		t.Fatalf("State = %v, want pending-structural", u.State())
	}

	u.Flush()
	if got := mustDoc(t, idx, added).PathLower; got != "home/garden" {
		t.Errorf("Garden PathLower = %q", got)
	}
	if got := mustDoc(t, idx, tr.edges["Plan"]).PathLower; got != "office/plan" {
		t.Errorf("Plan PathLower = %q", got)
	}
	if _, ok := idx.Document(tr.edges["Task"]); ok {
		t.Error("removed edge still indexed")
	}
	if idx.Stats().PathCache != idx.Len() {
		t.Errorf("PathCache = %d, Len = %d", idx.Stats().PathCache, idx.Len())
	}
	structural, nodes := u.Pending()
	if structural || len(nodes) != 0 {
		t.Errorf("pending after flush: structural=%v nodes=%v", structural, nodes)
	}
}

func TestUpdaterFlushWhenIdleIsNoop(t *testing.T) {
	tr := newTree(t)
	idx := tr.index()
	u := NewUpdater(idx, nil)

	before := idx.Documents()
	u.Flush()
	if diff := cmp.Diff(before, idx.Documents()); diff != "" {
		t.Errorf("idle flush changed documents (-before +after):\n%s", diff)
	}
}

func TestUpdaterDiscard(t *testing.T) {
	tr := newTree(t)
	u := NewUpdater(tr.index(), nil)
	u.Notify(outline.Change{Kind: outline.EdgeAdded})
	u.Notify(outline.Change{Kind: outline.ContentChanged, NodeID: tr.nodes["Work"]})

	u.Discard()
	structural, nodes := u.Pending()
	if structural || len(nodes) != 0 || u.State() != StateIdle {
		t.Errorf("after Discard: structural=%v nodes=%v state=%v", structural, nodes, u.State())
	}
}
