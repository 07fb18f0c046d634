package search

import (
	"bytes"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/aidanlsb/outsearch/internal/index"
	"github.com/aidanlsb/outsearch/internal/logger"
	"github.com/aidanlsb/outsearch/internal/metrics"
	"github.com/aidanlsb/outsearch/internal/outline"
)

// fixture is an in-memory outline wired to an engine through change
// notifications, the way a live document would be.
type fixture struct {
	t     *testing.T
	mem   *outline.Memory
	eng   *Engine
	nodes map[string]outline.NodeID
	edges map[string]outline.EdgeID
	names map[outline.EdgeID]string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := outline.NewMemory()
	mem.Now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	eng, err := New(Config{Source: mem, Metrics: metrics.New()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mem.Subscribe(eng.ApplyChange)
	return &fixture{
		t:     t,
		mem:   mem,
		eng:   eng,
		nodes: map[string]outline.NodeID{},
		edges: map[string]outline.EdgeID{},
		names: map[outline.EdgeID]string{},
	}
}

// add creates a node named name under parent ("" for a root).
func (f *fixture) add(parent, name string, meta outline.Meta) {
	f.addText(parent, name, name, meta)
}

func (f *fixture) addText(parent, name, text string, meta outline.Meta) {
	var pid outline.NodeID
	if parent != "" {
		pid = f.nodes[parent]
	}
	id := f.mem.AddNode(outline.Node{Text: text, Inline: []outline.Span{{Text: text}}, Meta: meta})
	e := f.mem.AddEdge(pid, id)
	f.nodes[name] = id
	f.edges[name] = e
	f.names[e] = name
}

func (f *fixture) search(q string) *Result {
	f.t.Helper()
	res := f.eng.Search(q, Options{})
	if len(res.Errors) != 0 {
		f.t.Fatalf("Search(%q) errors: %v", q, res.Errors)
	}
	return res
}

func (f *fixture) namesOf(ids []outline.EdgeID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.names[id])
	}
	return out
}

func (f *fixture) matches(q string) []string {
	f.t.Helper()
	return f.namesOf(f.search(q).Matches)
}

func millis(y int, m time.Month, d, hh, mm, ss int) int64 {
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC).UnixMilli()
}

var sorted = cmpopts.SortSlices(func(a, b string) bool { return a < b })

func TestTagSemanticsAreExact(t *testing.T) {
	f := newFixture(t)
	f.add("", "short", outline.Meta{Tags: []string{"jo"}})
	f.add("", "long", outline.Meta{Tags: []string{"john"}})

	if diff := cmp.Diff([]string{"short"}, f.matches("tag:jo")); diff != "" {
		t.Errorf("tag:jo mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"long"}, f.matches("tag:john")); diff != "" {
		t.Errorf("tag:john mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"long"}, f.matches("tag!=jo")); diff != "" {
		t.Errorf("tag!=jo mismatch (-want +got):\n%s", diff)
	}
}

func TestTagsAreCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	f.add("", "upper", outline.Meta{Tags: []string{"Alpha"}})
	f.addText("", "inline", "ship it #ALPHA", outline.Meta{})
	f.add("", "other", outline.Meta{Tags: []string{"beta"}})

	want := []string{"upper", "inline"}
	for _, q := range []string{"tag:Alpha", "tag:alpha", "#alpha", "tags=ALPHA"} {
		if diff := cmp.Diff(want, f.matches(q)); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", q, diff)
		}
	}
}

func TestAncestorVisibility(t *testing.T) {
	f := newFixture(t)
	f.add("", "root", outline.Meta{})
	f.add("root", "child", outline.Meta{})
	f.add("child", "grandchild", outline.Meta{})
	f.add("", "elsewhere", outline.Meta{})

	res := f.search("grandchild")
	if diff := cmp.Diff([]string{"grandchild"}, f.namesOf(res.Matches)); diff != "" {
		t.Errorf("Matches mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"root", "child", "grandchild"}, f.namesOf(res.Visible)); diff != "" {
		t.Errorf("Visible mismatch (-want +got):\n%s", diff)
	}
	if !res.IsVisible(f.edges["root"]) || res.IsVisible(f.edges["elsewhere"]) {
		t.Error("IsVisible disagrees with Visible")
	}
	if len(res.PartiallyVisible) != 0 {
		t.Errorf("PartiallyVisible = %v, want none", f.namesOf(res.PartiallyVisible))
	}
}

func TestPartialVisibility(t *testing.T) {
	f := newFixture(t)
	f.add("", "root", outline.Meta{})
	f.add("root", "apple", outline.Meta{})
	f.add("root", "banana", outline.Meta{})

	res := f.search("apple")
	if diff := cmp.Diff([]string{"root"}, f.namesOf(res.PartiallyVisible)); diff != "" {
		t.Errorf("PartiallyVisible mismatch (-want +got):\n%s", diff)
	}
	if !res.IsPartiallyVisible(f.edges["root"]) {
		t.Error("IsPartiallyVisible(root) = false")
	}
	if res.IsPartiallyVisible(f.edges["apple"]) {
		t.Error("leaf reported partially visible")
	}
}

func TestDateRangeIsInclusive(t *testing.T) {
	f := newFixture(t)
	f.add("", "first", outline.Meta{CreatedAt: millis(2024, 1, 1, 0, 0, 0)})
	f.add("", "last", outline.Meta{CreatedAt: millis(2024, 12, 31, 23, 59, 59)})
	f.add("", "after", outline.Meta{CreatedAt: millis(2025, 1, 1, 0, 0, 0)})
	f.add("", "before", outline.Meta{CreatedAt: millis(2023, 12, 31, 23, 59, 59)})

	tests := []struct {
		query string
		want  []string
	}{
		{"created:[2024-01-01..2024-12-31]", []string{"first", "last"}},
		{"created:[2024-06-01..]", []string{"last", "after"}},
		{"created:[..2024-01-01]", []string{"first", "before"}},
		{"created:2024-01-01", []string{"first"}},
		{"created>2024-01-01", []string{"last", "after"}},
		{"created>=2024-01-01", []string{"first", "last", "after"}},
		{"created<2024-01-01", []string{"before"}},
		{"created<=2024-12-31", []string{"first", "last", "before"}},
		{"created!=2024-01-01", []string{"last", "after", "before"}},
		{"created:2024-12", []string{"last"}},
		{"created:[2024..2024]", []string{"first", "last"}},
		{"created<2024", []string{"before"}},
		{"created>2024", []string{"after"}},
		{"created=2025-01-01T00:00:00Z", []string{"after"}},
		{"created<2024-01-01T00:00:01Z", []string{"first", "before"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, f.matches(tt.query), sorted); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStringRangeUpperBound(t *testing.T) {
	f := newFixture(t)
	f.add("", "apple", outline.Meta{})
	f.add("", "b", outline.Meta{})
	f.add("", "banana", outline.Meta{})

	if diff := cmp.Diff([]string{"apple", "b"}, f.matches("text:[a..b]")); diff != "" {
		t.Errorf("text:[a..b] mismatch (-want +got):\n%s", diff)
	}
}

func TestTextScenarios(t *testing.T) {
	f := newFixture(t)
	f.add("", "Project Plan Q3", outline.Meta{})
	f.add("", "Hello World", outline.Meta{Tags: []string{"greeting"}})
	f.add("", "Another Hello", outline.Meta{})
	f.add("", "Goodbye", outline.Meta{Tags: []string{"greeting"}})

	tests := []struct {
		query string
		want  []string
	}{
		{`text:"Project Plan"`, []string{"Project Plan Q3"}},
		{"text:hello", []string{"Hello World", "Another Hello"}},
		{"text:hello AND tag:greeting", []string{"Hello World"}},
		{"hello tag:greeting", []string{"Hello World"}},
		{"hello OR goodbye", []string{"Hello World", "Another Hello", "Goodbye"}},
		{"tag:greeting NOT hello", []string{"Goodbye"}},
		{"text=goodbye", []string{"Goodbye"}},
		{"text:[a..h]", []string{"Another Hello", "Goodbye", "Hello World"}},
		{"type:node", []string{"Project Plan Q3", "Hello World", "Another Hello", "Goodbye"}},
		{"nothing-matches-this", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, f.matches(tt.query), sorted); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPathAndTypeQueries(t *testing.T) {
	f := newFixture(t)
	done, pending := true, false
	f.add("", "Work", outline.Meta{})
	f.add("Work", "Plan", outline.Meta{})
	f.add("Plan", "Ship", outline.Meta{Todo: &done})
	f.add("Plan", "Test", outline.Meta{Todo: &pending})
	f.add("", "Home", outline.Meta{})
	f.add("Home", "Plan B", outline.Meta{})

	tests := []struct {
		query string
		want  []string
	}{
		{"path:work/plan", []string{"Plan", "Ship", "Test"}},
		{"path:plan", []string{"Plan", "Ship", "Test", "Plan B"}},
		{`path="work/plan/ship"`, []string{"Ship"}},
		{"path:home", []string{"Home", "Plan B"}},
		{"type:todo", []string{"Ship", "Test"}},
		{"type=todo:done", []string{"Ship"}},
		{"type:todo NOT type:todo:done", []string{"Test"}},
		{"type!=todo", []string{"Work", "Plan", "Home", "Plan B"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, f.matches(tt.query), sorted); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnknownFieldDegradesToText(t *testing.T) {
	f := newFixture(t)
	f.add("", "see https://example.com/docs", outline.Meta{})
	f.add("", "unrelated", outline.Meta{})

	res := f.eng.Search("https://example.com", Options{})
	if len(res.Errors) == 0 {
		t.Error("expected an unknown-field diagnostic")
	}
	if diff := cmp.Diff([]string{"see https://example.com/docs"}, f.namesOf(res.Matches)); diff != "" {
		t.Errorf("Matches mismatch (-want +got):\n%s", diff)
	}
}

func TestPartialQueryStillMatches(t *testing.T) {
	f := newFixture(t)
	f.add("", "alpha", outline.Meta{})
	f.add("", "beta", outline.Meta{})

	res := f.eng.Search("alpha AND", Options{})
	if len(res.Errors) != 1 {
		t.Errorf("Errors = %v, want 1", res.Errors)
	}
	if diff := cmp.Diff([]string{"alpha"}, f.namesOf(res.Matches)); diff != "" {
		t.Errorf("Matches mismatch (-want +got):\n%s", diff)
	}

	res = f.eng.Search("   ", Options{})
	if len(res.Matches) != 0 || len(res.Errors) != 0 {
		t.Errorf("blank query = %v matches, %v errors; want none", res.Matches, res.Errors)
	}
}

func TestFailedPredicateKeepsNeighbours(t *testing.T) {
	f := newFixture(t)
	f.add("", "hello world", outline.Meta{})
	f.add("", "world only", outline.Meta{})
	f.add("", "other", outline.Meta{})

	tests := []struct {
		query string
		want  []string
	}{
		{"created:2024-13-45 world", []string{"hello world", "world only"}},
		{"hello created:2024-13-45 world", []string{"hello world"}},
		{"other created:[..]", []string{"other"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res := f.eng.Search(tt.query, Options{})
			if len(res.Errors) != 1 {
				t.Errorf("Errors = %v, want 1", res.Errors)
			}
			if diff := cmp.Diff(tt.want, f.namesOf(res.Matches)); diff != "" {
				t.Errorf("Matches mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScopeRestrictsMatchesAndVisibility(t *testing.T) {
	f := newFixture(t)
	f.add("", "root", outline.Meta{})
	f.add("root", "left", outline.Meta{})
	f.add("left", "target one", outline.Meta{})
	f.add("root", "right", outline.Meta{})
	f.add("right", "target two", outline.Meta{})

	res := f.eng.Search("target", Options{ScopeEdgeID: f.edges["left"]})
	if diff := cmp.Diff([]string{"target one"}, f.namesOf(res.Matches)); diff != "" {
		t.Errorf("Matches mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"left", "target one"}, f.namesOf(res.Visible)); diff != "" {
		t.Errorf("Visible mismatch (-want +got):\n%s", diff)
	}

	res = f.eng.Search("target", Options{ScopeEdgeID: "no-such-edge"})
	if len(res.Matches) != 0 || len(res.Visible) != 0 {
		t.Errorf("unknown scope returned %v / %v", res.Matches, res.Visible)
	}
}

func TestRenameThroughNotifications(t *testing.T) {
	f := newFixture(t)
	f.add("", "Work", outline.Meta{})
	f.add("Work", "Plan", outline.Meta{})
	f.add("Plan", "Task", outline.Meta{})

	if err := f.mem.SetText(f.nodes["Work"], "Office"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Work", "Plan", "Task"}, f.matches("path:office")); diff != "" {
		t.Errorf("after ancestor rename (-want +got):\n%s", diff)
	}
	if got := f.matches("path:work"); len(got) != 0 {
		t.Errorf("stale path still matches: %v", got)
	}

	planBefore, _ := f.eng.Document(f.edges["Plan"])
	planPath := planBefore.PathLower
	if err := f.mem.SetText(f.nodes["Task"], "Chore"); err != nil {
		t.Fatal(err)
	}
	task, _ := f.eng.Document(f.edges["Task"])
	if task.PathLower != "office/plan/chore" {
		t.Errorf("Task PathLower = %q", task.PathLower)
	}
	plan, _ := f.eng.Document(f.edges["Plan"])
	if plan.PathLower != planPath {
		t.Errorf("leaf rename changed ancestor path to %q", plan.PathLower)
	}
}

func TestDeletionLeavesNoResidue(t *testing.T) {
	f := newFixture(t)
	f.add("", "keep", outline.Meta{})
	f.add("keep", "doomed", outline.Meta{Tags: []string{"x"}})
	f.add("doomed", "doomed child", outline.Meta{Tags: []string{"x"}})

	if got := f.matches("tag:x"); len(got) != 2 {
		t.Fatalf("tag:x before delete = %v", got)
	}
	if err := f.mem.RemoveNode(f.nodes["doomed"]); err != nil {
		t.Fatal(err)
	}

	if got := f.matches("tag:x"); len(got) != 0 {
		t.Errorf("tag:x after delete = %v, want none", got)
	}
	st := f.eng.Stats()
	if st.Documents != 1 || st.PathCache != 1 {
		t.Errorf("Stats = %+v, want one document and one path cache entry", st)
	}
	if _, ok := f.eng.Document(f.edges["doomed"]); ok {
		t.Error("deleted document still retrievable")
	}
	res := f.search("keep")
	if len(res.PartiallyVisible) != 0 {
		t.Errorf("keep still reports hidden children")
	}
}

func TestQueriesFlushPendingWork(t *testing.T) {
	f := newFixture(t)
	f.add("", "draft", outline.Meta{})

	if err := f.mem.SetTags(f.nodes["draft"], "ready"); err != nil {
		t.Fatal(err)
	}
	if f.eng.State() == index.StateIdle {
		t.Fatal("expected pending work before the query")
	}
	if diff := cmp.Diff([]string{"draft"}, f.matches("#ready")); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if f.eng.State() != index.StateIdle {
		t.Errorf("State after query = %v, want idle", f.eng.State())
	}
}

func TestScheduleHookRunsOutsideLock(t *testing.T) {
	mem := outline.NewMemory()
	var mu sync.Mutex
	var flushes []func()
	eng, err := New(Config{
		Source: mem,
		Schedule: func(flush func()) {
			mu.Lock()
			flushes = append(flushes, flush)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	mem.Subscribe(eng.ApplyChange)

	root, _ := mem.AddChild("", "one")
	mem.AddChild(root, "two")
	if len(flushes) != 1 {
		t.Fatalf("schedule called %d times, want 1", len(flushes))
	}

	// Running the flush on another goroutine must not deadlock.
	done := make(chan struct{})
	go func() {
		flushes[0]()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled flush did not finish")
	}
	if eng.State() != index.StateIdle {
		t.Errorf("State = %v, want idle", eng.State())
	}
	if got := eng.Stats().Documents; got != 2 {
		t.Errorf("Documents = %d, want 2", got)
	}
}

func TestParseCache(t *testing.T) {
	f := newFixture(t)
	a := f.eng.Parse("tag:x OR y")
	b := f.eng.Parse("tag:x OR y")
	if a != b {
		t.Error("second Parse did not hit the cache")
	}
	if a.Query != "tag:x OR y" || a.Expr == nil {
		t.Errorf("ParseResult = %+v", a)
	}
}

func TestRebuildIsIdempotentThroughEngine(t *testing.T) {
	f := newFixture(t)
	f.add("", "a", outline.Meta{Tags: []string{"t"}})
	f.add("a", "b", outline.Meta{})

	first := f.search("a OR b")
	f.eng.Rebuild()
	second := f.search("a OR b")
	if diff := cmp.Diff(first.Matches, second.Matches); diff != "" {
		t.Errorf("matches changed after rebuild (-first +second):\n%s", diff)
	}
	if got := f.eng.Stats().Documents; got != 2 {
		t.Errorf("Documents after rebuild = %d, want 2", got)
	}
}

func TestMatchesAreInDocumentOrder(t *testing.T) {
	f := newFixture(t)
	f.add("", "z item", outline.Meta{})
	f.add("z item", "a item", outline.Meta{})
	f.add("", "m item", outline.Meta{})

	got := f.matches("item")
	want := []string{"z item", "a item", "m item"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if sort.StringsAreSorted(got) {
		t.Error("matches came back sorted by text, not document order")
	}
}

func TestNewRequiresSource(t *testing.T) {
	if _, err := New(Config{}); err != ErrNoSource {
		t.Errorf("New(Config{}) error = %v, want ErrNoSource", err)
	}
}

func TestEngineLogsByComponent(t *testing.T) {
	var buf bytes.Buffer
	mem := outline.NewMemory()
	mem.AddChild("", "alpha")
	eng, err := New(Config{
		Source: mem,
		Logger: logger.New(logger.Config{Level: "debug", Output: &buf}),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.Rebuild()
	eng.Search("alpha )", Options{})

	out := buf.String()
	for _, want := range []string{`"component":"index"`, `"component":"search"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log lacks %s:\n%s", want, out)
		}
	}
}
