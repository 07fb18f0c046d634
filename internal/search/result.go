package search

import (
	"github.com/aidanlsb/outsearch/internal/outline"
	"github.com/aidanlsb/outsearch/internal/query"
)

// Result is the outcome of a run. All edge lists are in document order.
type Result struct {
	// Matches are the edges whose documents satisfy the expression.
	Matches []outline.EdgeID `json:"matches"`
	// Visible adds every ancestor of a match.
	Visible []outline.EdgeID `json:"visible"`
	// PartiallyVisible are visible edges with at least one hidden child.
	PartiallyVisible []outline.EdgeID `json:"partially_visible"`
	Errors           query.Errors     `json:"-"`

	matched map[outline.EdgeID]bool
	visible map[outline.EdgeID]bool
	partial map[outline.EdgeID]bool
}

func newResult() *Result {
	return &Result{
		Matches:          []outline.EdgeID{},
		Visible:          []outline.EdgeID{},
		PartiallyVisible: []outline.EdgeID{},
		matched:          make(map[outline.EdgeID]bool),
		visible:          make(map[outline.EdgeID]bool),
		partial:          make(map[outline.EdgeID]bool),
	}
}

func (r *Result) addMatch(id outline.EdgeID) {
	r.matched[id] = true
	r.Matches = append(r.Matches, id)
}

// IsMatch reports whether id matched.
func (r *Result) IsMatch(id outline.EdgeID) bool { return r.matched[id] }

// IsVisible reports whether id is a match or an ancestor of one.
func (r *Result) IsVisible(id outline.EdgeID) bool { return r.visible[id] }

// IsPartiallyVisible reports whether id is visible with hidden children.
func (r *Result) IsPartiallyVisible(id outline.EdgeID) bool { return r.partial[id] }
