package index

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aidanlsb/outsearch/internal/metrics"
	"github.com/aidanlsb/outsearch/internal/outline"
)

// State is the updater's position in its idle → pending → flushing cycle.
type State int

const (
	StateIdle State = iota
	// StatePendingNodes has per-node recomputes queued.
	StatePendingNodes
	// StatePendingStructural has a full rebuild queued; node work is moot.
	StatePendingStructural
	StateFlushing
)

func (s State) String() string {
	switch s {
	case StatePendingNodes:
		return "pending-nodes"
	case StatePendingStructural:
		return "pending-structural"
	case StateFlushing:
		return "flushing"
	default:
		return "idle"
	}
}

// Updater batches outline change notifications and applies them to an
// Index on Flush. Structural changes collapse into one rebuild; content
// changes queue per-node recomputes whose scope only ever widens.
type Updater struct {
	index   *Index
	log     zerolog.Logger
	metrics *metrics.Metrics

	state      State
	structural bool
	nodes      map[outline.NodeID]Scope

	// Schedule, when set, is called once each time work becomes pending
	// from idle. It should arrange for flush to run soon.
	schedule func(flush func())
}

// NewUpdater returns an idle updater for idx. schedule may be nil, in which
// case pending work waits for an explicit Flush.
func NewUpdater(idx *Index, schedule func(flush func())) *Updater {
	return &Updater{
		index:    idx,
		log:      idx.log,
		metrics:  idx.metrics,
		nodes:    make(map[outline.NodeID]Scope),
		schedule: schedule,
	}
}

// State returns the current state.
func (u *Updater) State() State {
	return u.state
}

// Pending reports whether a rebuild is queued and a copy of the queued
// per-node scopes.
func (u *Updater) Pending() (structural bool, nodes map[outline.NodeID]Scope) {
	nodes = make(map[outline.NodeID]Scope, len(u.nodes))
	for id, s := range u.nodes {
		nodes[id] = s
	}
	return u.structural, nodes
}

// Notify records one change notification.
func (u *Updater) Notify(c outline.Change) {
	u.metrics.RecordNotification(c.Kind.String())
	wasIdle := u.state == StateIdle

	if c.Structural() {
		u.structural = true
	} else {
		scope := ScopeSelf
		if c.Region == outline.RegionText {
			scope = ScopeSubtree
		}
		if cur, ok := u.nodes[c.NodeID]; !ok || scope > cur {
			u.nodes[c.NodeID] = scope
		}
	}

	if u.state == StateFlushing {
		return
	}
	u.state = u.pendingState()
	if wasIdle && u.schedule != nil {
		u.schedule(u.Flush)
	}
}

func (u *Updater) pendingState() State {
	switch {
	case u.structural:
		return StatePendingStructural
	case len(u.nodes) > 0:
		return StatePendingNodes
	default:
		return StateIdle
	}
}

// Discard drops pending work, e.g. after the caller rebuilt the index
// directly.
func (u *Updater) Discard() {
	if u.state == StateFlushing {
		return
	}
	u.structural = false
	u.nodes = make(map[outline.NodeID]Scope)
	u.state = StateIdle
}

// Flush applies all pending work. It is a no-op when idle.
func (u *Updater) Flush() {
	if u.state == StateIdle || u.state == StateFlushing {
		return
	}
	start := time.Now()
	u.state = StateFlushing

	structural := u.structural
	nodes := u.nodes
	u.structural = false
	u.nodes = make(map[outline.NodeID]Scope)

	if structural {
		u.index.Rebuild()
	} else {
		ids := make([]outline.NodeID, 0, len(nodes))
		for id := range nodes {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			u.index.UpdateNode(id, nodes[id])
		}
	}

	u.log.Debug().
		Bool("structural", structural).
		Int("nodes", len(nodes)).
		Dur("duration", time.Since(start)).
		Msg("flushed pending updates")
	u.metrics.RecordFlush(time.Since(start))

	// Notifications that arrived mid-flush wait for the next one.
	u.state = u.pendingState()
	if u.state != StateIdle && u.schedule != nil {
		u.schedule(u.Flush)
	}
}
