// Package search ties the query language to the incremental index: it
// parses queries, keeps the index current from outline change
// notifications, and evaluates expressions into matches plus the visibility
// sets a collapsible tree view needs.
package search

import (
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/aidanlsb/outsearch/internal/index"
	"github.com/aidanlsb/outsearch/internal/logger"
	"github.com/aidanlsb/outsearch/internal/metrics"
	"github.com/aidanlsb/outsearch/internal/outline"
	"github.com/aidanlsb/outsearch/internal/query"
)

// DefaultParseCacheSize is used when Config.ParseCacheSize is zero.
const DefaultParseCacheSize = 128

// ErrNoSource is returned by New when Config.Source is nil.
var ErrNoSource = errors.New("search: no outline source")

// Config configures an Engine.
type Config struct {
	Source outline.Source

	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	// Schedule, when set, is called after a change notification leaves the
	// engine with pending work. It receives the engine's Flush and should
	// arrange for it to run soon, e.g. via time.AfterFunc. It is never
	// called with the engine lock held.
	Schedule func(flush func())

	ParseCacheSize int
	Separator      string
}

// ParseResult is a parsed query. Cached results are shared and must not be
// modified.
type ParseResult struct {
	Query  string
	Expr   query.Expr
	Errors query.Errors
}

// Options narrows a run.
type Options struct {
	// ScopeEdgeID restricts matching and visibility to the subtree rooted
	// at this edge.
	ScopeEdgeID outline.EdgeID
}

// Engine owns an index and serializes every operation on it.
type Engine struct {
	mu      sync.Mutex
	index   *index.Index
	updater *index.Updater
	parses  *lru.Cache[string, *ParseResult]

	schedule    func(flush func())
	flushWanted bool
	log         zerolog.Logger
	metrics     *metrics.Metrics
}

// New creates an engine and builds the initial index.
func New(cfg Config) (*Engine, error) {
	if cfg.Source == nil {
		return nil, ErrNoSource
	}
	size := cfg.ParseCacheSize
	if size <= 0 {
		size = DefaultParseCacheSize
	}
	parses, err := lru.New[string, *ParseResult](size)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		parses:   parses,
		schedule: cfg.Schedule,
		log:      logger.Component(cfg.Logger, "search"),
		metrics:  cfg.Metrics,
	}
	e.index = index.New(cfg.Source, index.Options{
		Separator: cfg.Separator,
		Logger:    logger.Component(cfg.Logger, "index"),
		Metrics:   cfg.Metrics,
	})

	var hook func(func())
	if cfg.Schedule != nil {
		// The updater runs under e.mu; remember the request and hand it
		// to the caller's scheduler once the lock is released.
		hook = func(func()) { e.flushWanted = true }
	}
	e.updater = index.NewUpdater(e.index, hook)
	e.index.Rebuild()
	return e, nil
}

// Parse parses q, serving repeated queries from a cache.
func (e *Engine) Parse(q string) *ParseResult {
	if pr, ok := e.parses.Get(q); ok {
		e.metrics.RecordParseCacheHit()
		return pr
	}
	expr, errs := query.Parse(q)
	pr := &ParseResult{Query: q, Expr: expr, Errors: errs}
	e.parses.Add(q, pr)
	return pr
}

// Rebuild rebuilds the index from the current snapshot and drops any
// pending incremental work.
func (e *Engine) Rebuild() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.updater.Discard()
	e.index.Rebuild()
}

// ApplyChange feeds one outline change notification to the updater.
func (e *Engine) ApplyChange(c outline.Change) {
	e.mu.Lock()
	e.updater.Notify(c)
	wanted := e.flushWanted
	e.flushWanted = false
	e.mu.Unlock()

	if wanted {
		e.schedule(e.Flush)
	}
}

// Flush applies pending index updates.
func (e *Engine) Flush() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.updater.Flush()
	e.flushWanted = false
}

// State reports the updater state.
func (e *Engine) State() index.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updater.State()
}

// Search parses and runs q. Parse diagnostics are returned in
// Result.Errors alongside whatever the partial expression matched.
func (e *Engine) Search(q string, opts Options) *Result {
	pr := e.Parse(q)
	res := e.Run(pr.Expr, opts)
	res.Errors = pr.Errors
	if len(pr.Errors) > 0 {
		e.log.Debug().Str("query", q).Int("errors", len(pr.Errors)).Msg("query has diagnostics")
	}
	return res
}

// Run evaluates expr against every document, after flushing pending
// updates. A nil expression matches nothing.
func (e *Engine) Run(expr query.Expr, opts Options) *Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	e.updater.Flush()
	e.flushWanted = false

	res := newResult()
	if expr == nil {
		e.metrics.RecordQuery("empty", 0, time.Since(start))
		return res
	}

	walk := e.index.Walk
	if opts.ScopeEdgeID != "" {
		walk = func(fn func(*index.Document) bool) {
			e.index.WalkSubtree(opts.ScopeEdgeID, fn)
		}
	}

	ev := newEvaluator()
	inScope := make(map[outline.EdgeID]bool)
	walk(func(doc *index.Document) bool {
		inScope[doc.EdgeID] = true
		if ev.match(expr, doc) {
			res.addMatch(doc.EdgeID)
		}
		return true
	})

	// Ancestor expansion, clipped to the scope.
	for _, id := range res.Matches {
		res.visible[id] = true
		doc, _ := e.index.Document(id)
		for _, a := range doc.AncestorEdgeIDs {
			if inScope[a] {
				res.visible[a] = true
			}
		}
	}

	walk(func(doc *index.Document) bool {
		if !res.visible[doc.EdgeID] {
			return false
		}
		res.Visible = append(res.Visible, doc.EdgeID)
		for _, child := range e.index.ChildEdges(doc.EdgeID) {
			if !res.visible[child] {
				res.partial[doc.EdgeID] = true
				res.PartiallyVisible = append(res.PartiallyVisible, doc.EdgeID)
				break
			}
		}
		return true
	})

	e.metrics.RecordQuery("ok", len(res.Matches), time.Since(start))
	return res
}

// Document returns the current document for an edge.
func (e *Engine) Document(id outline.EdgeID) (*index.Document, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.updater.Flush()
	return e.index.Document(id)
}

// Roots returns the indexed root edges.
func (e *Engine) Roots() []outline.EdgeID {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.updater.Flush()
	return append([]outline.EdgeID(nil), e.index.Roots()...)
}

// Children returns the indexed children of an edge.
func (e *Engine) Children(id outline.EdgeID) []outline.EdgeID {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.updater.Flush()
	return append([]outline.EdgeID(nil), e.index.ChildEdges(id)...)
}

// Stats returns index statistics.
func (e *Engine) Stats() index.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.updater.Flush()
	return e.index.Stats()
}
