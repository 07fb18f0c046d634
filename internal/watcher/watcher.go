// Package watcher keeps a search engine current with an outline file on
// disk. Each save is reloaded, diffed against the previous snapshot, and fed
// to the engine as ordinary change notifications, so the incremental index
// path does the work rather than a full rebuild.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/aidanlsb/outsearch/internal/logger"
	"github.com/aidanlsb/outsearch/internal/outline"
)

// DefaultDebounceDelay is used when Config.DebounceDelay is not positive.
const DefaultDebounceDelay = 100 * time.Millisecond

// minPollInterval bounds how often pending reloads are checked.
const minPollInterval = time.Millisecond

// Watcher monitors one outline file and republishes its changes.
type Watcher struct {
	path   string
	format outline.Format
	handle *outline.Handle
	apply  func(outline.Change)

	debounceDelay time.Duration
	log           zerolog.Logger

	fsWatcher *fsnotify.Watcher
	pending   time.Time
	mu        sync.Mutex

	onReload func(changes int, err error)
}

// Config holds configuration options for the Watcher.
type Config struct {
	Path   string
	Format outline.Format

	// Handle is the source the engine reads; the watcher swaps reloaded
	// snapshots into it before notifying.
	Handle *outline.Handle

	// Apply receives every change between the old and new snapshot,
	// typically search.Engine.ApplyChange.
	Apply func(outline.Change)

	DebounceDelay time.Duration
	Logger        zerolog.Logger
	OnReload      func(changes int, err error) // Optional callback
}

// New creates a watcher and starts watching the file's directory. Editors
// often save by renaming a temp file over the original, so the directory is
// watched rather than the file itself.
func New(cfg Config) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("outline path is required")
	}
	if cfg.Handle == nil {
		return nil, fmt.Errorf("outline handle is required")
	}
	if cfg.Apply == nil {
		return nil, fmt.Errorf("change handler is required")
	}

	path, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", cfg.Path, err)
	}

	debounce := cfg.DebounceDelay
	if debounce <= 0 {
		debounce = DefaultDebounceDelay
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	return &Watcher{
		path:          path,
		format:        cfg.Format,
		handle:        cfg.Handle,
		apply:         cfg.Apply,
		debounceDelay: debounce,
		log:           logger.Component(cfg.Logger, "watcher"),
		fsWatcher:     fsw,
		onReload:      cfg.OnReload,
	}, nil
}

// Run processes file events until the context is cancelled. It closes the
// underlying watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsWatcher.Close()
	w.log.Info().Str("path", w.path).Msg("watching outline")

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watcher error")
		}
	}
}

// Close stops watching without running. It is only needed when Run is never
// called.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

// Reload reads the file, swaps the new snapshot into the handle, and applies
// the differences. It returns the number of changes applied. It can be called
// directly without running the watcher.
func (w *Watcher) Reload() (int, error) {
	next, err := outline.LoadFile(w.path, w.format)
	if err != nil {
		return 0, err
	}

	prev := w.handle.Snapshot()
	changes := outline.Diff(prev, next)
	w.handle.Set(next)
	for _, c := range changes {
		w.apply(c)
	}
	return len(changes), nil
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	w.log.Debug().Str("op", event.Op.String()).Msg("outline event")

	// A removal is usually the first half of an atomic save; the create
	// that follows triggers the reload.
	if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
		w.scheduleReload()
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = time.Now()
}

// pollInterval checks twice per debounce window.
func pollInterval(debounce time.Duration) time.Duration {
	return max(debounce/2, minPollInterval)
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(pollInterval(w.debounceDelay))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

// processPending reloads once the file has been quiet for the debounce delay.
func (w *Watcher) processPending() {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounceDelay {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.mu.Unlock()

	n, err := w.Reload()
	if err != nil {
		w.log.Warn().Err(err).Msg("failed to reload outline")
	} else {
		w.log.Debug().Int("changes", n).Msg("reloaded outline")
	}
	if w.onReload != nil {
		w.onReload(n, err)
	}
}
