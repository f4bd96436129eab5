// Package watch follows the runtime state directory and reports gate
// transitions as the files under it change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ohmymkt/internal/gates"
	"github.com/fyrsmithlabs/ohmymkt/internal/hooks"
	"github.com/fyrsmithlabs/ohmymkt/internal/logging"
	"github.com/fyrsmithlabs/ohmymkt/internal/store"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// Kind classifies a state change by the file that changed.
type Kind string

const (
	KindGates     Kind = "gates"
	KindMetrics   Kind = "metrics"
	KindCycles    Kind = "cycles"
	KindIncident  Kind = "incident"
	KindExecution Kind = "execution"
)

// Event is one observed state change.
type Event struct {
	Kind Kind
	Path string
	// Transitions lists gates whose status changed. Only set for KindGates.
	Transitions []gates.Transition
	Timestamp   time.Time
}

// Watcher watches the state and incidents directories of one project.
type Watcher struct {
	store   *store.Store
	hooks   *hooks.HookManager
	logger  *logging.Logger
	watcher *fsnotify.Watcher
	events  chan Event
	stop    chan struct{}

	// last evaluation, used to compute transitions
	evaluations []gates.Evaluation
}

// New creates a watcher for s. A nil hook manager runs no hooks.
func New(s *store.Store, h *hooks.HookManager, logger *logging.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	if h == nil {
		h = hooks.NewHookManager(nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		store:   s,
		hooks:   h,
		logger:  logger.Named("watch"),
		watcher: fw,
		events:  make(chan Event, 16),
		stop:    make(chan struct{}),
	}, nil
}

// Start records the current gate verdicts and begins watching. Missing
// directories are created so a fresh project can be watched.
func (w *Watcher) Start(ctx context.Context) error {
	paths := w.store.Paths()
	for _, dir := range []string{paths.StateDir, paths.IncidentsDir} {
		if err := store.EnsureDir(dir); err != nil {
			return err
		}
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	w.evaluations = gates.EvaluateCurrent(w.store).Evaluations
	w.logger.Info(ctx, "watching project state",
		zap.String("state_dir", paths.StateDir),
		zap.String("incidents_dir", paths.IncidentsDir))

	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher and releases its resources.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
		return
	default:
		close(w.stop)
		_ = w.watcher.Close()
	}
}

// Events returns the channel of observed changes. It is closed when the
// watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if out, ok := w.handle(ctx, ev.Name); ok {
				select {
				case w.events <- out:
				case <-w.stop:
					return
				case <-ctx.Done():
					return
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, "watcher error", zap.Error(err))
		}
	}
}

// classify maps a changed path onto a Kind.
func (w *Watcher) classify(path string) (Kind, bool) {
	paths := w.store.Paths()
	switch filepath.Clean(path) {
	case paths.GatesFile:
		return KindGates, true
	case paths.MetricsFile:
		return KindMetrics, true
	case paths.CycleLogFile:
		return KindCycles, true
	case paths.ExecutionFile:
		return KindExecution, true
	}
	if filepath.Dir(path) == paths.IncidentsDir && filepath.Ext(path) == ".json" {
		return KindIncident, true
	}
	return "", false
}

func (w *Watcher) handle(ctx context.Context, path string) (Event, bool) {
	kind, ok := w.classify(path)
	if !ok {
		return Event{}, false
	}
	out := Event{Kind: kind, Path: path, Timestamp: w.store.Now()}

	if kind == KindGates {
		next := gates.EvaluateCurrent(w.store).Evaluations
		out.Transitions = gates.Diff(w.evaluations, next)
		w.evaluations = next
		for _, t := range out.Transitions {
			w.logger.Info(ctx, "gate transition",
				zap.String("gate", string(t.Key)),
				zap.String("from", string(t.From)),
				zap.String("to", string(t.To)))
		}
		if len(out.Transitions) == 0 {
			// Rewrites that leave every verdict unchanged are not reported.
			return Event{}, false
		}
	}

	w.logger.Debug(ctx, "state changed", zap.String("kind", string(kind)), zap.String("path", path))
	if err := w.hooks.Emit(ctx, string(kind)+"_changed"); err != nil {
		w.logger.Warn(ctx, "event hooks failed", zap.Error(err))
	}
	return out, true
}
