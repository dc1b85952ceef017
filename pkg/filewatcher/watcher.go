package filewatcher

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dmitrymomot/conduit/core/channel"
	"github.com/dmitrymomot/conduit/core/logger"
	"github.com/dmitrymomot/conduit/core/timer"
)

var (
	// ErrNoPaths is returned when a watcher is created without any paths.
	ErrNoPaths = errors.New("at least one path is required")

	// ErrInvalidInterval is returned when the poll interval is not positive.
	ErrInvalidInterval = errors.New("poll interval must be positive")

	// ErrUnknownEventType is returned for an unrecognized event type name in
	// the configuration.
	ErrUnknownEventType = errors.New("unknown event type")
)

// Option configures a Watcher.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger configures structured logging for the watcher. Diagnostics are
// discarded by default.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// Watcher reports filesystem changes as a stream of Events through the
// receiver contract: it can be received from directly, merged, or selected
// together with other sources.
//
// The watcher polls: on every tick of an internal timer it walks the watched
// paths, diffs the result against the previous snapshot and sends one Event
// per observed change into an internal bounded channel. Polling makes the
// watcher work on filesystems without native change notifications (for
// example network mounts); changes that happen and are fully undone between
// two polls are not observed.
//
// The owner must call Close to release the scan loop.
type Watcher struct {
	channel.Receiver[Event]

	events *channel.Anycast[Event]
	sender channel.Sender[Event]
	ticker *timer.Timer
	logger *slog.Logger

	paths    []string
	types    map[EventType]struct{}
	snapshot map[string]fileState

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// fileState is the per-path fingerprint used to detect modifications.
type fileState struct {
	modTime time.Time
	size    int64
	isDir   bool
}

// Watcher delivers events through the same contract as every other receiver.
var _ channel.Receiver[Event] = (*Watcher)(nil)

// New creates a watcher for cfg.Paths and starts its scan loop. The first
// scan establishes the baseline snapshot; only changes relative to it are
// reported.
func New(cfg Config, opts ...Option) (*Watcher, error) {
	o := options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if len(cfg.Paths) == 0 {
		return nil, ErrNoPaths
	}
	if cfg.PollInterval <= 0 {
		return nil, ErrInvalidInterval
	}

	types := make(map[EventType]struct{}, len(cfg.Events))
	for _, name := range cfg.Events {
		t, err := ParseEventType(name)
		if err != nil {
			return nil, err
		}
		types[t] = struct{}{}
	}
	if len(types) == 0 {
		types = map[EventType]struct{}{Created: {}, Modified: {}, Deleted: {}}
	}

	limit := cfg.QueueLimit
	if limit < 1 {
		limit = 64
	}
	events, err := channel.NewAnycast[Event]("filewatcher",
		channel.WithLimit(limit),
		channel.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}

	// Drift semantics: the next scan is scheduled relative to the end of the
	// previous one, so slow scans do not pile up.
	ticker, err := timer.New(cfg.PollInterval, timer.SkipMissedAndDrift{})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		Receiver: events.NewReceiver(),
		events:   events,
		sender:   events.NewSender(),
		ticker:   ticker,
		logger:   o.logger,
		paths:    append([]string(nil), cfg.Paths...),
		types:    types,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	w.snapshot = w.walk()
	w.logger.Info("file watcher started",
		slog.Int("paths", len(w.paths)),
		logger.Interval(cfg.PollInterval))

	go w.run(ctx)
	return w, nil
}

// Close stops the scan loop and the internal timer. Events already queued
// can still be drained from the receiver, which then reports stopped.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.cancel()
		<-w.done
		w.ticker.Stop()
	})
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	// Releasing the loop's sender closes the event channel, so consumers
	// observe end-of-stream after draining.
	defer w.sender.Close()
	for {
		if _, err := w.ticker.Receive(ctx); err != nil {
			return
		}
		if err := w.scan(ctx); err != nil {
			if ctx.Err() == nil {
				w.logger.Error("file watcher stopped", logger.Error(err))
			}
			return
		}
	}
}

// scan walks the watched paths, diffs against the previous snapshot and
// emits one event per change. A full event buffer suspends the scan loop
// (back-pressure) instead of dropping events.
func (w *Watcher) scan(ctx context.Context) error {
	current := w.walk()
	previous := w.snapshot
	w.snapshot = current

	var changes []Event
	for path, state := range current {
		old, existed := previous[path]
		switch {
		case !existed:
			changes = append(changes, Event{Type: Created, Path: path})
		case !state.isDir && (state.modTime != old.modTime || state.size != old.size):
			changes = append(changes, Event{Type: Modified, Path: path})
		}
	}
	for path := range previous {
		if _, exists := current[path]; !exists {
			changes = append(changes, Event{Type: Deleted, Path: path})
		}
	}
	// Walk order over a map is random; sorting keeps event order
	// reproducible for a given set of changes.
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Path != changes[j].Path {
			return changes[i].Path < changes[j].Path
		}
		return changes[i].Type < changes[j].Type
	})

	for _, event := range changes {
		if _, watched := w.types[event.Type]; !watched {
			continue
		}
		if err := w.sender.Send(ctx, event); err != nil {
			return err
		}
		w.logger.Debug("file change observed",
			logger.Path(event.Path),
			slog.String("type", event.Type.String()))
	}
	return nil
}

// walk fingerprints everything under the watched paths. Unreadable entries
// are skipped; a root that does not exist simply contributes nothing, so its
// later creation is reported as an event.
func (w *Watcher) walk() map[string]fileState {
	current := make(map[string]fileState, len(w.snapshot))
	for _, root := range w.paths {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			current[path] = fileState{
				modTime: info.ModTime(),
				size:    info.Size(),
				isDir:   d.IsDir(),
			}
			return nil
		})
	}
	return current
}
