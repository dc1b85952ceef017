package channel

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

var eventSeq atomic.Int64

// EventOption configures an Event.
type EventOption func(*eventConfig)

type eventConfig struct {
	name string
}

// WithEventName sets the diagnostic name of the event.
func WithEventName(name string) EventOption {
	return func(cfg *eventConfig) {
		cfg.name = name
	}
}

// Event is a degenerate channel used for wake-only notifications: a receiver
// that can be made ready directly, with no payload. It is typically used to
// signal a Select loop from outside, for example to ask it to shut down.
//
// After the pending notification is consumed the receiver blocks again until
// the next Set. Stop terminates the receiver for good.
type Event struct {
	mu      sync.Mutex
	name    string
	set     bool
	stopped bool
	waiters waitList
}

// NewEvent creates a wake-only signal receiver. When no name is given one is
// derived from a process-wide counter, keeping diagnostics reproducible.
func NewEvent(opts ...EventOption) *Event {
	cfg := eventConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.name == "" {
		cfg.name = fmt.Sprintf("event-%d", eventSeq.Add(1))
	}
	return &Event{name: cfg.name}
}

// Name returns the diagnostic name of the event.
func (e *Event) Name() string { return e.name }

// IsSet reports whether a notification is pending.
func (e *Event) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

// IsStopped reports whether the event has been stopped.
func (e *Event) IsStopped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopped
}

// Set triggers the event, making the receiver ready. Multiple Sets before the
// notification is consumed coalesce into one.
func (e *Event) Set() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.set = true
	e.waiters.wakeAll()
}

// Stop terminates the receiver. A notification that was already set is still
// delivered before the receiver reports stopped.
func (e *Event) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = true
	e.waiters.wakeAll()
}

func (e *Event) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

func (e *Event) WaitReady(ctx context.Context) bool {
	e.mu.Lock()
	for {
		if e.set {
			e.mu.Unlock()
			return true
		}
		if e.stopped {
			e.mu.Unlock()
			return false
		}
		elem := e.waiters.park()
		e.mu.Unlock()
		select {
		case <-wakeChan(elem):
			e.mu.Lock()
		case <-ctx.Done():
			e.mu.Lock()
			e.waiters.cancel(elem)
			e.mu.Unlock()
			return false
		}
	}
}

func (e *Event) Consume() (struct{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.set {
		if e.stopped {
			return struct{}{}, fmt.Errorf("event %q: %w", e.name, ErrReceiverStopped)
		}
		return struct{}{}, ErrNotReady
	}
	e.set = false
	return struct{}{}, nil
}

func (e *Event) ConsumeAny() (any, error) {
	message, err := e.Consume()
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (e *Event) Receive(ctx context.Context) (struct{}, error) {
	return receiveMessage[struct{}](ctx, e)
}

func (e *Event) Close() error {
	e.Stop()
	return nil
}
