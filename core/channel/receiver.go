package channel

import (
	"context"
	"errors"
)

// Selectable is the untyped surface of a receiver that Select and other
// multiplexing plumbing operate on. It exists so that receivers of different
// message types can be waited on together.
type Selectable interface {
	// Ready reports, without blocking, whether a message can be consumed
	// right now. It must report false once the source has stopped or
	// errored, so that multiplexing loops never spin on a dead source.
	Ready() bool

	// WaitReady suspends until a message is consumable or the source stops.
	// It returns true when a message is ready and false when the source has
	// stopped or ctx was cancelled; callers distinguish the two by checking
	// ctx.Err().
	WaitReady(ctx context.Context) bool

	// ConsumeAny is the untyped counterpart of Receiver.Consume, used by
	// Select to pull an already-available message.
	ConsumeAny() (any, error)

	// Close detaches the receiver from its source. Close is idempotent.
	Close() error
}

// Receiver is the read-only capability handle of a channel. A receiver owns
// its read cursor and, for broadcast channels, its private queue. It is meant
// to be consumed by a single goroutine; it is not a shared work queue itself.
type Receiver[T any] interface {
	Selectable

	// Receive suspends until a message is available and returns it. Once the
	// source has stopped and all buffered messages are drained it fails with
	// ErrReceiverStopped, which callers treat as end-of-stream.
	Receive(ctx context.Context) (T, error)

	// Consume returns the next message without blocking. It is only valid
	// immediately after Ready (or WaitReady) reported true; otherwise it
	// fails with ErrNotReady, or with the source's terminal error once the
	// source has stopped.
	Consume() (T, error)
}

// receiveMessage implements the shared Receive contract on top of WaitReady
// and Consume. All receiver implementations in this package delegate to it.
func receiveMessage[T any](ctx context.Context, r Receiver[T]) (T, error) {
	if r.WaitReady(ctx) {
		return r.Consume()
	}
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	// Not ready and not cancelled means the source stopped; Consume surfaces
	// the terminal error (ErrReceiverStopped or a recorded failure).
	return r.Consume()
}

// Map returns a derived receiver that lazily applies fn to every message
// pulled from r. The derived receiver buffers nothing beyond what r already
// buffers; messages are transformed on demand.
func Map[T, U any](r Receiver[T], fn func(T) U) Receiver[U] {
	return &mappedReceiver[T, U]{upstream: r, fn: fn}
}

type mappedReceiver[T, U any] struct {
	upstream Receiver[T]
	fn       func(T) U
}

func (m *mappedReceiver[T, U]) Ready() bool { return m.upstream.Ready() }

func (m *mappedReceiver[T, U]) WaitReady(ctx context.Context) bool {
	return m.upstream.WaitReady(ctx)
}

func (m *mappedReceiver[T, U]) Consume() (U, error) {
	message, err := m.upstream.Consume()
	if err != nil {
		var zero U
		return zero, err
	}
	return m.fn(message), nil
}

func (m *mappedReceiver[T, U]) ConsumeAny() (any, error) {
	message, err := m.Consume()
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (m *mappedReceiver[T, U]) Receive(ctx context.Context) (U, error) {
	return receiveMessage[U](ctx, m)
}

func (m *mappedReceiver[T, U]) Close() error { return m.upstream.Close() }

// Filter returns a derived receiver that only yields messages of r for which
// keep reports true. Non-matching messages are consumed from the upstream and
// dropped on demand; nothing is buffered eagerly.
func Filter[T any](r Receiver[T], keep func(T) bool) Receiver[T] {
	return &filteredReceiver[T]{upstream: r, keep: keep}
}

type filteredReceiver[T any] struct {
	upstream Receiver[T]
	next     T
	hasNext  bool
	stopped  bool
	err      error
	keep     func(T) bool
}

func (f *filteredReceiver[T]) Ready() bool {
	if f.hasNext {
		return true
	}
	if f.stopped {
		return false
	}
	for f.upstream.Ready() {
		message, err := f.upstream.Consume()
		if err != nil {
			f.stopped = true
			f.err = err
			return false
		}
		if f.keep(message) {
			f.next = message
			f.hasNext = true
			return true
		}
	}
	return false
}

func (f *filteredReceiver[T]) WaitReady(ctx context.Context) bool {
	if f.hasNext {
		return true
	}
	if f.stopped {
		return false
	}
	for f.upstream.WaitReady(ctx) {
		message, err := f.upstream.Consume()
		if err != nil {
			f.stopped = true
			f.err = err
			return false
		}
		if f.keep(message) {
			f.next = message
			f.hasNext = true
			return true
		}
	}
	if ctx.Err() == nil {
		f.stopped = true
	}
	return false
}

func (f *filteredReceiver[T]) Consume() (T, error) {
	var zero T
	if f.hasNext {
		message := f.next
		f.next = zero
		f.hasNext = false
		return message, nil
	}
	if f.stopped {
		if f.err != nil {
			return zero, f.err
		}
		return zero, ErrReceiverStopped
	}
	if f.Ready() {
		message := f.next
		f.next = zero
		f.hasNext = false
		return message, nil
	}
	if f.stopped {
		// Ready observed the upstream's terminal state.
		if f.err != nil {
			return zero, f.err
		}
		return zero, ErrReceiverStopped
	}
	// The upstream may have stopped without a message in flight; probe its
	// terminal state so select loops see this receiver as stopped too. A
	// message that landed between the readiness check and the probe is run
	// through the predicate like any other, never discarded.
	for {
		message, err := f.upstream.Consume()
		if err != nil {
			if errors.Is(err, ErrNotReady) {
				return zero, ErrNotReady
			}
			f.stopped = true
			f.err = err
			return zero, err
		}
		if f.keep(message) {
			return message, nil
		}
	}
}

func (f *filteredReceiver[T]) ConsumeAny() (any, error) {
	message, err := f.Consume()
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (f *filteredReceiver[T]) Receive(ctx context.Context) (T, error) {
	return receiveMessage[T](ctx, f)
}

func (f *filteredReceiver[T]) Close() error { return f.upstream.Close() }
