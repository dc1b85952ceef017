package channel

import (
	"context"
	"errors"
	"iter"
	"sync"
)

// Selected is the result of one Select iteration: the receiver that became
// ready, and either the message consumed from it or the fact that it stopped.
type Selected struct {
	source  Selectable
	message any
	stopped bool
}

// Source returns the receiver this result originated from.
func (s Selected) Source() Selectable { return s.source }

// Message returns the consumed message, untyped. Use MessageFrom for typed
// access.
func (s Selected) Message() any { return s.message }

// WasStopped reports whether the receiver's source terminated with no further
// messages. A stopped receiver is reported exactly once and then dropped from
// the selection set.
func (s Selected) WasStopped() bool { return s.stopped }

// From reports whether this result originated from r. It is the untyped
// counterpart of MessageFrom for branching on the source:
//
//	for selected := range sel.All(ctx) {
//		switch {
//		case selected.From(prices):
//			...
//		case selected.From(ticker):
//			...
//		}
//	}
func (s Selected) From(r Selectable) bool { return s.source == r }

// MessageFrom returns the message carried by selected, typed, if it
// originated from r and r did not stop.
func MessageFrom[T any](selected Selected, r Receiver[T]) (T, bool) {
	var zero T
	if selected.source != Selectable(r) || selected.stopped {
		return zero, false
	}
	message, ok := selected.message.(T)
	if !ok {
		return zero, false
	}
	return message, true
}

// Select multiplexes over a set of heterogeneous receivers. Each call to
// Next polls the receivers in rotating (strict round-robin) order and yields
// one Selected per ready receiver, so under sustained readiness from several
// sources all of them get consumed rather than one dominating. When nothing
// is ready, Next suspends until any receiver becomes ready or stops.
//
// The selection ends once every receiver has stopped. Receivers that fail
// abnormally along the way are dropped from the set and their errors are
// collected; Err returns all of them joined, not only the first.
func Select(receivers ...Selectable) *Selector {
	return &Selector{active: append([]Selectable(nil), receivers...)}
}

// Selector iterates over the ready receivers of a Select call. It is meant
// to be driven by a single goroutine.
type Selector struct {
	active   []Selectable
	rotation int
	pending  []Selected
	errs     []error
}

// Next blocks until a receiver is ready or stops and returns the
// corresponding result. It returns false once every receiver has stopped, or
// when ctx is cancelled; afterwards Err reports any collected failures.
func (s *Selector) Next(ctx context.Context) (Selected, bool) {
	for {
		if len(s.pending) > 0 {
			selected := s.pending[0]
			s.pending = s.pending[1:]
			return selected, true
		}
		if len(s.active) == 0 || ctx.Err() != nil {
			return Selected{}, false
		}
		s.pollRound()
		if len(s.pending) > 0 || len(s.active) == 0 {
			continue
		}
		if !s.waitAny(ctx) {
			return Selected{}, false
		}
	}
}

// All returns an iterator over the selection results, terminating when every
// receiver has stopped or ctx is cancelled. Check Err afterwards.
func (s *Selector) All(ctx context.Context) iter.Seq[Selected] {
	return func(yield func(Selected) bool) {
		for {
			selected, ok := s.Next(ctx)
			if !ok {
				return
			}
			if !yield(selected) {
				return
			}
		}
	}
}

// Err returns the abnormal receiver failures observed so far, joined into a
// single error. Normal stops are not failures.
func (s *Selector) Err() error {
	return errors.Join(s.errs...)
}

// pollRound polls every active receiver once, starting at a rotating offset
// so that no receiver is permanently favored, and collects one result per
// ready or stopped receiver.
func (s *Selector) pollRound() {
	n := len(s.active)
	start := s.rotation % n
	s.rotation++

	var stopped []Selectable
	for i := range n {
		recv := s.active[(start+i)%n]
		if !recv.Ready() {
			// The receiver may have stopped rather than be merely idle;
			// probing its terminal state keeps dead sources from lingering
			// in the set. A message that landed between the poll and the
			// probe is kept, never discarded.
			message, err := recv.ConsumeAny()
			switch {
			case err == nil:
				s.pending = append(s.pending, Selected{source: recv, message: message})
			case !errors.Is(err, ErrNotReady):
				s.markStopped(recv, err)
				stopped = append(stopped, recv)
			}
			continue
		}
		message, err := recv.ConsumeAny()
		if err != nil {
			if errors.Is(err, ErrNotReady) {
				continue
			}
			s.markStopped(recv, err)
			stopped = append(stopped, recv)
			continue
		}
		s.pending = append(s.pending, Selected{source: recv, message: message})
	}
	s.remove(stopped)
}

type waitResult struct {
	source    Selectable
	ready     bool
	cancelled bool
}

// waitAny suspends until any active receiver reports readiness or stops.
// It returns false when ctx was cancelled. All wait goroutines are joined
// before returning, so receiver state is never touched concurrently.
func (s *Selector) waitAny(ctx context.Context) bool {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan waitResult, len(s.active))
	var wg sync.WaitGroup
	for _, recv := range s.active {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ready := recv.WaitReady(waitCtx)
			results <- waitResult{source: recv, ready: ready, cancelled: waitCtx.Err() != nil}
		}()
	}

	first := <-results
	cancel()
	wg.Wait()
	close(results)

	var stopped []Selectable
	handle := func(res waitResult) {
		if res.ready || res.cancelled {
			// Ready sources are consumed by the next poll round; cancelled
			// waits carry no information about the source.
			return
		}
		message, err := res.source.ConsumeAny()
		if err == nil {
			// The source became ready between the stop observation and now.
			s.pending = append(s.pending, Selected{source: res.source, message: message})
			return
		}
		if errors.Is(err, ErrNotReady) {
			return
		}
		s.markStopped(res.source, err)
		stopped = append(stopped, res.source)
	}
	handle(first)
	for res := range results {
		handle(res)
	}
	s.remove(stopped)

	return ctx.Err() == nil
}

// markStopped records a receiver's termination: one WasStopped result is
// queued, and anything other than a normal stop is kept for Err.
func (s *Selector) markStopped(recv Selectable, err error) {
	s.pending = append(s.pending, Selected{source: recv, stopped: true})
	if err != nil && !errors.Is(err, ErrReceiverStopped) {
		s.errs = append(s.errs, err)
	}
}

func (s *Selector) remove(stopped []Selectable) {
	if len(stopped) == 0 {
		return
	}
	remaining := s.active[:0]
	for _, recv := range s.active {
		dead := false
		for _, gone := range stopped {
			if recv == gone {
				dead = true
				break
			}
		}
		if !dead {
			remaining = append(remaining, recv)
		}
	}
	s.active = remaining
}
