package channel

import (
	"context"
	"errors"
	"sync"
)

// Merge combines the streams of several receivers of the same message type
// into a single receiver. Messages are yielded in arrival order across all
// sources; each forwarder hands over at most one message at a time, so no
// source can starve another that also has messages pending.
//
// The merged receiver stops once every upstream receiver has stopped. Merge
// fails fast with ErrNoReceivers when called with no receivers, before any
// suspension occurs.
//
// Use Select instead when you need to know which source a message came from.
func Merge[T any](receivers ...Receiver[T]) (*Merger[T], error) {
	if len(receivers) == 0 {
		return nil, ErrNoReceivers
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Merger[T]{
		out:    make(chan T),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	var wg sync.WaitGroup
	for _, recv := range receivers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.forward(ctx, recv)
		}()
	}
	go func() {
		wg.Wait()
		close(m.out)
		close(m.done)
	}()
	return m, nil
}

// Merger is a receiver that merges messages coming from multiple receivers
// into a single stream. Create one with Merge.
type Merger[T any] struct {
	out    chan T
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	errs []error

	// Consumer-side state; touched only by the consuming goroutine.
	next    T
	hasNext bool
	stopped bool
}

// forward pulls messages from one upstream receiver and hands them over in
// FIFO order. Holding at most one in-flight message per upstream keeps the
// merger lazy: buffering stays bounded by the number of sources.
func (m *Merger[T]) forward(ctx context.Context, recv Receiver[T]) {
	for {
		message, err := recv.Receive(ctx)
		if err != nil {
			if !errors.Is(err, ErrReceiverStopped) && ctx.Err() == nil {
				m.mu.Lock()
				m.errs = append(m.errs, err)
				m.mu.Unlock()
			}
			return
		}
		select {
		case m.out <- message:
		case <-ctx.Done():
			return
		}
	}
}

func (m *Merger[T]) Ready() bool {
	if m.hasNext {
		return true
	}
	if m.stopped {
		return false
	}
	select {
	case message, ok := <-m.out:
		if !ok {
			m.stopped = true
			return false
		}
		m.next = message
		m.hasNext = true
		return true
	default:
		return false
	}
}

func (m *Merger[T]) WaitReady(ctx context.Context) bool {
	if m.hasNext {
		return true
	}
	if m.stopped {
		return false
	}
	select {
	case message, ok := <-m.out:
		if !ok {
			m.stopped = true
			return false
		}
		m.next = message
		m.hasNext = true
		return true
	case <-ctx.Done():
		return false
	}
}

func (m *Merger[T]) Consume() (T, error) {
	var zero T
	if m.hasNext {
		message := m.next
		m.next = zero
		m.hasNext = false
		return message, nil
	}
	if !m.stopped {
		// A forwarder may have handed over a message already.
		if m.Ready() {
			message := m.next
			m.next = zero
			m.hasNext = false
			return message, nil
		}
	}
	if m.stopped {
		if err := m.upstreamErr(); err != nil {
			return zero, err
		}
		return zero, ErrReceiverStopped
	}
	return zero, ErrNotReady
}

func (m *Merger[T]) ConsumeAny() (any, error) {
	message, err := m.Consume()
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (m *Merger[T]) Receive(ctx context.Context) (T, error) {
	return receiveMessage[T](ctx, m)
}

// Stop tears the merger down without waiting for the upstream receivers to
// stop, releasing all forwarding goroutines. Messages already handed over but
// not yet consumed are discarded.
func (m *Merger[T]) Stop() {
	m.cancel()
	<-m.done
	m.stopped = true
}

func (m *Merger[T]) Close() error {
	m.Stop()
	return nil
}

// Err returns the upstream failures collected while merging, joined into a
// single error. Normal upstream stops are not failures.
func (m *Merger[T]) Err() error {
	return m.upstreamErr()
}

func (m *Merger[T]) upstreamErr() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return errors.Join(m.errs...)
}
