package channel

import (
	"context"
	"errors"
	"sync"
)

// Pipe bridges one receiver into one sender by forwarding every message it
// receives. It is a convenience built entirely on the Sender/Receiver
// contracts; the forwarding loop runs in a background goroutine between
// Start and Stop.
type Pipe[T any] struct {
	receiver Receiver[T]
	sender   Sender[T]

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPipe creates a pipe from receiver to sender. The pipe is inert until
// Start is called.
func NewPipe[T any](receiver Receiver[T], sender Sender[T]) *Pipe[T] {
	return &Pipe[T]{receiver: receiver, sender: sender}
}

// Start launches the forwarding loop if it is not already running. The loop
// exits on its own when the receiver stops or the sender's channel closes.
func (p *Pipe[T]) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		select {
		case <-p.done:
			// Previous run finished; allow a restart.
		default:
			return
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx, p.done)
}

// Stop halts the forwarding loop and waits for it to exit. A message caught
// mid-flight between receive and send is dropped; deliveries that already
// reached the destination queue are never rolled back.
func (p *Pipe[T]) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Pipe[T]) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		message, err := p.receiver.Receive(ctx)
		if err != nil {
			return
		}
		if err := p.sender.Send(ctx, message); err != nil {
			return
		}
	}
}

// RelaySender is a sender that forwards every message to several downstream
// senders, typically to feed the same stream into multiple channels.
type RelaySender[T any] struct {
	senders []Sender[T]
}

// NewRelaySender creates a sender relaying to all the given senders.
func NewRelaySender[T any](senders ...Sender[T]) *RelaySender[T] {
	return &RelaySender[T]{senders: append([]Sender[T](nil), senders...)}
}

// Send forwards message to every downstream sender. Deliveries are attempted
// on all of them even when some fail; the failures are returned joined.
func (r *RelaySender[T]) Send(ctx context.Context, message T) error {
	var errs []error
	for _, s := range r.senders {
		if err := s.Send(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases every downstream sender handle, joining any errors.
func (r *RelaySender[T]) Close() error {
	var errs []error
	for _, s := range r.senders {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
