package channel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/conduit/core/logger"
)

// DefaultBroadcastReceiverLimit is the default capacity of a broadcast
// receiver's private queue in number of messages.
const DefaultBroadcastReceiverLimit = 50

// BroadcastOption configures a Broadcast channel.
type BroadcastOption func(*broadcastConfig)

type broadcastConfig struct {
	resendLatest bool
	dropOldest   bool
	logger       *slog.Logger
}

// WithResendLatest makes the channel retain the most recently sent message
// and seed it into every receiver created afterwards. This lets new receivers
// on slow streams observe the current value immediately instead of waiting
// for the next send. Safe for data and reporting channels; not recommended
// for channels that stream control instructions.
func WithResendLatest() BroadcastOption {
	return func(cfg *broadcastConfig) {
		cfg.resendLatest = true
	}
}

// WithDropOldest switches the overflow policy from back-pressure to dropping.
// When a receiver's queue is full, the oldest message in that queue is
// discarded with a logged warning instead of suspending the sender. Only the
// overflowing receiver loses messages; everyone else still sees the full
// stream.
func WithDropOldest() BroadcastOption {
	return func(cfg *broadcastConfig) {
		cfg.dropOldest = true
	}
}

// WithBroadcastLogger configures structured logging for the channel.
// Diagnostics are discarded by default.
func WithBroadcastLogger(log *slog.Logger) BroadcastOption {
	return func(cfg *broadcastConfig) {
		if log != nil {
			cfg.logger = log
		}
	}
}

// BroadcastReceiverOption configures a receiver created by
// Broadcast.NewReceiver.
type BroadcastReceiverOption func(*broadcastReceiverConfig)

type broadcastReceiverConfig struct {
	name  string
	limit int
}

// WithReceiverName sets the diagnostic name of the receiver. When no name is
// given, one is derived from a per-channel counter so diagnostics stay
// reproducible across runs.
func WithReceiverName(name string) BroadcastReceiverOption {
	return func(cfg *broadcastReceiverConfig) {
		cfg.name = name
	}
}

// WithReceiverLimit sets the capacity of the receiver's private queue.
// The default is DefaultBroadcastReceiverLimit.
func WithReceiverLimit(limit int) BroadcastReceiverOption {
	return func(cfg *broadcastReceiverConfig) {
		cfg.limit = limit
	}
}

// Broadcast is a fan-out channel: every message sent is replicated to every
// receiver that is registered at send time.
//
// Each receiver owns an independent bounded queue, so receivers consume the
// stream at their own pace and see it in send order. By default a full
// receiver queue applies back-pressure: the sender suspends until that queue
// has room, which can let one slow receiver delay the sender but never
// corrupts or drops messages for the others. The WithDropOldest option trades
// that guarantee for a non-blocking sender.
//
// A receiver created after a message was sent does not observe that message,
// unless the channel was created with WithResendLatest, in which case it is
// seeded with exactly the most recent one.
type Broadcast[T any] struct {
	name         string
	resendLatest bool
	dropOldest   bool
	logger       *slog.Logger

	mu        sync.Mutex
	receivers map[*broadcastReceiver[T]]struct{}
	recvSeq   int
	senders   int
	latest    T
	hasLatest bool
	closed    bool
}

// NewBroadcast creates a named broadcast channel. The name is used for
// diagnostics only.
func NewBroadcast[T any](name string, opts ...BroadcastOption) *Broadcast[T] {
	cfg := broadcastConfig{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Broadcast[T]{
		name:         name,
		resendLatest: cfg.resendLatest,
		dropOldest:   cfg.dropOldest,
		logger:       cfg.logger,
		receivers:    make(map[*broadcastReceiver[T]]struct{}),
	}
}

// Name returns the diagnostic name of the channel.
func (c *Broadcast[T]) Name() string { return c.name }

// IsClosed reports whether the channel has been closed.
func (c *Broadcast[T]) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close closes the channel and clears the retained latest message. Receivers
// drain their private queues and then stop; suspended senders are woken with
// ErrChannelClosed. Closing an already closed channel fails with
// ErrChannelClosed.
func (c *Broadcast[T]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Broadcast[T]) closeLocked() error {
	if c.closed {
		return ErrChannelClosed
	}
	c.closed = true
	var zero T
	c.latest = zero
	c.hasLatest = false
	for recv := range c.receivers {
		recv.sendWaiters.wakeAll()
		recv.recvWaiters.wakeAll()
	}
	c.logger.Info("broadcast channel closed", logger.Channel(c.name))
	return nil
}

// NewSender returns a new sender handle attached to this channel.
func (c *Broadcast[T]) NewSender() Sender[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.senders++
	return &broadcastSender[T]{channel: c}
}

// NewReceiver returns a new receiver with its own private bounded queue.
// NewReceiver fails with ErrInvalidLimit if a configured limit is smaller
// than one message.
func (c *Broadcast[T]) NewReceiver(opts ...BroadcastReceiverOption) (Receiver[T], error) {
	cfg := broadcastReceiverConfig{
		limit: DefaultBroadcastReceiverLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.limit < 1 {
		return nil, fmt.Errorf("channel %q: %w", c.name, ErrInvalidLimit)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.recvSeq++
	if cfg.name == "" {
		cfg.name = fmt.Sprintf("%s-receiver-%d", c.name, c.recvSeq)
	}
	recv := &broadcastReceiver[T]{
		channel: c,
		name:    cfg.name,
		limit:   cfg.limit,
	}
	c.receivers[recv] = struct{}{}
	if c.resendLatest && c.hasLatest {
		recv.queue = append(recv.queue, c.latest)
	}
	return recv, nil
}

type broadcastSender[T any] struct {
	channel  *Broadcast[T]
	mu       sync.Mutex
	released bool
}

func (s *broadcastSender[T]) Send(ctx context.Context, message T) error {
	c := s.channel
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("channel %q: %w", c.name, ErrChannelClosed)
	}

	// Only receivers registered at send time observe this message.
	targets := make([]*broadcastReceiver[T], 0, len(c.receivers))
	for recv := range c.receivers {
		targets = append(targets, recv)
	}

	for _, recv := range targets {
		if err := s.deliverLocked(ctx, recv, message); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	c.latest = message
	c.hasLatest = true
	c.mu.Unlock()
	return nil
}

// deliverLocked enqueues message into a single receiver's queue, suspending
// on a full queue unless the drop-oldest policy is active. Delivery to the
// queue is atomic: the message is either fully enqueued or not at all.
// Caller holds c.mu; the lock is dropped while suspended.
func (s *broadcastSender[T]) deliverLocked(ctx context.Context, recv *broadcastReceiver[T], message T) error {
	c := s.channel
	for len(recv.queue) >= recv.limit {
		if recv.closed || c.closed {
			break
		}
		if c.dropOldest {
			recv.queue = recv.queue[1:]
			c.logger.Warn("broadcast receiver is full, oldest message dropped",
				logger.Channel(c.name),
				logger.Receiver(recv.name),
				logger.Queue(len(recv.queue)+1, recv.limit))
			break
		}
		blockedAt := time.Now()
		elem := recv.sendWaiters.park()
		warn := time.AfterFunc(sendWarnThreshold, func() {
			c.logger.Warn("sender blocked on full broadcast receiver queue",
				logger.Channel(c.name),
				logger.Receiver(recv.name),
				logger.Duration(time.Since(blockedAt)))
		})
		c.mu.Unlock()
		select {
		case <-wakeChan(elem):
			warn.Stop()
			c.mu.Lock()
		case <-ctx.Done():
			warn.Stop()
			c.mu.Lock()
			recv.sendWaiters.cancel(elem)
			return ctx.Err()
		}
	}
	if c.closed {
		return fmt.Errorf("channel %q: %w", c.name, ErrChannelClosed)
	}
	if recv.closed {
		// The receiver went away while we waited; nothing to deliver to.
		return nil
	}
	recv.queue = append(recv.queue, message)
	recv.recvWaiters.wakeOne()
	return nil
}

// Close releases the sender handle. Releasing the last sender closes the
// channel.
func (s *broadcastSender[T]) Close() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}
	s.released = true
	s.mu.Unlock()

	c := s.channel
	c.mu.Lock()
	defer c.mu.Unlock()
	c.senders--
	if c.senders == 0 && !c.closed {
		return c.closeLocked()
	}
	return nil
}

type broadcastReceiver[T any] struct {
	channel *Broadcast[T]
	name    string
	limit   int

	// Guarded by channel.mu.
	queue       []T
	sendWaiters waitList
	recvWaiters waitList
	closed      bool
}

func (r *broadcastReceiver[T]) Ready() bool {
	c := r.channel
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(r.queue) > 0
}

func (r *broadcastReceiver[T]) WaitReady(ctx context.Context) bool {
	c := r.channel
	c.mu.Lock()
	for {
		if len(r.queue) > 0 {
			c.mu.Unlock()
			return true
		}
		if c.closed || r.closed {
			c.mu.Unlock()
			return false
		}
		elem := r.recvWaiters.park()
		c.mu.Unlock()
		select {
		case <-wakeChan(elem):
			c.mu.Lock()
		case <-ctx.Done():
			c.mu.Lock()
			r.recvWaiters.cancel(elem)
			c.mu.Unlock()
			return false
		}
	}
}

func (r *broadcastReceiver[T]) Consume() (T, error) {
	c := r.channel
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if len(r.queue) == 0 {
		if c.closed || r.closed {
			return zero, fmt.Errorf("channel %q closed: %w", c.name, ErrReceiverStopped)
		}
		return zero, ErrNotReady
	}
	message := r.queue[0]
	r.queue = r.queue[1:]
	r.sendWaiters.wakeOne()
	return message, nil
}

func (r *broadcastReceiver[T]) ConsumeAny() (any, error) {
	message, err := r.Consume()
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (r *broadcastReceiver[T]) Receive(ctx context.Context) (T, error) {
	return receiveMessage[T](ctx, r)
}

// Close unregisters the receiver and frees its queue. Senders suspended on
// this receiver's full queue are released; other receivers are unaffected.
func (r *broadcastReceiver[T]) Close() error {
	c := r.channel
	c.mu.Lock()
	defer c.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.queue = nil
	delete(c.receivers, r)
	r.sendWaiters.wakeAll()
	r.recvWaiters.wakeAll()
	return nil
}
