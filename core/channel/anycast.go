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

const (
	// DefaultAnycastLimit is the default buffer capacity of an Anycast
	// channel in number of messages.
	DefaultAnycastLimit = 10

	// sendWarnThreshold is how long a sender may stay suspended on a full
	// buffer before a diagnostic warning is logged.
	sendWarnThreshold = 10 * time.Second
)

// AnycastOption configures an Anycast channel.
type AnycastOption func(*anycastConfig)

type anycastConfig struct {
	limit  int
	logger *slog.Logger
}

// WithLimit sets the buffer capacity of the channel in number of messages.
// The default is DefaultAnycastLimit.
func WithLimit(limit int) AnycastOption {
	return func(cfg *anycastConfig) {
		cfg.limit = limit
	}
}

// WithLogger configures structured logging for the channel. Diagnostics are
// discarded by default.
func WithLogger(log *slog.Logger) AnycastOption {
	return func(cfg *anycastConfig) {
		if log != nil {
			cfg.logger = log
		}
	}
}

// Anycast is a channel that delivers each message to exactly one receiver.
//
// It supports multiple senders and multiple receivers competing over a single
// shared bounded FIFO buffer, which makes it suitable for distributing work
// across a pool of consumers. When the buffer is full, senders suspend until
// a receiver frees space (back-pressure); messages are never dropped.
//
// Suspended receivers are woken one per message in the order they suspended,
// so no receiver is starved. Closing the channel wakes suspended senders with
// ErrChannelClosed immediately; receivers drain the remaining buffered
// messages and then report ErrReceiverStopped.
//
// If every message must instead reach every receiver, use Broadcast.
type Anycast[T any] struct {
	name   string
	limit  int
	logger *slog.Logger

	mu          sync.Mutex
	queue       []T
	sendWaiters waitList
	recvWaiters waitList
	senders     int
	receivers   int
	closed      bool
}

// NewAnycast creates a named anycast channel. The name is used for
// diagnostics only. NewAnycast fails with ErrInvalidLimit if a configured
// limit is smaller than one message.
func NewAnycast[T any](name string, opts ...AnycastOption) (*Anycast[T], error) {
	cfg := anycastConfig{
		limit:  DefaultAnycastLimit,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.limit < 1 {
		return nil, fmt.Errorf("channel %q: %w", name, ErrInvalidLimit)
	}
	return &Anycast[T]{
		name:   name,
		limit:  cfg.limit,
		logger: cfg.logger,
	}, nil
}

// Name returns the diagnostic name of the channel.
func (c *Anycast[T]) Name() string { return c.name }

// Limit returns the buffer capacity in number of messages.
func (c *Anycast[T]) Limit() int { return c.limit }

// Len returns the number of currently buffered messages.
func (c *Anycast[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// IsClosed reports whether the channel has been closed.
func (c *Anycast[T]) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close closes the channel. Suspended senders are woken immediately with
// ErrChannelClosed; receivers drain the buffered messages and then stop.
// Closing an already closed channel fails with ErrChannelClosed.
func (c *Anycast[T]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Anycast[T]) closeLocked() error {
	if c.closed {
		return ErrChannelClosed
	}
	c.closed = true
	c.sendWaiters.wakeAll()
	c.recvWaiters.wakeAll()
	c.logger.Info("anycast channel closed", logger.Channel(c.name))
	return nil
}

// NewSender returns a new sender handle attached to this channel.
func (c *Anycast[T]) NewSender() Sender[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.senders++
	return &anycastSender[T]{channel: c}
}

// NewReceiver returns a new receiver handle attached to this channel. All
// receivers compete over the same shared buffer; each message is delivered to
// exactly one of them.
func (c *Anycast[T]) NewReceiver() Receiver[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receivers++
	return &anycastReceiver[T]{channel: c}
}

type anycastSender[T any] struct {
	channel  *Anycast[T]
	mu       sync.Mutex
	released bool
}

func (s *anycastSender[T]) Send(ctx context.Context, message T) error {
	c := s.channel
	c.mu.Lock()
	blockedAt := time.Time{}
	for {
		if c.closed {
			c.mu.Unlock()
			return fmt.Errorf("channel %q: %w", c.name, ErrChannelClosed)
		}
		if len(c.queue) < c.limit {
			break
		}
		if blockedAt.IsZero() {
			blockedAt = time.Now()
			c.logger.Debug("anycast channel is full, blocking sender",
				logger.Channel(c.name), slog.Int("limit", c.limit))
		}
		elem := c.sendWaiters.park()
		warn := time.AfterFunc(sendWarnThreshold, func() {
			c.logger.Warn("sender blocked on full anycast channel",
				logger.Channel(c.name),
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
			c.sendWaiters.cancel(elem)
			c.mu.Unlock()
			return ctx.Err()
		}
	}
	c.queue = append(c.queue, message)
	c.recvWaiters.wakeOne()
	if !blockedAt.IsZero() {
		c.logger.Debug("anycast channel has space again, sender resumed",
			logger.Channel(c.name), logger.Duration(time.Since(blockedAt)))
	}
	c.mu.Unlock()
	return nil
}

// Close releases the sender handle. Releasing the last sender closes the
// channel, letting receivers drain whatever is still buffered.
func (s *anycastSender[T]) Close() error {
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

type anycastReceiver[T any] struct {
	channel *Anycast[T]
	next    T
	hasNext bool
	closed  bool
}

func (r *anycastReceiver[T]) Ready() bool {
	c := r.channel
	c.mu.Lock()
	defer c.mu.Unlock()
	return r.readyLocked()
}

// readyLocked pops the head of the shared queue into the receiver's pending
// slot, freeing buffer space for one suspended sender. Caller holds c.mu.
func (r *anycastReceiver[T]) readyLocked() bool {
	if r.hasNext {
		return true
	}
	if r.closed {
		return false
	}
	c := r.channel
	if len(c.queue) > 0 {
		r.next = c.queue[0]
		c.queue = c.queue[1:]
		r.hasNext = true
		c.sendWaiters.wakeOne()
		return true
	}
	return false
}

func (r *anycastReceiver[T]) WaitReady(ctx context.Context) bool {
	c := r.channel
	c.mu.Lock()
	for {
		if r.readyLocked() {
			c.mu.Unlock()
			return true
		}
		if c.closed || r.closed {
			c.mu.Unlock()
			return false
		}
		elem := c.recvWaiters.park()
		c.mu.Unlock()
		select {
		case <-wakeChan(elem):
			c.mu.Lock()
		case <-ctx.Done():
			c.mu.Lock()
			c.recvWaiters.cancel(elem)
			c.mu.Unlock()
			return false
		}
	}
}

func (r *anycastReceiver[T]) Consume() (T, error) {
	c := r.channel
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if !r.readyLocked() {
		if c.closed || r.closed {
			return zero, fmt.Errorf("channel %q closed: %w", c.name, ErrReceiverStopped)
		}
		return zero, ErrNotReady
	}
	message := r.next
	r.next = zero
	r.hasNext = false
	return message, nil
}

func (r *anycastReceiver[T]) ConsumeAny() (any, error) {
	message, err := r.Consume()
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (r *anycastReceiver[T]) Receive(ctx context.Context) (T, error) {
	return receiveMessage[T](ctx, r)
}

// Close detaches the receiver from the channel. Other receiver handles keep
// working; a message already popped into this receiver's pending slot is
// discarded.
func (r *anycastReceiver[T]) Close() error {
	c := r.channel
	c.mu.Lock()
	defer c.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.hasNext = false
	c.receivers--
	return nil
}
