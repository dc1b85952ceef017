package channel

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// LatestValueCacheOption configures a LatestValueCache.
type LatestValueCacheOption func(*latestValueCacheConfig)

type latestValueCacheConfig struct {
	id string
}

// WithCacheID overrides the generated identifier of the cache instance.
// It is used for diagnostics only.
func WithCacheID(id string) LatestValueCacheOption {
	return func(cfg *latestValueCacheConfig) {
		cfg.id = id
	}
}

// LatestValueCache continuously consumes a receiver in the background and
// keeps only the newest message, so the current value of a stream can be
// looked up at any time without waiting for the next send.
//
// The cache takes over the receiver: no other consumer may use it while the
// cache is running.
type LatestValueCache[T any] struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	latest T
	has    bool
}

// NewLatestValueCache starts caching the latest message of r in a background
// goroutine. Stop releases the goroutine and the receiver.
func NewLatestValueCache[T any](r Receiver[T], opts ...LatestValueCacheOption) *LatestValueCache[T] {
	cfg := latestValueCacheConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &LatestValueCache[T]{
		id:     cfg.id,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(c.done)
		for {
			message, err := r.Receive(ctx)
			if err != nil {
				return
			}
			c.mu.Lock()
			c.latest = message
			c.has = true
			c.mu.Unlock()
		}
	}()
	return c
}

// ID returns the diagnostic identifier of this cache instance.
func (c *LatestValueCache[T]) ID() string { return c.id }

// Get returns the latest message received so far. The second return value is
// false while no message has been received yet.
func (c *LatestValueCache[T]) Get() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest, c.has
}

// Stop halts the background consumer. The cached value remains readable.
func (c *LatestValueCache[T]) Stop() {
	c.cancel()
	<-c.done
}
