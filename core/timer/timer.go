package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrymomot/conduit/core/channel"
)

var (
	// ErrInvalidInterval is returned when a timer is created or reset with a
	// non-positive interval.
	ErrInvalidInterval = errors.New("interval must be positive")

	// ErrInvalidStartDelay is returned when a negative start delay is given,
	// or when a start delay is combined with disabled auto-start.
	ErrInvalidStartDelay = errors.New("invalid start delay")

	// ErrNegativeTolerance is returned when a SkipMissedAndDrift policy is
	// configured with a negative delay tolerance.
	ErrNegativeTolerance = errors.New("delay tolerance must not be negative")
)

// Timer satisfies the receiver contract so it can be merged and selected
// like any other message source.
var _ channel.Receiver[time.Duration] = (*Timer)(nil)

// Option configures a Timer.
type Option func(*config)

type config struct {
	autoStart  bool
	startDelay time.Duration
	now        func() time.Time
}

// WithStartDelay defers the first tick by d on top of the regular interval.
// Requires auto-start (the default).
func WithStartDelay(d time.Duration) Option {
	return func(cfg *config) {
		cfg.startDelay = d
	}
}

// WithAutoStart controls whether the timer starts scheduling on creation.
// When disabled, the timer stays idle until Reset is called or a receive
// operation starts it implicitly. Enabled by default.
func WithAutoStart(enabled bool) Option {
	return func(cfg *config) {
		cfg.autoStart = enabled
	}
}

// withClock substitutes the time source, for tests.
func withClock(now func() time.Time) Option {
	return func(cfg *config) {
		cfg.now = now
	}
}

// ResetOption configures a Reset call.
type ResetOption func(*resetConfig)

type resetConfig struct {
	interval   time.Duration
	startDelay time.Duration
}

// WithInterval replaces the tick interval on reset. The current interval is
// kept when this option is not given.
func WithInterval(d time.Duration) ResetOption {
	return func(cfg *resetConfig) {
		cfg.interval = d
	}
}

// WithResetDelay defers the first tick after the reset by d on top of the
// interval.
func WithResetDelay(d time.Duration) ResetOption {
	return func(cfg *resetConfig) {
		cfg.startDelay = d
	}
}

// Timer is a receiver that produces a periodic tick message. Each tick's
// message is the drift: how much later than scheduled the tick was observed.
//
// When the consumer falls behind and deadlines elapse unconsumed, the
// configured MissedTickPolicy decides whether the missed ticks are delivered
// in a catch-up burst (TriggerAllMissed), collapsed and re-anchored
// (SkipMissedAndResync), or collapsed with the countdown restarted from now
// (SkipMissedAndDrift).
//
// Reset and Stop take effect immediately, interrupting a receive that is
// already suspended waiting for the next deadline. A stopped timer reports
// ErrReceiverStopped from receive operations until it is restarted with
// Reset.
type Timer struct {
	mu       sync.Mutex
	interval time.Duration
	policy   MissedTickPolicy
	now      func() time.Time

	next     time.Time
	started  bool
	stopped  bool
	drift    time.Duration
	hasDrift bool
	wake     chan struct{}
}

// New creates a timer that ticks every interval, recovering missed ticks
// according to policy. The timer starts scheduling immediately unless
// auto-start is disabled.
func New(interval time.Duration, policy MissedTickPolicy, opts ...Option) (*Timer, error) {
	cfg := config{
		autoStart: true,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}
	if cfg.startDelay < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStartDelay, cfg.startDelay)
	}
	if cfg.startDelay > 0 && !cfg.autoStart {
		return nil, fmt.Errorf("%w: start delay requires auto-start", ErrInvalidStartDelay)
	}
	if v, ok := policy.(interface{ validate() error }); ok {
		if err := v.validate(); err != nil {
			return nil, err
		}
	}

	t := &Timer{
		interval: interval,
		policy:   policy,
		now:      cfg.now,
		wake:     make(chan struct{}),
	}
	if cfg.autoStart {
		t.mu.Lock()
		t.resetLocked(interval, cfg.startDelay)
		t.mu.Unlock()
	}
	return t, nil
}

// Interval returns the current tick interval.
func (t *Timer) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}

// IsRunning reports whether the timer is scheduling ticks.
func (t *Timer) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started && !t.stopped
}

// Reset restarts scheduling from now, optionally with a new interval or an
// extra start delay. A stopped or not yet started timer is started. The reset
// takes effect immediately: a consumer suspended on this timer is woken and
// starts waiting for the new deadline instead of the old one.
func (t *Timer) Reset(opts ...ResetOption) error {
	cfg := resetConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.interval < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, cfg.interval)
	}
	if cfg.startDelay < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidStartDelay, cfg.startDelay)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	interval := t.interval
	if cfg.interval > 0 {
		interval = cfg.interval
	}
	t.resetLocked(interval, cfg.startDelay)
	return nil
}

func (t *Timer) resetLocked(interval, startDelay time.Duration) {
	t.interval = interval
	t.next = t.now().Add(startDelay + interval)
	t.started = true
	t.stopped = false
	t.drift = 0
	t.hasDrift = false
	t.signalLocked()
}

// Stop halts scheduling immediately, even while a consumer is suspended
// waiting for the next tick: the wait resolves right away with the timer
// reporting stopped. The timer can be restarted with Reset.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.signalLocked()
}

// signalLocked wakes a consumer suspended in WaitReady so it re-reads the
// schedule. Caller holds t.mu.
func (t *Timer) signalLocked() {
	close(t.wake)
	t.wake = make(chan struct{})
}

func (t *Timer) Ready() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.hasDrift {
		return true
	}
	if t.stopped || !t.started {
		return false
	}
	if now := t.now(); !now.Before(t.next) {
		t.tickLocked(now)
		return true
	}
	return false
}

// tickLocked records the elapsed tick and schedules the next one through the
// missed-tick policy. Caller holds t.mu.
func (t *Timer) tickLocked(now time.Time) {
	t.drift = now.Sub(t.next)
	t.hasDrift = true
	t.next = t.policy.NextTick(now, t.next, t.interval)
}

func (t *Timer) WaitReady(ctx context.Context) bool {
	t.mu.Lock()
	for {
		if t.hasDrift {
			t.mu.Unlock()
			return true
		}
		if !t.started && !t.stopped {
			// First use of a timer created with auto-start disabled.
			t.resetLocked(t.interval, 0)
		}
		if t.stopped {
			t.mu.Unlock()
			return false
		}
		now := t.now()
		if !now.Before(t.next) {
			t.tickLocked(now)
			t.mu.Unlock()
			return true
		}
		wake := t.wake
		wait := t.next.Sub(now)
		t.mu.Unlock()

		deadline := time.NewTimer(wait)
		select {
		case <-deadline.C:
		case <-wake:
		case <-ctx.Done():
			deadline.Stop()
			return false
		}
		deadline.Stop()
		t.mu.Lock()
	}
}

func (t *Timer) Consume() (time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasDrift {
		if t.stopped {
			return 0, fmt.Errorf("timer: %w", channel.ErrReceiverStopped)
		}
		return 0, channel.ErrNotReady
	}
	drift := t.drift
	t.drift = 0
	t.hasDrift = false
	return drift, nil
}

func (t *Timer) ConsumeAny() (any, error) {
	drift, err := t.Consume()
	if err != nil {
		return nil, err
	}
	return drift, nil
}

func (t *Timer) Receive(ctx context.Context) (time.Duration, error) {
	if t.WaitReady(ctx) {
		return t.Consume()
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return t.Consume()
}

// Close stops the timer; it implements the receiver contract.
func (t *Timer) Close() error {
	t.Stop()
	return nil
}
