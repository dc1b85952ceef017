package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source for deterministic scheduling
// tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestDeterministicSchedule(t *testing.T) {
	t.Parallel()

	anchor := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("trigger all missed catches up tick by tick", func(t *testing.T) {
		t.Parallel()

		clock := &fakeClock{now: anchor}
		tick, err := New(time.Second, TriggerAllMissed{}, withClock(clock.Now))
		require.NoError(t, err)

		assert.False(t, tick.Ready(), "timer ready before the first deadline")

		// The 1s tick is observed 2.5s late; the 2s and 3s deadlines have
		// also elapsed, so exactly three immediate ticks are due and the
		// schedule stays anchored.
		clock.Advance(3500 * time.Millisecond)
		for _, wantDrift := range []time.Duration{
			2500 * time.Millisecond,
			1500 * time.Millisecond,
			500 * time.Millisecond,
		} {
			require.True(t, tick.Ready())
			drift, err := tick.Consume()
			require.NoError(t, err)
			assert.Equal(t, wantDrift, drift)
		}
		assert.False(t, tick.Ready(), "more than three catch-up ticks delivered")

		// The next deadline is the 4s anchor multiple.
		clock.Advance(500 * time.Millisecond)
		require.True(t, tick.Ready())
		drift, err := tick.Consume()
		require.NoError(t, err)
		assert.Equal(t, time.Duration(0), drift)
	})

	t.Run("skip missed and resync realigns to the grid", func(t *testing.T) {
		t.Parallel()

		clock := &fakeClock{now: anchor}
		tick, err := New(time.Second, SkipMissedAndResync{}, withClock(clock.Now))
		require.NoError(t, err)

		clock.Advance(3500 * time.Millisecond)
		require.True(t, tick.Ready())
		drift, err := tick.Consume()
		require.NoError(t, err)
		assert.Equal(t, 2500*time.Millisecond, drift)

		// The missed 2s and 3s ticks are collapsed; the next deadline is 4s.
		assert.False(t, tick.Ready())
		clock.Advance(499 * time.Millisecond)
		assert.False(t, tick.Ready())
		clock.Advance(time.Millisecond)
		assert.True(t, tick.Ready())
	})

	t.Run("skip missed and drift restarts the countdown from now", func(t *testing.T) {
		t.Parallel()

		clock := &fakeClock{now: anchor}
		tick, err := New(time.Second, SkipMissedAndDrift{}, withClock(clock.Now))
		require.NoError(t, err)

		clock.Advance(3500 * time.Millisecond)
		require.True(t, tick.Ready())
		_, err = tick.Consume()
		require.NoError(t, err)

		// The next deadline is a full interval after the observation, 4.5s.
		clock.Advance(999 * time.Millisecond)
		assert.False(t, tick.Ready())
		clock.Advance(time.Millisecond)
		assert.True(t, tick.Ready())
	})

	t.Run("start delay shifts the first deadline", func(t *testing.T) {
		t.Parallel()

		clock := &fakeClock{now: anchor}
		tick, err := New(time.Second, TriggerAllMissed{},
			WithStartDelay(2*time.Second), withClock(clock.Now))
		require.NoError(t, err)

		clock.Advance(2999 * time.Millisecond)
		assert.False(t, tick.Ready())
		clock.Advance(time.Millisecond)
		assert.True(t, tick.Ready())
	})
}
