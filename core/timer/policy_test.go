package timer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/conduit/core/timer"
)

func TestTriggerAllMissed(t *testing.T) {
	t.Parallel()

	anchor := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	interval := time.Second
	policy := timer.TriggerAllMissed{}

	t.Run("on time", func(t *testing.T) {
		t.Parallel()

		scheduled := anchor.Add(interval)
		next := policy.NextTick(scheduled, scheduled, interval)
		assert.Equal(t, anchor.Add(2*time.Second), next)
	})

	t.Run("consumer blocked for several intervals", func(t *testing.T) {
		t.Parallel()

		// Tick scheduled at 1.0s observed at 3.5s: the next two deadlines
		// are already in the past, producing a burst of immediate ticks
		// that keeps the schedule anchored.
		scheduled := anchor.Add(interval)
		now := anchor.Add(3500 * time.Millisecond)

		next := policy.NextTick(now, scheduled, interval)
		assert.Equal(t, anchor.Add(2*time.Second), next)

		next = policy.NextTick(now, next, interval)
		assert.Equal(t, anchor.Add(3*time.Second), next)

		next = policy.NextTick(now, next, interval)
		assert.Equal(t, anchor.Add(4*time.Second), next)
		assert.True(t, next.After(now), "schedule did not catch up")
	})
}

func TestSkipMissedAndResync(t *testing.T) {
	t.Parallel()

	anchor := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	interval := time.Second
	policy := timer.SkipMissedAndResync{}

	t.Run("on time", func(t *testing.T) {
		t.Parallel()

		scheduled := anchor.Add(interval)
		next := policy.NextTick(scheduled, scheduled, interval)
		assert.Equal(t, anchor.Add(2*time.Second), next)
	})

	t.Run("missed ticks collapse onto the anchor grid", func(t *testing.T) {
		t.Parallel()

		// Tick scheduled at 1.0s observed at 3.5s: the 2.0s and 3.0s ticks
		// are skipped and the next fires at 4.0s, back on the grid.
		scheduled := anchor.Add(interval)
		now := anchor.Add(3500 * time.Millisecond)
		next := policy.NextTick(now, scheduled, interval)
		assert.Equal(t, anchor.Add(4*time.Second), next)
	})

	t.Run("small delay stays on the grid", func(t *testing.T) {
		t.Parallel()

		scheduled := anchor.Add(interval)
		now := scheduled.Add(100 * time.Millisecond)
		next := policy.NextTick(now, scheduled, interval)
		assert.Equal(t, anchor.Add(2*time.Second), next)
	})
}

func TestSkipMissedAndDrift(t *testing.T) {
	t.Parallel()

	anchor := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	interval := time.Second

	t.Run("delay beyond tolerance restarts the countdown", func(t *testing.T) {
		t.Parallel()

		// Tick scheduled at 1.0s observed at 3.5s: the timer drifts, with
		// the next tick a full interval after the observation at 4.5s.
		policy := timer.SkipMissedAndDrift{}
		scheduled := anchor.Add(interval)
		now := anchor.Add(3500 * time.Millisecond)
		next := policy.NextTick(now, scheduled, interval)
		assert.Equal(t, anchor.Add(4500*time.Millisecond), next)
	})

	t.Run("delay within tolerance keeps the schedule", func(t *testing.T) {
		t.Parallel()

		policy := timer.SkipMissedAndDrift{DelayTolerance: 200 * time.Millisecond}
		scheduled := anchor.Add(interval)
		now := scheduled.Add(150 * time.Millisecond)
		next := policy.NextTick(now, scheduled, interval)
		assert.Equal(t, anchor.Add(2*time.Second), next)
	})

	t.Run("zero tolerance drifts on any delay", func(t *testing.T) {
		t.Parallel()

		policy := timer.SkipMissedAndDrift{}
		scheduled := anchor.Add(interval)
		now := scheduled.Add(time.Millisecond)
		next := policy.NextTick(now, scheduled, interval)
		assert.Equal(t, now.Add(interval), next)
	})
}
