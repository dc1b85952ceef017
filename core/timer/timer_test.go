package timer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/conduit/core/channel"
	"github.com/dmitrymomot/conduit/core/timer"
)

func TestNewTimer(t *testing.T) {
	t.Parallel()

	t.Run("invalid interval", func(t *testing.T) {
		t.Parallel()

		_, err := timer.New(0, timer.TriggerAllMissed{})
		require.ErrorIs(t, err, timer.ErrInvalidInterval)
		_, err = timer.New(-time.Second, timer.TriggerAllMissed{})
		require.ErrorIs(t, err, timer.ErrInvalidInterval)
	})

	t.Run("invalid start delay", func(t *testing.T) {
		t.Parallel()

		_, err := timer.New(time.Second, timer.TriggerAllMissed{},
			timer.WithStartDelay(-time.Second))
		require.ErrorIs(t, err, timer.ErrInvalidStartDelay)
	})

	t.Run("start delay requires auto-start", func(t *testing.T) {
		t.Parallel()

		_, err := timer.New(time.Second, timer.TriggerAllMissed{},
			timer.WithStartDelay(time.Second), timer.WithAutoStart(false))
		require.ErrorIs(t, err, timer.ErrInvalidStartDelay)
	})

	t.Run("negative tolerance", func(t *testing.T) {
		t.Parallel()

		_, err := timer.New(time.Second, timer.SkipMissedAndDrift{DelayTolerance: -1})
		require.ErrorIs(t, err, timer.ErrNegativeTolerance)
	})

	t.Run("auto-start enabled by default", func(t *testing.T) {
		t.Parallel()

		tick, err := timer.New(time.Second, timer.TriggerAllMissed{})
		require.NoError(t, err)
		defer tick.Stop()
		assert.True(t, tick.IsRunning())
		assert.Equal(t, time.Second, tick.Interval())
	})

	t.Run("auto-start disabled", func(t *testing.T) {
		t.Parallel()

		tick, err := timer.New(time.Second, timer.TriggerAllMissed{},
			timer.WithAutoStart(false))
		require.NoError(t, err)
		assert.False(t, tick.IsRunning())
		assert.False(t, tick.Ready())
	})
}

func TestTimerTicks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("ticks periodically and reports drift", func(t *testing.T) {
		t.Parallel()

		tick, err := timer.New(20*time.Millisecond, timer.SkipMissedAndResync{})
		require.NoError(t, err)
		defer tick.Stop()

		start := time.Now()
		for i := 1; i <= 3; i++ {
			drift, err := tick.Receive(ctx)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, drift, time.Duration(0))
		}
		elapsed := time.Since(start)
		assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond,
			"three ticks of a 20ms timer finished in %s", elapsed)
	})

	t.Run("trigger all missed delivers a burst", func(t *testing.T) {
		t.Parallel()

		tick, err := timer.New(20*time.Millisecond, timer.TriggerAllMissed{})
		require.NoError(t, err)
		defer tick.Stop()

		// Let several deadlines elapse unconsumed.
		time.Sleep(90 * time.Millisecond)

		start := time.Now()
		for range 3 {
			drift, err := tick.Receive(ctx)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, drift, time.Duration(0))
		}
		assert.Less(t, time.Since(start), 20*time.Millisecond,
			"missed ticks were not delivered immediately")
	})

	t.Run("skip missed delivers a single immediate tick", func(t *testing.T) {
		t.Parallel()

		tick, err := timer.New(20*time.Millisecond, timer.SkipMissedAndResync{})
		require.NoError(t, err)
		defer tick.Stop()

		time.Sleep(90 * time.Millisecond)

		_, err = tick.Receive(ctx)
		require.NoError(t, err)

		// The collapsed ticks are gone; the next one needs a fresh deadline.
		assert.False(t, tick.Ready())
	})

	t.Run("start delay defers the first tick", func(t *testing.T) {
		t.Parallel()

		tick, err := timer.New(10*time.Millisecond, timer.SkipMissedAndDrift{},
			timer.WithStartDelay(40*time.Millisecond))
		require.NoError(t, err)
		defer tick.Stop()

		start := time.Now()
		_, err = tick.Receive(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("receive honors cancellation", func(t *testing.T) {
		t.Parallel()

		tick, err := timer.New(time.Hour, timer.TriggerAllMissed{})
		require.NoError(t, err)
		defer tick.Stop()

		recvCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
		defer cancel()
		_, err = tick.Receive(recvCtx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("first receive starts an idle timer", func(t *testing.T) {
		t.Parallel()

		tick, err := timer.New(20*time.Millisecond, timer.TriggerAllMissed{},
			timer.WithAutoStart(false))
		require.NoError(t, err)
		defer tick.Stop()

		// Scheduling begins at the first receive, not at creation.
		time.Sleep(50 * time.Millisecond)
		start := time.Now()
		_, err = tick.Receive(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
		assert.True(t, tick.IsRunning())
	})
}

func TestTimerStop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("stopped timer reports end of stream", func(t *testing.T) {
		t.Parallel()

		tick, err := timer.New(time.Hour, timer.TriggerAllMissed{})
		require.NoError(t, err)
		tick.Stop()
		assert.False(t, tick.IsRunning())

		_, err = tick.Receive(ctx)
		require.ErrorIs(t, err, channel.ErrReceiverStopped)
		_, err = tick.Consume()
		require.ErrorIs(t, err, channel.ErrReceiverStopped)
	})

	t.Run("stop interrupts a suspended receive", func(t *testing.T) {
		t.Parallel()

		tick, err := timer.New(time.Hour, timer.TriggerAllMissed{})
		require.NoError(t, err)

		received := make(chan error, 1)
		go func() {
			_, err := tick.Receive(ctx)
			received <- err
		}()

		time.Sleep(20 * time.Millisecond)
		tick.Stop()

		select {
		case err := <-received:
			require.ErrorIs(t, err, channel.ErrReceiverStopped)
		case <-time.After(time.Second):
			t.Fatal("suspended receive was not interrupted by Stop")
		}
	})

	t.Run("close implements the receiver contract", func(t *testing.T) {
		t.Parallel()

		tick, err := timer.New(time.Hour, timer.TriggerAllMissed{})
		require.NoError(t, err)
		require.NoError(t, tick.Close())
		_, err = tick.Receive(ctx)
		require.ErrorIs(t, err, channel.ErrReceiverStopped)
	})
}

func TestTimerReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("restarts a stopped timer", func(t *testing.T) {
		t.Parallel()

		tick, err := timer.New(20*time.Millisecond, timer.TriggerAllMissed{})
		require.NoError(t, err)
		defer tick.Stop()

		tick.Stop()
		require.NoError(t, tick.Reset())
		assert.True(t, tick.IsRunning())

		_, err = tick.Receive(ctx)
		require.NoError(t, err)
	})

	t.Run("replaces the interval", func(t *testing.T) {
		t.Parallel()

		tick, err := timer.New(time.Hour, timer.TriggerAllMissed{})
		require.NoError(t, err)
		defer tick.Stop()

		require.NoError(t, tick.Reset(timer.WithInterval(20*time.Millisecond)))
		assert.Equal(t, 20*time.Millisecond, tick.Interval())

		_, err = tick.Receive(ctx)
		require.NoError(t, err)
	})

	t.Run("interrupts a suspended receive with the new deadline", func(t *testing.T) {
		t.Parallel()

		tick, err := timer.New(time.Hour, timer.TriggerAllMissed{})
		require.NoError(t, err)
		defer tick.Stop()

		received := make(chan error, 1)
		go func() {
			_, err := tick.Receive(ctx)
			received <- err
		}()

		time.Sleep(20 * time.Millisecond)
		require.NoError(t, tick.Reset(timer.WithInterval(20*time.Millisecond)))

		select {
		case err := <-received:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("suspended receive did not pick up the reset deadline")
		}
	})

	t.Run("invalid reset options", func(t *testing.T) {
		t.Parallel()

		tick, err := timer.New(time.Second, timer.TriggerAllMissed{})
		require.NoError(t, err)
		defer tick.Stop()

		require.ErrorIs(t, tick.Reset(timer.WithInterval(-time.Second)), timer.ErrInvalidInterval)
		require.ErrorIs(t, tick.Reset(timer.WithResetDelay(-time.Second)), timer.ErrInvalidStartDelay)
	})
}

func TestTimerInSelect(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tick, err := timer.New(20*time.Millisecond, timer.SkipMissedAndResync{})
	require.NoError(t, err)
	defer tick.Stop()
	stop := channel.NewEvent()

	go func() {
		time.Sleep(70 * time.Millisecond)
		stop.Set()
	}()

	ticks := 0
	selector := channel.Select(tick, stop)
	for {
		selected, ok := selector.Next(ctx)
		require.True(t, ok)
		if selected.From(stop) {
			break
		}
		require.True(t, selected.From(tick))
		ticks++
	}
	assert.GreaterOrEqual(t, ticks, 2)
	require.NoError(t, selector.Err())
}
