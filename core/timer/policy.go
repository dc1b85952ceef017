package timer

import "time"

// MissedTickPolicy decides how a timer recovers when one or more ticks
// elapsed before the previous tick was consumed. Given the current time and
// the tick that was scheduled, it returns when the timer should trigger next.
//
// Policies are stateless values; implement the interface to plug in a custom
// recovery strategy.
type MissedTickPolicy interface {
	// NextTick returns the next trigger time. now is when the current tick
	// was actually observed, scheduled is when it was supposed to trigger.
	NextTick(now, scheduled time.Time, interval time.Duration) time.Time
}

// TriggerAllMissed delivers one tick per missed interval until the timer has
// caught up, keeping the fixed-rate schedule anchored to the original start
// time. If the consumer was blocked for several intervals, it observes a
// burst of immediate ticks and the schedule stays aligned; the drift is never
// accumulated.
type TriggerAllMissed struct{}

func (TriggerAllMissed) NextTick(_, scheduled time.Time, interval time.Duration) time.Time {
	// Scheduling strictly from the previous deadline makes every missed
	// interval produce its own (immediate) tick.
	return scheduled.Add(interval)
}

// SkipMissedAndResync collapses all missed ticks into a single immediate tick
// and schedules the next one on the next multiple of the interval from the
// original anchor. The consumer sees no bursts and the timer does not drift.
type SkipMissedAndResync struct{}

func (SkipMissedAndResync) NextTick(now, scheduled time.Time, interval time.Duration) time.Time {
	drift := now.Sub(scheduled)
	return now.Add(interval - drift%interval)
}

// SkipMissedAndDrift collapses all missed ticks into a single immediate tick
// and restarts the interval countdown from now, as if the timer had been
// reset: timeout semantics, with the interval measured from the last delivery
// rather than from a fixed anchor.
//
// Delays up to DelayTolerance are not treated as missed ticks, so small
// scheduling hiccups do not accumulate drift.
type SkipMissedAndDrift struct {
	// DelayTolerance is the maximum delay tolerated before the timer starts
	// drifting. Must not be negative.
	DelayTolerance time.Duration
}

func (p SkipMissedAndDrift) NextTick(now, scheduled time.Time, interval time.Duration) time.Time {
	if now.Sub(scheduled) > p.DelayTolerance {
		return now.Add(interval)
	}
	return scheduled.Add(interval)
}

func (p SkipMissedAndDrift) validate() error {
	if p.DelayTolerance < 0 {
		return ErrNegativeTolerance
	}
	return nil
}
