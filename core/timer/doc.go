// Package timer provides a periodic tick receiver with pluggable recovery
// for missed ticks.
//
// A Timer implements channel.Receiver[time.Duration]: every tick delivers
// the drift between the scheduled and the observed trigger time, and the
// timer composes with Merge and Select like any other receiver.
//
// # Missed Ticks
//
// A consumer that falls behind can miss deadlines. What happens then is
// decided by the MissedTickPolicy chosen at construction:
//
//   - TriggerAllMissed: deliver one tick per missed interval (catch-up
//     burst), keeping the schedule anchored to the original start time.
//   - SkipMissedAndResync: deliver a single tick and re-align the next
//     deadline to the interval grid.
//   - SkipMissedAndDrift: deliver a single tick and restart the countdown
//     from now (timeout semantics).
//
// # Usage
//
//	t, err := timer.New(time.Second, timer.TriggerAllMissed{})
//	if err != nil {
//		return err
//	}
//	defer t.Stop()
//
//	for {
//		drift, err := t.Receive(ctx)
//		if err != nil {
//			return err // stopped or ctx cancelled
//		}
//		log.Info("tick", logger.Duration(drift))
//	}
//
// Stop and Reset take effect immediately, even while a consumer is suspended
// waiting for the next tick.
package timer
