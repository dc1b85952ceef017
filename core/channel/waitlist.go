package channel

import "container/list"

// waitList is a FIFO queue of parked goroutines. Waking is strictly
// first-suspended-first-served so that no waiter is starved.
//
// The caller is responsible for all locking: every method must be invoked
// while holding the owning channel's mutex. Each waiter parks on its own
// channel, which is closed exactly once when the waiter is released.
type waitList struct {
	waiters list.List
}

// park enqueues the calling goroutine and returns its wake-up element. The
// caller unlocks the channel mutex and blocks on the returned channel.
func (w *waitList) park() *list.Element {
	return w.waiters.PushBack(make(chan struct{}))
}

// wakeOne releases the longest-waiting goroutine, if any.
func (w *waitList) wakeOne() {
	if front := w.waiters.Front(); front != nil {
		w.waiters.Remove(front)
		close(front.Value.(chan struct{}))
	}
}

// wakeAll releases every parked goroutine, in suspension order.
func (w *waitList) wakeAll() {
	for front := w.waiters.Front(); front != nil; front = w.waiters.Front() {
		w.waiters.Remove(front)
		close(front.Value.(chan struct{}))
	}
}

// cancel removes a waiter that is abandoning its wait. If the waiter was
// already woken, the wake-up would otherwise be lost, so it is forwarded to
// the next waiter in line; the released waiter re-checks its condition anyway.
func (w *waitList) cancel(elem *list.Element) {
	select {
	case <-elem.Value.(chan struct{}):
		w.wakeOne()
	default:
		w.waiters.Remove(elem)
	}
}

// wakeChan returns the channel a parked goroutine blocks on.
func wakeChan(elem *list.Element) <-chan struct{} {
	return elem.Value.(chan struct{})
}
