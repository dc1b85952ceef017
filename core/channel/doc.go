// Package channel provides typed, composable channels for passing messages
// between goroutines, built around a capability model: producers hold
// Sender handles, consumers hold Receiver handles, and neither can reach the
// channel's internals.
//
// # Core Components
//
// Anycast is a bounded work queue: every message is delivered to exactly one
// of the competing receivers, with back-pressure on senders when the shared
// buffer is full.
//
// Broadcast is a fan-out channel: every message is replicated to every
// receiver registered at send time, each of which owns an independent bounded
// queue. The overflow policy (block the sender or drop the receiver's oldest
// message) is configurable per channel.
//
// Merge combines several receivers of the same type into one stream;
// Select waits on heterogeneous receivers and yields one result per ready
// source, polling in strict round-robin order so no source is starved.
//
// Event is a wake-only signal receiver; Map and Filter derive lazily
// transformed receivers; LatestValueCache, Pipe and RelaySender are small
// conveniences built entirely on the Sender/Receiver contracts.
//
// # Basic Usage
//
// Distribute work across a pool of consumers:
//
//	import (
//		"context"
//
//		"github.com/dmitrymomot/conduit/core/channel"
//	)
//
//	func main() {
//		ctx := context.Background()
//
//		jobs, err := channel.NewAnycast[int]("jobs", channel.WithLimit(8))
//		if err != nil {
//			panic(err)
//		}
//		sender := jobs.NewSender()
//		receiver := jobs.NewReceiver()
//
//		go func() {
//			defer sender.Close() // closing the last sender closes the channel
//			for i := range 100 {
//				if err := sender.Send(ctx, i); err != nil {
//					return
//				}
//			}
//		}()
//
//		for {
//			job, err := receiver.Receive(ctx)
//			if err != nil {
//				break // channel drained and closed
//			}
//			process(job)
//		}
//	}
//
// Multiplex several sources with Select:
//
//	stop := channel.NewEvent()
//	sel := channel.Select(prices, stop)
//	for selected := range sel.All(ctx) {
//		switch {
//		case selected.From(stop):
//			return
//		case selected.From(prices):
//			price, _ := channel.MessageFrom(selected, prices)
//			handle(price)
//		}
//	}
//
// # Error Handling
//
// Transient back-pressure is never an error: a full buffer suspends the
// sender until space is available. Only permanent conditions fail:
// ErrChannelClosed for sending on a closed channel, and ErrReceiverStopped
// once a receiver's source has terminated and drained — callers treat the
// latter as normal end-of-stream.
//
// # Concurrency Model
//
// All blocking operations take a context.Context and abandon their wait
// cleanly when it is cancelled: delivery to a queue is atomic, and a
// cancelled waiter forwards any wake-up it already received to the next
// waiter in line. Suspended goroutines are released in FIFO order. A Receiver
// handle is meant to be consumed by a single goroutine; channels themselves
// are safe for concurrent use through any number of handles.
package channel
