package channel

import "context"

// Sender is the write-only capability handle of a channel. A sender is bound
// to exactly one channel and owns no buffer; it delegates storage to the
// channel it was created from.
//
// Send suspends the calling goroutine while the destination buffer is full
// (back-pressure) and fails with ErrChannelClosed once the channel has been
// closed. A closed sender handle stays closed; the failure is terminal.
type Sender[T any] interface {
	// Send enqueues message into the bound channel, blocking while the
	// destination buffer is full. The wait is abandoned without losing or
	// duplicating messages when ctx is cancelled.
	Send(ctx context.Context, message T) error

	// Close releases this handle. When the last sender handle of a channel
	// is released, the channel is closed and receivers drain the remaining
	// buffered messages. Close is idempotent.
	Close() error
}
