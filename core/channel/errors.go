package channel

import "errors"

var (
	// ErrChannelClosed is returned when sending to or closing a channel that
	// has already been closed.
	ErrChannelClosed = errors.New("channel is closed")

	// ErrReceiverStopped is returned by receive operations once a receiver's
	// source has terminated and all buffered messages have been drained.
	// It signals normal end-of-stream, not an exceptional condition; callers
	// are expected to check for it with errors.Is and stop consuming.
	ErrReceiverStopped = errors.New("receiver stopped")

	// ErrNotReady is returned by Consume when no message is available.
	// Consume must only be called after Ready reported true.
	ErrNotReady = errors.New("no message ready to consume")

	// ErrNoReceivers is returned by Merge when called without any receivers.
	ErrNoReceivers = errors.New("at least one receiver is required")

	// ErrInvalidLimit is returned when a channel is created with a buffer
	// limit smaller than one message.
	ErrInvalidLimit = errors.New("buffer limit must be at least 1")
)
