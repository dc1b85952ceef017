package logger

import (
	"log/slog"
	"time"
)

// Attribute helpers use the empty Attr pattern for nil safety.
// This allows calls like log.Warn("msg", logger.Error(err)) without explicit
// nil checks, following the principle of making zero values useful.

// Channel creates an attribute for a channel's diagnostic name.
func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}

// Receiver creates an attribute for a receiver's diagnostic name.
func Receiver(name string) slog.Attr {
	return slog.String("receiver", name)
}

// Queue groups a queue's fill level and capacity under the key "queue".
func Queue(length, limit int) slog.Attr {
	return slog.Attr{Key: "queue", Value: slog.GroupValue(
		slog.Int("len", length),
		slog.Int("limit", limit),
	)}
}

// Error creates an attribute for a single error under the key "error".
// Returns empty Attr for nil errors, enabling safe usage without nil checks.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Path creates an attribute for a filesystem path.
func Path(path string) slog.Attr {
	return slog.String("path", path)
}

// Interval creates an attribute for a timer or polling interval.
func Interval(d time.Duration) slog.Attr {
	return slog.Duration("interval", d)
}
