package filewatcher

import "fmt"

// EventType is the kind of filesystem change observed by a Watcher.
type EventType uint8

const (
	// Created means the file or directory appeared since the last poll.
	Created EventType = iota + 1
	// Modified means the file's contents or metadata changed.
	Modified
	// Deleted means the file or directory disappeared.
	Deleted
)

func (t EventType) String() string {
	switch t {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ParseEventType parses the textual form used in configuration
// ("created", "modified", "deleted").
func ParseEventType(s string) (EventType, error) {
	switch s {
	case "created":
		return Created, nil
	case "modified":
		return Modified, nil
	case "deleted":
		return Deleted, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownEventType, s)
	}
}

// Event is a single filesystem change: what happened and where.
type Event struct {
	Type EventType
	Path string
}

func (e Event) String() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Path)
}
