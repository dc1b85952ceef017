// Package filewatcher reports filesystem changes as a receiver of events.
//
// The watcher polls the configured paths on a fixed interval, compares each
// walk against the previous snapshot and emits a Created, Modified or
// Deleted event per observed difference. Because it never relies on native
// change notifications it behaves the same on local disks, containers and
// network mounts, at the cost of a polling delay and of missing changes
// that are fully undone between two polls.
//
// A Watcher is a channel receiver, so it composes with the rest of the
// toolkit: it can be merged with other event sources, passed through Map
// and Filter, or multiplexed in a Select loop.
//
// Basic usage:
//
//	watcher, err := filewatcher.New(filewatcher.Config{
//		Paths:        []string{"/etc/myapp"},
//		PollInterval: time.Second,
//		Events:       []string{"created", "modified", "deleted"},
//	})
//	if err != nil {
//		return err
//	}
//	defer watcher.Close()
//
//	for {
//		event, err := watcher.Receive(ctx)
//		if err != nil {
//			break
//		}
//		log.Printf("%s: %s", event.Type, event.Path)
//	}
//
// Configuration can also be loaded from the environment via the env tags on
// Config (FILEWATCHER_PATHS, FILEWATCHER_POLL_INTERVAL, FILEWATCHER_EVENTS,
// FILEWATCHER_QUEUE_LIMIT).
package filewatcher
