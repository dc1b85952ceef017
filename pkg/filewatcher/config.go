package filewatcher

import "time"

// Config holds the watcher settings, loadable from the environment with
// caarlos0/env:
//
//	var cfg filewatcher.Config
//	if err := env.Parse(&cfg); err != nil {
//		return err
//	}
type Config struct {
	// Paths are the files or directories to watch. Directories are walked
	// recursively. Required.
	Paths []string `env:"FILEWATCHER_PATHS,required" envSeparator:","`

	// PollInterval is how often the paths are scanned for changes. Polling
	// works on any filesystem, including network mounts that deliver no
	// native change notifications.
	PollInterval time.Duration `env:"FILEWATCHER_POLL_INTERVAL" envDefault:"1s"`

	// Events filters which change kinds are reported. All kinds by default.
	Events []string `env:"FILEWATCHER_EVENTS" envSeparator:"," envDefault:"created,modified,deleted"`

	// QueueLimit bounds the internal event buffer; a full buffer applies
	// back-pressure to the scan loop rather than dropping events.
	QueueLimit int `env:"FILEWATCHER_QUEUE_LIMIT" envDefault:"64"`
}
