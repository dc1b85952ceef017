// Package logger provides slog attribute helpers shared by the channel,
// timer and file watcher packages.
//
// The helpers keep attribute keys consistent across the module ("channel",
// "receiver", "queue", ...) and use the empty Attr pattern for nil safety, so
// call sites never need explicit nil checks:
//
//	log.Warn("sender blocked",
//		logger.Channel("prices"),
//		logger.Duration(elapsed),
//		logger.Error(err), // no-op attribute when err is nil
//	)
//
// All packages in this module log through a *slog.Logger injected via their
// With...Logger options and discard diagnostics by default.
package logger
