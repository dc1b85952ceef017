// Package conduit provides a toolkit for structured message passing between
// goroutines: capability-scoped channels, fan-out and fan-in primitives,
// multiplexing, and periodic tick sources. The library implements modern Go
// patterns including generics for type safety, functional options for
// configuration, and interface-based design for flexibility and testability.
//
// # Package Organization
//
// The library is organized into three categories:
//
//   - Core: the channel primitives and their supporting components
//   - Utilities: standalone packages built on the core contracts
//   - Commands: runnable programs demonstrating the toolkit
//
// # Getting Documentation
//
// For detailed documentation on any package, use the go doc command:
//
//	go doc github.com/dmitrymomot/conduit/core/channel
//	go doc -all github.com/dmitrymomot/conduit/core/timer
//
// # Core Packages
//
//	github.com/dmitrymomot/conduit/core/channel - Typed channels with sender/receiver capability handles, anycast and broadcast delivery, merge and select multiplexing
//	github.com/dmitrymomot/conduit/core/timer   - Periodic tick receiver with pluggable missed-tick recovery policies
//	github.com/dmitrymomot/conduit/core/config  - Type-safe environment variable loading
//	github.com/dmitrymomot/conduit/core/logger  - Shared slog attribute helpers for consistent diagnostics
//
// # Utility Packages
//
//	github.com/dmitrymomot/conduit/pkg/filewatcher - Polling filesystem watcher exposed as an event receiver
//
// # Commands
//
//	github.com/dmitrymomot/conduit/cmd/chanwatch - Tails filesystem changes and logs them with periodic summaries
package conduit
