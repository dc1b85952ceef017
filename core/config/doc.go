// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/conduit/core/config"
//
//	type WatcherConfig struct {
//		Paths        []string      `env:"FILEWATCHER_PATHS,required" envSeparator:","`
//		PollInterval time.Duration `env:"FILEWATCHER_POLL_INTERVAL" envDefault:"1s"`
//	}
//
//	func main() {
//		var cfg WatcherConfig
//
//		// Load with error handling
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime:
//
//	var cfg1 WatcherConfig
//	config.Load(&cfg1) // Loads from environment
//
//	var cfg2 WatcherConfig
//	config.Load(&cfg2) // Returns cached value, cfg1 == cfg2
//
// Different types are cached independently, so packages can declare their own
// configuration structs without coordinating with each other.
package config
