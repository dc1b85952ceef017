package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once

	mu    sync.RWMutex
	cache = make(map[reflect.Type]any)
)

// Load populates cfg from the environment. A .env file in the working
// directory is loaded once per process, if present. Each configuration type
// is parsed once and cached; later calls for the same type return the cached
// value.
func Load[T any](cfg *T) error {
	dotenvOnce.Do(func() {
		// Missing .env files are fine; the environment is authoritative.
		_ = godotenv.Load()
	})

	key := reflect.TypeOf(*cfg)
	mu.RLock()
	cached, ok := cache[key]
	mu.RUnlock()
	if ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: load %s: %w", key, err)
	}

	mu.Lock()
	cache[key] = *cfg
	mu.Unlock()
	return nil
}

// MustLoad is Load that panics on failure, for use during startup.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
