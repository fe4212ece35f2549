package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	cacheMu sync.RWMutex
	cache   = make(map[reflect.Type]any)

	dotenvOnce sync.Once
)

// Load parses environment variables into cfg, which must be a non-nil
// struct pointer. Each configuration type is parsed once per process;
// later calls for the same type return the cached value. A .env file in
// the working directory is loaded before the first parse, without
// overriding variables already set.
func Load(cfg any) error {
	rv := reflect.ValueOf(cfg)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config target must be a non-nil struct pointer, got %T", cfg)
	}
	t := rv.Elem().Type()

	cacheMu.RLock()
	cached, ok := cache[t]
	cacheMu.RUnlock()
	if ok {
		rv.Elem().Set(reflect.ValueOf(cached))
		return nil
	}

	dotenvOnce.Do(func() {
		// Missing .env is the normal production case.
		_ = godotenv.Load()
	})

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse environment for %s: %w", t, err)
	}

	cacheMu.Lock()
	cache[t] = rv.Elem().Interface()
	cacheMu.Unlock()
	return nil
}

// MustLoad is Load panicking on failure, for application startup paths.
func MustLoad(cfg any) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

// Reset clears the configuration cache. Intended for tests that mutate
// the environment between loads.
func Reset() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	cache = make(map[reflect.Type]any)
}
