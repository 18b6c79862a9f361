package config

import (
	"fmt"
	"path/filepath"
	"sync"
)

// The process-wide configuration and the file it came from. Initialize
// fills it once; ReloadConfig and the Watcher replace it.
var (
	mu      sync.RWMutex
	current *Config
	source  string

	initOnce sync.Once
	initErr  error
)

// Initialize loads the configuration at path the first time it is called
// and returns the process-wide configuration. Later calls ignore path and
// return the outcome of the first load, including its error. An empty path
// yields the defaults plus environment overrides.
func Initialize(path string) (*Config, error) {
	initOnce.Do(func() {
		initErr = load(path)
	})
	if initErr != nil {
		return nil, initErr
	}
	return GetConfig(), nil
}

// ReloadConfig loads path and installs the result. On failure the current
// configuration is kept.
func ReloadConfig(path string) error {
	if err := load(path); err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	return nil
}

func load(path string) error {
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve configuration path %q: %w", path, err)
		}
		path = abs
	}

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return err
	}
	install(cfg, path)
	return nil
}

func install(cfg *Config, path string) {
	mu.Lock()
	defer mu.Unlock()
	current = cfg
	source = path
}

// GetConfig returns the process-wide configuration, or nil before a
// successful load.
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Path returns the absolute path of the file the current configuration was
// loaded from, or "" when it came from defaults alone. The serve command
// watches this file for changes.
func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return source
}
