package config

import (
	"fmt"
	"sync"
)

var (
	// globalConfig holds the process-wide configuration used by the CLI.
	globalConfig *Config
	globalPath   string

	// configMutex protects globalConfig and globalPath.
	configMutex sync.RWMutex

	// initOnce ensures configuration is initialized only once.
	initOnce sync.Once
)

// Initialize loads configuration from path with environment variable
// overrides and stores it as the process-wide configuration. Subsequent
// calls are ignored and return the first call's error.
//
// Library packages never read the singleton; they receive explicit
// configuration values.
func Initialize(path string) error {
	var initErr error

	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}

		configMutex.Lock()
		globalConfig = cfg
		globalPath = path
		configMutex.Unlock()
	})

	return initErr
}

// GetConfig returns the process-wide configuration, or nil if Initialize has
// not succeeded.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// ReloadConfig reloads the configuration from path and returns it. The
// process-wide configuration is replaced only if loading and validation
// succeed; on error the existing configuration remains unchanged.
// An empty path reuses the path given to Initialize.
func ReloadConfig(path string) (*Config, error) {
	if path == "" {
		configMutex.RLock()
		path = globalPath
		configMutex.RUnlock()
	}
	if path == "" {
		return nil, fmt.Errorf("failed to reload configuration: no configuration path")
	}

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}

	configMutex.Lock()
	globalConfig = cfg
	globalPath = path
	configMutex.Unlock()

	return cfg, nil
}

// MustGetConfig returns the process-wide configuration and panics if it has
// not been initialized.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}

// resetForTest clears the singleton so tests can call Initialize again.
func resetForTest() {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = nil
	globalPath = ""
	initOnce = sync.Once{}
}
