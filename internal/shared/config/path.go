package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultConfigDir  = ".trinity"
	defaultConfigName = "config.yaml"
	configPathEnv     = "TRINITY_CONFIG_PATH"
)

// ResolveConfigPath returns the configuration file path and its source label.
// Priority order:
//  1. Explicit TRINITY_CONFIG_PATH.
//  2. $HOME/.trinity/config.yaml.
//  3. ./configs/config.yaml (fallback when the home directory is unavailable).
func ResolveConfigPath(envLookup EnvLookup, homeDir func() (string, error)) (string, string) {
	if envLookup == nil {
		envLookup = DefaultEnvLookup
	}
	if value, ok := envLookup(configPathEnv); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed, configPathEnv
		}
	}

	home := ""
	if homeDir != nil {
		if resolved, err := homeDir(); err == nil {
			home = strings.TrimSpace(resolved)
		}
	}
	if home != "" {
		return filepath.Join(home, defaultConfigDir, defaultConfigName), "default"
	}

	return filepath.Join("configs", defaultConfigName), "fallback"
}

// DefaultEnvLookup delegates to os.LookupEnv.
func DefaultEnvLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}
