package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Option customises the loader behaviour.
type Option func(*loadOptions)

type loadOptions struct {
	envLookup  EnvLookup
	readFile   func(string) ([]byte, error)
	homeDir    func() (string, error)
	configPath string
}

// WithEnv supplies a custom environment lookup implementation.
func WithEnv(lookup EnvLookup) Option {
	return func(o *loadOptions) {
		o.envLookup = lookup
	}
}

// WithConfigPath forces the loader to read configuration from a specific file.
func WithConfigPath(path string) Option {
	return func(o *loadOptions) {
		o.configPath = path
	}
}

// WithFileReader injects a custom reader, used primarily for tests.
func WithFileReader(reader func(string) ([]byte, error)) Option {
	return func(o *loadOptions) {
		o.readFile = reader
	}
}

// WithHomeDir overrides how the loader resolves the user's home directory.
func WithHomeDir(resolver func() (string, error)) Option {
	return func(o *loadOptions) {
		o.homeDir = resolver
	}
}

// Load builds the configuration from defaults and the YAML file. String
// values in the file may reference environment variables as ${VAR}. A
// missing or empty file yields the defaults.
func Load(opts ...Option) (Config, Metadata, error) {
	options := loadOptions{
		envLookup: DefaultEnvLookup,
		readFile:  os.ReadFile,
		homeDir:   os.UserHomeDir,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.envLookup == nil {
		options.envLookup = DefaultEnvLookup
	}

	cfg := Default()
	meta := Metadata{sources: map[string]ValueSource{}, loadedAt: time.Now()}

	configPath := strings.TrimSpace(options.configPath)
	if configPath == "" {
		configPath, _ = ResolveConfigPath(options.envLookup, options.homeDir)
	}
	meta.path = configPath

	data, err := options.readFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, meta, nil
		}
		return cfg, meta, fmt.Errorf("read config file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, meta, nil
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), meta, fmt.Errorf("parse config file %s: %w", configPath, err)
	}
	var present map[string]map[string]yaml.Node
	if err := yaml.Unmarshal(data, &present); err == nil {
		for section, fields := range present {
			for field := range fields {
				meta.sources[section+"."+field] = SourceFile
			}
		}
	}

	expandConfigEnv(options.envLookup, &cfg, meta.sources)
	return cfg, meta, nil
}

// expandConfigEnv expands ${VAR} references in string fields and marks the
// expanded fields as environment sourced.
func expandConfigEnv(lookup EnvLookup, cfg *Config, sources map[string]ValueSource) {
	fields := map[string]*string{
		"logging.level":        &cfg.Logging.Level,
		"logging.dir":          &cfg.Logging.Dir,
		"tokenizer.encoding":   &cfg.Tokenizer.Encoding,
		"tokenizer.vocab_file": &cfg.Tokenizer.VocabFile,
		"tracing.exporter":     &cfg.Tracing.Exporter,
		"tracing.endpoint":     &cfg.Tracing.Endpoint,
		"ids.strategy":         &cfg.IDs.Strategy,
	}
	for key, field := range fields {
		if expanded := expandEnvValue(lookup, *field); expanded != *field {
			*field = expanded
			sources[key] = SourceEnv
		}
	}
}

// expandEnvValue replaces ${VAR} references; unknown variables expand to "".
func expandEnvValue(lookup EnvLookup, value string) string {
	if !strings.Contains(value, "${") {
		return value
	}
	return os.Expand(value, func(key string) string {
		resolved, _ := lookup(key)
		return resolved
	})
}
