package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports every invalid field at once.
func Validate(cfg Config) error {
	var errs []error

	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level))
	}
	if cfg.Stream.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("stream.chunk_size must be positive, got %d", cfg.Stream.ChunkSize))
	}
	if cfg.Batch.Workers <= 0 {
		errs = append(errs, fmt.Errorf("batch.workers must be positive, got %d", cfg.Batch.Workers))
	}
	if cfg.Batch.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("batch.cache_size must not be negative, got %d", cfg.Batch.CacheSize))
	}
	switch cfg.IDs.Strategy {
	case "random", "uuidv7":
	default:
		errs = append(errs, fmt.Errorf("ids.strategy: unknown strategy %q (want random or uuidv7)", cfg.IDs.Strategy))
	}
	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Exporter {
		case "otlp", "zipkin":
		default:
			errs = append(errs, fmt.Errorf("tracing.exporter: unsupported exporter %q", cfg.Tracing.Exporter))
		}
		if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
			errs = append(errs, fmt.Errorf("tracing.sample_rate must be within [0, 1], got %g", cfg.Tracing.SampleRate))
		}
	}

	return errors.Join(errs...)
}
