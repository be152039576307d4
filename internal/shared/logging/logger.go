package logging

import (
	"reflect"

	"trinity/internal/shared/utils"
)

// Logger is the printf-style logging contract shared by every package.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// IsNil reports whether logger is nil or a typed nil pointer.
func IsNil(logger Logger) bool {
	if logger == nil {
		return true
	}
	val := reflect.ValueOf(logger)
	return val.Kind() == reflect.Ptr && val.IsNil()
}

// OrNop returns logger when usable, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if IsNil(logger) {
		return Nop()
	}
	return logger
}

type prefixed struct {
	prefix string
	next   Logger
}

// WithPrefix returns a logger that prepends "prefix: " to every message.
// An empty prefix returns logger unchanged.
func WithPrefix(logger Logger, prefix string) Logger {
	logger = OrNop(logger)
	if prefix == "" {
		return logger
	}
	return prefixed{prefix: prefix + ": ", next: logger}
}

func (p prefixed) Debug(format string, args ...any) { p.next.Debug(p.prefix+format, args...) }
func (p prefixed) Info(format string, args ...any)  { p.next.Info(p.prefix+format, args...) }
func (p prefixed) Warn(format string, args ...any)  { p.next.Warn(p.prefix+format, args...) }
func (p prefixed) Error(format string, args ...any) { p.next.Error(p.prefix+format, args...) }

// NewComponentLogger returns a service log (trinity-service.log) logger
// scoped to component.
func NewComponentLogger(component string) Logger {
	return utils.NewCategorizedLogger(utils.LogCategoryService, component)
}

// NewParserLogger returns a parser log (trinity-parser.log) logger scoped to
// component.
func NewParserLogger(component string) Logger {
	return utils.NewCategorizedLogger(utils.LogCategoryParser, component)
}
