package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const logDirEnvVar = "TRINITY_LOG_DIR"

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

type LogCategory string

const (
	LogCategoryService LogCategory = "service"
	LogCategoryParser  LogCategory = "parser"
)

// sink is the shared output of every logger in a category.
type sink struct {
	mu        sync.Mutex
	file      *os.File
	logger    *log.Logger
	level     LogLevel
	echo      io.Writer
	echoLevel LogLevel
}

var (
	sinksMu sync.Mutex
	sinks   = make(map[LogCategory]*sink)
)

// Logger writes component-tagged lines to the category log file and echoes
// them to stderr when they reach the echo level.
type Logger struct {
	sink      *sink
	component string
	category  LogCategory
}

// LogOptions configures a category sink.
type LogOptions struct {
	Level     LogLevel
	Dir       string
	Echo      io.Writer
	EchoLevel LogLevel
}

// NewComponentLogger creates a logger for a specific component
func NewComponentLogger(component string) *Logger {
	return NewCategorizedLogger(LogCategoryService, component)
}

// NewCategorizedLogger creates a logger for a specific category and component.
func NewCategorizedLogger(category LogCategory, component string) *Logger {
	return &Logger{
		sink:      getOrCreateSink(category),
		component: component,
		category:  category,
	}
}

func getOrCreateSink(category LogCategory) *sink {
	sinksMu.Lock()
	defer sinksMu.Unlock()

	if s, ok := sinks[category]; ok {
		return s
	}
	s := newSink(category, LogOptions{
		Level:     DEBUG,
		Dir:       strings.TrimSpace(os.Getenv(logDirEnvVar)),
		Echo:      os.Stderr,
		EchoLevel: WARN,
	})
	sinks[category] = s
	return s
}

func newSink(category LogCategory, opts LogOptions) *sink {
	s := &sink{
		level:     opts.Level,
		echo:      opts.Echo,
		echoLevel: opts.EchoLevel,
	}
	if opts.Dir == "" {
		return s
	}
	file, err := OpenLogFile(opts.Dir, category)
	if err != nil {
		log.Printf("Failed to open log file: %v", err)
		return s
	}
	s.file = file
	s.logger = log.New(file, "", 0) // We'll format ourselves
	return s
}

// Configure replaces the sink of a category. Loggers created earlier pick up
// the new settings on their next write.
func Configure(category LogCategory, opts LogOptions) {
	sinksMu.Lock()
	defer sinksMu.Unlock()

	next := newSink(category, opts)
	if prev, ok := sinks[category]; ok {
		prev.mu.Lock()
		if prev.file != nil {
			prev.file.Close()
		}
		prev.file = next.file
		prev.logger = next.logger
		prev.level = next.level
		prev.echo = next.echo
		prev.echoLevel = next.echoLevel
		prev.mu.Unlock()
		return
	}
	sinks[category] = next
}

// OpenLogFile opens (or creates) the log file for the given category.
func OpenLogFile(dir string, category LogCategory) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	logPath := filepath.Join(dir, logFileName(category))
	return os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func logFileName(category LogCategory) string {
	switch category {
	case LogCategoryParser:
		return "trinity-parser.log"
	default:
		return "trinity-service.log"
	}
}

// ParseLevel maps a config level name to a LogLevel. Unknown names map to INFO.
func ParseLevel(name string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// SetLevel sets the minimum log level of the category sink
func (l *Logger) SetLevel(level LogLevel) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// Close closes the log file
func (l *Logger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if l.sink.file == nil {
		return nil
	}
	err := l.sink.file.Close()
	l.sink.file = nil
	l.sink.logger = nil
	return err
}

// log is the internal logging function
func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	toFile := s.logger != nil && level >= s.level
	toEcho := s.echo != nil && level >= s.echoLevel
	if !toFile && !toEcho {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	} else {
		file = "???"
		line = 0
	}

	// Format: 2025-09-30 12:34:56 [INFO] [PARSER] [component] file.go:123 - Message
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	component := l.component
	if component == "" {
		component = "TRINITY"
	}
	category := strings.ToUpper(string(l.category))
	if category == "" {
		category = "SERVICE"
	}

	logLine := fmt.Sprintf("%s [%s] [%s] [%s] %s:%d - %s\n",
		timestamp, levelToString(level), category, component, file, line, fmt.Sprintf(format, args...))

	if toFile {
		s.logger.Print(logLine)
	}
	if toEcho {
		io.WriteString(s.echo, logLine)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// levelToString converts LogLevel to string
func levelToString(level LogLevel) string {
	switch level {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
