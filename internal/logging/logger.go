// Package logging provides the structured request and service logger of the
// lplab server. Engine code logs through zap; NewZapLogger bridges zap into
// this logger so both end up in the same stream.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log entry.
type LogLevel string

const (
	// DebugLevel covers per-pivot engine traces.
	DebugLevel LogLevel = "DEBUG"
	// InfoLevel is the default logging priority.
	InfoLevel LogLevel = "INFO"
	// WarnLevel marks cross-check disagreements and degraded stores.
	WarnLevel LogLevel = "WARN"
	ErrorLevel LogLevel = "ERROR"
	// FatalLevel logs a message, then calls os.Exit(1).
	FatalLevel LogLevel = "FATAL"
)

var levelRank = map[LogLevel]int{
	DebugLevel: 0,
	InfoLevel:  1,
	WarnLevel:  2,
	ErrorLevel: 3,
	FatalLevel: 4,
}

// Format selects how entries are rendered.
type Format string

const (
	JSONFormat Format = "json"
	TextFormat Format = "text"
)

// Logger writes one entry per line. Derived loggers share the output and
// its lock.
type Logger struct {
	level  LogLevel
	format Format
	output io.Writer
	mu     *sync.Mutex
	fields map[string]interface{}
	now    func() time.Time
	exit   func(int)
}

// New creates a JSON Logger with the specified log level and output.
func New(level LogLevel, output io.Writer) *Logger {
	return &Logger{
		level:  level,
		format: JSONFormat,
		output: output,
		mu:     &sync.Mutex{},
		fields: make(map[string]interface{}),
		now:    time.Now,
		exit:   os.Exit,
	}
}

// WithFormat returns a copy of l rendering entries in f.
func (l *Logger) WithFormat(f Format) *Logger {
	c := l.clone(nil)
	c.format = f
	return c
}

// Level returns the minimum level l writes.
func (l *Logger) Level() LogLevel {
	return l.level
}

// WithFields returns a new Logger with the specified fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.clone(fields)
}

// WithField returns a new Logger with the specified key-value pair.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithError returns a new Logger with the error field set.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *Logger) clone(fields map[string]interface{}) *Logger {
	newFields := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}
	c := *l
	c.fields = newFields
	return &c
}

// log writes a log entry with the given level and message. skip is the
// number of frames between the caller of interest and log.
func (l *Logger) log(level LogLevel, msg string, fields map[string]interface{}, skip int) {
	if !l.shouldLog(level) {
		return
	}

	entry := make(map[string]interface{}, len(l.fields)+len(fields)+4)
	for k, v := range l.fields {
		entry[k] = v
	}
	for k, v := range fields {
		entry[k] = v
	}
	entry["timestamp"] = l.now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level
	entry["message"] = msg
	if _, ok := entry["caller"]; !ok {
		entry["caller"] = caller(skip + 1)
	}

	var line []byte
	if l.format == TextFormat {
		line = renderText(entry)
	} else {
		var err error
		line, err = json.Marshal(entry)
		if err != nil {
			line = []byte(fmt.Sprintf("%s [%s] %s: %+v", entry["timestamp"], level, msg, fields))
		}
	}
	line = append(line, '\n')

	l.mu.Lock()
	_, _ = l.output.Write(line)
	l.mu.Unlock()

	if level == FatalLevel {
		l.exit(1)
	}
}

// caller keeps the last two parts of the file path.
func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "???:0"
	}
	parts := strings.Split(file, "/")
	if len(parts) > 2 {
		file = strings.Join(parts[len(parts)-2:], "/")
	}
	return fmt.Sprintf("%s:%d", file, line)
}

func renderText(entry map[string]interface{}) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %s", entry["timestamp"], entry["level"], entry["message"])

	keys := make([]string, 0, len(entry))
	for k := range entry {
		switch k {
		case "timestamp", "level", "message":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry[k])
	}
	return []byte(b.String())
}

// shouldLog returns true if the given level should be logged.
func (l *Logger) shouldLog(level LogLevel) bool {
	rank, ok := levelRank[level]
	if !ok {
		return false
	}
	current, ok := levelRank[l.level]
	if !ok {
		return false
	}
	return rank >= current
}

func first(fields []map[string]interface{}) map[string]interface{} {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// Debug logs a message at DebugLevel.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(DebugLevel, msg, first(fields), 1)
}

// Info logs a message at InfoLevel.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(InfoLevel, msg, first(fields), 1)
}

// Warn logs a message at WarnLevel.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(WarnLevel, msg, first(fields), 1)
}

// Error logs a message at ErrorLevel.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(ErrorLevel, msg, first(fields), 1)
}

// Fatal logs a message at FatalLevel then calls os.Exit(1).
func (l *Logger) Fatal(msg string, fields ...map[string]interface{}) {
	l.log(FatalLevel, msg, first(fields), 1)
}

type ctxLoggerKey struct{}

// FromContext returns the request logger stored by Middleware, or a
// stderr logger when there is none.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(ctxLoggerKey{}).(*Logger); ok {
		return logger
	}
	return New(InfoLevel, os.Stderr)
}

// WithContext returns a new context carrying l.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, l)
}
