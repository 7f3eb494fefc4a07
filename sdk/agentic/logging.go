package agentic

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"
)

// LogLevel represents the logging level.
type LogLevel int

const (
	// LevelDebug logs verbose debugging information, including event lines.
	LevelDebug LogLevel = iota
	// LevelInfo logs normal operational messages.
	LevelInfo
	// LevelWarn logs warning messages.
	LevelWarn
	// LevelError logs error messages only.
	LevelError
	// LevelOff disables all logging.
	LevelOff
)

// ParseLevel maps a level name to a LogLevel. Unknown names disable logging.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR", "CRITICAL":
		return LevelError
	}
	return LevelOff
}

var (
	apiKeyPattern = regexp.MustCompile(`(?i)(kg-[a-f0-9]{8})-[a-f0-9-]+`)
	appIDPattern  = regexp.MustCompile(`(?i)(aa-[a-f0-9]{8})-[a-f0-9-]+`)
	tokenPattern  = regexp.MustCompile(`(["'])[a-zA-Z0-9_-]{20,}(["'])`)
)

// MaskSecrets blanks key material in a string before it reaches a log sink.
func MaskSecrets(s string) string {
	s = apiKeyPattern.ReplaceAllString(s, "$1****")
	s = appIDPattern.ReplaceAllString(s, "$1****")
	s = tokenPattern.ReplaceAllString(s, "$1****$2")
	return s
}

// Logger wraps slog for SDK and CLI logging. The zero value is disabled,
// which is the default for library use.
type Logger struct {
	slog  *slog.Logger
	level LogLevel
}

// NewLogger creates a logger writing to w at the given level. Secret-looking
// string attributes are masked before they are emitted.
func NewLogger(level LogLevel, w io.Writer) *Logger {
	if level == LevelOff {
		return &Logger{level: LevelOff}
	}
	if w == nil {
		w = os.Stderr
	}

	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelInfo:
		slogLevel = slog.LevelInfo
	case LevelWarn:
		slogLevel = slog.LevelWarn
	default:
		slogLevel = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				t := a.Value.Time()
				a.Value = slog.StringValue(t.Format(time.DateTime))
				return a
			}
			if a.Value.Kind() == slog.KindString {
				a.Value = slog.StringValue(MaskSecrets(a.Value.String()))
			}
			return a
		},
	}

	return &Logger{
		slog:  slog.New(slog.NewTextHandler(w, opts)),
		level: level,
	}
}

// NewLoggerFromEnv creates a logger from the KOREAI_LOG_LEVEL environment
// variable. Defaults to off when unset.
func NewLoggerFromEnv() *Logger {
	level := ParseLevel(os.Getenv("KOREAI_LOG_LEVEL"))
	if level == LevelOff {
		return &Logger{level: LevelOff}
	}
	return NewLogger(level, os.Stderr)
}

// IsEnabled returns true if logging is enabled at any level.
func (l *Logger) IsEnabled() bool {
	return l != nil && l.level != LevelOff && l.slog != nil
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	if l.IsEnabled() && l.level <= LevelDebug {
		l.slog.Debug(MaskSecrets(msg), args...)
	}
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	if l.IsEnabled() && l.level <= LevelInfo {
		l.slog.Info(MaskSecrets(msg), args...)
	}
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	if l.IsEnabled() && l.level <= LevelWarn {
		l.slog.Warn(MaskSecrets(msg), args...)
	}
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	if l.IsEnabled() && l.level <= LevelError {
		l.slog.Error(MaskSecrets(msg), args...)
	}
}

// With returns a new logger with the given attributes.
func (l *Logger) With(args ...any) *Logger {
	if !l.IsEnabled() {
		return l
	}
	return &Logger{
		slog:  l.slog.With(args...),
		level: l.level,
	}
}

// RequestLogger times a single HTTP request.
type RequestLogger struct {
	logger    *Logger
	method    string
	url       string
	startTime time.Time
}

// StartRequest begins timing an HTTP request.
func (l *Logger) StartRequest(method, url string) *RequestLogger {
	if !l.IsEnabled() {
		return &RequestLogger{logger: l}
	}
	l.Info("request started", "method", method, "url", url)
	return &RequestLogger{
		logger:    l,
		method:    method,
		url:       url,
		startTime: time.Now(),
	}
}

// Success logs a completed request.
func (r *RequestLogger) Success(statusCode int) {
	if !r.logger.IsEnabled() {
		return
	}
	r.logger.Info("request completed",
		"method", r.method,
		"url", r.url,
		"status", statusCode,
		"duration_ms", time.Since(r.startTime).Milliseconds(),
	)
}

// Error logs a failed request.
func (r *RequestLogger) Error(err error) {
	if !r.logger.IsEnabled() {
		return
	}
	r.logger.Error("request failed",
		"method", r.method,
		"url", r.url,
		"error", err.Error(),
		"duration_ms", time.Since(r.startTime).Milliseconds(),
	)
}
