// Package logging provides structured logging with request trace ID support.
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ContextKey is the type for context keys used to carry request-scoped values.
type ContextKey string

const (
	// TraceIDKey is the context key for the request trace ID.
	TraceIDKey ContextKey = "trace_id"
)

// Logger wraps logrus.Logger with a bound component name.
type Logger struct {
	*logrus.Logger
	component string
}

// New creates a new Logger instance for the given component.
func New(component, level, format string) *Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	logger.SetOutput(os.Stdout)

	return &Logger{Logger: logger, component: component}
}

// NewFromEnv constructs a logger using LOG_LEVEL and LOG_FORMAT environment
// variables, defaulting to "info" and "json" when unset.
func NewFromEnv(component string) *Logger {
	level := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if level == "" {
		level = "info"
	}
	format := strings.TrimSpace(os.Getenv("LOG_FORMAT"))
	if format == "" {
		format = "json"
	}
	return New(component, level, format)
}

// WithContext returns a logrus entry carrying the component name and the
// request trace ID, if any is present on ctx.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithField("component", l.component)
	if traceID := GetTraceID(ctx); traceID != "" {
		entry = entry.WithField("trace_id", traceID)
	}
	return entry
}

// WithFields returns a logrus entry with the component name plus fields.
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["component"] = l.component
	return l.Logger.WithFields(fields)
}

// WithError returns a logrus entry with the component name plus the error.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{"component": l.component}).WithError(err)
}

// LogHTTPRequest logs a completed HTTP request at the gateway.
func (l *Logger) LogHTTPRequest(ctx context.Context, method, path, clientIP string, status int, duration time.Duration) {
	l.WithContext(ctx).WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"client_ip":   clientIP,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	}).Info("http request")
}

// LogIngestEvent logs a state transition or applied-height update from the
// ingest supervisor.
func (l *Logger) LogIngestEvent(ctx context.Context, state string, height uint64, err error) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"ingest_state": state,
		"height":       height,
	})
	if err != nil {
		entry.WithError(err).Error("ingest event")
		return
	}
	entry.Info("ingest event")
}

// NewTraceID generates a new request trace ID.
func NewTraceID() string {
	return uuid.New().String()
}

// WithTraceID attaches a trace ID to ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from ctx, if present.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}
