package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		component string
		level     string
		format    string
	}{
		{"json logger", "test-component", "info", "json"},
		{"text logger", "test-component", "debug", "text"},
		{"invalid level", "test-component", "invalid", "json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.component, tt.level, tt.format)
			if logger == nil {
				t.Fatal("New() returned nil")
			}
			if logger.component != tt.component {
				t.Errorf("component = %v, want %v", logger.component, tt.component)
			}
		})
	}
}

func TestLogger_WithContext(t *testing.T) {
	logger := New("test", "info", "json")
	ctx := WithTraceID(context.Background(), "trace-123")

	entry := logger.WithContext(ctx)
	if entry.Data["component"] != "test" {
		t.Errorf("component field = %v, want test", entry.Data["component"])
	}
	if entry.Data["trace_id"] != "trace-123" {
		t.Errorf("trace_id field = %v, want trace-123", entry.Data["trace_id"])
	}
}

func TestLogger_WithFields(t *testing.T) {
	logger := New("test", "info", "json")
	entry := logger.WithFields(logrus.Fields{"key1": "value1", "key2": 123})

	if entry.Data["key1"] != "value1" {
		t.Errorf("key1 = %v, want value1", entry.Data["key1"])
	}
	if entry.Data["component"] != "test" {
		t.Errorf("component = %v, want test", entry.Data["component"])
	}
}

func TestLogger_WithError(t *testing.T) {
	logger := New("test", "info", "json")
	entry := logger.WithError(errors.New("boom"))

	if entry.Data["error"] != "boom" {
		t.Errorf("error = %v, want boom", entry.Data["error"])
	}
}

func TestNewTraceID(t *testing.T) {
	id1 := NewTraceID()
	id2 := NewTraceID()
	if id1 == "" || id1 == id2 {
		t.Error("NewTraceID() did not return distinct non-empty ids")
	}
}

func TestGetTraceID(t *testing.T) {
	if got := GetTraceID(context.Background()); got != "" {
		t.Errorf("GetTraceID() = %v, want empty", got)
	}
	ctx := WithTraceID(context.Background(), "trace-123")
	if got := GetTraceID(ctx); got != "trace-123" {
		t.Errorf("GetTraceID() = %v, want trace-123", got)
	}
}

func TestLogger_LogHTTPRequest(t *testing.T) {
	logger := New("test", "info", "json")
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)

	ctx := WithTraceID(context.Background(), "trace-123")
	logger.LogHTTPRequest(ctx, "GET", "/api/v1/blocks", "203.0.113.7", 200, 12*time.Millisecond)

	if buf.Len() == 0 {
		t.Error("LogHTTPRequest() did not write log")
	}
}

func TestLogger_LogIngestEvent(t *testing.T) {
	logger := New("test", "info", "json")
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)

	logger.LogIngestEvent(context.Background(), "live", 42, nil)
	if buf.Len() == 0 {
		t.Error("LogIngestEvent() did not write log on success")
	}

	buf.Reset()
	logger.LogIngestEvent(context.Background(), "reconnect", 42, errors.New("peer unreachable"))
	if buf.Len() == 0 {
		t.Error("LogIngestEvent() did not write log on error")
	}
}

func TestLogger_JSONFormatter(t *testing.T) {
	logger := New("test", "info", "json")
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)

	logger.Logger.Info("test")

	if !bytes.Contains(buf.Bytes(), []byte(`"`)) {
		t.Error("output does not appear to be JSON")
	}
}

func TestLogger_TextFormatter(t *testing.T) {
	logger := New("test", "info", "text")
	buf := &bytes.Buffer{}
	logger.SetOutput(buf)

	logger.Logger.Info("test")

	if buf.Len() == 0 {
		t.Error("text formatter did not produce output")
	}
}
