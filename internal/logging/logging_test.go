package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
)

type recordedLog struct {
	level  string
	msg    string
	err    error
	fields watermill.LogFields
}

type recordingWatermillLogger struct {
	logs   *[]recordedLog
	fields watermill.LogFields
}

func newRecordingWatermillLogger() *recordingWatermillLogger {
	return &recordingWatermillLogger{logs: &[]recordedLog{}}
}

func (r *recordingWatermillLogger) record(level, msg string, err error, fields watermill.LogFields) {
	merged := watermill.LogFields{}
	for k, v := range r.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	*r.logs = append(*r.logs, recordedLog{level: level, msg: msg, err: err, fields: merged})
}

func (r *recordingWatermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	r.record("error", msg, err, fields)
}

func (r *recordingWatermillLogger) Info(msg string, fields watermill.LogFields) {
	r.record("info", msg, nil, fields)
}

func (r *recordingWatermillLogger) Debug(msg string, fields watermill.LogFields) {
	r.record("debug", msg, nil, fields)
}

func (r *recordingWatermillLogger) Trace(msg string, fields watermill.LogFields) {
	r.record("trace", msg, nil, fields)
}

func (r *recordingWatermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	merged := watermill.LogFields{}
	for k, v := range r.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &recordingWatermillLogger{logs: r.logs, fields: merged}
}

func TestWatermillServiceLoggerDelegates(t *testing.T) {
	base := newRecordingWatermillLogger()
	logger := NewWatermillServiceLogger(base)

	logger.Debug("dbg", LogFields{"component": "broker"})
	logger.Info("up", nil)

	boom := errors.New("boom")
	child := logger.With(LogFields{"queue": "orderQueue"})
	child.Error("failed", boom, LogFields{"order_id": 1})
	child.Trace("trace", nil)

	logs := *base.logs
	if len(logs) != 4 {
		t.Fatalf("expected 4 log entries, got %d", len(logs))
	}
	if logs[0].level != "debug" || logs[0].fields["component"] != "broker" {
		t.Fatalf("unexpected first log: %#v", logs[0])
	}
	if logs[1].level != "info" || logs[1].msg != "up" {
		t.Fatalf("unexpected second log: %#v", logs[1])
	}
	if logs[2].err != boom {
		t.Fatalf("expected boom error, got %v", logs[2].err)
	}
	if logs[2].fields["queue"] != "orderQueue" || logs[2].fields["order_id"] != 1 {
		t.Fatalf("expected merged fields, got %#v", logs[2].fields)
	}
	if logs[3].level != "trace" {
		t.Fatalf("expected trace level, got %s", logs[3].level)
	}
}

func TestSlogServiceLoggerWritesStructuredLines(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger := NewSlogServiceLogger(base)
	logger.Info("order placed", LogFields{"order_id": int64(1), "product": "Laptop"})

	out := buf.String()
	if !strings.Contains(out, "order placed") {
		t.Fatalf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "order_id=1") || !strings.Contains(out, "product=Laptop") {
		t.Fatalf("expected structured fields in output, got %q", out)
	}
}

func TestNewSlogServiceLoggerPanicsOnNil(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for nil slog logger")
		}
	}()
	NewSlogServiceLogger(nil)
}

func TestWatermillAdapterRoundTrip(t *testing.T) {
	base := newRecordingWatermillLogger()
	adapter := NewWatermillAdapter(NewWatermillServiceLogger(base))

	adapter.Info("routing", watermill.LogFields{"topic": "orderQueue"})
	child := adapter.With(watermill.LogFields{"handler": "payment"})
	child.Debug("handled", nil)

	logs := *base.logs
	if len(logs) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(logs))
	}
	if logs[0].fields["topic"] != "orderQueue" {
		t.Fatalf("expected topic field, got %#v", logs[0].fields)
	}
	if logs[1].fields["handler"] != "payment" {
		t.Fatalf("expected handler field carried by With, got %#v", logs[1].fields)
	}
}
