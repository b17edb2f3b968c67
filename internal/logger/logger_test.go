package logger

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  project_id  ", Value: "  p1  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "project_id" || fields[0].String != "p1" {
		t.Fatalf("unexpected field: %+v", fields[0])
	}

	empty := StringFields()
	if len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	enriched := WithFields(logger, zap.String("foo", "bar"))
	enriched.Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %q", ctx["foo"])
	}

	enriched = WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}

	// Ensure logging with the fallback logger does not panic.
	enriched.Info("another log")
}

func TestRequestFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	logger.Info("request", RequestFields(Request{
		Method:   "GET",
		Path:     "/api/projects",
		Status:   200,
		Duration: 15 * time.Millisecond,
	})...)

	ctx := observed.All()[0].ContextMap()
	if ctx["method"] != "GET" || ctx["path"] != "/api/projects" {
		t.Fatalf("unexpected fields: %v", ctx)
	}
	if ctx["status"] != int64(200) {
		t.Fatalf("unexpected status: %v", ctx["status"])
	}
	if _, ok := ctx[FieldRequestID]; ok {
		t.Fatalf("empty request id must be omitted")
	}
}

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{
			name:   "returns empty when limit non-positive",
			input:  "hello world",
			limit:  0,
			expect: "",
		},
		{
			name:   "shorter than limit",
			input:  "hello",
			limit:  10,
			expect: "hello",
		},
		{
			name:   "truncates and adds ellipsis",
			input:  "hello world",
			limit:  5,
			expect: "hello...",
		},
		{
			name:   "counts runes",
			input:  "blåbærsyltetøy",
			limit:  4,
			expect: "blåb...",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	for _, json := range []bool{true, false} {
		l, err := New(json, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !l.Core().Enabled(zapcore.DebugLevel) {
			t.Fatalf("debug level must be enabled")
		}

		l, err = New(json, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if l.Core().Enabled(zapcore.DebugLevel) {
			t.Fatalf("debug level must be disabled")
		}
	}
}

func TestEncoderConfig(t *testing.T) {
	if got := encoding(true); got != "json" {
		t.Fatalf("expected json encoding, got %q", got)
	}
	if got := encoderConfig(false).EncodeLevel; got == nil {
		t.Fatalf("console level encoder must be set")
	}
	if got := encoderConfig(true).StacktraceKey; got != "stacktrace" {
		t.Fatalf("unexpected stacktrace key %q", got)
	}
}
