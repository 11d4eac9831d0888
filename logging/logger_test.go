package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"github.com/wyfcoding/optionlab/contextx"
)

func TestLoggerFanOutAndTrace(t *testing.T) {
	var a, b bytes.Buffer
	l := newWithWriters(Config{Service: "optionlab", Module: "test", Level: "info"}, &a, &b)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = contextx.WithRequestID(ctx, "REQ9")
	l.InfoContext(ctx, "priced", "spot", 175.0)

	for name, buf := range map[string]*bytes.Buffer{"a": &a, "b": &b} {
		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("%s: invalid json %q: %v", name, buf.String(), err)
		}
		if rec["trace_id"] != sc.TraceID().String() {
			t.Errorf("%s: trace_id = %v", name, rec["trace_id"])
		}
		if rec["request_id"] != "REQ9" {
			t.Errorf("%s: request_id = %v", name, rec["request_id"])
		}
		if rec["service"] != "optionlab" || rec["msg"] != "priced" {
			t.Errorf("%s: record = %v", name, rec)
		}
		if _, ok := rec["timestamp"]; !ok {
			t.Errorf("%s: missing timestamp key", name)
		}
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriters(Config{Service: "optionlab", Level: "warn"}, &buf)
	defer SetLevel("info")

	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %s", buf.String())
	}

	SetLevel("debug")
	l.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug not logged after SetLevel: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("WARNING").String() != "WARN" || ParseLevel("bogus").String() != "INFO" {
		t.Error("unexpected level parsing")
	}
}
