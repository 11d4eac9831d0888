package contextx

import (
	"context"
	"reflect"
	"testing"
)

func TestDefaults(t *testing.T) {
	ctx := context.Background()
	if GetRequestID(ctx) != "" || GetIP(ctx) != "0.0.0.0" || GetUserAgent(ctx) != "Unknown" {
		t.Error("unexpected defaults on empty context")
	}
	if attrs := LogAttrs(ctx); len(attrs) != 0 {
		t.Errorf("LogAttrs on empty context = %v", attrs)
	}
}

func TestLogAttrs(t *testing.T) {
	ctx := WithUserAgent(WithRequestID(context.Background(), "REQ1"), "curl/8")
	want := []any{"request_id", "REQ1", "user_agent", "curl/8"}
	if got := LogAttrs(ctx); !reflect.DeepEqual(got, want) {
		t.Errorf("LogAttrs = %v, want %v", got, want)
	}
}
