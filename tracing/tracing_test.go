package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/wyfcoding/optionlab/config"
)

func TestInitTracerDisabled(t *testing.T) {
	shutdown, err := InitTracer(config.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestSpanHelpers(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := StartSpan(context.Background(), "Analytics.Compare")
	AddTag(ctx, "option.side", "CALL")
	AddTag(ctx, "grid.points", 150)
	AddTag(ctx, "risk.confidence", []float64{0.95, 0.99})
	SetError(ctx, errors.New("boom"))
	if GetTraceID(ctx) == "" {
		t.Error("trace id missing")
	}
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("ended spans = %d", len(ended))
	}
	if ended[0].Status().Code != codes.Error {
		t.Errorf("status = %v", ended[0].Status())
	}
	if len(ended[0].Attributes()) != 3 {
		t.Errorf("attributes = %v", ended[0].Attributes())
	}
	if GetTraceID(context.Background()) != "" {
		t.Error("trace id without span")
	}
}
