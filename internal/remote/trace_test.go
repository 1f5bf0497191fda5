package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/promptly/client/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestGeneratePropagatesTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	var traceparent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("Traceparent")
		w.Write([]byte(`{"content":"ok","intent":"i","sentiment":"s","documents":[],"time_taken":0.1,"fallback_used":false}`))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	client, err := NewClient(cfg, WithTracer(tp.Tracer("test")))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if _, err := client.Generate(context.Background(), models.GenerationRequest{Text: "hello", Platform: models.PlatformGeneral, Temperature: 0.7, MaxTokens: 256}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if traceparent == "" {
		t.Error("expected traceparent header on the outgoing request")
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if traceparent != "" && spans[0].SpanContext().TraceID().String() != traceparent[3:35] {
		t.Errorf("header %q does not carry span trace id %s", traceparent, spans[0].SpanContext().TraceID())
	}
}
