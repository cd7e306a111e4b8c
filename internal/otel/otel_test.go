package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	eventbus "github.com/hanpama/objrow/internal/eventbus"
	events "github.com/hanpama/objrow/internal/events"
	reqid "github.com/hanpama/objrow/internal/reqid"
)

func TestSpansFromEvents(t *testing.T) {
	prev := eventbus.Current()
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(prev) })

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	unsubscribe := Attach(tp.Tracer("test"))
	defer unsubscribe()

	ctx, _ := reqid.NewContext(context.Background())
	eventbus.Publish(ctx, events.BatchStart{Tree: "t", Mode: "codegen", Rows: 2})
	eventbus.Publish(ctx, events.CompileStart{Tree: "t", Mode: "codegen"})
	eventbus.Publish(ctx, events.CodegenFallback{Tree: "t", Err: errors.New("opaque")})
	eventbus.Publish(ctx, events.CompileFinish{Tree: "t", Mode: "codegen", Nodes: 3})
	eventbus.Publish(ctx, events.BatchFinish{Tree: "t", Mode: "codegen", Rows: 2, Evaluated: 1, Err: errors.New("row 1")})

	ended := rec.Ended()
	require.Len(t, ended, 2)
	compile, batch := ended[0], ended[1]
	require.Equal(t, "objrow.compile", compile.Name())
	require.Equal(t, "objrow.batch", batch.Name())
	require.Equal(t, batch.SpanContext().SpanID(), compile.Parent().SpanID())
	require.Len(t, compile.Events(), 1)
	require.Equal(t, "codegen fallback", compile.Events()[0].Name)
	require.Equal(t, "row 1", batch.Status().Description)
}

func TestFinishWithoutStart(t *testing.T) {
	prev := eventbus.Current()
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(prev) })

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	unsubscribe := Attach(tp.Tracer("test"))
	unsubscribe()

	eventbus.Publish(context.Background(), events.BatchStart{Tree: "t"})
	eventbus.Publish(context.Background(), events.BatchFinish{Tree: "t"})
	require.Empty(t, rec.Ended())
}

func TestSetupWithoutEndpoint(t *testing.T) {
	shutdown, err := Setup("", "objrow")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
