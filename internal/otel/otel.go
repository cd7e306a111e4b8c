package otel

import (
	"context"
	"sync"

	eventbus "github.com/hanpama/objrow/internal/eventbus"
	events "github.com/hanpama/objrow/internal/events"
	reqid "github.com/hanpama/objrow/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithInsecure()))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := Attach(otel.Tracer("objrow"))

	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

// Attach subscribes span recording for executor events to the global bus.
// Start and finish events are correlated by the run ID in their context.
func Attach(tracer trace.Tracer) (unsubscribe func()) {
	s := &subscriber{tracer: tracer}
	return s.register()
}

type subscriber struct {
	tracer       trace.Tracer
	batchSpans   sync.Map // rid -> trace.Span
	compileSpans sync.Map // rid -> trace.Span
}

func (s *subscriber) register() func() {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.BatchStart) {
			rid, _ := reqid.FromContext(ctx)
			_, span := s.tracer.Start(ctx, "objrow.batch")
			span.SetAttributes(
				attribute.String("objrow.tree", e.Tree),
				attribute.String("objrow.mode", e.Mode),
				attribute.Int("objrow.rows", e.Rows),
			)
			s.batchSpans.Store(rid, span)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.BatchFinish) {
			rid, _ := reqid.FromContext(ctx)
			v, ok := s.batchSpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(attribute.Int("objrow.rows_evaluated", e.Evaluated))
			if e.Err != nil {
				span.RecordError(e.Err)
				span.SetStatus(codes.Error, e.Err.Error())
			}
			span.End()
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.CompileStart) {
			rid, _ := reqid.FromContext(ctx)
			parent := ctx
			if v, ok := s.batchSpans.Load(rid); ok {
				parent = trace.ContextWithSpan(ctx, v.(trace.Span))
			}
			_, span := s.tracer.Start(parent, "objrow.compile")
			span.SetAttributes(attribute.String("objrow.mode", e.Mode))
			s.compileSpans.Store(rid, span)
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.CodegenFallback) {
			rid, _ := reqid.FromContext(ctx)
			if v, ok := s.compileSpans.Load(rid); ok {
				v.(trace.Span).AddEvent("codegen fallback", trace.WithAttributes(
					attribute.String("objrow.reason", e.Err.Error()),
				))
			}
		}),

		eventbus.Subscribe(func(ctx context.Context, e events.CompileFinish) {
			rid, _ := reqid.FromContext(ctx)
			v, ok := s.compileSpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(
				attribute.Int("objrow.nodes", e.Nodes),
				attribute.Bool("objrow.cached", e.Cached),
			)
			if e.Err != nil {
				span.RecordError(e.Err)
				span.SetStatus(codes.Error, e.Err.Error())
			}
			span.End()
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
