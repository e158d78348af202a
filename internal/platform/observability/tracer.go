// Package observability provides logging, metrics, and tracing utilities.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer provides distributed tracing capabilities.
// The interface decouples scanner code from the tracing backend so
// tracing can be disabled (noop) without touching call sites.
type Tracer interface {
	// StartSpan creates a new span as a child of the span in ctx.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)

	// SpanFromContext returns the current span from context.
	SpanFromContext(ctx context.Context) Span
}

// Span represents a unit of work in a trace.
type Span interface {
	// End completes the span. Must be called when work is done.
	End()

	// SetStatus sets the span status (OK, Error).
	SetStatus(code SpanStatus, description string)

	// SetAttributes adds attributes to the span.
	SetAttributes(attrs ...attribute.KeyValue)

	// SetAttribute adds a single attribute.
	SetAttribute(key string, value interface{})

	// AddEvent records an event with optional attributes.
	AddEvent(name string, attrs ...attribute.KeyValue)

	// RecordError records an error without changing span status.
	RecordError(err error)

	// NoticeError records an error AND sets span status to Error.
	NoticeError(err error)

	// TraceID returns the trace ID as a string.
	TraceID() string
}

// SpanStatus represents the status of a span.
type SpanStatus int

const (
	SpanStatusUnset SpanStatus = iota
	SpanStatusOK
	SpanStatusError
)

// SpanOption configures span creation.
type SpanOption func(*spanConfig)

type spanConfig struct {
	kind       trace.SpanKind
	attributes []attribute.KeyValue
}

// WithSpanKind sets the span kind (Client, Server, Producer, Consumer, Internal).
func WithSpanKind(kind trace.SpanKind) SpanOption {
	return func(c *spanConfig) {
		c.kind = kind
	}
}

// WithSpanAttributes adds attributes to the span at creation time.
func WithSpanAttributes(attrs ...attribute.KeyValue) SpanOption {
	return func(c *spanConfig) {
		c.attributes = append(c.attributes, attrs...)
	}
}

// --- OTEL Implementation ---

type otelTracer struct {
	tracer trace.Tracer
	name   string
}

// NewTracer creates a new Tracer backed by OpenTelemetry.
func NewTracer(name string) Tracer {
	return &otelTracer{
		tracer: otel.Tracer(name),
		name:   name,
	}
}

func (t *otelTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span) {
	cfg := &spanConfig{
		kind: trace.SpanKindInternal,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	otelOpts := []trace.SpanStartOption{
		trace.WithSpanKind(cfg.kind),
	}
	if len(cfg.attributes) > 0 {
		otelOpts = append(otelOpts, trace.WithAttributes(cfg.attributes...))
	}

	ctx, span := t.tracer.Start(ctx, name, otelOpts...)
	return ctx, &otelSpan{span: span}
}

func (t *otelTracer) SpanFromContext(ctx context.Context) Span {
	return &otelSpan{span: trace.SpanFromContext(ctx)}
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() {
	s.span.End()
}

func (s *otelSpan) SetStatus(code SpanStatus, description string) {
	var otelCode codes.Code
	switch code {
	case SpanStatusOK:
		otelCode = codes.Ok
	case SpanStatusError:
		otelCode = codes.Error
	default:
		otelCode = codes.Unset
	}
	s.span.SetStatus(otelCode, description)
}

func (s *otelSpan) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

func (s *otelSpan) SetAttribute(key string, value interface{}) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case uint64:
		s.span.SetAttributes(attribute.Int64(key, int64(v)))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

func (s *otelSpan) AddEvent(name string, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		s.span.AddEvent(name, trace.WithAttributes(attrs...))
	} else {
		s.span.AddEvent(name)
	}
}

func (s *otelSpan) RecordError(err error) {
	if err != nil {
		s.span.RecordError(err)
	}
}

func (s *otelSpan) NoticeError(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
}

func (s *otelSpan) TraceID() string {
	return s.span.SpanContext().TraceID().String()
}

// --- Noop Implementation for disabled tracing ---

type noopTracer struct{}

// NewNoopTracer returns a tracer that does nothing.
func NewNoopTracer() Tracer {
	return &noopTracer{}
}

func (t *noopTracer) StartSpan(ctx context.Context, _ string, _ ...SpanOption) (context.Context, Span) {
	return ctx, &noopSpan{}
}

func (t *noopTracer) SpanFromContext(_ context.Context) Span {
	return &noopSpan{}
}

type noopSpan struct{}

func (s *noopSpan) End()                                       {}
func (s *noopSpan) SetStatus(_ SpanStatus, _ string)           {}
func (s *noopSpan) SetAttributes(_ ...attribute.KeyValue)      {}
func (s *noopSpan) SetAttribute(_ string, _ interface{})       {}
func (s *noopSpan) AddEvent(_ string, _ ...attribute.KeyValue) {}
func (s *noopSpan) RecordError(_ error)                        {}
func (s *noopSpan) NoticeError(_ error)                        {}
func (s *noopSpan) TraceID() string                            { return "" }
