// Package tracing opens child spans for request-scoped work. A span is only
// started under a valid parent, so filtered routes such as /healthz and
// background work without a trace stay span-free.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var noop = trace.SpanFromContext(context.Background())

type Scope struct {
	tracer trace.Tracer
	filter func(name string) bool
}

// NewScope names the instrumentation scope. A nil filter accepts every span name.
func NewScope(name string, filter func(spanName string) bool) Scope {
	return Scope{tracer: otel.Tracer(name), filter: filter}
}

func (s Scope) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if name == "" || s.tracer == nil {
		return ctx, noop
	}
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, noop
	}
	if s.filter != nil && !s.filter(name) {
		return ctx, noop
	}
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Fail marks the span as errored. Safe on the noop span.
func Fail(span trace.Span, err error) {
	if err == nil || !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func GameID(id string) attribute.KeyValue { return attribute.String("zeal.game_id", id) }

func UserID(id string) attribute.KeyValue { return attribute.String("zeal.user_id", id) }
