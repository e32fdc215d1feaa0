package usecase

import (
	"context"

	"github.com/riskibarqy/zeal-league/internal/platform/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var usecaseTracer = tracing.NewScope("zeal-league/internal/usecase", nil)

func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return usecaseTracer.Start(ctx, name, attrs...)
}
