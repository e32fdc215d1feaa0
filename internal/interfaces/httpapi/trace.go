package httpapi

import (
	"context"
	"strings"

	"github.com/riskibarqy/zeal-league/internal/platform/tracing"
	"go.opentelemetry.io/otel/trace"
)

// Middleware and response helpers run inside otelhttp's server span already;
// only handlers get a child span of their own.
var apiTracer = tracing.NewScope("zeal-league/internal/interfaces/httpapi", isHandlerSpan)

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return apiTracer.Start(ctx, name)
}

func isHandlerSpan(name string) bool {
	return strings.HasPrefix(name, "httpapi.Handler.")
}
