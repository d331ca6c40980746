package telemetry

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultClientTimeout = 30 * time.Second

// NewHTTPClient returns a client whose requests become child spans named
// "<service> <METHOD> <path>"
func NewHTTPClient(service string, timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	transport := otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return service + " " + r.Method + " " + r.URL.Path
		}),
	)
	return &http.Client{Timeout: timeout, Transport: transport}
}

// StartExternalCall opens a client span around one logical upstream call,
// retries included
func StartExternalCall(ctx context.Context, service, operation string) (context.Context, trace.Span) {
	return otel.Tracer("upstream").Start(ctx, service+"."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("upstream.service", service),
			attribute.String("upstream.operation", operation),
		),
	)
}

// RecordRetry notes a retried attempt on the call span
func RecordRetry(span trace.Span, attempt int, cause error) {
	span.AddEvent("retry", trace.WithAttributes(
		attribute.Int("upstream.attempt", attempt),
		attribute.String("upstream.cause", cause.Error()),
	))
}

// RecordOutcome sets the final status of the call span. statusCode is
// omitted when zero, which is the case for transport failures.
func RecordOutcome(span trace.Span, statusCode int, err error) {
	if statusCode > 0 {
		span.SetAttributes(attribute.Int("http.status_code", statusCode))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
