package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[string]string {
	out := map[string]string{}
	for _, kv := range span.Attributes() {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

func TestInitTracer_NoEndpoint(t *testing.T) {
	tp, err := InitTracer(Config{ServiceName: "cinematch"})
	require.NoError(t, err)
	assert.Nil(t, tp)
	assert.NoError(t, Shutdown(context.Background(), tp))
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "root:AlwaysOnSampler")
	assert.Contains(t, sampler(0).Description(), "root:AlwaysOffSampler")
	assert.Contains(t, sampler(0.25).Description(), "root:TraceIDRatioBased{0.25}")
}

func TestEndpointOption(t *testing.T) {
	assert.Len(t, endpointOption("http://collector:4318"), 1)
	assert.Len(t, endpointOption("collector:4318"), 2)
}

func TestNewHTTPClient(t *testing.T) {
	recorder := useRecorder(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	client := NewHTTPClient("tmdb", 0)
	assert.Equal(t, defaultClientTimeout, client.Timeout)
	assert.Equal(t, 5*time.Second, NewHTTPClient("tmdb", 5*time.Second).Timeout)

	resp, err := client.Get(server.URL + "/movie/603")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "tmdb GET /movie/603", spans[0].Name())
}

func TestExternalCallSpan(t *testing.T) {
	recorder := useRecorder(t)

	_, span := StartExternalCall(context.Background(), "tmdb", "movie")
	RecordRetry(span, 2, errors.New("connection reset by peer"))
	RecordOutcome(span, 0, errors.New("gave up"))
	span.End()

	_, ok := StartExternalCall(context.Background(), "rec-engine", "recommend")
	RecordOutcome(ok, http.StatusOK, nil)
	ok.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	failed := spans[0]
	assert.Equal(t, "tmdb.movie", failed.Name())
	assert.Equal(t, "tmdb", spanAttrs(failed)["upstream.service"])
	assert.NotContains(t, spanAttrs(failed), "http.status_code")
	assert.Equal(t, codes.Error, failed.Status().Code)
	require.NotEmpty(t, failed.Events())
	assert.Equal(t, "retry", failed.Events()[0].Name)

	succeeded := spans[1]
	assert.Equal(t, "rec-engine.recommend", succeeded.Name())
	assert.Equal(t, "200", spanAttrs(succeeded)["http.status_code"])
	assert.Equal(t, codes.Ok, succeeded.Status().Code)
}
