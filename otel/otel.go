// Package sqlotel provides OpenTelemetry instrumentation for the pipeline
// SQL client. It implements the [sql.Hook] interface to add client spans,
// trace-context propagation and request metrics.
//
// Usage:
//
//	client, err := sql.New(sql.Config{
//		DatabaseID: id,
//		Token:      token,
//		Hook:       sqlotel.NewHook(sqlotel.DefaultConfig()),
//	})
package sqlotel

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/bunnydb/sdk/sql"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/bunnydb/sdk/sql"
	dbSystem            = "bunnydb"
)

// Config configures OpenTelemetry instrumentation for a pipeline client.
type Config struct {
	// TracerProvider supplies the tracer. Defaults to otel.GetTracerProvider().
	TracerProvider trace.TracerProvider
	// MeterProvider supplies the meter. Defaults to otel.GetMeterProvider().
	MeterProvider metric.MeterProvider
	// Propagator injects trace context into request headers.
	// Defaults to otel.GetTextMapPropagator().
	Propagator propagation.TextMapPropagator
	// EnableTracing enables span creation. Default true.
	EnableTracing bool
	// EnableMetrics enables counter and histogram recording. Default true.
	EnableMetrics bool
	// RecordExceptions calls RecordError on the span for failed calls.
	// Default true.
	RecordExceptions bool
	// CustomAttributes are added to every span.
	CustomAttributes []attribute.KeyValue
}

// DefaultConfig returns a Config with tracing, metrics and exception
// recording enabled. Providers and the propagator are resolved from the
// global OTel SDK by NewHook.
func DefaultConfig() Config {
	return Config{
		EnableTracing:    true,
		EnableMetrics:    true,
		RecordExceptions: true,
	}
}

// hook implements sql.Hook with OpenTelemetry tracing and metrics.
type hook struct {
	cfg               Config
	tracer            trace.Tracer
	requestCounter    metric.Int64Counter
	durationHistogram metric.Float64Histogram
}

// Ensure hook satisfies the sql.Hook interface at compile time.
var _ sql.Hook = (*hook)(nil)

// spanToken is the HookToken returned by OnRequestStart.
type spanToken struct {
	span      trace.Span
	startTime time.Time
}

// NewHook returns a sql.Hook that traces and measures pipeline calls.
func NewHook(cfg Config) sql.Hook {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}
	if cfg.Propagator == nil {
		cfg.Propagator = otel.GetTextMapPropagator()
	}

	h := &hook{
		cfg:    cfg,
		tracer: cfg.TracerProvider.Tracer(instrumentationName),
	}

	if cfg.EnableMetrics {
		meter := cfg.MeterProvider.Meter(instrumentationName)
		h.requestCounter, _ = meter.Int64Counter("db.client.requests",
			metric.WithUnit("{request}"),
			metric.WithDescription("Number of pipeline requests"),
		)
		h.durationHistogram, _ = meter.Float64Histogram("db.client.operation.duration",
			metric.WithUnit("s"),
			metric.WithDescription("Duration of pipeline requests, including retries"),
		)
	}

	return h
}

// OnRequestStart starts a client span and injects its context into the
// request headers.
func (h *hook) OnRequestStart(ctx context.Context, info sql.RequestInfo) (context.Context, sql.HookToken) {
	token := &spanToken{startTime: time.Now()}

	if h.cfg.EnableTracing {
		attrs := []attribute.KeyValue{
			attribute.String("db.system.name", dbSystem),
			attribute.String("db.operation.name", string(info.Operation)),
			attribute.Int("db.operation.batch.size", info.Statements),
			attribute.String("db.client.request_id", info.RequestID),
		}
		if u, err := url.Parse(info.URL); err == nil && u.Hostname() != "" {
			attrs = append(attrs, attribute.String("server.address", u.Hostname()))
		}
		attrs = append(attrs, h.cfg.CustomAttributes...)

		ctx, token.span = h.tracer.Start(ctx, "pipeline "+string(info.Operation),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attrs...),
		)
	}

	if h.cfg.Propagator != nil && info.Header != nil {
		h.cfg.Propagator.Inject(ctx, propagation.HeaderCarrier(info.Header))
	}

	return ctx, token
}

// OnRequestEnd records metrics and span attributes, then ends the span.
func (h *hook) OnRequestEnd(ctx context.Context, token sql.HookToken, info sql.RequestInfo, stats *sql.RequestStats, err error) {
	st, ok := token.(*spanToken)
	if !ok {
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
	}

	if h.cfg.EnableMetrics {
		metricAttrs := metric.WithAttributes(
			attribute.String("db.system.name", dbSystem),
			attribute.String("db.operation.name", string(info.Operation)),
			attribute.String("status", status),
		)
		if h.requestCounter != nil {
			h.requestCounter.Add(ctx, 1, metricAttrs)
		}
		if h.durationHistogram != nil {
			h.durationHistogram.Record(ctx, time.Since(st.startTime).Seconds(), metricAttrs)
		}
	}

	if st.span == nil || !st.span.IsRecording() {
		return
	}

	if stats != nil {
		st.span.SetAttributes(
			attribute.Int("db.client.attempts", stats.Attempts),
			attribute.Int("db.client.statement_errors", stats.SQLErrors),
			attribute.Int("db.response.returned_rows", stats.Rows),
		)
		if stats.StatusCode != 0 {
			st.span.SetAttributes(attribute.Int("http.response.status_code", stats.StatusCode))
		}
	}

	if err != nil {
		st.span.SetStatus(codes.Error, err.Error())
		if h.cfg.RecordExceptions {
			st.span.RecordError(err)
		}
		st.span.SetAttributes(attribute.String("error.type", errorType(err)))
	} else {
		st.span.SetStatus(codes.Ok, "")
	}

	st.span.End()
}

// errorType classifies err by the client's typed errors.
func errorType(err error) string {
	var (
		transportErr *sql.TransportError
		httpErr      *sql.HTTPError
		pipelineErr  *sql.PipelineError
	)
	switch {
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &httpErr):
		return "http"
	case errors.As(err, &pipelineErr):
		return "pipeline"
	default:
		return "decode"
	}
}
