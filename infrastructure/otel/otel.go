// Package callgateotel provides OpenTelemetry instrumentation for gateways.
// It implements the [gateway.CallHook] interface to add distributed tracing
// and metrics to every call.
//
// Usage:
//
//	gw, _ := gateway.New(cls)
//	callgateotel.Instrument(gw, callgateotel.DefaultConfig())
package callgateotel

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/reglet-dev/callgate/domain/errors"
	"github.com/reglet-dev/callgate/gateway"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "callgate"

// Instrumentable is the part of a gateway that can carry a hook.
type Instrumentable interface {
	SetCallHook(h gateway.CallHook)
	ClassName() string
}

// Config configures OpenTelemetry instrumentation for a gateway.
type Config struct {
	// TracerProvider supplies the tracer. Defaults to otel.GetTracerProvider().
	TracerProvider trace.TracerProvider
	// MeterProvider supplies the meter. Defaults to otel.GetMeterProvider().
	MeterProvider metric.MeterProvider
	// Propagator extracts trace context from call metadata.
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
// recording on. Providers and propagator are resolved from the global
// OTel SDK at instrumentation time.
func DefaultConfig() Config {
	return Config{
		EnableTracing:    true,
		EnableMetrics:    true,
		RecordExceptions: true,
	}
}

// Instrument attaches OpenTelemetry instrumentation to gw.
// The hook is installed via SetCallHook, replacing any earlier hook.
func Instrument(gw Instrumentable, cfg Config) {
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
		h.calls, _ = meter.Int64Counter("callgate.calls",
			metric.WithUnit("{call}"),
			metric.WithDescription("Number of gateway calls"),
		)
		h.duration, _ = meter.Float64Histogram("callgate.duration",
			metric.WithUnit("s"),
			metric.WithDescription("Duration of gateway calls"),
		)
	}

	gw.SetCallHook(h)
}

type hook struct {
	cfg      Config
	tracer   trace.Tracer
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

type spanToken struct {
	span      trace.Span
	startTime time.Time
}

// OnCallStart extracts parent trace context and starts a server span.
func (h *hook) OnCallStart(ctx context.Context, info gateway.CallInfo) (context.Context, gateway.HookToken) {
	if h.cfg.Propagator != nil && info.Metadata != nil {
		ctx = h.cfg.Propagator.Extract(ctx, propagation.MapCarrier(info.Metadata))
	}

	if !h.cfg.EnableTracing {
		return ctx, &spanToken{startTime: time.Now()}
	}

	attrs := []attribute.KeyValue{
		attribute.String("callgate.class", info.Class),
		attribute.String("callgate.command", info.Command),
		attribute.String("callgate.kind", string(info.Kind)),
		attribute.Int("callgate.inputs", info.Inputs),
		attribute.Int("callgate.outputs", info.Outputs),
	}
	attrs = append(attrs, h.cfg.CustomAttributes...)
	if v := info.Metadata["request_id"]; v != "" {
		attrs = append(attrs, attribute.String("callgate.request_id", v))
	}

	ctx, span := h.tracer.Start(ctx, spanName(info),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...),
	)
	return ctx, &spanToken{span: span, startTime: time.Now()}
}

// OnCallEnd records metrics and ends the span.
func (h *hook) OnCallEnd(ctx context.Context, token gateway.HookToken, info gateway.CallInfo, err error) {
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
			attribute.String("callgate.class", info.Class),
			attribute.String("callgate.command", info.Command),
			attribute.String("callgate.kind", string(info.Kind)),
			attribute.String("status", status),
		)
		if h.calls != nil {
			h.calls.Add(ctx, 1, metricAttrs)
		}
		if h.duration != nil {
			h.duration.Record(ctx, time.Since(st.startTime).Seconds(), metricAttrs)
		}
	}

	if st.span == nil || !st.span.IsRecording() {
		return
	}
	st.span.SetAttributes(attribute.Int("callgate.produced", info.Produced))
	if err != nil {
		st.span.SetStatus(codes.Error, err.Error())
		if h.cfg.RecordExceptions {
			st.span.RecordError(err)
		}
		st.span.SetAttributes(attribute.String("callgate.error_id", errorID(err)))
	} else {
		st.span.SetStatus(codes.Ok, "")
	}
	st.span.End()
}

func spanName(info gateway.CallInfo) string {
	command := info.Command
	if command == "" {
		command = "unknown"
	}
	return fmt.Sprintf("callgate/%s.%s", info.Class, command)
}

func errorID(err error) string {
	var be *errors.BoundaryError
	if stdErrors.As(err, &be) {
		return be.ID
	}
	return fmt.Sprintf("%T", err)
}
