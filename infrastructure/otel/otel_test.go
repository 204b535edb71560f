package callgateotel

import (
	"context"
	"testing"

	"github.com/reglet-dev/callgate/domain/entities"
	"github.com/reglet-dev/callgate/gateway"
	"github.com/reglet-dev/callgate/internal/handle"
	"github.com/reglet-dev/callgate/marshal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type env struct {
	gw       *gateway.Gateway[*struct{}]
	recorder *tracetest.SpanRecorder
	reader   *sdkmetric.ManualReader
}

func newEnv(t *testing.T) env {
	t.Helper()
	cls := gateway.NewClass("Probe", func(*gateway.Call) (*struct{}, error) {
		return &struct{}{}, nil
	}).
		Static("answer", func(call *gateway.Call) error {
			return marshal.OutputScalar(call.Args(), 42.0)
		})
	gw, err := gateway.New(cls, gateway.WithRegistry(handle.NewRegistry()))
	require.NoError(t, err)

	e := env{gw: gw, recorder: tracetest.NewSpanRecorder(), reader: sdkmetric.NewManualReader()}
	cfg := DefaultConfig()
	cfg.TracerProvider = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(e.recorder))
	cfg.MeterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(e.reader))
	cfg.Propagator = propagation.TraceContext{}
	cfg.CustomAttributes = []attribute.KeyValue{attribute.String("deployment", "test")}
	Instrument(gw, cfg)
	return e
}

func (e env) call(t *testing.T, ctx context.Context, inputs ...string) error {
	t.Helper()
	vals := make([]*entities.Value, len(inputs))
	for i, s := range inputs {
		vals[i] = entities.NewString(s)
	}
	outs, err := e.gw.Call(ctx, 1, vals...)
	for _, v := range outs {
		v.Release()
	}
	return err
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestSpanPerCall(t *testing.T) {
	e := newEnv(t)

	require.NoError(t, e.call(t, context.Background(), gateway.CommandStatic, "answer"))

	spans := e.recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "callgate/Probe.answer", span.Name())
	assert.Equal(t, codes.Ok, span.Status().Code)

	kind, ok := attrValue(span.Attributes(), "callgate.kind")
	require.True(t, ok)
	assert.Equal(t, "static", kind.AsString())
	produced, ok := attrValue(span.Attributes(), "callgate.produced")
	require.True(t, ok)
	assert.Equal(t, int64(1), produced.AsInt64())
	dep, ok := attrValue(span.Attributes(), "deployment")
	require.True(t, ok)
	assert.Equal(t, "test", dep.AsString())
}

func TestSpanRecordsBoundaryError(t *testing.T) {
	e := newEnv(t)

	require.Error(t, e.call(t, context.Background(), gateway.CommandStatic, "missing"))

	spans := e.recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "callgate/Probe.missing", span.Name())
	assert.Equal(t, codes.Error, span.Status().Code)
	id, ok := attrValue(span.Attributes(), "callgate.error_id")
	require.True(t, ok)
	assert.Equal(t, "Probe:UnknownMethod", id.AsString())
	require.NotEmpty(t, span.Events())
	assert.Equal(t, "exception", span.Events()[0].Name)
}

func TestParentFromMetadata(t *testing.T) {
	e := newEnv(t)
	const traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

	ctx := gateway.ContextWithMetadata(context.Background(), map[string]string{"traceparent": traceparent})
	require.NoError(t, e.call(t, ctx, gateway.CommandStatic, "answer"))

	spans := e.recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent().SpanID().String())
}

func TestMetrics(t *testing.T) {
	e := newEnv(t)

	require.NoError(t, e.call(t, context.Background(), gateway.CommandStatic, "answer"))
	require.NoError(t, e.call(t, context.Background(), gateway.CommandStatic, "answer"))
	require.Error(t, e.call(t, context.Background(), gateway.CommandStatic, "missing"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, e.reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	calls, ok := byName["callgate.calls"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range calls.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
	assert.Len(t, calls.DataPoints, 2)

	hist, ok := byName["callgate.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)
}

func TestTracingDisabled(t *testing.T) {
	e := newEnv(t)
	cfg := DefaultConfig()
	cfg.EnableTracing = false
	cfg.TracerProvider = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(e.recorder))
	cfg.MeterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(e.reader))
	Instrument(e.gw, cfg)

	require.NoError(t, e.call(t, context.Background(), gateway.CommandStatic, "answer"))
	assert.Empty(t, e.recorder.Ended())
}
