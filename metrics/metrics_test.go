package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/ceyewan/shardkit/clog"
	"github.com/ceyewan/shardkit/event"
	"github.com/ceyewan/shardkit/event/parsing"
	"github.com/ceyewan/shardkit/event/rootinvoke"
	"github.com/ceyewan/shardkit/xerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newManualMeter(t *testing.T) (Meter, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	m, err := New(&Config{Enabled: true, ServiceName: "test"}, WithReader(reader), WithLogger(clog.Discard()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func counterValue(t *testing.T, data metricdata.Aggregation, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "unexpected aggregation %T", data)
	want := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	m, err := New(&Config{Enabled: false})
	require.NoError(t, err)
	assert.Equal(t, Discard(), m)

	_, err = New(&Config{Enabled: true, Path: "metrics"}, WithReader(sdkmetric.NewManualReader()))
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = New(&Config{Enabled: true, Port: 70000})
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestMeter_Instruments(t *testing.T) {
	m, reader := newManualMeter(t)
	ctx := context.Background()

	counter, err := m.Counter("requests_total", "请求总数")
	require.NoError(t, err)
	counter.Inc(ctx, L("method", "GET"))
	counter.Add(ctx, 2, L("method", "GET"))

	gauge, err := m.Gauge("active", "活跃数", WithUnit("1"))
	require.NoError(t, err)
	gauge.Set(ctx, 5)
	gauge.Inc(ctx)
	gauge.Dec(ctx)
	gauge.Dec(ctx)

	hist, err := m.Histogram("latency_seconds", "耗时", WithUnit("s"), WithBuckets(0.1, 1))
	require.NoError(t, err)
	hist.Record(ctx, 0.5)

	data := collect(t, reader)
	assert.Equal(t, int64(3), counterValue(t, data["requests_total"], attribute.String("method", "GET")))

	g, ok := data["active"].(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, g.DataPoints, 1)
	assert.Equal(t, 4.0, g.DataPoints[0].Value)

	h, ok := data["latency_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, h.DataPoints, 1)
	assert.Equal(t, uint64(1), h.DataPoints[0].Count)
	assert.Equal(t, []float64{0.1, 1}, h.DataPoints[0].Bounds)
}

func TestInstall_EventMetrics(t *testing.T) {
	m, reader := newManualMeter(t)
	r := event.NewRegistry()
	require.NoError(t, Install(r, m))

	rootLoader := event.NewLoader[rootinvoke.StartEvent, rootinvoke.FinishEvent](rootinvoke.Family, event.WithRegistry(r))
	parseLoader := event.NewLoader[parsing.StartEvent, parsing.FinishEvent](parsing.Family, event.WithRegistry(r))

	ctx := context.Background()
	root := rootinvoke.NewStartEvent("query")
	rctx, err := rootLoader.Start(ctx, root)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		p := parsing.NewStartEvent("SELECT 1")
		pctx, err := parseLoader.Start(rctx, p)
		require.NoError(t, err)
		var perr error
		if i == 1 {
			perr = errors.New("bad sql")
		}
		require.NoError(t, parseLoader.Finish(pctx, p.Finish(perr)))
	}
	require.NoError(t, rootLoader.Finish(rctx, root.Finish(nil)))

	data := collect(t, reader)
	total := data[MetricEventsTotal]
	family := func(f event.Family) attribute.KeyValue { return attribute.String(LabelFamily, string(f)) }
	phase := func(p event.Phase) attribute.KeyValue { return attribute.String(LabelPhase, string(p)) }
	outcome := func(o string) attribute.KeyValue { return attribute.String(LabelOutcome, o) }

	assert.Equal(t, int64(2), counterValue(t, total, family(parsing.Family), phase(event.PhaseStart), outcome(OutcomeSuccess)))
	assert.Equal(t, int64(1), counterValue(t, total, family(parsing.Family), phase(event.PhaseFinish), outcome(OutcomeSuccess)))
	assert.Equal(t, int64(1), counterValue(t, total, family(parsing.Family), phase(event.PhaseFinish), outcome(OutcomeError)))
	assert.Equal(t, int64(1), counterValue(t, total, family(rootinvoke.Family), phase(event.PhaseFinish), outcome(OutcomeSuccess)))

	h, ok := data[MetricEventDurationSeconds].(metricdata.Histogram[float64])
	require.True(t, ok)
	counts := make(map[string]uint64)
	for _, dp := range h.DataPoints {
		v, _ := dp.Attributes.Value(LabelFamily)
		counts[v.AsString()] = dp.Count
	}
	assert.Equal(t, uint64(2), counts[string(parsing.Family)])
	assert.Equal(t, uint64(1), counts[string(rootinvoke.Family)])
}

func TestInstall_NilMeter(t *testing.T) {
	assert.ErrorIs(t, Install(event.NewRegistry(), nil), xerrors.ErrInvalidInput)
}

func TestDiscard(t *testing.T) {
	m := Discard()
	ctx := context.Background()

	c, err := m.Counter("c", "c")
	require.NoError(t, err)
	c.Inc(ctx)
	g, err := m.Gauge("g", "g")
	require.NoError(t, err)
	g.Set(ctx, 1)
	h, err := m.Histogram("h", "h")
	require.NoError(t, err)
	h.Record(ctx, 1)
	assert.NoError(t, m.Shutdown(ctx))

	// Discard 上同样可以安装事件处理器
	assert.NoError(t, Install(event.NewRegistry(), m))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, Outcome(nil))
	assert.Equal(t, OutcomeError, Outcome(errors.New("x")))
}

func TestDefaultConfigs(t *testing.T) {
	dev := NewDevDefaultConfig("svc")
	assert.True(t, dev.Enabled)
	assert.Equal(t, "dev", dev.Version)
	assert.Equal(t, 9090, dev.Port)
	assert.Equal(t, "/metrics", dev.Path)

	prod := NewProdDefaultConfig("svc", "v1.2.3")
	assert.Equal(t, "v1.2.3", prod.Version)
	assert.NoError(t, prod.validate())
}
