package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	meter, err := New(nil)
	require.NoError(t, err)
	require.NotNil(t, meter)
}

func TestCounter(t *testing.T) {
	registry := prometheus.NewRegistry()
	meter, err := New(&Config{Namespace: "test"}, WithRegistry(registry))
	require.NoError(t, err)

	ctx := context.Background()
	counter, err := meter.Counter("requests_total", "total requests", "dependency")
	require.NoError(t, err)

	counter.Inc(ctx, L("dependency", "openai"))
	counter.Add(ctx, 2, L("dependency", "openai"))
	counter.Add(ctx, -1, L("dependency", "openai")) // 负数被忽略

	families, err := registry.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "test_requests_total", families[0].GetName())
	assert.Equal(t, float64(3), families[0].GetMetric()[0].GetCounter().GetValue())
}

func TestCounterIdempotentCreate(t *testing.T) {
	meter, err := New(&Config{Namespace: "test"})
	require.NoError(t, err)

	c1, err := meter.Counter("hits_total", "hits", "ns")
	require.NoError(t, err)
	c2, err := meter.Counter("hits_total", "hits", "ns")
	require.NoError(t, err)
	assert.Same(t, c1, c2)
}

func TestGauge(t *testing.T) {
	registry := prometheus.NewRegistry()
	meter, _ := New(&Config{Namespace: "test"}, WithRegistry(registry))

	ctx := context.Background()
	gauge, err := meter.Gauge("cache_bytes", "cache bytes used")
	require.NoError(t, err)

	gauge.Set(ctx, 1024)
	gauge.Inc(ctx)
	gauge.Dec(ctx)

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.Equal(t, float64(1024), families[0].GetMetric()[0].GetGauge().GetValue())
}

func TestHistogram(t *testing.T) {
	registry := prometheus.NewRegistry()
	meter, _ := New(&Config{Namespace: "test"}, WithRegistry(registry))

	ctx := context.Background()
	histogram, err := meter.Histogram("delay_seconds", "retry delay", "dependency")
	require.NoError(t, err)

	histogram.Record(ctx, 0.2, L("dependency", "db"))
	histogram.Record(ctx, 0.4, L("dependency", "db"))

	families, err := registry.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, uint64(2), families[0].GetMetric()[0].GetHistogram().GetSampleCount())
}

// TestMissingLabelValue 缺失标签取空字符串，不 panic
func TestMissingLabelValue(t *testing.T) {
	registry := prometheus.NewRegistry()
	meter, _ := New(&Config{Namespace: "test"}, WithRegistry(registry))

	counter, err := meter.Counter("evictions_total", "evictions", "namespace", "reason")
	require.NoError(t, err)

	counter.Inc(context.Background(), L("reason", "lru"))

	families, err := registry.Gather()
	require.NoError(t, err)

	labels := families[0].GetMetric()[0].GetLabel()
	values := map[string]string{}
	for _, l := range labels {
		values[l.GetName()] = l.GetValue()
	}
	assert.Equal(t, "", values["namespace"])
	assert.Equal(t, "lru", values["reason"])
}

func TestNoop(t *testing.T) {
	meter := Noop()
	c, err := meter.Counter("x", "x")
	require.NoError(t, err)
	c.Inc(context.Background())

	g, err := meter.Gauge("y", "y")
	require.NoError(t, err)
	g.Set(context.Background(), 1)

	h, err := meter.Histogram("z", "z")
	require.NoError(t, err)
	h.Record(context.Background(), 1)
}
