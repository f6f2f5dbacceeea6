package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ceyewan/aegis/xerrors"
)

// promMeter 基于 Prometheus 的 Meter 实现（非导出）
type promMeter struct {
	namespace string
	registry  prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*promCounter
	gauges     map[string]*promGauge
	histograms map[string]*promHistogram
}

func newPromMeter(cfg *Config, opt *options) (Meter, error) {
	registry := opt.registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	return &promMeter{
		namespace:  cfg.Namespace,
		registry:   registry,
		counters:   make(map[string]*promCounter),
		gauges:     make(map[string]*promGauge),
		histograms: make(map[string]*promHistogram),
	}, nil
}

func (m *promMeter) Counter(name, help string, labelNames ...string) (Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.counters[name]; ok {
		return c, nil
	}

	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      name,
		Help:      help,
	}, labelNames)
	if err := m.registry.Register(vec); err != nil {
		return nil, xerrors.Wrapf(err, "failed to register counter %s", name)
	}

	c := &promCounter{vec: vec, labelNames: labelNames}
	m.counters[name] = c
	return c, nil
}

func (m *promMeter) Gauge(name, help string, labelNames ...string) (Gauge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g, ok := m.gauges[name]; ok {
		return g, nil
	}

	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      name,
		Help:      help,
	}, labelNames)
	if err := m.registry.Register(vec); err != nil {
		return nil, xerrors.Wrapf(err, "failed to register gauge %s", name)
	}

	g := &promGauge{vec: vec, labelNames: labelNames}
	m.gauges[name] = g
	return g, nil
}

func (m *promMeter) Histogram(name, help string, labelNames ...string) (Histogram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.histograms[name]; ok {
		return h, nil
	}

	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      name,
		Help:      help,
		Buckets:   prometheus.DefBuckets,
	}, labelNames)
	if err := m.registry.Register(vec); err != nil {
		return nil, xerrors.Wrapf(err, "failed to register histogram %s", name)
	}

	h := &promHistogram{vec: vec, labelNames: labelNames}
	m.histograms[name] = h
	return h, nil
}

// labelValues 按声明顺序提取标签值，缺失的标签取空字符串
func labelValues(labelNames []string, labels []Label) []string {
	values := make([]string, len(labelNames))
	for i, name := range labelNames {
		for _, l := range labels {
			if l.Name == name {
				values[i] = l.Value
				break
			}
		}
	}
	return values
}

type promCounter struct {
	vec        *prometheus.CounterVec
	labelNames []string
}

func (c *promCounter) Inc(ctx context.Context, labels ...Label) {
	c.vec.WithLabelValues(labelValues(c.labelNames, labels)...).Inc()
}

func (c *promCounter) Add(ctx context.Context, val float64, labels ...Label) {
	if val < 0 {
		return
	}
	c.vec.WithLabelValues(labelValues(c.labelNames, labels)...).Add(val)
}

type promGauge struct {
	vec        *prometheus.GaugeVec
	labelNames []string
}

func (g *promGauge) Set(ctx context.Context, val float64, labels ...Label) {
	g.vec.WithLabelValues(labelValues(g.labelNames, labels)...).Set(val)
}

func (g *promGauge) Inc(ctx context.Context, labels ...Label) {
	g.vec.WithLabelValues(labelValues(g.labelNames, labels)...).Inc()
}

func (g *promGauge) Dec(ctx context.Context, labels ...Label) {
	g.vec.WithLabelValues(labelValues(g.labelNames, labels)...).Dec()
}

type promHistogram struct {
	vec        *prometheus.HistogramVec
	labelNames []string
}

func (h *promHistogram) Record(ctx context.Context, val float64, labels ...Label) {
	h.vec.WithLabelValues(labelValues(h.labelNames, labels)...).Observe(val)
}
