package pressure

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ceyewan/aegis/clog"
	"github.com/ceyewan/aegis/metrics"
)

// 指标名定义
const (
	// MetricLevel 当前压力水位（0=low 1=medium 2=high 3=critical）
	MetricLevel = "pressure_level"

	// MetricHeapBytes 最近一次采样的堆占用
	MetricHeapBytes = "pressure_heap_bytes"
)

// monitor 压力监控器实现（非导出）
type monitor struct {
	cfg     *Config
	logger  clog.Logger
	meter   metrics.Meter
	sampler func() uint64

	level atomic.Int32

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// newMonitor 创建监控器并启动采样循环（内部函数）
func newMonitor(cfg *Config, opt *options) *monitor {
	cfg.setDefaults()

	logger := opt.logger
	if logger == nil {
		logger = clog.Discard()
	}
	sampler := opt.sampler
	if sampler == nil {
		sampler = heapInUse
	}

	m := &monitor{
		cfg:     cfg,
		logger:  logger,
		meter:   opt.meter,
		sampler: sampler,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	logger.Info("pressure monitor started",
		clog.Int64("limit_bytes", int64(cfg.LimitBytes)),
		clog.Duration("sample_interval", cfg.SampleInterval))

	m.sample()
	go m.loop()
	return m
}

// Level 返回最近一次采样折算出的压力水位
func (m *monitor) Level() Level {
	return Level(m.level.Load())
}

// Close 停止后台采样
func (m *monitor) Close() error {
	m.closeOnce.Do(func() {
		close(m.stop)
		<-m.done
		m.logger.Info("pressure monitor stopped")
	})
	return nil
}

// loop 周期性采样，由 Close 停止
func (m *monitor) loop() {
	defer close(m.done)

	ticker := time.NewTicker(m.cfg.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

// sample 采样一次堆占用并更新水位
func (m *monitor) sample() {
	heap := m.sampler()
	ratio := float64(heap) / float64(m.cfg.LimitBytes)

	level := LevelLow
	switch {
	case ratio >= m.cfg.CriticalRatio:
		level = LevelCritical
	case ratio >= m.cfg.HighRatio:
		level = LevelHigh
	case ratio >= m.cfg.MediumRatio:
		level = LevelMedium
	}

	prev := Level(m.level.Swap(int32(level)))
	if level != prev {
		m.logger.Info("pressure level changed",
			clog.String("from", prev.String()),
			clog.String("to", level.String()),
			clog.Int64("heap_bytes", int64(heap)),
			clog.Float64("ratio", ratio))
	}

	if m.meter != nil {
		ctx := context.Background()
		if g, err := m.meter.Gauge(MetricLevel, "Memory pressure level"); err == nil && g != nil {
			g.Set(ctx, float64(level))
		}
		if g, err := m.meter.Gauge(MetricHeapBytes, "Sampled heap usage in bytes"); err == nil && g != nil {
			g.Set(ctx, float64(heap))
		}
	}
}

// heapInUse 读取运行时堆占用
func heapInUse() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapInuse
}
