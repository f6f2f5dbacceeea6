package metrics

import "context"

// noopMeter 是一个什么都不做的 Meter 实现（内部使用）
type noopMeter struct{}

// Noop 创建一个静默的 Meter 实例
//
// 未注入 Meter 的组件使用它，避免到处判空。
func Noop() Meter {
	return &noopMeter{}
}

func (noopMeter) Counter(name, help string, labelNames ...string) (Counter, error) {
	return noopInstrument{}, nil
}

func (noopMeter) Gauge(name, help string, labelNames ...string) (Gauge, error) {
	return noopInstrument{}, nil
}

func (noopMeter) Histogram(name, help string, labelNames ...string) (Histogram, error) {
	return noopInstrument{}, nil
}

type noopInstrument struct{}

func (noopInstrument) Inc(ctx context.Context, labels ...Label)                  {}
func (noopInstrument) Add(ctx context.Context, val float64, labels ...Label)    {}
func (noopInstrument) Set(ctx context.Context, val float64, labels ...Label)    {}
func (noopInstrument) Dec(ctx context.Context, labels ...Label)                 {}
func (noopInstrument) Record(ctx context.Context, val float64, labels ...Label) {}
