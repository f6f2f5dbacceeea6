// Package metrics 为 Aegis 组件库提供统一的指标收集能力。
// 基于 Prometheus 构建，提供简洁的 Counter、Gauge、Histogram 指标接口。
//
// 快速开始：
//
//	meter, err := metrics.New(&metrics.Config{Namespace: "aegis"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	counter, _ := meter.Counter("cache_hits_total", "缓存命中总数", "namespace")
//	counter.Inc(ctx, metrics.L("namespace", "analysis"))
//
//	histogram, _ := meter.Histogram("attempt_duration_seconds", "单次尝试耗时", "dependency")
//	histogram.Record(ctx, 0.123, metrics.L("dependency", "openai"))
package metrics

import "context"

// Label 指标标签，name=value 键值对
type Label struct {
	Name  string
	Value string
}

// L 创建一个标签
func L(name, value string) Label {
	return Label{Name: name, Value: value}
}

// Counter 计数器接口
// 用于记录只能增加的累计值，例如重试次数、熔断拒绝数等
type Counter interface {
	// Inc 将计数器增加 1
	Inc(ctx context.Context, labels ...Label)

	// Add 将计数器增加给定的值（应为非负数）
	Add(ctx context.Context, val float64, labels ...Label)
}

// Gauge 仪表盘接口
// 用于记录可以任意增减的瞬时值，例如缓存字节数、条目数等
type Gauge interface {
	// Set 将 gauge 设置为给定的值
	Set(ctx context.Context, val float64, labels ...Label)

	// Inc 将 gauge 增加 1
	Inc(ctx context.Context, labels ...Label)

	// Dec 将 gauge 减少 1
	Dec(ctx context.Context, labels ...Label)
}

// Histogram 直方图接口
// 用于记录值的分布情况，例如重试延迟、刷新耗时等
type Histogram interface {
	// Record 记录一个观测值
	Record(ctx context.Context, val float64, labels ...Label)
}

// Meter 指标工厂接口
//
// 同名指标重复创建时返回同一个底层实例（幂等）。
// 标签名集合在创建时固定，记录时缺失的标签取空字符串。
type Meter interface {
	Counter(name, help string, labelNames ...string) (Counter, error)
	Gauge(name, help string, labelNames ...string) (Gauge, error)
	Histogram(name, help string, labelNames ...string) (Histogram, error)
}

// Config 指标配置
type Config struct {
	// Namespace 指标名前缀（默认 "aegis"）
	Namespace string `json:"namespace" yaml:"namespace"`
}

// New 创建基于 Prometheus 的 Meter 实例
//
// 默认注册到内部独立的 Registry，可通过 WithRegistry 注入外部 Registry
// 与宿主应用共享暴露端点。
func New(cfg *Config, opts ...Option) (Meter, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "aegis"
	}

	opt := options{}
	for _, o := range opts {
		o(&opt)
	}

	return newPromMeter(cfg, &opt)
}
