package swr

import (
	"time"

	"github.com/ceyewan/aegis/clog"
	"github.com/ceyewan/aegis/metrics"
	"github.com/ceyewan/aegis/pressure"
)

// Option 组件初始化选项函数
type Option func(*options)

// options 组件初始化选项配置（内部使用，小写）
type options struct {
	logger   clog.Logger
	meter    metrics.Meter
	pressure pressure.Source
	now      func() time.Time
}

// WithLogger 设置 Logger，传入 nil 时使用 clog.Discard()
// 内部会自动添加 namespace: "swr"
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			o.logger = clog.Discard()
		} else {
			o.logger = logger.WithNamespace("swr")
		}
	}
}

// WithMeter 注入指标 Meter
func WithMeter(m metrics.Meter) Option {
	return func(o *options) {
		o.meter = m
	}
}

// WithPressure 注入内存压力信号，临界压力下跳过后台刷新调度
// 不注入时等价于 pressure.Static(pressure.LevelLow)
func WithPressure(src pressure.Source) Option {
	return func(o *options) {
		o.pressure = src
	}
}

// WithClock 注入时钟函数，用于测试中控制时间推进
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
