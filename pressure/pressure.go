// Package pressure 提供了进程内存压力信号，供自适应缓存层决定
// 是否继续安排后台刷新、预热等可推迟的工作。
//
// pressure 把堆占用相对内存预算的比例折算为四档离散水位
// (low / medium / high / critical)，消费方只依赖 Source 接口，
// 测试与降级场景可用 Static 固定水位替代真实监控。
//
// ## 基本使用
//
//	mon, _ := pressure.NewMonitor(&pressure.Config{
//		LimitBytes: 512 << 20,
//	}, pressure.WithLogger(logger))
//	defer mon.Close()
//
//	if mon.Level() >= pressure.LevelCritical {
//		// 跳过可推迟的后台工作
//	}
package pressure

import (
	"time"

	"github.com/ceyewan/aegis/xerrors"
)

// Level 内存压力水位
type Level int

const (
	// LevelLow 低压力（占用 < 65% 预算）
	LevelLow Level = iota
	// LevelMedium 中压力（65% ~ 80%）
	LevelMedium
	// LevelHigh 高压力（80% ~ 92%）
	LevelHigh
	// LevelCritical 临界压力（>= 92%），可推迟的工作应当跳过
	LevelCritical
)

// String 返回水位的字符串表示
func (l Level) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	case LevelCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseLevel 解析水位字符串
func ParseLevel(s string) (Level, error) {
	switch s {
	case "low":
		return LevelLow, nil
	case "medium":
		return LevelMedium, nil
	case "high":
		return LevelHigh, nil
	case "critical":
		return LevelCritical, nil
	default:
		return LevelLow, xerrors.Wrapf(ErrInvalidLevel, "pressure: %q", s)
	}
}

// Source 压力信号来源
//
// Level 必须是无阻塞的快速读取，调用方可能在每次缓存操作中查询。
type Source interface {
	Level() Level
}

// Static 返回固定水位的 Source，用于测试或显式关闭压力门控
func Static(level Level) Source {
	return staticSource(level)
}

type staticSource Level

func (s staticSource) Level() Level { return Level(s) }

// Monitor 基于运行时堆采样的压力监控器
type Monitor interface {
	Source

	// Close 停止后台采样
	Close() error
}

// Config 压力监控配置
type Config struct {
	// LimitBytes 进程内存预算（默认：512MB）
	// 通常取容器内存限制或宿主分配给本进程的堆预算。
	LimitBytes uint64 `json:"limit_bytes" yaml:"limit_bytes"`

	// SampleInterval 采样周期（默认：5s）
	SampleInterval time.Duration `json:"sample_interval" yaml:"sample_interval"`

	// MediumRatio / HighRatio / CriticalRatio 水位阈值
	// （默认：0.65 / 0.80 / 0.92，相对 LimitBytes）
	MediumRatio   float64 `json:"medium_ratio" yaml:"medium_ratio"`
	HighRatio     float64 `json:"high_ratio" yaml:"high_ratio"`
	CriticalRatio float64 `json:"critical_ratio" yaml:"critical_ratio"`
}

// setDefaults 补齐默认值（内部使用）
func (c *Config) setDefaults() {
	if c.LimitBytes == 0 {
		c.LimitBytes = 512 << 20
	}
	if c.SampleInterval <= 0 {
		c.SampleInterval = 5 * time.Second
	}
	if c.MediumRatio <= 0 {
		c.MediumRatio = 0.65
	}
	if c.HighRatio <= 0 {
		c.HighRatio = 0.80
	}
	if c.CriticalRatio <= 0 {
		c.CriticalRatio = 0.92
	}
}

// NewMonitor 创建压力监控器并启动后台采样
func NewMonitor(cfg *Config, opts ...Option) (Monitor, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	opt := options{}
	for _, o := range opts {
		o(&opt)
	}

	return newMonitor(cfg, &opt), nil
}
