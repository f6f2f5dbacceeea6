// Package swr 提供了 Stale-While-Revalidate 读穿层，面向昂贵的
// 确定性计算（AI 分析、向量计算等）：过期窗口内的旧值立即返回，
// 刷新在后台独立完成，调用方永远不会被刷新阻塞。
//
// 条目新鲜度状态机：
//   - FRESH   (age <= swrWindow)       直接返回，不做任何额外工作
//   - STALE   (swrWindow < age <= ttl) 立即返回旧值，同时调度后台刷新
//   - EXPIRED (age > ttl)              视为未命中，同步取数后返回
//
// 后台刷新是独立于请求的分离任务：同一个键的并发刷新会被合并，
// 刷新失败只记录日志并保留旧值，临界内存压力下直接跳过调度。
// 存储后端故障永远不会传播给调用方，swr 会退化为直连取数。
//
// ## 基本使用
//
//	store := swr.NewMemoryStore(boundedCache, "analysis")
//	w, _ := swr.New(store, &swr.Config{}, swr.WithLogger(logger))
//	defer w.Close()
//
//	result, err := w.GetOrRefresh(ctx, key, fetchAnalysis,
//		30*time.Minute, // ttl
//		5*time.Minute,  // swrWindow
//	)
//	if result.Stale {
//		// 旧值已返回，刷新正在后台进行
//	}
//
// ## 外部存储
//
//	store := swr.NewRedisStore(redisClient, "aegis:swr:")
package swr

import (
	"context"
	"time"
)

// Fetcher 取数回调，由调用方提供（AI 服务调用、数据库查询等）
//
// swr 对其内部一无所知，只关心成功/失败。后台刷新复用同一个
// Fetcher，传入的是与原请求无关的分离上下文。
type Fetcher func(ctx context.Context) (any, error)

// Result 读取结果
type Result struct {
	// Data 缓存值或新取的值
	Data any

	// Stale 为 true 时表示返回的是过期窗口内的旧值，
	// 后台刷新已调度（或因压力/限流被跳过）
	Stale bool
}

// Wrapper SWR 读穿层核心接口
type Wrapper interface {
	// GetOrRefresh 读取键值，必要时同步取数或调度后台刷新
	//
	// ttl 是条目可被返回的最长存活时间，swrWindow 是无需刷新的
	// 新鲜窗口，要求 0 < swrWindow <= ttl。
	// Fetcher 的错误原样返回；存储后端错误从不返回。
	GetOrRefresh(ctx context.Context, key string, fetcher Fetcher, ttl, swrWindow time.Duration) (Result, error)

	// Close 停止调度新刷新，并在关闭超时内等待在途刷新完成
	Close() error
}

// Config SWR 配置
type Config struct {
	// RefreshTimeout 单次后台刷新的超时（默认：30s）
	RefreshTimeout time.Duration `json:"refresh_timeout" yaml:"refresh_timeout"`

	// ShutdownTimeout Close 等待在途刷新的上限（默认：10s）
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`

	// RefreshRatePerSec 后台刷新的全局速率上限，0 表示不限速（默认：0）
	RefreshRatePerSec float64 `json:"refresh_rate_per_sec" yaml:"refresh_rate_per_sec"`

	// RefreshBurst 限速时允许的突发刷新数（默认：1）
	RefreshBurst int `json:"refresh_burst" yaml:"refresh_burst"`
}

// setDefaults 补齐默认值（内部使用）
func (c *Config) setDefaults() {
	if c.RefreshTimeout <= 0 {
		c.RefreshTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.RefreshBurst <= 0 {
		c.RefreshBurst = 1
	}
}

// New 创建 SWR 读穿层实例
//
// 参数:
//   - store: 后端存储（NewMemoryStore / NewRedisStore）
//   - cfg: SWR 配置
//   - opts: 可选参数 (Logger, Meter, Pressure, Clock)
func New(store Store, cfg *Config, opts ...Option) (Wrapper, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if cfg == nil {
		return nil, ErrConfigNil
	}

	opt := options{}
	for _, o := range opts {
		o(&opt)
	}

	return newWrapper(store, cfg, &opt), nil
}
