// Package breaker 提供了熔断器组件，专注于外部依赖（AI 服务商、数据库连接池等）的
// 故障隔离与自动恢复。
//
// breaker 是 Aegis 弹性层的核心组件，它提供了：
// - 基于连续失败计数的熔断器状态机（CLOSED / OPEN / HALF_OPEN）
// - 熔断窗口指数增长：反复熔断的依赖冷却时间逐次加倍，封顶
// - 半开状态单探测语义：每个探测窗口只放行一个试探请求
// - 依赖级粒度的熔断管理（Group，按依赖名独立熔断）
// - 只读状态快照，用于观测和决策用户侧提示
//
// ## 基本使用
//
//	brk, _ := breaker.New("openai", &breaker.Config{
//		FailureThreshold: 5,
//		OpenBackoff:      30 * time.Second,
//		MaxOpenBackoff:   10 * time.Minute,
//	}, breaker.WithLogger(logger))
//
//	if !brk.Allow() {
//		return breaker.ErrOpenState
//	}
//	if err := callProvider(); err != nil {
//		brk.RecordFailure()
//		return err
//	}
//	brk.RecordSuccess()
//
// ## 依赖级管理
//
//	group, _ := breaker.NewGroup(cfg, breaker.WithLogger(logger))
//	brk := group.Get("openai")
package breaker

import (
	"time"
)

// Breaker 熔断器核心接口
//
// Allow / RecordSuccess / RecordFailure 必须围绕同一次调用成对使用：
// Allow 放行后，调用方有义务上报本次调用的结果；
// 调用方主动取消、无法判定成败时，必须调用 ReleaseProbe 归还探测名额。
// 发现 Allow() == false 的调用方必须立刻以 ErrOpenState 失败，
// 不得在熔断器之上再做重试（重试属于 retry 执行器的职责）。
type Breaker interface {
	// Allow 返回当前是否允许发起调用
	//
	// CLOSED 状态恒为 true；OPEN 状态在冷却窗口到期后进入 HALF_OPEN，
	// 每个探测窗口只有一个调用方会得到 true，其余并发调用方得到 false，
	// 直到该探测请求通过 RecordSuccess / RecordFailure 决出状态。
	Allow() bool

	// RecordSuccess 上报一次成功调用
	// 清零连续失败计数，状态回到 CLOSED，熔断窗口重置为基准值
	RecordSuccess()

	// RecordFailure 上报一次失败调用
	// 连续失败达到阈值时熔断，并为下一次熔断增大冷却窗口（指数、封顶）
	RecordFailure()

	// ReleaseProbe 放弃在途探测请求，不判定成败
	//
	// 调用方主动取消时本次探测没有得出依赖健康与否的结论，
	// 必须归还探测名额，否则熔断器会永久卡在 HALF_OPEN。
	// 释放后下一个 Allow 立即放行新的探测请求，冷却窗口不增长。
	// 没有在途探测时调用是无害的空操作。
	ReleaseProbe()

	// Snapshot 返回只读状态快照，用于观测
	Snapshot() Snapshot
}

// State 熔断器状态
type State int

const (
	// StateClosed 闭合状态（正常）
	StateClosed State = iota
	// StateHalfOpen 半开状态（探测恢复）
	StateHalfOpen
	// StateOpen 打开状态（熔断中）
	StateOpen
)

// String 返回状态的字符串表示
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half_open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Snapshot 熔断器只读状态快照
type Snapshot struct {
	// Dependency 被保护的依赖名
	Dependency string

	// State 当前状态
	State State

	// ConsecutiveFailures 连续失败次数
	ConsecutiveFailures uint32

	// TotalRequests 放行的请求总数（单调递增）
	TotalRequests uint64

	// SuccessfulRequests 成功的请求总数（单调递增）
	SuccessfulRequests uint64

	// LastFailureAt 最近一次失败时间，零值表示从未失败
	LastFailureAt time.Time

	// NextAttemptAt 下一次允许探测的时间，仅在 OPEN 状态有意义
	NextAttemptAt time.Time

	// Backoff 当前冷却窗口长度，随反复熔断指数增长
	Backoff time.Duration
}

// Config 熔断器配置
type Config struct {
	// FailureThreshold 触发熔断的连续失败次数（默认：5）
	FailureThreshold uint32 `json:"failure_threshold" yaml:"failure_threshold"`

	// OpenBackoff 首次熔断的冷却窗口（默认：30s）
	OpenBackoff time.Duration `json:"open_backoff" yaml:"open_backoff"`

	// MaxOpenBackoff 冷却窗口上限（默认：10m）
	MaxOpenBackoff time.Duration `json:"max_open_backoff" yaml:"max_open_backoff"`

	// BackoffMultiplier 反复熔断时冷却窗口的增长倍率（默认：2.0）
	BackoffMultiplier float64 `json:"backoff_multiplier" yaml:"backoff_multiplier"`
}

// setDefaults 补齐默认值（内部使用）
func (c *Config) setDefaults() {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.OpenBackoff <= 0 {
		c.OpenBackoff = 30 * time.Second
	}
	if c.MaxOpenBackoff <= 0 {
		c.MaxOpenBackoff = 10 * time.Minute
	}
	if c.BackoffMultiplier < 1 {
		c.BackoffMultiplier = 2.0
	}
}

// New 创建熔断器实例
//
// 每个逻辑依赖在进程生命周期内只应创建一个实例，由所有调用方共享。
//
// 参数:
//   - name: 依赖名（如 "openai"、"db-pool"），不可为空
//   - cfg: 熔断器配置
//   - opts: 可选参数 (Logger, Meter, Clock)
func New(name string, cfg *Config, opts ...Option) (Breaker, error) {
	if name == "" {
		return nil, ErrNameEmpty
	}
	if cfg == nil {
		return nil, ErrConfigNil
	}

	opt := options{}
	for _, o := range opts {
		o(&opt)
	}

	return newBreaker(name, cfg, &opt), nil
}
