// Package retry 提供了带熔断联动的重试执行器，是 Aegis 弹性层对外的统一入口。
//
// retry 包把三件事编排在一起：
// - 熔断检查：执行前询问 breaker，熔断中的依赖直接快速失败
// - 错误分类：在边界处把外部错误归入显式的错误类别，决定是否可重试
// - 指数退避：可重试错误按 backoff.Policy 计算延迟后重试，上限封顶
//
// ## 基本使用
//
//	ex, _ := retry.New(&retry.Policy{
//		MaxAttempts: 3,
//		Backoff:     backoff.Default(),
//	}, retry.WithLogger(logger))
//
//	brk, _ := breaker.New("openai", breakerCfg)
//
//	result, err := retry.Do(ctx, ex, brk, func(ctx context.Context) (*Analysis, error) {
//		return client.Analyze(ctx, resume)
//	})
//
// ## 错误处理
//
// 执行器永远不会吞掉错误，返回值是以下三者之一：
//   - 成功值
//   - *OpenError：熔断中，未发起任何尝试，携带建议的重试等待时间
//   - *FatalError / *ExhaustedError：携带尝试次数与错误类别
//
// 终态错误都带机器可读错误码（CodeRejected / CodeFatal / CodeExhausted），
// 用 xerrors.GetCode 提取，用 xerrors.As 取出结构化错误本体。
package retry

import (
	"context"
	"time"

	"github.com/ceyewan/aegis/backoff"
	"github.com/ceyewan/aegis/breaker"

	"google.golang.org/grpc"
)

// Operation 被执行器包装的操作
//
// 操作内部应尊重 ctx 的取消与超时。
type Operation func(ctx context.Context) (any, error)

// Policy 重试策略（按操作类别静态配置）
type Policy struct {
	// MaxAttempts 总尝试次数，包含首次调用（默认：3，最小 1）
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// Backoff 退避策略
	Backoff backoff.Policy `json:"backoff" yaml:"backoff"`

	// Classifier 错误分类函数（默认：DefaultClassifier）
	Classifier Classifier `json:"-" yaml:"-"`
}

// setDefaults 补齐默认值（内部使用）
func (p *Policy) setDefaults() {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 3
	}
	if p.Backoff.Base == 0 && p.Backoff.Max == 0 {
		p.Backoff = backoff.Default()
	}
	if p.Classifier == nil {
		p.Classifier = DefaultClassifier
	}
}

// Executor 重试执行器核心接口
type Executor interface {
	// Do 在熔断保护下执行操作，失败时按策略重试
	//
	// brk 为该操作目标依赖的熔断器；执行结果（成功/失败）会回报给它。
	// 调用方取消 ctx 会立即停止后续重试，且不计为依赖故障。
	Do(ctx context.Context, brk breaker.Breaker, op Operation) (any, error)

	// UnaryClientInterceptor 返回 gRPC 一元调用客户端拦截器
	//
	// 按连接目标（cc.Target()）从 group 取熔断器，gRPC 状态码自动映射
	// 为错误类别。
	UnaryClientInterceptor(group *breaker.Group) grpc.UnaryClientInterceptor
}

// New 创建重试执行器
//
// 参数:
//   - policy: 重试策略
//   - opts: 可选参数 (Logger, Meter)
func New(policy *Policy, opts ...Option) (Executor, error) {
	if policy == nil {
		return nil, ErrPolicyNil
	}

	opt := options{}
	for _, o := range opts {
		o(&opt)
	}

	p := *policy
	p.setDefaults()

	return newExecutor(&p, &opt), nil
}

// Do 泛型辅助函数，避免调用方手写类型断言
//
//	analysis, err := retry.Do(ctx, ex, brk, func(ctx context.Context) (*Analysis, error) {
//		return client.Analyze(ctx, resume)
//	})
func Do[T any](ctx context.Context, ex Executor, brk breaker.Breaker, op func(ctx context.Context) (T, error)) (T, error) {
	result, err := ex.Do(ctx, brk, func(ctx context.Context) (any, error) {
		return op(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := result.(T)
	return v, nil
}

// RetryAfterHint 从快照推导建议的重试等待时间（内部使用）
func retryAfterHint(snap breaker.Snapshot, now time.Time) time.Duration {
	if snap.NextAttemptAt.IsZero() {
		return 0
	}
	d := snap.NextAttemptAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
