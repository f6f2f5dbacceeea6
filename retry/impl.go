package retry

import (
	"context"
	"time"

	"github.com/ceyewan/aegis/breaker"
	"github.com/ceyewan/aegis/clog"
	"github.com/ceyewan/aegis/metrics"
	"github.com/ceyewan/aegis/xerrors"
)

// executor 重试执行器实现（非导出）
type executor struct {
	policy *Policy
	logger clog.Logger
	meter  metrics.Meter
}

// newExecutor 创建执行器实例（内部函数）
func newExecutor(policy *Policy, opt *options) *executor {
	logger := opt.logger
	if logger == nil {
		logger = clog.Discard()
	}

	logger.Info("retry executor created",
		clog.Int("max_attempts", policy.MaxAttempts),
		clog.Duration("backoff_base", policy.Backoff.Base),
		clog.Duration("backoff_max", policy.Backoff.Max))

	return &executor{
		policy: policy,
		logger: logger,
		meter:  opt.meter,
	}
}

// Do 在熔断保护下执行操作，失败时按策略重试
func (e *executor) Do(ctx context.Context, brk breaker.Breaker, op Operation) (any, error) {
	snap := brk.Snapshot()
	dependency := snap.Dependency

	// 熔断检查：不发起尝试，不等待，直接快速失败
	if !brk.Allow() {
		snap = brk.Snapshot()
		openErr := &OpenError{
			Dependency: dependency,
			RetryAfter: retryAfterHint(snap, time.Now()),
		}

		e.logger.Warn("call rejected, circuit open",
			clog.String("dependency", dependency),
			clog.Duration("retry_after", openErr.RetryAfter))
		e.countOutcome(ctx, dependency, "rejected")

		return nil, xerrors.WithCode(openErr, CodeRejected)
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			brk.RecordSuccess()
			e.countOutcome(ctx, dependency, "success")
			return result, nil
		}
		lastErr = err

		// 调用方主动取消不计为依赖故障，立即停止重试。
		// 本次尝试可能占用着半开探测名额，必须归还，
		// 否则熔断器对该依赖永久拒绝。
		if ctx.Err() != nil {
			brk.ReleaseProbe()
			e.logger.Debug("operation canceled by caller",
				clog.String("dependency", dependency),
				clog.Int("attempt", attempt))
			return nil, xerrors.Wrap(ctx.Err(), "retry: canceled")
		}

		class := e.policy.Classifier(err)
		brk.RecordFailure()

		if !class.Retryable() {
			e.logger.Warn("fatal error, not retrying",
				clog.String("dependency", dependency),
				clog.String("class", class.String()),
				clog.Int("attempt", attempt),
				clog.Error(err))
			e.countOutcome(ctx, dependency, "fatal")

			return nil, xerrors.WithCode(&FatalError{Attempts: attempt, Class: class, Err: err}, CodeFatal)
		}

		if attempt >= e.policy.MaxAttempts {
			e.logger.Warn("retries exhausted",
				clog.String("dependency", dependency),
				clog.String("class", class.String()),
				clog.Int("attempts", attempt),
				clog.Error(err))
			e.countOutcome(ctx, dependency, "exhausted")

			return nil, xerrors.WithCode(&ExhaustedError{Attempts: attempt, Class: class, Err: lastErr}, CodeExhausted)
		}

		delay := e.policy.Backoff.Delay(attempt)
		e.logger.Debug("attempt failed, backing off",
			clog.String("dependency", dependency),
			clog.String("class", class.String()),
			clog.Int("attempt", attempt),
			clog.Duration("delay", delay),
			clog.Error(err))
		e.recordDelay(ctx, dependency, delay)

		// 退避等待期间尊重调用方取消
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, xerrors.Wrap(ctx.Err(), "retry: canceled during backoff")
		case <-timer.C:
		}
	}
}

// countOutcome 记录执行结果指标
func (e *executor) countOutcome(ctx context.Context, dependency, outcome string) {
	if e.meter == nil {
		return
	}
	counter, err := e.meter.Counter(MetricOutcomesTotal, "Retry executor outcomes",
		LabelDependency, LabelOutcome)
	if err == nil && counter != nil {
		counter.Inc(ctx,
			metrics.L(LabelDependency, dependency),
			metrics.L(LabelOutcome, outcome))
	}
}

// recordDelay 记录退避延迟指标
func (e *executor) recordDelay(ctx context.Context, dependency string, delay time.Duration) {
	if e.meter == nil {
		return
	}
	histogram, err := e.meter.Histogram(MetricBackoffSeconds, "Backoff delay between attempts",
		LabelDependency)
	if err == nil && histogram != nil {
		histogram.Record(ctx, delay.Seconds(), metrics.L(LabelDependency, dependency))
	}
}
