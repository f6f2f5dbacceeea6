package breaker

import (
	"context"
	"sync"
	"time"

	"github.com/ceyewan/aegis/clog"
	"github.com/ceyewan/aegis/metrics"
)

// circuitBreaker 熔断器实现（非导出）
//
// 所有状态变更都在 mu 保护下完成，Allow 与 Record* 之间保证原子性。
type circuitBreaker struct {
	name   string
	cfg    Config
	logger clog.Logger
	meter  metrics.Meter
	now    func() time.Time

	mu                  sync.Mutex
	state               State
	consecutiveFailures uint32
	totalRequests       uint64
	successfulRequests  uint64
	lastFailureAt       time.Time
	nextAttemptAt       time.Time
	backoff             time.Duration
	probeInFlight       bool
}

// newBreaker 创建熔断器实例（内部函数）
func newBreaker(name string, cfg *Config, opt *options) *circuitBreaker {
	c := *cfg
	c.setDefaults()

	logger := opt.logger
	if logger == nil {
		logger = clog.Discard()
	}
	now := opt.now
	if now == nil {
		now = time.Now
	}

	cb := &circuitBreaker{
		name:    name,
		cfg:     c,
		logger:  logger,
		meter:   opt.meter,
		now:     now,
		state:   StateClosed,
		backoff: c.OpenBackoff,
	}

	logger.Info("circuit breaker created",
		clog.String("dependency", name),
		clog.Int("failure_threshold", int(c.FailureThreshold)),
		clog.Duration("open_backoff", c.OpenBackoff),
		clog.Duration("max_open_backoff", c.MaxOpenBackoff))

	return cb
}

// Allow 返回当前是否允许发起调用
func (cb *circuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.totalRequests++
		return true

	case StateOpen:
		// 冷却窗口到期后隐式进入半开状态，放行单个探测请求
		if !cb.now().Before(cb.nextAttemptAt) && !cb.probeInFlight {
			cb.transition(StateHalfOpen)
			cb.probeInFlight = true
			cb.totalRequests++
			return true
		}
		cb.recordReject()
		return false

	case StateHalfOpen:
		// 探测请求已在途，其余并发调用方直接拒绝
		if cb.probeInFlight {
			cb.recordReject()
			return false
		}
		cb.probeInFlight = true
		cb.totalRequests++
		return true

	default:
		return false
	}
}

// RecordSuccess 上报一次成功调用
func (cb *circuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.successfulRequests++
	cb.consecutiveFailures = 0
	cb.probeInFlight = false
	cb.backoff = cb.cfg.OpenBackoff

	if cb.state != StateClosed {
		cb.transition(StateClosed)
	}
}

// RecordFailure 上报一次失败调用
func (cb *circuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.consecutiveFailures++
	cb.lastFailureAt = cb.now()

	switch cb.state {
	case StateHalfOpen:
		// 探测失败：重新熔断，冷却窗口加倍
		cb.probeInFlight = false
		cb.trip()

	case StateClosed:
		if cb.consecutiveFailures >= cb.cfg.FailureThreshold {
			cb.trip()
		}
	}
}

// ReleaseProbe 放弃在途探测请求，不判定成败
func (cb *circuitBreaker) ReleaseProbe() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.probeInFlight {
		return
	}
	cb.probeInFlight = false

	cb.logger.Debug("probe released without outcome",
		clog.String("dependency", cb.name),
		clog.String("state", cb.state.String()))
}

// Snapshot 返回只读状态快照
func (cb *circuitBreaker) Snapshot() Snapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Snapshot{
		Dependency:          cb.name,
		State:               cb.state,
		ConsecutiveFailures: cb.consecutiveFailures,
		TotalRequests:       cb.totalRequests,
		SuccessfulRequests:  cb.successfulRequests,
		LastFailureAt:       cb.lastFailureAt,
		NextAttemptAt:       cb.nextAttemptAt,
		Backoff:             cb.backoff,
	}
}

// trip 熔断：进入 OPEN 并为下一次熔断增大冷却窗口（调用方必须持有锁）
func (cb *circuitBreaker) trip() {
	cb.nextAttemptAt = cb.now().Add(cb.backoff)
	cb.transition(StateOpen)

	next := time.Duration(float64(cb.backoff) * cb.cfg.BackoffMultiplier)
	if next > cb.cfg.MaxOpenBackoff {
		next = cb.cfg.MaxOpenBackoff
	}
	cb.backoff = next
}

// transition 状态变更并记录日志与指标（调用方必须持有锁）
func (cb *circuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to

	cb.logger.Info("circuit breaker state changed",
		clog.String("dependency", cb.name),
		clog.String("from", from.String()),
		clog.String("to", to.String()))

	if cb.meter != nil {
		counter, err := cb.meter.Counter(MetricStateChanges, "Circuit breaker state changes",
			LabelDependency, LabelFromState, LabelToState)
		if err == nil && counter != nil {
			counter.Inc(context.Background(),
				metrics.L(LabelDependency, cb.name),
				metrics.L(LabelFromState, from.String()),
				metrics.L(LabelToState, to.String()))
		}
	}
}

// recordReject 记录一次被熔断拒绝的请求（调用方必须持有锁）
func (cb *circuitBreaker) recordReject() {
	if cb.meter == nil {
		return
	}
	counter, err := cb.meter.Counter(MetricRejectsTotal, "Requests rejected by open circuit breaker",
		LabelDependency)
	if err == nil && counter != nil {
		counter.Inc(context.Background(), metrics.L(LabelDependency, cb.name))
	}
}
