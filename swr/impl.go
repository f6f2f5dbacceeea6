package swr

import (
	"context"
	"sync"
	"time"

	"github.com/ceyewan/aegis/clog"
	"github.com/ceyewan/aegis/metrics"
	"github.com/ceyewan/aegis/pressure"
	"github.com/ceyewan/aegis/xerrors"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// wrapper SWR 读穿层实现（非导出）
type wrapper struct {
	store    Store
	cfg      *Config
	logger   clog.Logger
	meter    metrics.Meter
	pressure pressure.Source
	now      func() time.Time
	limiter  *rate.Limiter

	// 同键并发刷新合并
	sfg singleflight.Group

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// newWrapper 创建读穿层实例（内部函数）
func newWrapper(store Store, cfg *Config, opt *options) *wrapper {
	cfg.setDefaults()

	logger := opt.logger
	if logger == nil {
		logger = clog.Discard()
	}
	src := opt.pressure
	if src == nil {
		src = pressure.Static(pressure.LevelLow)
	}
	now := opt.now
	if now == nil {
		now = time.Now
	}

	var limiter *rate.Limiter
	if cfg.RefreshRatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RefreshRatePerSec), cfg.RefreshBurst)
	}

	logger.Info("swr wrapper created",
		clog.Duration("refresh_timeout", cfg.RefreshTimeout),
		clog.Float64("refresh_rate_per_sec", cfg.RefreshRatePerSec))

	return &wrapper{
		store:    store,
		cfg:      cfg,
		logger:   logger,
		meter:    opt.meter,
		pressure: src,
		now:      now,
		limiter:  limiter,
	}
}

// GetOrRefresh 读取键值，必要时同步取数或调度后台刷新
func (w *wrapper) GetOrRefresh(ctx context.Context, key string, fetcher Fetcher, ttl, swrWindow time.Duration) (Result, error) {
	if key == "" {
		return Result{}, ErrKeyEmpty
	}
	if fetcher == nil {
		return Result{}, ErrFetcherNil
	}
	if ttl <= 0 || swrWindow <= 0 || swrWindow > ttl {
		return Result{}, ErrInvalidWindow
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return Result{}, ErrClosed
	}
	w.mu.Unlock()

	env, ok, err := w.store.Get(ctx, key)
	if err != nil {
		// 存储后端故障从不传播，退化为直连取数
		w.logger.Warn("store lookup failed, bypassing cache",
			clog.String("key", key),
			clog.Error(xerrors.Join(ErrStoreUnavailable, err)))
		w.countRequest(ctx, "bypass")
		return w.fetchAndStore(ctx, key, fetcher, ttl)
	}

	if !ok {
		w.countRequest(ctx, "miss")
		return w.fetchAndStore(ctx, key, fetcher, ttl)
	}

	age := w.now().Sub(env.CreatedAt)
	switch {
	case age > ttl:
		// EXPIRED：过期值绝不返回，等价于未命中
		w.countRequest(ctx, "expired")
		return w.fetchAndStore(ctx, key, fetcher, ttl)

	case age <= swrWindow:
		w.countRequest(ctx, "fresh")
		return Result{Data: env.Data, Stale: false}, nil

	default:
		// STALE：旧值立即返回，刷新与本次请求完全解耦
		w.countRequest(ctx, "stale")
		w.scheduleRefresh(key, fetcher, ttl)
		return Result{Data: env.Data, Stale: true}, nil
	}
}

// Close 停止调度新刷新，并在关闭超时内等待在途刷新完成
func (w *wrapper) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	waitCh := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		w.logger.Info("swr wrapper closed")
		return nil
	case <-time.After(w.cfg.ShutdownTimeout):
		w.logger.Warn("shutdown timed out, refreshes abandoned",
			clog.Duration("timeout", w.cfg.ShutdownTimeout))
		return ErrShutdownTimeout
	}
}

// fetchAndStore 同步取数并尽力回写存储
//
// Fetcher 的错误原样返回；回写失败只记录日志。
func (w *wrapper) fetchAndStore(ctx context.Context, key string, fetcher Fetcher, ttl time.Duration) (Result, error) {
	data, err := fetcher(ctx)
	if err != nil {
		return Result{}, err
	}

	env := Envelope{Data: data, CreatedAt: w.now()}
	if err := w.store.Set(ctx, key, env, ttl); err != nil {
		w.logger.Warn("store write failed, result served uncached",
			clog.String("key", key),
			clog.Error(xerrors.Join(ErrStoreUnavailable, err)))
	}
	return Result{Data: data, Stale: false}, nil
}

// scheduleRefresh 调度一次后台刷新
//
// 临界内存压力或触发限速时直接放弃本轮刷新，旧值留待下次读取重试。
func (w *wrapper) scheduleRefresh(key string, fetcher Fetcher, ttl time.Duration) {
	if w.pressure.Level() >= pressure.LevelCritical {
		w.logger.Debug("refresh skipped under critical memory pressure",
			clog.String("key", key))
		w.countRefresh("skipped_pressure")
		return
	}
	if w.limiter != nil && !w.limiter.Allow() {
		w.logger.Debug("refresh skipped by rate limit", clog.String("key", key))
		w.countRefresh("skipped_rate")
		return
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()

	taskID := uuid.NewString()
	go func() {
		defer w.wg.Done()
		// 同键并发调度只执行一次真实刷新
		w.sfg.Do(key, func() (any, error) {
			w.refresh(taskID, key, fetcher, ttl)
			return nil, nil
		})
	}()
}

// refresh 执行一次后台刷新，不可被原请求取消
func (w *wrapper) refresh(taskID, key string, fetcher Fetcher, ttl time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("background refresh panicked",
				clog.String("task_id", taskID),
				clog.String("key", key),
				clog.Any("panic", r))
			w.countRefresh("panic")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.RefreshTimeout)
	defer cancel()

	start := time.Now()
	data, err := fetcher(ctx)
	if err != nil {
		// 失败保留旧值，下次读取会再次调度
		w.logger.Warn("background refresh failed, stale entry kept",
			clog.String("task_id", taskID),
			clog.String("key", key),
			clog.Error(err))
		w.countRefresh("failure")
		return
	}

	env := Envelope{Data: data, CreatedAt: w.now()}
	if err := w.store.Set(ctx, key, env, ttl); err != nil {
		w.logger.Warn("refresh write failed, stale entry kept",
			clog.String("task_id", taskID),
			clog.String("key", key),
			clog.Error(err))
		w.countRefresh("failure")
		return
	}

	w.logger.Debug("background refresh completed",
		clog.String("task_id", taskID),
		clog.String("key", key),
		clog.Duration("elapsed", time.Since(start)))
	w.countRefresh("success")
	w.recordRefreshSeconds(time.Since(start))
}

// countRequest 记录读取结果指标
func (w *wrapper) countRequest(ctx context.Context, outcome string) {
	if w.meter == nil {
		return
	}
	counter, err := w.meter.Counter(MetricRequestsTotal, "SWR read outcomes", LabelOutcome)
	if err == nil && counter != nil {
		counter.Inc(ctx, metrics.L(LabelOutcome, outcome))
	}
}

// countRefresh 记录后台刷新结果指标
func (w *wrapper) countRefresh(outcome string) {
	if w.meter == nil {
		return
	}
	counter, err := w.meter.Counter(MetricRefreshesTotal, "SWR background refresh outcomes", LabelOutcome)
	if err == nil && counter != nil {
		counter.Inc(context.Background(), metrics.L(LabelOutcome, outcome))
	}
}

// recordRefreshSeconds 记录刷新耗时分布
func (w *wrapper) recordRefreshSeconds(elapsed time.Duration) {
	if w.meter == nil {
		return
	}
	histogram, err := w.meter.Histogram(MetricRefreshSeconds, "SWR background refresh duration")
	if err == nil && histogram != nil {
		histogram.Record(context.Background(), elapsed.Seconds())
	}
}
