package retry

import (
	"context"
	"testing"
	"time"

	"github.com/ceyewan/aegis/backoff"
	"github.com/ceyewan/aegis/breaker"
	"github.com/ceyewan/aegis/clog"
	"github.com/ceyewan/aegis/xerrors"
)

// testPolicy 返回退避极短的测试策略
func testPolicy(maxAttempts int) *Policy {
	return &Policy{
		MaxAttempts: maxAttempts,
		Backoff: backoff.Policy{
			Base:        time.Millisecond,
			Max:         5 * time.Millisecond,
			Floor:       time.Millisecond,
			JitterRatio: 0,
		},
	}
}

func testBreaker(t *testing.T) breaker.Breaker {
	t.Helper()
	brk, err := breaker.New("test-dep", &breaker.Config{
		FailureThreshold: 100,
		OpenBackoff:      time.Minute,
	}, breaker.WithLogger(clog.Discard()))
	if err != nil {
		t.Fatalf("failed to create breaker: %v", err)
	}
	return brk
}

// TestNewNilPolicy 测试 nil 策略
func TestNewNilPolicy(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New with nil policy should return error")
	}
}

// TestDoSuccess 首次成功直接返回
func TestDoSuccess(t *testing.T) {
	ex, _ := New(testPolicy(3), WithLogger(clog.Discard()))
	brk := testBreaker(t)

	calls := 0
	result, err := ex.Do(context.Background(), brk, func(ctx context.Context) (any, error) {
		calls++
		return "analysis-result", nil
	})

	if err != nil {
		t.Fatalf("Do should not return error, got: %v", err)
	}
	if result != "analysis-result" {
		t.Errorf("unexpected result: %v", result)
	}
	if calls != 1 {
		t.Errorf("expected 1 invocation, got %d", calls)
	}
	if brk.Snapshot().SuccessfulRequests != 1 {
		t.Error("success should be reported to breaker")
	}
}

// TestDoSucceedsOnThirdAttempt 可重试错误在第 3 次成功：恰好 3 次调用
func TestDoSucceedsOnThirdAttempt(t *testing.T) {
	ex, _ := New(testPolicy(5), WithLogger(clog.Discard()))
	brk := testBreaker(t)

	calls := 0
	result, err := ex.Do(context.Background(), brk, func(ctx context.Context) (any, error) {
		calls++
		if calls < 3 {
			return nil, Classify(xerrors.New("quota exceeded"), ClassRateLimit)
		}
		return 42, nil
	})

	if err != nil {
		t.Fatalf("Do should succeed on 3rd attempt, got: %v", err)
	}
	if result != 42 {
		t.Errorf("unexpected result: %v", result)
	}
	if calls != 3 {
		t.Errorf("expected exactly 3 invocations, got %d", calls)
	}
}

// TestDoFatalSingleAttempt 不可重试错误只尝试一次
func TestDoFatalSingleAttempt(t *testing.T) {
	ex, _ := New(testPolicy(5), WithLogger(clog.Discard()))
	brk := testBreaker(t)

	calls := 0
	_, err := ex.Do(context.Background(), brk, func(ctx context.Context) (any, error) {
		calls++
		return nil, Classify(xerrors.New("invalid api key"), ClassAuth)
	})

	if calls != 1 {
		t.Fatalf("fatal error should stop after 1 attempt, got %d", calls)
	}

	var fatal *FatalError
	if !xerrors.As(err, &fatal) {
		t.Fatalf("expected *FatalError, got %T: %v", err, err)
	}
	if fatal.Class != ClassAuth || fatal.Attempts != 1 {
		t.Errorf("unexpected fatal metadata: %+v", fatal)
	}
	if got := xerrors.GetCode(err); got != CodeFatal {
		t.Errorf("expected code %q, got %q", CodeFatal, got)
	}
}

// TestDoExhausted 可重试错误用尽次数后返回 ExhaustedError
func TestDoExhausted(t *testing.T) {
	ex, _ := New(testPolicy(3), WithLogger(clog.Discard()))
	brk := testBreaker(t)

	calls := 0
	underlying := xerrors.New("connection reset")
	_, err := ex.Do(context.Background(), brk, func(ctx context.Context) (any, error) {
		calls++
		return nil, Classify(underlying, ClassNetwork)
	})

	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}

	var exhausted *ExhaustedError
	if !xerrors.As(err, &exhausted) {
		t.Fatalf("expected *ExhaustedError, got %T: %v", err, err)
	}
	if exhausted.Attempts != 3 || exhausted.Class != ClassNetwork {
		t.Errorf("unexpected metadata: %+v", exhausted)
	}
	if !xerrors.Is(err, underlying) {
		t.Error("exhausted error should unwrap to the last underlying error")
	}
	if got := xerrors.GetCode(err); got != CodeExhausted {
		t.Errorf("expected code %q, got %q", CodeExhausted, got)
	}
	// 每次失败都上报给熔断器
	if got := brk.Snapshot().ConsecutiveFailures; got != 3 {
		t.Errorf("expected 3 recorded failures, got %d", got)
	}
}

// TestDoCircuitOpen 熔断中不发起任何尝试
func TestDoCircuitOpen(t *testing.T) {
	brk, _ := breaker.New("flaky", &breaker.Config{
		FailureThreshold: 1,
		OpenBackoff:      time.Minute,
	}, breaker.WithLogger(clog.Discard()))

	brk.Allow()
	brk.RecordFailure() // 打开熔断器

	ex, _ := New(testPolicy(5), WithLogger(clog.Discard()))

	calls := 0
	_, err := ex.Do(context.Background(), brk, func(ctx context.Context) (any, error) {
		calls++
		return nil, nil
	})

	if calls != 0 {
		t.Fatalf("operation should not be invoked while circuit is open, got %d calls", calls)
	}

	var open *OpenError
	if !xerrors.As(err, &open) {
		t.Fatalf("expected *OpenError, got %T: %v", err, err)
	}
	if open.Dependency != "flaky" {
		t.Errorf("unexpected dependency: %s", open.Dependency)
	}
	if open.RetryAfter <= 0 {
		t.Errorf("RetryAfter hint should be positive, got %v", open.RetryAfter)
	}
	if !xerrors.Is(err, breaker.ErrOpenState) {
		t.Error("OpenError should unwrap to breaker.ErrOpenState")
	}
	if got := xerrors.GetCode(err); got != CodeRejected {
		t.Errorf("expected code %q, got %q", CodeRejected, got)
	}
}

// TestDoCancellation 调用方取消：停止重试且不计为依赖故障
func TestDoCancellation(t *testing.T) {
	ex, _ := New(testPolicy(5), WithLogger(clog.Discard()))
	brk := testBreaker(t)

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := ex.Do(ctx, brk, func(ctx context.Context) (any, error) {
		calls++
		cancel()
		return nil, ctx.Err()
	})

	if calls != 1 {
		t.Fatalf("cancellation should stop retries, got %d calls", calls)
	}
	if !xerrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got: %v", err)
	}
	if got := brk.Snapshot().ConsecutiveFailures; got != 0 {
		t.Errorf("caller cancellation must not be recorded as failure, got %d", got)
	}
}

// TestDoCancellationReleasesProbe 取消落在半开探测上时必须归还探测名额
func TestDoCancellationReleasesProbe(t *testing.T) {
	brk, err := breaker.New("wobbly", &breaker.Config{
		FailureThreshold: 1,
		OpenBackoff:      20 * time.Millisecond,
		MaxOpenBackoff:   20 * time.Millisecond,
	}, breaker.WithLogger(clog.Discard()))
	if err != nil {
		t.Fatalf("failed to create breaker: %v", err)
	}

	brk.Allow()
	brk.RecordFailure() // 打开熔断器

	time.Sleep(30 * time.Millisecond) // 冷却窗口到期

	ex, _ := New(testPolicy(3), WithLogger(clog.Discard()))
	ctx, cancel := context.WithCancel(context.Background())

	// 本次 Do 拿到的是唯一的探测名额，操作内部取消后放弃
	_, err = ex.Do(ctx, brk, func(ctx context.Context) (any, error) {
		cancel()
		return nil, ctx.Err()
	})
	if !xerrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}

	// 探测名额已归还：下一个调用立即拿到新的探测机会，
	// 而不是对该依赖永久快速失败
	if !brk.Allow() {
		t.Fatal("breaker should grant a new probe after a canceled one")
	}
	brk.RecordSuccess()
	if brk.Snapshot().State != breaker.StateClosed {
		t.Errorf("breaker should recover via the new probe, got: %v", brk.Snapshot().State)
	}
}

// TestDoCancellationDuringBackoff 退避等待期间取消
func TestDoCancellationDuringBackoff(t *testing.T) {
	policy := &Policy{
		MaxAttempts: 3,
		Backoff: backoff.Policy{
			Base:        200 * time.Millisecond,
			Max:         time.Second,
			Floor:       200 * time.Millisecond,
			JitterRatio: 0,
		},
	}
	ex, _ := New(policy, WithLogger(clog.Discard()))
	brk := testBreaker(t)

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := ex.Do(ctx, brk, func(ctx context.Context) (any, error) {
			calls++
			return nil, Classify(xerrors.New("timeout"), ClassNetwork)
		})
		done <- err
	}()

	time.Sleep(50 * time.Millisecond) // 第一次失败后进入退避等待
	cancel()

	select {
	case err := <-done:
		if !xerrors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got: %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 attempt before cancellation, got %d", calls)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return promptly after cancellation")
	}
}

// TestDoGeneric 泛型辅助函数
func TestDoGeneric(t *testing.T) {
	ex, _ := New(testPolicy(3), WithLogger(clog.Discard()))
	brk := testBreaker(t)

	type analysis struct{ Score float64 }

	result, err := Do(context.Background(), ex, brk, func(ctx context.Context) (*analysis, error) {
		return &analysis{Score: 0.87}, nil
	})
	if err != nil {
		t.Fatalf("Do should not return error, got: %v", err)
	}
	if result.Score != 0.87 {
		t.Errorf("unexpected score: %v", result.Score)
	}

	// 失败路径返回零值
	missing, err := Do(context.Background(), ex, brk, func(ctx context.Context) (*analysis, error) {
		return nil, Classify(xerrors.New("bad json"), ClassParse)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if missing != nil {
		t.Errorf("expected nil zero value, got: %v", missing)
	}
}
