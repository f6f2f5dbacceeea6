package backoff

import (
	"testing"
	"time"
)

// TestDelayExponentialGrowth 无抖动时延迟确定且指数增长
func TestDelayExponentialGrowth(t *testing.T) {
	policy := Policy{
		Base:        200 * time.Millisecond,
		Max:         10 * time.Second,
		Floor:       100 * time.Millisecond,
		JitterRatio: 0,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, 1600 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := policy.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

// TestDelayBounds 对任意 attempt，延迟始终落在 [Floor, Max] 内
func TestDelayBounds(t *testing.T) {
	policy := Policy{
		Base:        50 * time.Millisecond,
		Max:         2 * time.Second,
		Floor:       100 * time.Millisecond,
		JitterRatio: 0.5,
	}

	for attempt := 1; attempt <= 64; attempt++ {
		delay := policy.Delay(attempt)
		if delay < policy.Floor {
			t.Fatalf("Delay(%d) = %v below floor %v", attempt, delay, policy.Floor)
		}
		if delay > policy.Max {
			t.Fatalf("Delay(%d) = %v above max %v", attempt, delay, policy.Max)
		}
	}
}

// TestDelayClampedToMax 深度尝试时延迟被裁剪到 Max，不会溢出
func TestDelayClampedToMax(t *testing.T) {
	policy := Policy{
		Base: time.Second,
		Max:  5 * time.Second,
	}
	policy.JitterRatio = 0

	if got := policy.Delay(100); got != 5*time.Second {
		t.Errorf("Delay(100) = %v, want max 5s", got)
	}
	// 溢出保护：位数远超 int64 也应该稳定返回 Max
	if got := policy.Delay(1 << 20); got != 5*time.Second {
		t.Errorf("Delay(huge) = %v, want max 5s", got)
	}
}

// TestDelayFloor 过小的基准延迟被下限兜底
func TestDelayFloor(t *testing.T) {
	policy := Policy{
		Base:        time.Millisecond,
		Max:         time.Second,
		Floor:       100 * time.Millisecond,
		JitterRatio: 0,
	}

	if got := policy.Delay(1); got != 100*time.Millisecond {
		t.Errorf("Delay(1) = %v, want floor 100ms", got)
	}
}

// TestDelayJitterRange 注入固定随机源验证抖动区间
func TestDelayJitterRange(t *testing.T) {
	base := Policy{
		Base:        time.Second,
		Max:         time.Minute,
		Floor:       100 * time.Millisecond,
		JitterRatio: 0.25,
	}

	// rnd=0 → factor = 1-J
	low := base.WithRand(func() float64 { return 0 })
	if got := low.Delay(1); got != 750*time.Millisecond {
		t.Errorf("jitter low bound = %v, want 750ms", got)
	}

	// rnd→1 → factor = 1+J
	high := base.WithRand(func() float64 { return 1 })
	if got := high.Delay(1); got != 1250*time.Millisecond {
		t.Errorf("jitter high bound = %v, want 1.25s", got)
	}

	// rnd=0.5 → factor = 1
	mid := base.WithRand(func() float64 { return 0.5 })
	if got := mid.Delay(1); got != time.Second {
		t.Errorf("jitter mid = %v, want 1s", got)
	}
}

// TestDelayInvalidAttempt attempt < 1 按 1 处理
func TestDelayInvalidAttempt(t *testing.T) {
	policy := Policy{Base: time.Second, Max: time.Minute, JitterRatio: 0}

	if policy.Delay(0) != policy.Delay(1) {
		t.Error("Delay(0) should equal Delay(1)")
	}
	if policy.Delay(-3) != policy.Delay(1) {
		t.Error("Delay(-3) should equal Delay(1)")
	}
}

// TestDefault 默认策略的合理性
func TestDefault(t *testing.T) {
	policy := Default()
	if policy.Base != time.Second || policy.Max != 30*time.Second {
		t.Errorf("unexpected defaults: %+v", policy)
	}

	delay := policy.Delay(1)
	if delay < policy.Floor || delay > policy.Max {
		t.Errorf("Delay(1) = %v out of bounds", delay)
	}
}
