package breaker

import (
	"sync"
	"testing"
	"time"

	"github.com/ceyewan/aegis/clog"
)

// TestGroupGet 同名依赖共享同一个熔断器实例
func TestGroupGet(t *testing.T) {
	group, err := NewGroup(&Config{FailureThreshold: 3}, WithLogger(clog.Discard()))
	if err != nil {
		t.Fatalf("NewGroup should not return error, got: %v", err)
	}

	a := group.Get("openai")
	b := group.Get("openai")
	if a != b {
		t.Error("Get should return the same instance for the same dependency")
	}

	c := group.Get("db-pool")
	if a == c {
		t.Error("different dependencies should get independent breakers")
	}
}

// TestGroupIsolation 依赖之间熔断状态互不影响
func TestGroupIsolation(t *testing.T) {
	group, _ := NewGroup(&Config{
		FailureThreshold: 1,
		OpenBackoff:      time.Minute,
	}, WithLogger(clog.Discard()))

	flaky := group.Get("flaky")
	healthy := group.Get("healthy")

	flaky.Allow()
	flaky.RecordFailure()

	if flaky.Snapshot().State != StateOpen {
		t.Error("flaky dependency should be open")
	}
	if !healthy.Allow() {
		t.Error("healthy dependency should be unaffected")
	}
}

// TestGroupNilConfig 测试 nil 配置
func TestGroupNilConfig(t *testing.T) {
	if _, err := NewGroup(nil); err == nil {
		t.Error("NewGroup with nil config should return error")
	}
}

// TestGroupEmptyName 空依赖名回退到 default
func TestGroupEmptyName(t *testing.T) {
	group, _ := NewGroup(&Config{})

	brk := group.Get("")
	if brk.Snapshot().Dependency != "default" {
		t.Errorf("empty name should map to default, got: %s", brk.Snapshot().Dependency)
	}
}

// TestGroupSnapshots 快照覆盖组内全部熔断器
func TestGroupSnapshots(t *testing.T) {
	group, _ := NewGroup(&Config{})

	group.Get("a")
	group.Get("b")

	snaps := group.Snapshots()
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if _, ok := snaps["a"]; !ok {
		t.Error("snapshot for dependency a missing")
	}
}

// TestGroupConcurrentGet 并发创建只产生单实例
func TestGroupConcurrentGet(t *testing.T) {
	group, _ := NewGroup(&Config{})

	var wg sync.WaitGroup
	results := make([]Breaker, 32)
	for i := range results {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n] = group.Get("shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent Get should return a single shared instance")
		}
	}
}
