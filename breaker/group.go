package breaker

import "sync"

// Group 依赖级熔断器注册表
//
// 按依赖名惰性创建并缓存熔断器，同名依赖全进程共享同一个实例。
// 不同依赖之间的状态完全独立。
type Group struct {
	cfg      Config
	opts     []Option
	breakers sync.Map // map[string]Breaker
}

// NewGroup 创建熔断器注册表
//
// 参数:
//   - cfg: 组内所有熔断器共享的配置
//   - opts: 可选参数 (Logger, Meter, Clock)，应用到每个熔断器
//
// 使用示例:
//
//	group, _ := breaker.NewGroup(&breaker.Config{FailureThreshold: 3},
//		breaker.WithLogger(logger))
//	brk := group.Get("openai")
func NewGroup(cfg *Config, opts ...Option) (*Group, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	c := *cfg
	c.setDefaults()

	return &Group{cfg: c, opts: opts}, nil
}

// Get 获取或创建指定依赖的熔断器
//
// 空依赖名会创建一个名为 "default" 的熔断器。
func (g *Group) Get(name string) Breaker {
	if name == "" {
		name = "default"
	}

	if val, ok := g.breakers.Load(name); ok {
		return val.(Breaker)
	}

	opt := options{}
	for _, o := range g.opts {
		o(&opt)
	}
	brk := newBreaker(name, &g.cfg, &opt)

	// 可能有并发创建，使用 LoadOrStore 保证单实例
	actual, _ := g.breakers.LoadOrStore(name, Breaker(brk))
	return actual.(Breaker)
}

// Snapshots 返回组内所有熔断器的状态快照
func (g *Group) Snapshots() map[string]Snapshot {
	out := make(map[string]Snapshot)
	g.breakers.Range(func(key, val any) bool {
		out[key.(string)] = val.(Breaker).Snapshot()
		return true
	})
	return out
}
