// Package backoff 提供重试退避延迟计算。
//
// Policy 是一个纯函数式的退避策略：指数增长、乘性抖动、上下限裁剪。
// 无副作用、无 I/O，可以安全地在并发环境中共享。
//
// 基本使用：
//
//	policy := backoff.Default()
//	delay := policy.Delay(3) // 第 3 次尝试前的等待时间
package backoff

import (
	"math/rand"
	"time"
)

// DefaultFloor 退避延迟下限，防止连续重试退化成忙等
const DefaultFloor = 100 * time.Millisecond

// Policy 退避策略
//
// 延迟计算公式：raw = Base * 2^(attempt-1)，裁剪到 Max；
// JitterRatio > 0 时在 [1-J, 1+J] 区间内乘性扰动；结果不低于 Floor。
type Policy struct {
	// Base 首次重试的基准延迟（默认：1s）
	Base time.Duration `json:"base" yaml:"base"`

	// Max 延迟上限（默认：30s）
	Max time.Duration `json:"max" yaml:"max"`

	// Floor 延迟下限（默认：100ms）
	Floor time.Duration `json:"floor" yaml:"floor"`

	// JitterRatio 抖动比例，取值 [0,1]（默认：0.25）
	// 0 表示不加抖动，延迟完全确定
	JitterRatio float64 `json:"jitter_ratio" yaml:"jitter_ratio"`

	// rnd 随机源，测试时通过 WithRand 注入
	rnd func() float64
}

// Default 返回默认退避策略
func Default() Policy {
	return Policy{
		Base:        time.Second,
		Max:         30 * time.Second,
		Floor:       DefaultFloor,
		JitterRatio: 0.25,
	}
}

// WithRand 返回注入了随机源的策略副本（测试用）
//
// rnd 需要返回 [0,1) 区间的浮点数。
func (p Policy) WithRand(rnd func() float64) Policy {
	p.rnd = rnd
	return p
}

// Delay 计算第 attempt 次尝试失败后的等待时间
//
// attempt 从 1 开始计数；小于 1 时按 1 处理。
// 对任意 attempt，返回值满足 Floor <= delay <= Max。
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	base := p.Base
	if base <= 0 {
		base = time.Second
	}
	max := p.Max
	if max <= 0 {
		max = 30 * time.Second
	}
	floor := p.Floor
	if floor <= 0 {
		floor = DefaultFloor
	}

	// 指数增长，移位溢出前直接取上限
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max || delay < 0 {
			delay = max
			break
		}
	}
	if delay > max {
		delay = max
	}

	if p.JitterRatio > 0 {
		j := p.JitterRatio
		if j > 1 {
			j = 1
		}
		rnd := p.rnd
		if rnd == nil {
			rnd = rand.Float64
		}
		// 乘性扰动：factor ∈ [1-j, 1+j]
		factor := 1 - j + 2*j*rnd()
		delay = time.Duration(float64(delay) * factor)
	}

	if delay > max {
		delay = max
	}
	if delay < floor {
		delay = floor
	}
	return delay
}
