package metrics

import "github.com/prometheus/client_golang/prometheus"

// Option 组件初始化选项函数
type Option func(*options)

// options 组件初始化选项配置（内部使用）
type options struct {
	registry prometheus.Registerer
}

// WithRegistry 注入外部 Prometheus Registry
//
// 宿主应用通常已有自己的 /metrics 暴露端点，注入后 Aegis 的指标
// 会注册到同一个 Registry。
func WithRegistry(r prometheus.Registerer) Option {
	return func(o *options) {
		o.registry = r
	}
}
