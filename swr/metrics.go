package swr

// 指标名定义
const (
	// MetricRequestsTotal 读取结果总数（outcome: fresh/stale/miss/expired/bypass）
	MetricRequestsTotal = "swr_requests_total"

	// MetricRefreshesTotal 后台刷新结果总数
	// (outcome: success/failure/panic/skipped_pressure/skipped_rate)
	MetricRefreshesTotal = "swr_refreshes_total"

	// MetricRefreshSeconds 后台刷新耗时分布
	MetricRefreshSeconds = "swr_refresh_seconds"
)

// 标签名定义
const (
	LabelOutcome = "outcome"
)
