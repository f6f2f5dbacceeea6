package retry

// 指标名定义
const (
	// MetricOutcomesTotal 执行结果总数（success/fatal/exhausted/rejected）
	MetricOutcomesTotal = "retry_outcomes_total"

	// MetricBackoffSeconds 重试退避延迟分布
	MetricBackoffSeconds = "retry_backoff_seconds"
)

// 标签名定义
const (
	LabelDependency = "dependency"
	LabelOutcome    = "outcome"
)
