package breaker

// 指标名定义
const (
	// MetricStateChanges 状态变更总数
	MetricStateChanges = "breaker_state_changes_total"

	// MetricRejectsTotal 被熔断拒绝的请求总数
	MetricRejectsTotal = "breaker_rejects_total"
)

// 标签名定义
const (
	LabelDependency = "dependency"
	LabelFromState  = "from"
	LabelToState    = "to"
)
