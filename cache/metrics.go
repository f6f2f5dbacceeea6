package cache

// 指标名定义
const (
	// MetricHitsTotal 缓存命中总数
	MetricHitsTotal = "cache_hits_total"

	// MetricMissesTotal 缓存未命中总数（含惰性过期）
	MetricMissesTotal = "cache_misses_total"

	// MetricEvictionsTotal 条目移除总数（reason: lru/expired/invalidated）
	MetricEvictionsTotal = "cache_evictions_total"

	// MetricEntries 当前条目数
	MetricEntries = "cache_entries"

	// MetricBytesUsed 当前占用的估算字节数
	MetricBytesUsed = "cache_bytes_used"
)

// 标签名定义
const (
	LabelNamespace = "namespace"
	LabelReason    = "reason"
)
