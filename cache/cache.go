// Package cache 提供了带容量上限的进程内缓存组件 (BoundedCache)，
// 用于缓存昂贵的确定性计算结果（分析结果、向量等）。
//
// cache 是 Aegis 自适应缓存层的地基，它提供了：
// - 字节容量 + 条目数双上限，任意一次写入后都满足 bytesUsed <= MaxTotalBytes
// - 严格 LRU 淘汰：按最近访问时间淘汰，时间并列时优先淘汰访问次数最少的条目
// - 按业务类别 (category) 独立的 TTL，读取时惰性过期 + 后台定期清扫
// - 命中率等运行时统计，支持模式/类别两种批量失效
// - 确定性键生成（规范化输入 + 参数的 sha256），并发调用方可安全共享
//
// ## 基本使用
//
//	c, _ := cache.New("analysis-results", &cache.Config{
//		MaxTotalBytes: 64 << 20,
//		MaxEntries:    5000,
//		TTL: map[string]time.Duration{
//			"default":   30 * time.Minute,
//			"embedding": 24 * time.Hour,
//		},
//	}, cache.WithLogger(logger))
//	defer c.Close()
//
//	key := cache.KeyParams(map[string]string{"model": "v2"}, resumeText, jobText)
//	if v, ok := c.Get(key); ok {
//		return v.(*Analysis), nil
//	}
//	result := analyze(resumeText, jobText)
//	_ = c.Set(key, result, "analysis")
//
// ## 批量失效
//
//	c.Invalidate("analysis:*")       // 前缀匹配
//	c.InvalidateCategory("embedding") // 按类别
package cache

import (
	"time"

	"github.com/ceyewan/aegis/cache/serializer"
)

// Cache 有界缓存核心接口
//
// Get / Set 均为内存同步操作，不会阻塞等待。
// 实例应按缓存命名空间（如 "analysis-results"、"embeddings"）创建，
// 进程内由所有调用方共享。
type Cache interface {
	// Get 查询缓存
	//
	// 命中时更新最近访问时间与访问计数并记一次命中；
	// 条目已超过所属类别 TTL 时视为未命中，同时移除该条目。
	Get(key string) (any, bool)

	// Set 写入缓存
	//
	// 先估算条目字节大小；若写入后将超出字节或条目上限，
	// 先按 LRU 淘汰直至容量恢复，再插入。
	// 单个值超过 MaxTotalBytes 时拒绝写入，返回 ErrValueTooLarge。
	Set(key string, value any, category string) error

	// Invalidate 按键模式批量移除条目，返回移除数量
	//
	// pattern 以 "*" 结尾时做前缀匹配，否则做精确匹配。
	Invalidate(pattern string) int

	// InvalidateCategory 按类别批量移除条目，返回移除数量
	InvalidateCategory(category string) int

	// Stats 返回运行时统计快照
	Stats() Stats

	// Close 停止后台清扫任务并释放所有条目
	Close() error
}

// Stats 缓存运行时统计快照
type Stats struct {
	// Entries 当前条目数
	Entries int

	// BytesUsed 当前占用的估算字节数
	BytesUsed int64

	// Hits 累计命中次数
	Hits uint64

	// Misses 累计未命中次数（含惰性过期）
	Misses uint64

	// HitRate 命中率，无访问时为 0
	HitRate float64

	// Evictions 累计 LRU 淘汰次数（不含过期清理与显式失效）
	Evictions uint64

	// EntriesByCategory 按类别的条目数分布
	EntriesByCategory map[string]int
}

// Config 缓存配置
type Config struct {
	// MaxTotalBytes 估算字节总量上限（默认：64MB）
	MaxTotalBytes int64 `json:"max_total_bytes" yaml:"max_total_bytes"`

	// MaxEntries 条目数上限，防止海量小条目（默认：10000）
	MaxEntries int `json:"max_entries" yaml:"max_entries"`

	// TTL 按类别的存活时长，"default" 键作为兜底（默认：default=30m）
	TTL map[string]time.Duration `json:"ttl" yaml:"ttl"`

	// SweepInterval 后台过期清扫周期（默认：1m）
	SweepInterval time.Duration `json:"sweep_interval" yaml:"sweep_interval"`

	// Serializer 字节估算使用的序列化器: "json" / "msgpack"（默认：msgpack）
	Serializer string `json:"serializer" yaml:"serializer"`
}

// defaultTTL 未配置任何 TTL 时的兜底存活时长
const defaultTTL = 30 * time.Minute

// setDefaults 补齐默认值（内部使用）
func (c *Config) setDefaults() {
	if c.MaxTotalBytes <= 0 {
		c.MaxTotalBytes = 64 << 20
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = 10000
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	if c.Serializer == "" {
		c.Serializer = "msgpack"
	}
}

// ttlFor 返回类别对应的 TTL，未配置时回落到 "default"
func (c *Config) ttlFor(category string) time.Duration {
	if ttl, ok := c.TTL[category]; ok && ttl > 0 {
		return ttl
	}
	if ttl, ok := c.TTL["default"]; ok && ttl > 0 {
		return ttl
	}
	return defaultTTL
}

// New 创建有界缓存实例
//
// 参数:
//   - namespace: 缓存命名空间（如 "analysis-results"），不可为空
//   - cfg: 缓存配置
//   - opts: 可选参数 (Logger, Meter, Clock)
func New(namespace string, cfg *Config, opts ...Option) (Cache, error) {
	if namespace == "" {
		return nil, ErrNamespaceEmpty
	}
	if cfg == nil {
		return nil, ErrConfigNil
	}

	opt := options{}
	for _, o := range opts {
		o(&opt)
	}

	ser, err := serializer.New(cfg.Serializer)
	if err != nil {
		return nil, err
	}

	return newBoundedCache(namespace, cfg, ser, &opt), nil
}
