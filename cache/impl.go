package cache

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ceyewan/aegis/cache/serializer"
	"github.com/ceyewan/aegis/clog"
	"github.com/ceyewan/aegis/metrics"
)

// entry 缓存条目的内部记账结构
type entry struct {
	key            string
	value          any
	category       string
	sizeBytes      int64
	createdAt      time.Time
	lastAccessedAt time.Time
	accessCount    uint64
}

// boundedCache 有界缓存实现（非导出）
//
// items + lru 互为索引：lru 头部是最近访问的条目，尾部是最久未访问的条目。
// 所有可变状态都在 mu 保护下变更。
type boundedCache struct {
	namespace string
	cfg       *Config
	ser       serializer.Serializer
	logger    clog.Logger
	meter     metrics.Meter
	now       func() time.Time

	mu         sync.Mutex
	items      map[string]*list.Element
	lru        *list.List
	bytesUsed  int64
	hits       uint64
	misses     uint64
	evictions  uint64
	byCategory map[string]int
	closed     bool

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// newBoundedCache 创建缓存实例并启动后台清扫任务（内部函数）
func newBoundedCache(namespace string, cfg *Config, ser serializer.Serializer, opt *options) *boundedCache {
	cfg.setDefaults()

	logger := opt.logger
	if logger == nil {
		logger = clog.Discard()
	}
	now := opt.now
	if now == nil {
		now = time.Now
	}

	c := &boundedCache{
		namespace:  namespace,
		cfg:        cfg,
		ser:        ser,
		logger:     logger,
		meter:      opt.meter,
		now:        now,
		items:      make(map[string]*list.Element),
		lru:        list.New(),
		byCategory: make(map[string]int),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	logger.Info("bounded cache created",
		clog.String("namespace", namespace),
		clog.Int64("max_total_bytes", cfg.MaxTotalBytes),
		clog.Int("max_entries", cfg.MaxEntries),
		clog.Duration("sweep_interval", cfg.SweepInterval))

	go c.sweepLoop()
	return c
}

// Get 查询缓存，惰性处理过期条目
func (c *boundedCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		c.count(MetricMissesTotal, "")
		return nil, false
	}

	e := el.Value.(*entry)
	if c.expired(e) {
		c.removeLocked(el, "expired")
		c.misses++
		c.count(MetricMissesTotal, "")
		return nil, false
	}

	e.lastAccessedAt = c.now()
	e.accessCount++
	c.lru.MoveToFront(el)
	c.hits++
	c.count(MetricHitsTotal, "")
	return e.value, true
}

// Set 写入缓存，必要时先淘汰直至容量恢复
func (c *boundedCache) Set(key string, value any, category string) error {
	if key == "" {
		return ErrKeyEmpty
	}

	size := c.estimateSize(key, value)
	if size > c.cfg.MaxTotalBytes {
		return ErrValueTooLarge
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	// 覆盖写：先移除旧条目，不计入淘汰
	if el, ok := c.items[key]; ok {
		c.removeLocked(el, "")
	}

	for c.bytesUsed+size > c.cfg.MaxTotalBytes || len(c.items)+1 > c.cfg.MaxEntries {
		if !c.evictOneLocked() {
			break
		}
	}

	now := c.now()
	e := &entry{
		key:            key,
		value:          value,
		category:       category,
		sizeBytes:      size,
		createdAt:      now,
		lastAccessedAt: now,
	}
	c.items[key] = c.lru.PushFront(e)
	c.bytesUsed += size
	c.byCategory[category]++
	c.updateGauges()
	return nil
}

// Invalidate 按键模式批量移除条目
func (c *boundedCache) Invalidate(pattern string) int {
	match := func(key string) bool { return key == pattern }
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		match = func(key string) bool { return strings.HasPrefix(key, prefix) }
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, el := range c.items {
		if match(key) {
			c.removeLocked(el, "invalidated")
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("entries invalidated by pattern",
			clog.String("namespace", c.namespace),
			clog.String("pattern", pattern),
			clog.Int("removed", removed))
	}
	return removed
}

// InvalidateCategory 按类别批量移除条目
func (c *boundedCache) InvalidateCategory(category string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, el := range c.items {
		if el.Value.(*entry).category == category {
			c.removeLocked(el, "invalidated")
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("entries invalidated by category",
			clog.String("namespace", c.namespace),
			clog.String("category", category),
			clog.Int("removed", removed))
	}
	return removed
}

// Stats 返回运行时统计快照
func (c *boundedCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	byCategory := make(map[string]int, len(c.byCategory))
	for cat, n := range c.byCategory {
		byCategory[cat] = n
	}

	var hitRate float64
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Entries:           len(c.items),
		BytesUsed:         c.bytesUsed,
		Hits:              c.hits,
		Misses:            c.misses,
		HitRate:           hitRate,
		Evictions:         c.evictions,
		EntriesByCategory: byCategory,
	}
}

// Close 停止后台清扫任务并释放所有条目
func (c *boundedCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stop)
		<-c.done

		c.mu.Lock()
		c.closed = true
		c.items = make(map[string]*list.Element)
		c.lru.Init()
		c.bytesUsed = 0
		c.byCategory = make(map[string]int)
		c.updateGauges()
		c.mu.Unlock()

		c.logger.Info("bounded cache closed", clog.String("namespace", c.namespace))
	})
	return nil
}

// sweepLoop 周期性清理过期条目，由 Close 停止
func (c *boundedCache) sweepLoop() {
	defer close(c.done)

	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep 扫描并移除所有过期条目
func (c *boundedCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, el := range c.items {
		if c.expired(el.Value.(*entry)) {
			c.removeLocked(el, "expired")
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("expired entries swept",
			clog.String("namespace", c.namespace),
			clog.Int("removed", removed))
	}
}

// expired 判断条目是否超过所属类别的 TTL
func (c *boundedCache) expired(e *entry) bool {
	return c.now().Sub(e.createdAt) > c.cfg.ttlFor(e.category)
}

// evictOneLocked 淘汰一个条目：最久未访问者优先，
// 访问时间并列时淘汰访问次数最少的条目。返回是否有条目被淘汰。
func (c *boundedCache) evictOneLocked() bool {
	el := c.lru.Back()
	if el == nil {
		return false
	}

	victim := el
	oldest := el.Value.(*entry).lastAccessedAt
	for prev := el.Prev(); prev != nil; prev = prev.Prev() {
		e := prev.Value.(*entry)
		if !e.lastAccessedAt.Equal(oldest) {
			break
		}
		if e.accessCount < victim.Value.(*entry).accessCount {
			victim = prev
		}
	}

	e := victim.Value.(*entry)
	c.logger.Debug("entry evicted",
		clog.String("namespace", c.namespace),
		clog.String("key", e.key),
		clog.String("category", e.category),
		clog.Int64("size_bytes", e.sizeBytes))

	c.removeLocked(victim, "lru")
	c.evictions++
	return true
}

// removeLocked 从索引中移除条目并更新记账，reason 非空时记一次移除指标
func (c *boundedCache) removeLocked(el *list.Element, reason string) {
	e := el.Value.(*entry)
	c.lru.Remove(el)
	delete(c.items, e.key)
	c.bytesUsed -= e.sizeBytes
	if c.byCategory[e.category]--; c.byCategory[e.category] <= 0 {
		delete(c.byCategory, e.category)
	}
	if reason != "" {
		c.count(MetricEvictionsTotal, reason)
	}
	c.updateGauges()
}

// estimateSize 估算条目占用字节数
//
// 优先用序列化器估算值的编码体积，无法序列化的值退化为
// 字符串表示长度的粗略估计。键长计入占用。
func (c *boundedCache) estimateSize(key string, value any) int64 {
	data, err := c.ser.Marshal(value)
	if err != nil {
		c.logger.Debug("size estimation fell back to string form",
			clog.String("namespace", c.namespace),
			clog.String("key", key),
			clog.Error(err))
		return int64(len(key) + len(fmt.Sprintf("%v", value)))
	}
	return int64(len(key) + len(data))
}

// count 记一次计数指标
func (c *boundedCache) count(name, reason string) {
	if c.meter == nil {
		return
	}
	labelNames := []string{LabelNamespace}
	labels := []metrics.Label{metrics.L(LabelNamespace, c.namespace)}
	if name == MetricEvictionsTotal {
		labelNames = append(labelNames, LabelReason)
		labels = append(labels, metrics.L(LabelReason, reason))
	}
	counter, err := c.meter.Counter(name, "Bounded cache events", labelNames...)
	if err == nil && counter != nil {
		counter.Inc(context.Background(), labels...)
	}
}

// updateGauges 刷新条目数与字节占用仪表盘
func (c *boundedCache) updateGauges() {
	if c.meter == nil {
		return
	}
	ctx := context.Background()
	if g, err := c.meter.Gauge(MetricEntries, "Bounded cache entry count", LabelNamespace); err == nil && g != nil {
		g.Set(ctx, float64(len(c.items)), metrics.L(LabelNamespace, c.namespace))
	}
	if g, err := c.meter.Gauge(MetricBytesUsed, "Bounded cache estimated bytes", LabelNamespace); err == nil && g != nil {
		g.Set(ctx, float64(c.bytesUsed), metrics.L(LabelNamespace, c.namespace))
	}
}
