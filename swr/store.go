package swr

import (
	"context"
	"time"
)

// Envelope 存储层条目：值 + 写入时间
//
// CreatedAt 是新鲜度状态机的唯一依据，刷新成功时被覆盖为当前时间。
type Envelope struct {
	Data      any       `msgpack:"data"`
	CreatedAt time.Time `msgpack:"created_at"`
}

// Store SWR 后端存储接口
//
// 实现只负责存取，不做新鲜度判断；条目过期淘汰以 ttl 为上界，
// 提前淘汰是允许的（等价于未命中）。
// 所有错误都会被 swr 吞掉并降级，实现无需自行重试。
type Store interface {
	// Get 读取条目，未命中时 ok 为 false 且无错误
	Get(ctx context.Context, key string) (env Envelope, ok bool, err error)

	// Set 写入条目，ttl 为存储层的淘汰上界
	Set(ctx context.Context, key string, env Envelope, ttl time.Duration) error

	// Delete 移除条目，键不存在不视为错误
	Delete(ctx context.Context, key string) error
}
