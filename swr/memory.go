package swr

import (
	"context"
	"time"

	"github.com/ceyewan/aegis/cache"
)

// memoryStore 基于进程内有界缓存的 Store 实现
type memoryStore struct {
	cache    cache.Cache
	category string
}

// NewMemoryStore 在有界缓存之上创建 Store
//
// 条目淘汰（LRU、字节上限、类别 TTL）完全由底层缓存负责，
// swr 自身的 ttl 判断是新鲜度的最终依据，二者取更严格者。
// category 为空时使用 "swr"。
func NewMemoryStore(c cache.Cache, category string) Store {
	if category == "" {
		category = "swr"
	}
	return &memoryStore{cache: c, category: category}
}

func (s *memoryStore) Get(ctx context.Context, key string) (Envelope, bool, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return Envelope{}, false, nil
	}
	env, ok := v.(Envelope)
	if !ok {
		// 键被其他调用方以不同类型复用，视为未命中
		return Envelope{}, false, nil
	}
	return env, true, nil
}

func (s *memoryStore) Set(ctx context.Context, key string, env Envelope, ttl time.Duration) error {
	return s.cache.Set(key, env, s.category)
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.cache.Invalidate(key)
	return nil
}
