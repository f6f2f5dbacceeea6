package swr

import (
	"context"
	"time"

	"github.com/ceyewan/aegis/xerrors"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// redisStore 基于 Redis 的 Store 实现
//
// 条目以 msgpack 编码的 Envelope 存储，ttl 直接映射为 Redis
// 原生过期时间。跨进程共享同一份缓存时用这个实现。
type redisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisStore 在 Redis 之上创建 Store
//
// keyPrefix 为空时使用 "aegis:swr:"。
//
// 注意：值经过 msgpack 往返后，结构体会还原为通用类型
// (map[string]any 等)，需要具体类型的调用方应自行做二次解码
// 或在 Fetcher 内返回可往返的类型。
func NewRedisStore(client redis.UniversalClient, keyPrefix string) Store {
	if keyPrefix == "" {
		keyPrefix = "aegis:swr:"
	}
	return &redisStore{client: client, keyPrefix: keyPrefix}
}

func (s *redisStore) Get(ctx context.Context, key string) (Envelope, bool, error) {
	data, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if err == redis.Nil {
		return Envelope{}, false, nil
	}
	if err != nil {
		return Envelope{}, false, xerrors.Wrap(err, "swr: redis get")
	}

	var env Envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return Envelope{}, false, xerrors.Wrap(err, "swr: decode envelope")
	}
	return env, true, nil
}

func (s *redisStore) Set(ctx context.Context, key string, env Envelope, ttl time.Duration) error {
	data, err := msgpack.Marshal(env)
	if err != nil {
		return xerrors.Wrap(err, "swr: encode envelope")
	}
	if err := s.client.Set(ctx, s.keyPrefix+key, data, ttl).Err(); err != nil {
		return xerrors.Wrap(err, "swr: redis set")
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return xerrors.Wrap(err, "swr: redis del")
	}
	return nil
}
