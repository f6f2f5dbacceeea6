package cache

import "github.com/ceyewan/aegis/xerrors"

// 错误定义
var (
	// ErrConfigNil 配置为 nil
	ErrConfigNil = xerrors.New("cache: config is nil")

	// ErrNamespaceEmpty 缓存命名空间为空
	ErrNamespaceEmpty = xerrors.New("cache: namespace is empty")

	// ErrKeyEmpty 键为空
	ErrKeyEmpty = xerrors.New("cache: key is empty")

	// ErrValueTooLarge 单个值超过缓存字节总量上限
	ErrValueTooLarge = xerrors.New("cache: value exceeds max total bytes")

	// ErrClosed 缓存已关闭
	ErrClosed = xerrors.New("cache: already closed")
)
