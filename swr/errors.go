package swr

import "github.com/ceyewan/aegis/xerrors"

// 错误定义
var (
	// ErrConfigNil 配置为 nil
	ErrConfigNil = xerrors.New("swr: config is nil")

	// ErrStoreNil 存储后端为 nil
	ErrStoreNil = xerrors.New("swr: store is nil")

	// ErrKeyEmpty 键为空
	ErrKeyEmpty = xerrors.New("swr: key is empty")

	// ErrFetcherNil 取数回调为 nil
	ErrFetcherNil = xerrors.New("swr: fetcher is nil")

	// ErrInvalidWindow 新鲜窗口非法，要求 0 < swrWindow <= ttl
	ErrInvalidWindow = xerrors.New("swr: invalid swr window")

	// ErrStoreUnavailable 存储后端故障
	// 只出现在日志里，永远不会返回给 GetOrRefresh 的调用方
	ErrStoreUnavailable = xerrors.New("swr: store unavailable")

	// ErrClosed 读穿层已关闭
	ErrClosed = xerrors.New("swr: already closed")

	// ErrShutdownTimeout 关闭时等待在途刷新超时
	ErrShutdownTimeout = xerrors.New("swr: shutdown timed out waiting for refreshes")
)
