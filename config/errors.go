package config

import "github.com/ceyewan/aegis/xerrors"

// 错误定义
var (
	// ErrNotLoaded 在 Load 之前调用了读取方法
	ErrNotLoaded = xerrors.New("config: loader not loaded")
)
