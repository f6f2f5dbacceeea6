package pressure

import "github.com/ceyewan/aegis/xerrors"

// 错误定义
var (
	// ErrConfigNil 配置为 nil
	ErrConfigNil = xerrors.New("pressure: config is nil")

	// ErrInvalidLevel 无法识别的水位字符串
	ErrInvalidLevel = xerrors.New("pressure: invalid level")
)
