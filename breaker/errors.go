package breaker

import "github.com/ceyewan/aegis/xerrors"

// 错误定义
var (
	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.New("breaker: config is nil")

	// ErrNameEmpty 依赖名为空
	ErrNameEmpty = xerrors.New("breaker: dependency name is empty")

	// ErrOpenState 熔断器处于打开状态，依赖当前不可用
	//
	// 该错误对调用方而言不可重试：重试属于 retry 执行器与熔断器内部的职责，
	// 在其之上叠加重试只会放大故障。
	ErrOpenState = xerrors.New("breaker: circuit breaker is open")
)
