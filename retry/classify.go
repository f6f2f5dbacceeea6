package retry

import (
	"context"
	"net"

	"github.com/ceyewan/aegis/xerrors"
)

// Class 错误类别
//
// 外部错误在被捕获的边界处归类一次，之后全链路只看类别，
// 不再做字符串匹配之类的二次推断。
type Class int

const (
	// ClassUnknown 未知错误，默认可重试
	ClassUnknown Class = iota
	// ClassRateLimit 限流/配额错误，可重试
	ClassRateLimit
	// ClassAuth 认证/鉴权错误，永远不可重试
	ClassAuth
	// ClassNetwork 网络错误或超时，可重试
	ClassNetwork
	// ClassContentPolicy 内容策略拒绝，永远不可重试
	ClassContentPolicy
	// ClassParse 响应解析错误，不可重试（重试大概率得到同样的响应）
	ClassParse
)

// String 返回类别的字符串表示
func (c Class) String() string {
	switch c {
	case ClassRateLimit:
		return "rate_limit"
	case ClassAuth:
		return "auth"
	case ClassNetwork:
		return "network_timeout"
	case ClassContentPolicy:
		return "content_policy"
	case ClassParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Retryable 返回该类别是否默认可重试
//
// 只有 rate_limit、network_timeout 与 unknown 可重试；
// auth 与 content_policy 无论剩余尝试次数多少都立即失败。
func (c Class) Retryable() bool {
	switch c {
	case ClassRateLimit, ClassNetwork, ClassUnknown:
		return true
	default:
		return false
	}
}

// Classifier 错误分类函数
type Classifier func(err error) Class

// ClassifiedError 携带类别标签的错误
//
// 在外部错误进入系统的边界处由适配器创建（如 gRPC 状态码映射、
// AI 服务商 SDK 错误转换），链路内部通过 ClassOf 读取。
type ClassifiedError struct {
	Class Class
	Err   error
}

func (e *ClassifiedError) Error() string {
	if e.Err != nil {
		return e.Class.String() + ": " + e.Err.Error()
	}
	return e.Class.String()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Classify 在边界处给错误打上类别标签
func Classify(err error, class Class) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{Class: class, Err: err}
}

// ClassOf 从错误链中提取类别
//
// 优先级：显式的 ClassifiedError 标签 > 标准库网络/超时错误 > unknown。
func ClassOf(err error) Class {
	if err == nil {
		return ClassUnknown
	}

	var classified *ClassifiedError
	if xerrors.As(err, &classified) {
		return classified.Class
	}

	if xerrors.Is(err, context.DeadlineExceeded) {
		return ClassNetwork
	}

	var netErr net.Error
	if xerrors.As(err, &netErr) {
		return ClassNetwork
	}

	return ClassUnknown
}

// DefaultClassifier 默认错误分类函数
var DefaultClassifier Classifier = ClassOf
