package retry

import (
	"fmt"
	"time"

	"github.com/ceyewan/aegis/breaker"
	"github.com/ceyewan/aegis/xerrors"
)

// 错误定义
var (
	// ErrPolicyNil 策略为空
	ErrPolicyNil = xerrors.New("retry: policy is nil")
)

// 机器可读错误码
//
// 执行器的终态错误都带码返回，调用方用 xerrors.GetCode 提取，
// 与 retry_outcomes_total 指标的 outcome 标签取值一致，
// 便于在网关层做统一的错误码到 HTTP 状态的映射。
const (
	// CodeRejected 熔断中被快速拒绝
	CodeRejected = "rejected"

	// CodeFatal 错误类别不可重试
	CodeFatal = "fatal"

	// CodeExhausted 重试次数用尽
	CodeExhausted = "exhausted"
)

// OpenError 熔断中，调用被快速拒绝，未发起任何尝试
//
// 调用方可以用 RetryAfter 提示用户"服务暂不可用，请 N 秒后重试"。
// 该错误不可在执行器之上重试。
type OpenError struct {
	// Dependency 被熔断的依赖名
	Dependency string

	// RetryAfter 距下一次探测窗口的建议等待时间
	RetryAfter time.Duration
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("retry: dependency %q unavailable (circuit open, retry after %s)",
		e.Dependency, e.RetryAfter.Round(time.Second))
}

// Unwrap 展开为 breaker.ErrOpenState，便于 errors.Is 判断
func (e *OpenError) Unwrap() error {
	return breaker.ErrOpenState
}

// ExhaustedError 可重试错误在用尽全部尝试次数后仍未成功
type ExhaustedError struct {
	// Attempts 实际发起的尝试次数
	Attempts int

	// Class 最后一次失败的错误类别
	Class Class

	// Err 最后一次失败的底层错误
	Err error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry: %d attempts exhausted (%s): %v", e.Attempts, e.Class, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// FatalError 错误类别不可重试，立即失败
//
// 无论剩余尝试次数多少，auth / content_policy / parse 类错误
// 都不会再次尝试，调用方也不应向用户建议重试。
type FatalError struct {
	// Attempts 实际发起的尝试次数（通常为 1）
	Attempts int

	// Class 错误类别
	Class Class

	// Err 底层错误
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("retry: fatal %s error after %d attempt(s): %v", e.Class, e.Attempts, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
