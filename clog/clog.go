// Package clog 为 Aegis 组件库提供基于 slog 的结构化日志组件。
//
// 特性：
//   - 抽象接口，不暴露底层实现（slog）
//   - 支持层级命名空间，便于区分组件来源
//   - 零外部依赖（仅依赖 Go 标准库）
//   - 采用函数式选项模式，符合 Aegis 标准
//
// 基本使用：
//
//	logger, _ := clog.New(&clog.Config{
//	    Level:  "info",
//	    Format: "console",
//	    Output: "stdout",
//	})
//	logger.Info("cache ready", clog.Int("capacity", 10000))
//
// 使用函数式选项：
//
//	logger, _ := clog.New(&clog.Config{Level: "info"},
//	    clog.WithNamespace("aegis", "swr"),
//	)
package clog

import "context"

// Logger 日志接口，提供结构化日志记录功能
//
// 支持四个日志级别：Debug、Info、Warn、Error，
// 每个级别都有带 Context 和不带 Context 的版本。
//
// 创建子 Logger：
//
//	childLogger := logger.With(clog.String("dependency", "openai"))
//	namespacedLogger := logger.WithNamespace("breaker")
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// 带 Context 的日志级别方法
	DebugContext(ctx context.Context, msg string, fields ...Field)
	InfoContext(ctx context.Context, msg string, fields ...Field)
	WarnContext(ctx context.Context, msg string, fields ...Field)
	ErrorContext(ctx context.Context, msg string, fields ...Field)

	// With 创建一个带有预设字段的子 Logger
	With(fields ...Field) Logger

	// WithNamespace 创建一个扩展命名空间的子 Logger
	//
	// 命名空间会追加到现有的命名空间后面，以 "." 连接。
	WithNamespace(parts ...string) Logger

	// SetLevel 动态调整日志级别
	SetLevel(level Level) error
}

// New 创建 Logger 实例
//
// 参数:
//   - cfg: 日志配置，nil 时使用默认值（info/console/stdout）
//   - opts: 可选参数 (Namespace)
func New(cfg *Config, opts ...Option) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts...)
	return newLogger(cfg, o)
}
