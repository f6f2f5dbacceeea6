package clog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/ceyewan/aegis/xerrors"
)

// loggerImpl 是 Logger 接口的具体实现
type loggerImpl struct {
	handler   slog.Handler
	levelVar  *slog.LevelVar
	namespace string
	baseAttrs []slog.Attr
}

// newLogger 创建 Logger 实例（内部使用）
func newLogger(cfg *Config, opts *options) (Logger, error) {
	level, _ := ParseLevel(cfg.Level)

	levelVar := new(slog.LevelVar)
	levelVar.Set(level.toSlog())

	w, err := resolveOutput(cfg, opts)
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     levelVar,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return &loggerImpl{
		handler:   handler,
		levelVar:  levelVar,
		namespace: strings.Join(opts.namespaceParts, "."),
	}, nil
}

// resolveOutput 根据配置解析输出目标
func resolveOutput(cfg *Config, opts *options) (io.Writer, error) {
	if opts.writer != nil {
		return opts.writer, nil
	}
	switch cfg.Output {
	case "stdout", "":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, xerrors.Wrapf(err, "failed to open log output %s", cfg.Output)
		}
		return f, nil
	}
}

func (l *loggerImpl) Debug(msg string, fields ...Field) {
	l.log(context.Background(), DebugLevel, msg, fields...)
}

func (l *loggerImpl) Info(msg string, fields ...Field) {
	l.log(context.Background(), InfoLevel, msg, fields...)
}

func (l *loggerImpl) Warn(msg string, fields ...Field) {
	l.log(context.Background(), WarnLevel, msg, fields...)
}

func (l *loggerImpl) Error(msg string, fields ...Field) {
	l.log(context.Background(), ErrorLevel, msg, fields...)
}

func (l *loggerImpl) DebugContext(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, DebugLevel, msg, fields...)
}

func (l *loggerImpl) InfoContext(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, InfoLevel, msg, fields...)
}

func (l *loggerImpl) WarnContext(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, WarnLevel, msg, fields...)
}

func (l *loggerImpl) ErrorContext(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, ErrorLevel, msg, fields...)
}

func (l *loggerImpl) With(fields ...Field) Logger {
	return &loggerImpl{
		handler:   l.handler,
		levelVar:  l.levelVar,
		namespace: l.namespace,
		baseAttrs: append(append([]slog.Attr{}, l.baseAttrs...), fields...),
	}
}

func (l *loggerImpl) WithNamespace(parts ...string) Logger {
	ns := l.namespace
	joined := strings.Join(parts, ".")
	if ns == "" {
		ns = joined
	} else if joined != "" {
		ns = ns + "." + joined
	}

	return &loggerImpl{
		handler:   l.handler,
		levelVar:  l.levelVar,
		namespace: ns,
		baseAttrs: l.baseAttrs,
	}
}

// SetLevel 动态调整日志级别
//
// 所有由同一个 New 派生出的子 Logger 共享级别变量。
func (l *loggerImpl) SetLevel(level Level) error {
	l.levelVar.Set(level.toSlog())
	return nil
}

// log 统一的日志写入入口（内部使用）
func (l *loggerImpl) log(ctx context.Context, level Level, msg string, fields ...Field) {
	slogLevel := level.toSlog()
	if !l.handler.Enabled(ctx, slogLevel) {
		return
	}

	attrs := make([]slog.Attr, 0, len(l.baseAttrs)+len(fields)+1)
	if l.namespace != "" {
		attrs = append(attrs, slog.String("namespace", l.namespace))
	}
	attrs = append(attrs, l.baseAttrs...)
	attrs = append(attrs, fields...)

	// 获取正确的程序计数器(PC)值，用于准确的源码位置
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // skip: runtime.Callers, log, Debug/Info/...
	record := slog.NewRecord(time.Now(), slogLevel, msg, pcs[0])
	record.AddAttrs(attrs...)

	// 日志失败不应影响业务逻辑，错误直接丢弃
	_ = l.handler.Handle(ctx, record)
}
