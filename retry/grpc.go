package retry

import (
	"context"

	"github.com/ceyewan/aegis/breaker"
	"github.com/ceyewan/aegis/clog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UnaryClientInterceptor 返回 gRPC 一元调用客户端拦截器
// 为每个 gRPC 调用提供重试 + 熔断保护
//
// 使用示例:
//
//	ex, _ := retry.New(policy, retry.WithLogger(logger))
//	group, _ := breaker.NewGroup(breakerCfg)
//	conn, _ := grpc.NewClient(
//		"localhost:9001",
//		grpc.WithUnaryInterceptor(ex.UnaryClientInterceptor(group)),
//	)
func (e *executor) UnaryClientInterceptor(group *breaker.Group) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		// 按连接目标取熔断器（一个后端一个熔断器）
		target := cc.Target()
		brk := group.Get(target)

		e.logger.Debug("unary call with retry protection",
			clog.String("dependency", target),
			clog.String("method", method))

		_, err := e.Do(ctx, brk, func(ctx context.Context) (any, error) {
			if err := invoker(ctx, method, req, reply, cc, opts...); err != nil {
				// 在边界处完成分类，链路内部不再推断
				return nil, Classify(err, GRPCClass(err))
			}
			return nil, nil
		})
		return err
	}
}

// GRPCClass 将 gRPC 状态码映射为错误类别
//
// 非 gRPC 错误（无状态码）返回 ClassUnknown。
func GRPCClass(err error) Class {
	st, ok := status.FromError(err)
	if !ok {
		return ClassUnknown
	}

	switch st.Code() {
	case codes.ResourceExhausted:
		return ClassRateLimit
	case codes.Unauthenticated:
		return ClassAuth
	case codes.PermissionDenied:
		return ClassContentPolicy
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted:
		return ClassNetwork
	case codes.InvalidArgument, codes.DataLoss:
		return ClassParse
	default:
		return ClassUnknown
	}
}
