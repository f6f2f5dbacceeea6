package retry

import (
	"context"
	"net"
	"os"
	"testing"

	"github.com/ceyewan/aegis/xerrors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TestClassString 类别字符串表示
func TestClassString(t *testing.T) {
	tests := []struct {
		class Class
		want  string
	}{
		{ClassRateLimit, "rate_limit"},
		{ClassAuth, "auth"},
		{ClassNetwork, "network_timeout"},
		{ClassContentPolicy, "content_policy"},
		{ClassParse, "parse"},
		{ClassUnknown, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.class.String(); got != tt.want {
			t.Errorf("%v.String() = %s, want %s", tt.class, got, tt.want)
		}
	}
}

// TestClassRetryable 只有 rate_limit / network_timeout / unknown 可重试
func TestClassRetryable(t *testing.T) {
	retryable := []Class{ClassRateLimit, ClassNetwork, ClassUnknown}
	for _, c := range retryable {
		if !c.Retryable() {
			t.Errorf("%s should be retryable", c)
		}
	}

	fatal := []Class{ClassAuth, ClassContentPolicy, ClassParse}
	for _, c := range fatal {
		if c.Retryable() {
			t.Errorf("%s should not be retryable", c)
		}
	}
}

// TestClassifyAndClassOf 边界打标后链路内可提取
func TestClassifyAndClassOf(t *testing.T) {
	base := xerrors.New("quota exceeded")
	tagged := Classify(base, ClassRateLimit)

	if got := ClassOf(tagged); got != ClassRateLimit {
		t.Errorf("ClassOf = %s, want rate_limit", got)
	}
	if !xerrors.Is(tagged, base) {
		t.Error("classified error should unwrap to base")
	}

	// 多层包装后仍可提取
	wrapped := xerrors.Wrap(tagged, "call provider")
	if got := ClassOf(wrapped); got != ClassRateLimit {
		t.Errorf("ClassOf through wrap chain = %s, want rate_limit", got)
	}

	if Classify(nil, ClassAuth) != nil {
		t.Error("Classify(nil) should return nil")
	}
}

// TestClassOfTimeout 标准库超时错误归入 network_timeout
func TestClassOfTimeout(t *testing.T) {
	if got := ClassOf(context.DeadlineExceeded); got != ClassNetwork {
		t.Errorf("deadline exceeded should be network_timeout, got %s", got)
	}

	netErr := &net.OpError{Op: "dial", Err: os.ErrDeadlineExceeded}
	if got := ClassOf(netErr); got != ClassNetwork {
		t.Errorf("net.OpError should be network_timeout, got %s", got)
	}

	wrapped := xerrors.Wrap(context.DeadlineExceeded, "fetch embeddings")
	if got := ClassOf(wrapped); got != ClassNetwork {
		t.Errorf("wrapped deadline should be network_timeout, got %s", got)
	}
}

// TestClassOfUnknown 未打标的普通错误归入 unknown
func TestClassOfUnknown(t *testing.T) {
	if got := ClassOf(xerrors.New("something odd")); got != ClassUnknown {
		t.Errorf("plain error should be unknown, got %s", got)
	}
	if got := ClassOf(nil); got != ClassUnknown {
		t.Errorf("nil should be unknown, got %s", got)
	}
}

// TestGRPCClass gRPC 状态码映射
func TestGRPCClass(t *testing.T) {
	tests := []struct {
		code codes.Code
		want Class
	}{
		{codes.ResourceExhausted, ClassRateLimit},
		{codes.Unauthenticated, ClassAuth},
		{codes.PermissionDenied, ClassContentPolicy},
		{codes.Unavailable, ClassNetwork},
		{codes.DeadlineExceeded, ClassNetwork},
		{codes.Aborted, ClassNetwork},
		{codes.InvalidArgument, ClassParse},
		{codes.Internal, ClassUnknown},
	}

	for _, tt := range tests {
		err := status.Error(tt.code, "boom")
		if got := GRPCClass(err); got != tt.want {
			t.Errorf("GRPCClass(%s) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

// TestDefaultClassifierInExecutor 默认分类器驱动重试决策
func TestDefaultClassifierInExecutor(t *testing.T) {
	policy := testPolicy(3)
	ex, _ := New(policy)
	brk := testBreaker(t)

	// context.DeadlineExceeded 默认可重试
	calls := 0
	_, err := ex.Do(context.Background(), brk, func(ctx context.Context) (any, error) {
		calls++
		return nil, xerrors.Wrap(context.DeadlineExceeded, "provider timeout")
	})

	if calls != 3 {
		t.Errorf("deadline errors should be retried, got %d calls", calls)
	}
	var exhausted *ExhaustedError
	if !xerrors.As(err, &exhausted) {
		t.Fatalf("expected *ExhaustedError, got %T", err)
	}
	if exhausted.Class != ClassNetwork {
		t.Errorf("expected network_timeout class, got %s", exhausted.Class)
	}
}
