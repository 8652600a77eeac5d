package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestPool_ReusesConnection(t *testing.T) {
	p := NewPool(WithCallTimeout(time.Second))
	defer p.Close()

	first, err := p.GetConnection("localhost:50051")
	require.NoError(t, err)
	second, err := p.GetConnection("localhost:50051")
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := p.GetConnection("localhost:50052")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestPool_ReplacesClosedConnection(t *testing.T) {
	p := NewPool()
	defer p.Close()

	first, err := p.GetConnection("localhost:50051")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := p.GetConnection("localhost:50051")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestPool_Close(t *testing.T) {
	p := NewPool()
	_, err := p.GetConnection("localhost:50051")
	require.NoError(t, err)

	require.NoError(t, p.Close())
	_, ok := p.load("localhost:50051")
	assert.False(t, ok)
}

func TestTimeoutInterceptor(t *testing.T) {
	interceptor := TimeoutInterceptor(time.Minute)

	var hasDeadline bool
	invoker := func(ctx context.Context, _ string, _, _ any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	}

	require.NoError(t, interceptor(context.Background(), "/m", nil, nil, nil, invoker))
	assert.True(t, hasDeadline)

	// 呼叫端已設定的 deadline 不會被覆蓋
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	want, _ := ctx.Deadline()
	var got time.Time
	invoker = func(ctx context.Context, _ string, _, _ any, _ *grpc.ClientConn, _ ...grpc.CallOption) error {
		got, _ = ctx.Deadline()
		return nil
	}
	require.NoError(t, interceptor(ctx, "/m", nil, nil, nil, invoker))
	assert.Equal(t, want, got)
}

func TestLoggingInterceptor_PassesThroughError(t *testing.T) {
	interceptor := LoggingInterceptor(nil)
	want := status.Error(codes.NotFound, "account not found")

	err := interceptor(context.Background(), "/m", nil, nil, nil,
		func(context.Context, string, any, any, *grpc.ClientConn, ...grpc.CallOption) error { return want })
	assert.True(t, errors.Is(err, want))
}
