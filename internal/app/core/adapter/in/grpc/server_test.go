package grpc_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	grpcadapter "github.com/JoeShih716/go-interest-ledger/internal/app/core/adapter/in/grpc"
	"github.com/JoeShih716/go-interest-ledger/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-interest-ledger/internal/app/core/usecase"
	pb "github.com/JoeShih716/go-interest-ledger/proto"
)

const (
	highIncomeID = "88224979-0003-4e32-9458-55836e4e1f95"
	unknownID    = "88224979-0006-4e32-9458-55836e4e1f95"
)

func newTestClient(t *testing.T) pb.LedgerServiceClient {
	t.Helper()

	store, err := memory.NewAccountStore(nil)
	require.NoError(t, err)
	incomes := memory.NewIncomeTable(map[string]int64{highIncomeID: 500000})
	ledger := usecase.NewAccountLedger(store, incomes)

	lis := bufconn.Listen(1024 * 1024)
	s := grpc.NewServer(grpc.UnaryInterceptor(grpcadapter.LoggingInterceptor(nil)))
	pb.RegisterLedgerServiceServer(s, grpcadapter.NewGrpcServer(ledger))
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return pb.NewLedgerServiceClient(conn)
}

func TestGrpcServer_FullCycle(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	created, err := client.OpenAccount(ctx, wrapperspb.String(highIncomeID))
	require.NoError(t, err)
	assert.True(t, created.GetValue())

	created, err = client.OpenAccount(ctx, wrapperspb.String(highIncomeID))
	require.NoError(t, err)
	assert.False(t, created.GetValue())

	_, err = client.DepositFunds(ctx, pb.NewDepositRequest(highIncomeID, 245654))
	require.NoError(t, err)
	_, err = client.CalculateInterest(ctx, wrapperspb.String(highIncomeID))
	require.NoError(t, err)

	list, err := client.GetStatement(ctx, wrapperspb.String(highIncomeID))
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"type": "Deposit", "amount_in_pence": 245654.0, "balance": 245654.0},
		map[string]any{"type": "Interest", "amount": 20.0, "balance": 245674.0},
	}, list.AsSlice())
}

func TestGrpcServer_EmptyStatement(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.OpenAccount(ctx, wrapperspb.String(unknownID))
	require.NoError(t, err)

	list, err := client.GetStatement(ctx, wrapperspb.String(unknownID))
	require.NoError(t, err)
	assert.Empty(t, list.GetValues())
}

func TestGrpcServer_ErrorCodes(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.OpenAccount(ctx, wrapperspb.String("not-a-uuid"))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.CalculateInterest(ctx, wrapperspb.String(unknownID))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.GetStatement(ctx, wrapperspb.String(unknownID))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.OpenAccount(ctx, wrapperspb.String(highIncomeID))
	require.NoError(t, err)

	_, err = client.DepositFunds(ctx, pb.NewDepositRequest(highIncomeID, 0))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.DepositFunds(ctx, pb.NewDepositRequest(unknownID, 100))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGrpcServer_DepositRequestValidation(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	_, err := client.OpenAccount(ctx, wrapperspb.String(highIncomeID))
	require.NoError(t, err)

	tests := []struct {
		name   string
		fields map[string]*structpb.Value
	}{
		{name: "missing account_id", fields: map[string]*structpb.Value{
			pb.FieldAmount: structpb.NewNumberValue(100),
		}},
		{name: "missing amount", fields: map[string]*structpb.Value{
			pb.FieldAccountID: structpb.NewStringValue(highIncomeID),
		}},
		{name: "fractional amount", fields: map[string]*structpb.Value{
			pb.FieldAccountID: structpb.NewStringValue(highIncomeID),
			pb.FieldAmount:    structpb.NewNumberValue(10.5),
		}},
		{name: "amount as string", fields: map[string]*structpb.Value{
			pb.FieldAccountID: structpb.NewStringValue(highIncomeID),
			pb.FieldAmount:    structpb.NewStringValue("100"),
		}},
		{name: "account_id as number", fields: map[string]*structpb.Value{
			pb.FieldAccountID: structpb.NewNumberValue(1),
			pb.FieldAmount:    structpb.NewNumberValue(100),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.DepositFunds(ctx, &structpb.Struct{Fields: tt.fields})
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}

	list, err := client.GetStatement(ctx, wrapperspb.String(highIncomeID))
	require.NoError(t, err)
	assert.Empty(t, list.GetValues(), "rejected deposits must not be recorded")
}
