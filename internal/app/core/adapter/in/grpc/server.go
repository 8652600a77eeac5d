package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/JoeShih716/go-interest-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-interest-ledger/internal/app/core/usecase"
	pb "github.com/JoeShih716/go-interest-ledger/proto"
)

type GrpcServer struct {
	pb.UnimplementedLedgerServiceServer
	ledger *usecase.AccountLedger
}

func NewGrpcServer(ledger *usecase.AccountLedger) *GrpcServer {
	return &GrpcServer{
		ledger: ledger,
	}
}

func (s *GrpcServer) OpenAccount(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	created, err := s.ledger.OpenAccount(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.Bool(created), nil
}

func (s *GrpcServer) DepositFunds(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	accountID, amount, err := parseDeposit(req)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.DepositFunds(ctx, accountID, amount); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GrpcServer) CalculateInterest(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.ledger.CalculateInterest(ctx, req.GetValue()); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GrpcServer) GetStatement(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	statement, err := s.ledger.GetStatement(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	list, err := statementToList(statement)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return list, nil
}

// parseDeposit 取出 account_id 與 amount，amount 必須是整數 (最小貨幣單位)
func parseDeposit(req *structpb.Struct) (string, int64, error) {
	fields := req.GetFields()

	idValue, ok := fields[pb.FieldAccountID]
	if !ok {
		return "", 0, status.Error(codes.InvalidArgument, "account_id is required")
	}
	if _, isString := idValue.GetKind().(*structpb.Value_StringValue); !isString {
		return "", 0, status.Error(codes.InvalidArgument, "account_id must be a string")
	}

	amountValue, ok := fields[pb.FieldAmount]
	if !ok {
		return "", 0, status.Error(codes.InvalidArgument, "amount is required")
	}
	if _, isNumber := amountValue.GetKind().(*structpb.Value_NumberValue); !isNumber {
		return "", 0, status.Error(codes.InvalidArgument, "amount must be a number")
	}
	amount := amountValue.GetNumberValue()
	if math.Trunc(amount) != amount || amount >= math.MaxInt64 || amount < math.MinInt64 {
		return "", 0, status.Error(codes.InvalidArgument, "amount must be a whole number of minor units")
	}
	return idValue.GetStringValue(), int64(amount), nil
}

// statementToList 將交易紀錄轉成與帳戶 JSON 相同格式的 ListValue
func statementToList(statement []domain.Transaction) (*structpb.ListValue, error) {
	raw, err := json.Marshal(domain.TransactionList(statement))
	if err != nil {
		return nil, err
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return structpb.NewList(items)
}

// toStatus 將 domain 錯誤對應成 gRPC status code
func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
