package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JoeShih716/go-interest-ledger/internal/app/core/domain"
)

// 操作名稱，用於 log 與 metrics
const (
	OpOpenAccount       = "open_account"
	OpDepositFunds      = "deposit_funds"
	OpCalculateInterest = "calculate_interest"
	OpGetStatement      = "get_statement"
)

// AccountLedger 是核心業務邏輯層
//
// 本身不保存任何狀態，所有資料都經由 AccountStore 讀寫。
type AccountLedger struct {
	store    AccountStore
	incomes  IncomeLookup
	logger   *slog.Logger
	recorder Recorder
}

// Option 定義了 AccountLedger 的配置選項函數
type Option func(*AccountLedger)

// WithLogger 設定 logger
func WithLogger(logger *slog.Logger) Option {
	return func(l *AccountLedger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithRecorder 設定 metrics recorder
func WithRecorder(recorder Recorder) Option {
	return func(l *AccountLedger) {
		if recorder != nil {
			l.recorder = recorder
		}
	}
}

func NewAccountLedger(store AccountStore, incomes IncomeLookup, opts ...Option) *AccountLedger {
	l := &AccountLedger{
		store:    store,
		incomes:  incomes,
		logger:   slog.Default(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OpenAccount 開戶
//
// 參數:
//
//	ctx: 上下文
//	accountID: 帳號 (UUID v4)
//
// 回傳:
//
//	bool: true 開戶成功；false 帳戶已存在 (不是錯誤)
//	error: 帳號格式錯誤或儲存層錯誤
func (l *AccountLedger) OpenAccount(ctx context.Context, accountID string) (created bool, err error) {
	defer l.observe(OpOpenAccount, time.Now(), &err)

	id, err := domain.ValidateAccountID(accountID)
	if err != nil {
		return false, err
	}

	// 已存在就不再查詢收入
	_, err = l.store.GetAccount(ctx, id)
	if err == nil {
		l.logger.WarnContext(ctx, "account already exists", slog.String("account_id", id))
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("load account: %w", err)
	}

	amount, ok, err := l.incomes.GetIncome(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get income: %w", err)
	}
	var income *int64
	if ok {
		income = &amount
	}

	account := domain.NewAccount(id, income)
	if err := l.store.PutAccount(ctx, id, account); err != nil {
		return false, fmt.Errorf("save account: %w", err)
	}

	l.recorder.ObserveAccountOpened(account.Rate)
	l.logger.InfoContext(ctx, "account opened",
		slog.String("account_id", id),
		slog.Bool("has_income", ok),
		slog.Float64("rate", account.Rate))
	return true, nil
}

// DepositFunds 存款，金額必須大於 0
func (l *AccountLedger) DepositFunds(ctx context.Context, accountID string, amountInPence int64) (err error) {
	defer l.observe(OpDepositFunds, time.Now(), &err)

	id, err := domain.ValidateAccountID(accountID)
	if err != nil {
		return err
	}
	if amountInPence <= 0 {
		return domain.ErrAmountMustBePositive
	}

	account, err := l.load(ctx, id)
	if err != nil {
		return err
	}
	if err := account.Deposit(amountInPence); err != nil {
		return err
	}
	if err := l.store.PutAccount(ctx, id, account); err != nil {
		return fmt.Errorf("save account: %w", err)
	}

	l.logger.InfoContext(ctx, "deposit applied",
		slog.String("account_id", id),
		slog.Int64("amount", amountInPence),
		slog.Int64("balance", account.Balance))
	return nil
}

// CalculateInterest 計算一期 (3 天) 利息並入帳
func (l *AccountLedger) CalculateInterest(ctx context.Context, accountID string) (err error) {
	defer l.observe(OpCalculateInterest, time.Now(), &err)

	id, err := domain.ValidateAccountID(accountID)
	if err != nil {
		return err
	}

	account, err := l.load(ctx, id)
	if err != nil {
		return err
	}
	applied := account.AccrueInterest()
	if err := l.store.PutAccount(ctx, id, account); err != nil {
		return fmt.Errorf("save account: %w", err)
	}

	l.recorder.ObserveInterest(account.Rate, applied)
	l.logger.InfoContext(ctx, "interest applied",
		slog.String("account_id", id),
		slog.Int64("applied", applied),
		slog.Int64("balance", account.Balance),
		slog.Float64("fraction", account.Fraction))
	return nil
}

// GetStatement 取得交易紀錄 (依寫入順序)，唯讀
func (l *AccountLedger) GetStatement(ctx context.Context, accountID string) (statement []domain.Transaction, err error) {
	defer l.observe(OpGetStatement, time.Now(), &err)

	id, err := domain.ValidateAccountID(accountID)
	if err != nil {
		return nil, err
	}

	account, err := l.load(ctx, id)
	if err != nil {
		return nil, err
	}
	statement = make([]domain.Transaction, len(account.Transactions))
	copy(statement, account.Transactions)
	return statement, nil
}

// load 讀取帳戶，不存在時回傳 domain.ErrAccountNotFound
func (l *AccountLedger) load(ctx context.Context, id string) (*domain.Account, error) {
	account, err := l.store.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return account, nil
}

func (l *AccountLedger) observe(op string, start time.Time, err *error) {
	l.recorder.ObserveOperation(op, time.Since(start), *err)
}

// ResultLabel 把操作結果分類成 metrics 使用的 result label
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
