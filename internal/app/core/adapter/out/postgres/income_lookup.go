package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JoeShih716/go-interest-ledger/internal/app/core/usecase"
)

// 統計表的帳號大小寫不一定，一律以小寫比對
const selectIncome = `SELECT income FROM income_statistics WHERE lower(account_id) = $1`

// Querier 只需要單筆查詢，*pgxpool.Pool 與 pgx.Tx 都符合
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// IncomeLookup 從統計資料庫查詢帳戶收入
type IncomeLookup struct {
	db Querier
}

func NewIncomeLookup(db Querier) *IncomeLookup {
	return &IncomeLookup{db: db}
}

// GetIncome 查詢收入
//
// 查無資料列或 income 為 NULL 皆視為沒有資料 (ok=false)。
func (l *IncomeLookup) GetIncome(ctx context.Context, id string) (int64, bool, error) {
	var income *int64
	err := l.db.QueryRow(ctx, selectIncome, strings.ToLower(id)).Scan(&income)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query income %s: %w", id, err)
	}
	if income == nil {
		return 0, false, nil
	}
	return *income, true, nil
}

// Connect 建立統計資料庫連線池並確認可連線
//
// 參數:
//
//	ctx: context.Context - 連線逾時控制
//	dsn: string - postgres 連線字串
//
// 回傳:
//
//	*pgxpool.Pool: 連線池
//	error: 解析或連線失敗
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 0
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to reach postgres: %w", err)
	}
	return pool, nil
}

var _ usecase.IncomeLookup = (*IncomeLookup)(nil)
