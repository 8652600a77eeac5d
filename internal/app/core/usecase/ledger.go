package usecase

import (
	"context"
	"time"

	"github.com/JoeShih716/go-interest-ledger/internal/app/core/domain"
)

// AccountStore 帳戶儲存介面
//
// 每次 Get 後 Put 的讀改寫是否具原子性由實作決定，核心本身不加鎖。
type AccountStore interface {
	// GetAccount 取得帳戶，不存在時回傳 domain.ErrAccountNotFound
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	// PutAccount 寫入整筆帳戶資料
	PutAccount(ctx context.Context, id string, account *domain.Account) error
}

// IncomeLookup 收入統計服務介面
type IncomeLookup interface {
	// GetIncome 取得收入，ok=false 代表沒有資料 (與收入為 0 不同)
	GetIncome(ctx context.Context, id string) (income int64, ok bool, err error)
}

// Recorder 記錄核心操作的觀測資料 (metrics)
type Recorder interface {
	ObserveOperation(op string, d time.Duration, err error)
	ObserveInterest(rate float64, applied int64)
	ObserveAccountOpened(rate float64)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, time.Duration, error) {}
func (nopRecorder) ObserveInterest(float64, int64)               {}
func (nopRecorder) ObserveAccountOpened(float64)                 {}
