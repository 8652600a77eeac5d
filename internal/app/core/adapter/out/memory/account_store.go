package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/JoeShih716/go-interest-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-interest-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-interest-ledger/pkg/wal"
)

// AccountStore 是一個使用 Mutex 保護的記憶體帳戶儲存
//
// 結構:
//
//	accounts: 帳戶資料 Map
//	mu: RWMutex 用於保護帳戶資料
//	wal: Write-Ahead Log 實例 (可為 nil，代表純記憶體)
type AccountStore struct {
	accounts map[string]*domain.Account
	mu       sync.RWMutex
	// Write-Ahead Logging
	wal *wal.WAL
}

// NewAccountStore 建立一個新的 AccountStore 實例
//
// 參數:
//
//	wal: Write-Ahead Log 實例，nil 時不做持久化
//
// 回傳:
//
//	*AccountStore: AccountStore 實例
//	error: 初始化錯誤 (如 WAL 恢復失敗)
func NewAccountStore(wal *wal.WAL) (*AccountStore, error) {
	store := &AccountStore{
		accounts: make(map[string]*domain.Account),
		wal:      wal,
	}
	if wal == nil {
		return store, nil
	}
	if err := store.recoverFromWAL(); err != nil {
		return nil, err
	}
	return store, nil
}

// recoverFromWAL 依序重放 WAL，經由 domain.Account 重建每個帳戶
// 只有 NewAccountStore 呼叫，無需 Lock (單執行緒)
func (s *AccountStore) recoverFromWAL() error {
	return s.wal.Replay(func(rec wal.Record) error {
		var entry walEntry
		if err := json.Unmarshal(rec.Data, &entry); err != nil {
			return fmt.Errorf("wal seq %d: %w", rec.Seq, err)
		}
		if err := s.apply(entry); err != nil {
			return fmt.Errorf("wal seq %d: %w", rec.Seq, err)
		}
		return nil
	})
}

func (s *AccountStore) apply(entry walEntry) error {
	if entry.Op == opSnapshot {
		if entry.Account == nil {
			return fmt.Errorf("snapshot of %s has no account", entry.AccountID)
		}
		if err := entry.Account.Verify(); err != nil {
			return err
		}
		s.accounts[entry.AccountID] = entry.Account
		return nil
	}
	if entry.Op == opOpen {
		account := domain.NewAccount(entry.AccountID, entry.Income)
		account.Rate = entry.Rate
		s.accounts[entry.AccountID] = account
		return nil
	}

	account, ok := s.accounts[entry.AccountID]
	if !ok {
		return fmt.Errorf("%w: %s before open", domain.ErrAccountNotFound, entry.AccountID)
	}
	switch entry.Op {
	case opDeposit:
		if err := account.Deposit(entry.Amount); err != nil {
			return err
		}
	case opInterest:
		if applied := account.AccrueInterest(); applied != entry.Amount {
			return fmt.Errorf("%w: account %s interest %d, logged %d",
				domain.ErrBalanceMismatch, entry.AccountID, applied, entry.Amount)
		}
	default:
		return fmt.Errorf("unknown wal op %q", entry.Op)
	}
	if account.Balance != entry.Balance {
		return fmt.Errorf("%w: account %s balance %d, logged %d",
			domain.ErrBalanceMismatch, entry.AccountID, account.Balance, entry.Balance)
	}
	account.Fraction = entry.Fraction
	return nil
}

// GetAccount 取得帳戶 (回傳副本)
//
// 參數:
//
//	ctx: 上下文
//	id: 帳號
//
// 回傳:
//
//	*domain.Account: 帳戶副本
//	error: 帳戶不存在時為 domain.ErrAccountNotFound
func (s *AccountStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return account.Clone(), nil
}

// PutAccount 寫入帳戶
//
// 先寫 WAL 再更新 Map，WAL 寫入失敗時狀態不變。
// WAL 只記錄這次的變動 (開戶、一筆存款或一筆利息)，其他情況才寫完整快照。
//
// 參數:
//
//	ctx: 上下文
//	id: 帳號
//	account: 帳戶資料
//
// 回傳:
//
//	error: WAL 寫入錯誤
func (s *AccountStore) PutAccount(ctx context.Context, id string, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := account.Clone()
	snapshot.ID = id

	// 1. 寫入 WAL (Critical Path)
	if s.wal != nil {
		if entry, changed := diffEntry(s.accounts[id], snapshot); changed {
			if _, err := s.wal.Append(entry); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrWALWriteFailed, err)
			}
		}
	}

	// 2. 更新記憶體
	s.accounts[id] = snapshot
	return nil
}

// Compact 以每個帳戶目前的快照重寫 WAL，讓重啟時的重放量只與資料量有關
func (s *AccountStore) Compact() error {
	if s.wal == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Rewrite(func(emit func(v any) error) error {
		for _, id := range slices.Sorted(maps.Keys(s.accounts)) {
			if err := emit(snapshotEntry(s.accounts[id])); err != nil {
				return err
			}
		}
		return nil
	})
}

// Len 目前帳戶數量
func (s *AccountStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

var _ usecase.AccountStore = (*AccountStore)(nil)
