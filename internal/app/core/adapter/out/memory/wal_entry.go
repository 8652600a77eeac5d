package memory

import (
	"github.com/JoeShih716/go-interest-ledger/internal/app/core/domain"
)

type walOp string

const (
	opOpen     walOp = "open"
	opDeposit  walOp = "deposit"
	opInterest walOp = "interest"
	opSnapshot walOp = "snapshot"
)

// walEntry WAL 中的一筆帳戶變動
//
// open 帶 income / rate；deposit、interest 帶 amount 與變動後的 balance、fraction；
// snapshot 帶完整帳戶，用於 compaction 與無法以單筆變動表示的寫入。
type walEntry struct {
	AccountID string          `json:"account_id"`
	Op        walOp           `json:"op"`
	Income    *int64          `json:"income,omitempty"`
	Rate      float64         `json:"rate,omitempty"`
	Amount    int64           `json:"amount,omitempty"`
	Balance   int64           `json:"balance,omitempty"`
	Fraction  float64         `json:"fraction,omitempty"`
	Account   *domain.Account `json:"account,omitempty"`
}

func snapshotEntry(account *domain.Account) walEntry {
	return walEntry{AccountID: account.ID, Op: opSnapshot, Account: account}
}

// diffEntry 比較寫入前後的帳戶，決定要記錄的 WAL 內容
//
// 回傳 changed=false 代表內容沒有變動，不需要寫 WAL。
func diffEntry(prev, next *domain.Account) (walEntry, bool) {
	if prev == nil {
		if len(next.Transactions) == 0 && next.Balance == 0 && next.Fraction == 0 {
			return walEntry{AccountID: next.ID, Op: opOpen, Income: next.Income, Rate: next.Rate}, true
		}
		return snapshotEntry(next), true
	}

	if !sameProfile(prev, next) || len(next.Transactions) < len(prev.Transactions) {
		return snapshotEntry(next), true
	}
	switch len(next.Transactions) - len(prev.Transactions) {
	case 0:
		if next.Balance == prev.Balance && next.Fraction == prev.Fraction {
			return walEntry{}, false
		}
		return snapshotEntry(next), true
	case 1:
	default:
		return snapshotEntry(next), true
	}

	// 只新增一筆交易：確認既有紀錄沒被改動，且餘額與最後一筆一致
	if n := len(prev.Transactions); n > 0 && next.Transactions[n-1] != prev.Transactions[n-1] {
		return snapshotEntry(next), true
	}
	tran := next.Transactions[len(next.Transactions)-1]
	if tran.BalanceAfter() != next.Balance {
		return snapshotEntry(next), true
	}

	entry := walEntry{
		AccountID: next.ID,
		Amount:    tran.Delta(),
		Balance:   next.Balance,
		Fraction:  next.Fraction,
	}
	switch tran.Kind() {
	case domain.TransactionTypeDeposit:
		entry.Op = opDeposit
	case domain.TransactionTypeInterest:
		entry.Op = opInterest
	default:
		return snapshotEntry(next), true
	}
	return entry, true
}

func sameProfile(a, b *domain.Account) bool {
	if a.Rate != b.Rate {
		return false
	}
	if (a.Income == nil) != (b.Income == nil) {
		return false
	}
	return a.Income == nil || *a.Income == *b.Income
}
