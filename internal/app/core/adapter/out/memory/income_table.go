package memory

import (
	"context"
	"strings"

	"github.com/JoeShih716/go-interest-ledger/internal/app/core/usecase"
)

// IncomeTable 固定的收入對照表，開發環境與測試使用
type IncomeTable struct {
	incomes map[string]int64
}

// NewIncomeTable 建立收入對照表，帳號統一轉成小寫
func NewIncomeTable(incomes map[string]int64) *IncomeTable {
	table := &IncomeTable{incomes: make(map[string]int64, len(incomes))}
	for id, income := range incomes {
		table.incomes[strings.ToLower(id)] = income
	}
	return table
}

// GetIncome 查無資料時 ok=false
func (t *IncomeTable) GetIncome(ctx context.Context, id string) (int64, bool, error) {
	income, ok := t.incomes[strings.ToLower(id)]
	return income, ok, nil
}

var _ usecase.IncomeLookup = (*IncomeTable)(nil)
