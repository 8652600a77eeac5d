package domain

import "fmt"

// Account 計息帳戶
type Account struct {
	ID string `json:"id"`
	// Income 開戶時統計服務提供的收入，nil 代表沒有資料 (與 0 不同)
	Income *int64 `json:"income"`
	// Rate 年利率 (百分比，1.02 代表 1.02%)，開戶時決定後不再變動
	Rate float64 `json:"rate"`
	// Balance 餘額 (最小貨幣單位)
	Balance int64 `json:"balance"`
	// Fraction 上次計息未入帳的小數餘數
	Fraction float64 `json:"fraction"`
	// Transactions 交易紀錄，只會追加
	Transactions TransactionList `json:"transaction_list"`
}

// NewAccount 建立新帳戶，利率依收入決定
func NewAccount(id string, income *int64) *Account {
	return &Account{
		ID:           id,
		Income:       income,
		Rate:         RateForIncome(income),
		Transactions: TransactionList{},
	}
}

// Deposit 存款並追加一筆存款紀錄
func (a *Account) Deposit(amount int64) error {
	if amount <= 0 {
		return ErrAmountMustBePositive
	}
	a.Balance += amount
	a.Transactions = append(a.Transactions, DepositTransaction{AmountInPence: amount, Balance: a.Balance})
	return nil
}

// AccrueInterest 計算一期利息並入帳，回傳實際入帳金額
func (a *Account) AccrueInterest() int64 {
	applied, fraction := AccruePeriod(a.Balance, a.Fraction, a.Rate)
	a.Balance += applied
	a.Fraction = fraction
	a.Transactions = append(a.Transactions, InterestTransaction{Amount: applied, Balance: a.Balance})
	return applied
}

// Clone 深拷貝，避免呼叫端透過指標改到儲存層的資料
func (a *Account) Clone() *Account {
	cp := *a
	if a.Income != nil {
		income := *a.Income
		cp.Income = &income
	}
	cp.Transactions = make(TransactionList, len(a.Transactions))
	copy(cp.Transactions, a.Transactions)
	return &cp
}

// Verify 檢查餘額是否等於所有交易變動量的加總
func (a *Account) Verify() error {
	var sum int64
	for _, tran := range a.Transactions {
		sum += tran.Delta()
	}
	if sum != a.Balance {
		return fmt.Errorf("%w: account %s balance=%d sum=%d", ErrBalanceMismatch, a.ID, a.Balance, sum)
	}
	return nil
}
