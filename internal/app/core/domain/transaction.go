package domain

import (
	"encoding/json"
	"fmt"
)

// TransactionType 交易類型，同時也是 JSON 中的 type 標籤
type TransactionType string

const (
	// 存款
	TransactionTypeDeposit TransactionType = "Deposit"
	// 利息
	TransactionTypeInterest TransactionType = "Interest"
)

// Transaction 帳戶交易紀錄 (Deposit / Interest 二選一)
type Transaction interface {
	// Kind 交易類型
	Kind() TransactionType
	// Delta 此筆交易對餘額的變動量
	Delta() int64
	// BalanceAfter 此筆交易後的餘額快照
	BalanceAfter() int64

	isTransaction()
}

// DepositTransaction 存款紀錄
type DepositTransaction struct {
	AmountInPence int64
	Balance       int64
}

func (DepositTransaction) Kind() TransactionType  { return TransactionTypeDeposit }
func (d DepositTransaction) Delta() int64        { return d.AmountInPence }
func (d DepositTransaction) BalanceAfter() int64 { return d.Balance }
func (DepositTransaction) isTransaction()        {}

// MarshalJSON 輸出 {"type":"Deposit","amount_in_pence":N,"balance":N}
func (d DepositTransaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type          TransactionType `json:"type"`
		AmountInPence int64           `json:"amount_in_pence"`
		Balance       int64           `json:"balance"`
	}{TransactionTypeDeposit, d.AmountInPence, d.Balance})
}

// InterestTransaction 利息紀錄，Amount 可能為 0
type InterestTransaction struct {
	Amount  int64
	Balance int64
}

func (InterestTransaction) Kind() TransactionType  { return TransactionTypeInterest }
func (i InterestTransaction) Delta() int64        { return i.Amount }
func (i InterestTransaction) BalanceAfter() int64 { return i.Balance }
func (InterestTransaction) isTransaction()        {}

// MarshalJSON 輸出 {"type":"Interest","amount":N,"balance":N}
func (i InterestTransaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    TransactionType `json:"type"`
		Amount  int64           `json:"amount"`
		Balance int64           `json:"balance"`
	}{TransactionTypeInterest, i.Amount, i.Balance})
}

// TransactionList 依寫入順序排列的交易紀錄
type TransactionList []Transaction

// rawTransaction 解碼用的中介結構，兩種交易的欄位聯集
type rawTransaction struct {
	Type          TransactionType `json:"type"`
	AmountInPence int64           `json:"amount_in_pence"`
	Amount        int64           `json:"amount"`
	Balance       int64           `json:"balance"`
}

// MarshalJSON 空清單輸出 [] 而不是 null
func (l TransactionList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Transaction(l))
}

// UnmarshalJSON 依 type 標籤還原成對應的交易型別
func (l *TransactionList) UnmarshalJSON(data []byte) error {
	var raws []rawTransaction
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	list := make(TransactionList, 0, len(raws))
	for _, raw := range raws {
		switch raw.Type {
		case TransactionTypeDeposit:
			list = append(list, DepositTransaction{AmountInPence: raw.AmountInPence, Balance: raw.Balance})
		case TransactionTypeInterest:
			list = append(list, InterestTransaction{Amount: raw.Amount, Balance: raw.Balance})
		default:
			return fmt.Errorf("%w: %q", ErrUnknownTransactionType, raw.Type)
		}
	}
	*l = list
	return nil
}

// NewTransaction 依類型建立交易紀錄，供各儲存層還原資料使用
func NewTransaction(kind TransactionType, amount, balance int64) (Transaction, error) {
	switch kind {
	case TransactionTypeDeposit:
		return DepositTransaction{AmountInPence: amount, Balance: balance}, nil
	case TransactionTypeInterest:
		return InterestTransaction{Amount: amount, Balance: balance}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransactionType, kind)
	}
}
