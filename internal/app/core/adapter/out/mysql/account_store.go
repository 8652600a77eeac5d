package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JoeShih716/go-interest-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-interest-ledger/internal/app/core/usecase"
)

// sqlAccount 對應資料庫的 interest_accounts 表
type sqlAccount struct {
	ID        string `gorm:"primaryKey;type:char(36)"`
	Income    *int64
	Rate      float64
	Balance   int64
	Fraction  float64
	UpdatedAt int64 `gorm:"autoUpdateTime:milli"` // 自動更新時間
}

func (*sqlAccount) TableName() string {
	return "interest_accounts"
}

// sqlTransaction 對應資料庫的 interest_transactions 表
type sqlTransaction struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	AccountID string `gorm:"type:char(36);uniqueIndex:idx_account_seq"`
	Seq       int    `gorm:"uniqueIndex:idx_account_seq"` // 交易在帳戶內的順序
	Type      string `gorm:"type:varchar(16)"`
	Amount    int64
	Balance   int64
	CreatedAt int64 `gorm:"autoCreateTime:milli"` // 自動寫入時間
}

func (*sqlTransaction) TableName() string {
	return "interest_transactions"
}

// AccountStore 以 GORM 實作的帳戶儲存
type AccountStore struct {
	db *gorm.DB
}

func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{
		db: db,
	}
}

// Migrate 建立或更新資料表
func (s *AccountStore) Migrate() error {
	return s.db.AutoMigrate(&sqlAccount{}, &sqlTransaction{})
}

// GetAccount 取得帳戶與交易紀錄 (依 seq 排序)
func (s *AccountStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	db := s.db.WithContext(ctx)

	var row sqlAccount
	err := db.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}

	var rows []sqlTransaction
	if err := db.Where("account_id = ?", id).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}

	account := &domain.Account{
		ID:           row.ID,
		Income:       row.Income,
		Rate:         row.Rate,
		Balance:      row.Balance,
		Fraction:     row.Fraction,
		Transactions: make(domain.TransactionList, 0, len(rows)),
	}
	for _, tranRow := range rows {
		tran, err := domain.NewTransaction(domain.TransactionType(tranRow.Type), tranRow.Amount, tranRow.Balance)
		if err != nil {
			return nil, err
		}
		account.Transactions = append(account.Transactions, tran)
	}
	return account, nil
}

// PutAccount 在同一個 DB Transaction 內更新帳戶並寫入新增的交易紀錄
//
// 交易紀錄只會追加，所以只寫入 seq 大於已存在筆數的部分。
func (s *AccountStore) PutAccount(ctx context.Context, id string, account *domain.Account) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := sqlAccount{
			ID:       id,
			Income:   account.Income,
			Rate:     account.Rate,
			Balance:  account.Balance,
			Fraction: account.Fraction,
		}
		// upsert 帳戶
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"balance", "fraction", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return fmt.Errorf("upsert account: %w", err)
		}

		var stored int64
		if err := tx.Model(&sqlTransaction{}).Where("account_id = ?", id).Count(&stored).Error; err != nil {
			return fmt.Errorf("count transactions: %w", err)
		}
		if int(stored) >= len(account.Transactions) {
			return nil
		}

		// 建立交易紀錄
		rows := make([]sqlTransaction, 0, len(account.Transactions)-int(stored))
		for seq := int(stored); seq < len(account.Transactions); seq++ {
			tran := account.Transactions[seq]
			rows = append(rows, sqlTransaction{
				AccountID: id,
				Seq:       seq,
				Type:      string(tran.Kind()),
				Amount:    tran.Delta(),
				Balance:   tran.BalanceAfter(),
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert transactions: %w", err)
		}
		return nil
	})
}

var _ usecase.AccountStore = (*AccountStore)(nil)
