package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"

	"github.com/JoeShih716/go-interest-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-interest-ledger/internal/app/core/usecase"
)

const keyPrefix = "account/"

// AccountStore 以 Badger KV 實作的帳戶儲存，value 為帳戶 JSON
type AccountStore struct {
	db *badger.DB
}

func NewAccountStore(db *badger.DB) *AccountStore {
	return &AccountStore{db: db}
}

// Open 開啟 Badger 資料庫，dir 為空字串時使用純記憶體模式
func Open(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	return badger.Open(opts)
}

func accountKey(id string) []byte {
	return []byte(keyPrefix + id)
}

// GetAccount 取得帳戶
func (s *AccountStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(accountKey(id))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %s: %w", id, err)
	}

	var account domain.Account
	if err := json.Unmarshal(raw, &account); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", id, err)
	}
	return &account, nil
}

// PutAccount 寫入帳戶
func (s *AccountStore) PutAccount(ctx context.Context, id string, account *domain.Account) error {
	raw, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encode account %s: %w", id, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(accountKey(id), raw)
	})
}

// Count 目前帳戶數量
func (s *AccountStore) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

var _ usecase.AccountStore = (*AccountStore)(nil)
