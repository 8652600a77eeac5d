package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument 參數不合法 (帳號格式錯誤、金額非正數)
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound 目標不存在
	ErrNotFound = errors.New("not found")
)

var (
	// ErrInvalidAccountID 帳號格式錯誤
	ErrInvalidAccountID = fmt.Errorf("%w: the account id is invalid", ErrInvalidArgument)

	// ErrAmountMustBePositive 存款金額必須大於 0
	ErrAmountMustBePositive = fmt.Errorf("%w: a deposit can not be zero or a negative number", ErrInvalidArgument)

	// ErrAccountNotFound 找不到帳戶
	ErrAccountNotFound = fmt.Errorf("%w: the account does not exist", ErrNotFound)

	// ErrUnknownTransactionType 無法辨識的交易類型
	ErrUnknownTransactionType = errors.New("unknown transaction type")

	// ErrBalanceMismatch 餘額與交易紀錄加總不一致
	ErrBalanceMismatch = errors.New("balance does not match transaction list")

	// ErrWALWriteFailed 寫入 WAL 失敗
	ErrWALWriteFailed = errors.New("wal write failed")
)
