package domain_test

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-interest-ledger/internal/app/core/domain"
)

func income(v int64) *int64 { return &v }

func TestValidateAccountID(t *testing.T) {
	valid := []string{
		"88224979-0001-4e32-9458-55836e4e1f95",
		"88224979-0001-4E32-A458-55836E4E1F95",
		"00000000-0000-4000-b000-000000000000",
	}
	for _, id := range valid {
		got, err := domain.ValidateAccountID(id)
		assert.NoError(t, err, id)
		assert.Regexp(t, `^[0-9a-f-]+$`, got)
	}

	invalid := []string{
		"",
		"not-a-uuid",
		"88224979-0001-3e32-9458-55836e4e1f95",  // version 3
		"88224979-0001-4e32-c458-55836e4e1f95",  // variant c
		"88224979-0001-4e32-9458-55836e4e1f9",   // short
		"88224979-0001-4e32-9458-55836e4e1f955", // long
		"882249790001-4e32-9458-55836e4e1f95",
		"g8224979-0001-4e32-9458-55836e4e1f95",
		" 88224979-0001-4e32-9458-55836e4e1f95",
		"{88224979-0001-4e32-9458-55836e4e1f95}",
	}
	for _, id := range invalid {
		_, err := domain.ValidateAccountID(id)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, id)
	}
}

func TestValidateAccountID_Normalizes(t *testing.T) {
	got, err := domain.ValidateAccountID("88224979-0001-4E32-9458-55836E4E1F95")
	require.NoError(t, err)
	assert.Equal(t, "88224979-0001-4e32-9458-55836e4e1f95", got)
}

func TestRateForIncome(t *testing.T) {
	assert.Equal(t, 1.02, domain.RateForIncome(income(675699)))
	assert.Equal(t, 0.93, domain.RateForIncome(income(305634)))
	assert.Equal(t, 1.02, domain.RateForIncome(income(500000)))
	assert.Equal(t, 0.93, domain.RateForIncome(income(499999)))
	assert.Equal(t, 0.93, domain.RateForIncome(income(0)))
	assert.Equal(t, 0.5, domain.RateForIncome(nil))
}

func TestAccount_Deposit(t *testing.T) {
	acc := domain.NewAccount("88224979-0001-4e32-9458-55836e4e1f95", nil)

	require.NoError(t, acc.Deposit(50000))
	require.NoError(t, acc.Deposit(10000))
	require.NoError(t, acc.Deposit(20000))

	assert.Equal(t, int64(80000), acc.Balance)
	require.Len(t, acc.Transactions, 3)
	for i, want := range []int64{50000, 60000, 80000} {
		assert.Equal(t, domain.TransactionTypeDeposit, acc.Transactions[i].Kind())
		assert.Equal(t, want, acc.Transactions[i].BalanceAfter())
	}
	assert.NoError(t, acc.Verify())
}

func TestAccount_DepositRejectsNonPositive(t *testing.T) {
	acc := domain.NewAccount("88224979-0001-4e32-9458-55836e4e1f95", nil)

	for _, amount := range []int64{0, -200} {
		err := acc.Deposit(amount)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	}
	assert.Zero(t, acc.Balance)
	assert.Empty(t, acc.Transactions)
}

func TestAccount_AccrueInterest(t *testing.T) {
	cases := []struct {
		rate      float64
		first     int64
		after31   int64
		firstGain int64
	}{
		{rate: 1.02, first: 245674, after31: 246274, firstGain: 20},
		{rate: 0.93, first: 245672, after31: 246212, firstGain: 18},
		{rate: 0.5, first: 245664, after31: 245964, firstGain: 10},
	}

	for _, tc := range cases {
		acc := &domain.Account{Rate: tc.rate}
		require.NoError(t, acc.Deposit(245654))

		applied := acc.AccrueInterest()
		assert.Equal(t, tc.firstGain, applied)
		assert.Equal(t, tc.first, acc.Balance)
		assert.Greater(t, acc.Fraction, 0.0)
		assert.Less(t, acc.Fraction, 1.0)

		for i := 0; i < 30; i++ {
			acc.AccrueInterest()
		}
		assert.Equal(t, tc.after31, acc.Balance, "rate %v", tc.rate)
		assert.Len(t, acc.Transactions, 32)
		assert.NoError(t, acc.Verify())
	}
}

func TestAccruePeriod_CarriesFraction(t *testing.T) {
	// 此利率下每期利息 = 本金的 1%
	rate := 365.0 / 3.0
	applied, fraction := domain.AccruePeriod(40, 0, rate)
	assert.Equal(t, int64(0), applied)
	assert.InDelta(t, 0.4, fraction, 1e-9)

	// 小數併入本金一起計息
	applied, fraction = domain.AccruePeriod(40, fraction, rate)
	assert.Equal(t, int64(0), applied)
	assert.InDelta(t, 0.404, fraction, 1e-9)

	applied, fraction = domain.AccruePeriod(99, 1.5, rate)
	assert.Equal(t, int64(1), applied)
	assert.InDelta(t, 0.005, fraction, 1e-9)
}

func TestAccount_AccrueInterestOnEmptyAccount(t *testing.T) {
	acc := domain.NewAccount("88224979-0004-4e32-9458-55836e4e1f95", nil)

	assert.Equal(t, int64(0), acc.AccrueInterest())
	assert.Zero(t, acc.Balance)
	assert.Zero(t, acc.Fraction)
	require.Len(t, acc.Transactions, 1)
	assert.Equal(t, domain.TransactionTypeInterest, acc.Transactions[0].Kind())
}

func TestAccount_Clone(t *testing.T) {
	acc := domain.NewAccount("88224979-0001-4e32-9458-55836e4e1f95", income(675699))
	require.NoError(t, acc.Deposit(100))

	cp := acc.Clone()
	*cp.Income = 1
	require.NoError(t, cp.Deposit(5))
	cp.Transactions[0] = domain.DepositTransaction{AmountInPence: 999, Balance: 999}

	assert.Equal(t, int64(675699), *acc.Income)
	assert.Equal(t, int64(100), acc.Balance)
	assert.Len(t, acc.Transactions, 1)
	assert.Equal(t, int64(100), acc.Transactions[0].Delta())
}

func TestAccount_VerifyDetectsMismatch(t *testing.T) {
	acc := &domain.Account{
		ID:           "88224979-0001-4e32-9458-55836e4e1f95",
		Balance:      10,
		Transactions: domain.TransactionList{domain.DepositTransaction{AmountInPence: 5, Balance: 5}},
	}
	assert.ErrorIs(t, acc.Verify(), domain.ErrBalanceMismatch)
}

func TestTransactionList_JSON(t *testing.T) {
	acc := &domain.Account{Rate: 1.02}
	require.NoError(t, acc.Deposit(245654))
	acc.AccrueInterest()
	acc.AccrueInterest()

	raw, err := json.Marshal(acc.Transactions)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"type":"Deposit","amount_in_pence":245654,"balance":245654},
		{"type":"Interest","amount":20,"balance":245674},
		{"type":"Interest","amount":20,"balance":245694}
	]`, string(raw))

	// 與舊系統輸出的 statement 雜湊一致
	sum := sha1.Sum(raw)
	assert.Equal(t, "20133bdad947a85fd72f672c5672f8a92fcac863", hex.EncodeToString(sum[:]))

	var decoded domain.TransactionList
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, acc.Transactions, decoded)
}

func TestTransactionList_UnknownType(t *testing.T) {
	var list domain.TransactionList
	err := json.Unmarshal([]byte(`[{"type":"Withdraw","amount":1,"balance":0}]`), &list)
	assert.ErrorIs(t, err, domain.ErrUnknownTransactionType)
}

func TestAccount_JSONRoundTrip(t *testing.T) {
	acc := domain.NewAccount("88224979-0004-4e32-9458-55836e4e1f95", nil)

	raw, err := json.Marshal(acc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"88224979-0004-4e32-9458-55836e4e1f95","income":null,"rate":0.5,"balance":0,"fraction":0,"transaction_list":[]}`, string(raw))

	var decoded domain.Account
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Nil(t, decoded.Income)
	assert.Equal(t, 0.5, decoded.Rate)
	assert.Empty(t, decoded.Transactions)
}

func TestNewTransaction(t *testing.T) {
	tran, err := domain.NewTransaction(domain.TransactionTypeInterest, 7, 107)
	require.NoError(t, err)
	assert.Equal(t, domain.InterestTransaction{Amount: 7, Balance: 107}, tran)

	_, err = domain.NewTransaction("Bonus", 1, 1)
	assert.ErrorIs(t, err, domain.ErrUnknownTransactionType)
}

func TestFormatMinorUnits(t *testing.T) {
	assert.Equal(t, "2456.54", domain.FormatMinorUnits(245654))
	assert.Equal(t, "0.05", domain.FormatMinorUnits(5))
	assert.Equal(t, "0.00", domain.FormatMinorUnits(0))
}
