package domain

import "github.com/shopspring/decimal"

// MinorUnitExponent 最小貨幣單位的小數位數 (1 pound = 100 pence)
const MinorUnitExponent = -2

// FormatMinorUnits 將最小單位金額轉為兩位小數的字串 (245654 -> "2456.54")
func FormatMinorUnits(amount int64) string {
	return decimal.New(amount, MinorUnitExponent).StringFixed(2)
}
