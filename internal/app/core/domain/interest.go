package domain

import "math"

// 利率級距 (百分比)
const (
	RateNoIncomeData = 0.5
	RateLowIncome    = 0.93
	RateHighIncome   = 1.02

	// HighIncomeThreshold 收入 >= 此值使用高利率，單位與統計服務相同
	HighIncomeThreshold int64 = 500000
)

// 計息週期：一年 365 天 (不考慮閏年)，每次計 3 天
const (
	DaysInYear    = 365
	AccrualPeriod = 3
)

// RateForIncome 依收入決定利率
func RateForIncome(income *int64) float64 {
	switch {
	case income == nil:
		return RateNoIncomeData
	case *income < HighIncomeThreshold:
		return RateLowIncome
	default:
		return RateHighIncome
	}
}

// AccruePeriod 計算一期利息
//
// 以 balance + fraction 為本金計息，避免每次截斷小數造成利息流失；
// 截斷後的整數入帳，剩下的小數帶到下一期。
//
// 參數:
//
//	balance: 目前餘額
//	fraction: 上一期留下的小數
//	rate: 年利率 (百分比)
//
// 回傳:
//
//	applied: 本期入帳金額 (向零截斷)
//	remainder: 本期留下的小數
func AccruePeriod(balance int64, fraction, rate float64) (applied int64, remainder float64) {
	base := float64(balance) + fraction
	annualInterest := base * (rate / 100)
	periodInterest := (annualInterest / DaysInYear) * AccrualPeriod
	applied = int64(math.Trunc(periodInterest))
	return applied, periodInterest - float64(applied)
}
