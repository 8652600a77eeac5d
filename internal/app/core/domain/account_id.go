package domain

import (
	"regexp"
	"strings"
)

// accountIDPattern UUID v4 格式 (版本位固定為 4，variant 為 8/9/A/B)
var accountIDPattern = regexp.MustCompile(`(?i)^[0-9A-F]{8}-[0-9A-F]{4}-4[0-9A-F]{3}-[89AB][0-9A-F]{3}-[0-9A-F]{12}$`)

// ValidateAccountID 檢查帳號格式並回傳正規化 (小寫) 後的帳號
//
// 只做格式檢查，帳號是否存在由 AccountStore 決定。
func ValidateAccountID(id string) (string, error) {
	if !accountIDPattern.MatchString(id) {
		return "", ErrInvalidAccountID
	}
	return strings.ToLower(id), nil
}
