// Package payment 捷克银行账号 → IBAN 转换与 SPD（Short Payment Descriptor）二维码支付串生成
package payment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAccount = errors.New("无效的银行账号")
	ErrInvalidIBAN    = errors.New("无效的 IBAN")
)

// 捷克账号模 11 校验权重（自右向左对齐）
var (
	prefixWeights = []int{10, 5, 8, 4, 2, 1}
	numberWeights = []int{6, 3, 7, 9, 10, 5, 8, 4, 2, 1}
)

// Account 解析后的捷克国内账号
type Account struct {
	Prefix   string // 最多 6 位，可为空
	Number   string // 2–10 位
	BankCode string // 4 位
}

// String 还原为 "prefix-number/bank" 形式
func (a Account) String() string {
	if a.Prefix != "" && strings.Trim(a.Prefix, "0") != "" {
		return a.Prefix + "-" + a.Number + "/" + a.BankCode
	}
	return a.Number + "/" + a.BankCode
}

// ParseCzechAccount 解析 "[prefix-]number/bank" 格式账号并做模 11 校验
func ParseCzechAccount(s string) (Account, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")

	body, bank, ok := strings.Cut(s, "/")
	if !ok || len(bank) != 4 || !isDigits(bank) {
		return Account{}, fmt.Errorf("%w: 银行代码必须为 4 位数字", ErrInvalidAccount)
	}

	prefix, number, hasPrefix := strings.Cut(body, "-")
	if !hasPrefix {
		prefix, number = "", body
	}
	if hasPrefix && (prefix == "" || len(prefix) > 6 || !isDigits(prefix)) {
		return Account{}, fmt.Errorf("%w: 前缀最多 6 位数字", ErrInvalidAccount)
	}
	if len(number) < 2 || len(number) > 10 || !isDigits(number) {
		return Account{}, fmt.Errorf("%w: 账号必须为 2–10 位数字", ErrInvalidAccount)
	}

	if prefix != "" && !mod11(leftPad(prefix, 6), prefixWeights) {
		return Account{}, fmt.Errorf("%w: 前缀校验失败", ErrInvalidAccount)
	}
	if !mod11(leftPad(number, 10), numberWeights) {
		return Account{}, fmt.Errorf("%w: 账号校验失败", ErrInvalidAccount)
	}

	return Account{Prefix: prefix, Number: number, BankCode: bank}, nil
}

// IBAN 生成紧凑格式 IBAN：CZkk BBBB PPPPPP NNNNNNNNNN（无空格）
func (a Account) IBAN() string {
	bban := a.BankCode + leftPad(a.Prefix, 6) + leftPad(a.Number, 10)
	check := 98 - mod97(bban+"CZ00")
	return fmt.Sprintf("CZ%02d%s", check, bban)
}

// IBANFromCzechAccount 账号字符串直接转 IBAN
func IBANFromCzechAccount(s string) (string, error) {
	acc, err := ParseCzechAccount(s)
	if err != nil {
		return "", err
	}
	return acc.IBAN(), nil
}

// ValidateIBAN ISO 13616 模 97 校验，允许空格
func ValidateIBAN(iban string) error {
	iban = strings.ToUpper(strings.ReplaceAll(iban, " ", ""))
	if len(iban) < 15 || len(iban) > 34 {
		return ErrInvalidIBAN
	}
	for _, r := range iban {
		if !(r >= '0' && r <= '9') && !(r >= 'A' && r <= 'Z') {
			return ErrInvalidIBAN
		}
	}
	if mod97(iban[4:]+iban[:4]) != 1 {
		return ErrInvalidIBAN
	}
	return nil
}

// FormatIBAN 每 4 位插入空格，便于展示
func FormatIBAN(iban string) string {
	iban = strings.ReplaceAll(iban, " ", "")
	var b strings.Builder
	for i, r := range iban {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// mod97 对字母数字串按 ISO 7064 逐位取模，字母 A=10 … Z=35
func mod97(s string) int {
	rem := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			rem = (rem*10 + int(r-'0')) % 97
		case r >= 'A' && r <= 'Z':
			v := int(r-'A') + 10
			rem = (rem*100 + v) % 97
		}
	}
	return rem
}

func mod11(digits string, weights []int) bool {
	sum := 0
	for i, r := range digits {
		sum += int(r-'0') * weights[i]
	}
	return sum%11 == 0
}

func leftPad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
