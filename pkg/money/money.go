// Package money 金额解析与格式化（CZK，两位小数）
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount 金额格式无效
var ErrInvalidAmount = errors.New("无效的金额")

// Currency 系统记账币种
const Currency = "CZK"

// Parse 解析用户输入的金额，支持 "1 234,50"、"1234.5"、"120"。
// 最多两位小数，允许负数（债务修正使用）。
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return decimal.Zero, fmt.Errorf("%w: 最多两位小数", ErrInvalidAmount)
	}
	return d.Round(2), nil
}

// ParsePositive 解析金额并要求大于 0
func ParsePositive(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return d, err
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: 金额必须大于 0", ErrInvalidAmount)
	}
	return d, nil
}

// Sum 求和
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Format 按捷克习惯格式化："1 234,50 Kč"
func Format(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}

	out := b.String() + "," + frac + " Kč"
	if neg {
		out = "-" + out
	}
	return out
}
