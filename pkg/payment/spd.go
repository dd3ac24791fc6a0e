package payment

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxMessageLen SPD 的 MSG 字段上限
const maxMessageLen = 60

var ErrInvalidPayment = errors.New("无效的支付信息")

// Payment 生成二维码支付串所需字段
type Payment struct {
	IBAN           string
	Amount         decimal.Decimal
	Currency       string // 默认 CZK
	Message        string
	VariableSymbol string // 可选，最多 10 位数字
}

// SPD 生成 "SPD*1.0*ACC:...*AM:...*CC:...*MSG:..." 支付串
func SPD(p Payment) (string, error) {
	iban := strings.ToUpper(strings.ReplaceAll(p.IBAN, " ", ""))
	if err := ValidateIBAN(iban); err != nil {
		return "", err
	}
	if !p.Amount.IsPositive() {
		return "", fmt.Errorf("%w: 金额必须大于 0", ErrInvalidPayment)
	}
	if p.VariableSymbol != "" && (len(p.VariableSymbol) > 10 || !isDigits(p.VariableSymbol)) {
		return "", fmt.Errorf("%w: 变量符号最多 10 位数字", ErrInvalidPayment)
	}

	currency := p.Currency
	if currency == "" {
		currency = "CZK"
	}

	parts := []string{
		"SPD", "1.0",
		"ACC:" + iban,
		"AM:" + p.Amount.StringFixed(2),
		"CC:" + strings.ToUpper(currency),
	}
	if msg := sanitizeMessage(p.Message); msg != "" {
		parts = append(parts, "MSG:"+msg)
	}
	if p.VariableSymbol != "" {
		parts = append(parts, "X-VS:"+p.VariableSymbol)
	}
	return strings.Join(parts, "*"), nil
}

// QRCode 将支付串渲染为 PNG
func QRCode(spd string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(spd, qrcode.Medium, size)
}

// sanitizeMessage 去掉变音符号与分隔符 '*'，截断到 60 个字符
func sanitizeMessage(msg string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, msg)
	if err != nil {
		folded = msg
	}
	folded = strings.ReplaceAll(folded, "*", " ")
	folded = strings.Join(strings.Fields(folded), " ")

	r := []rune(folded)
	if len(r) > maxMessageLen {
		r = r[:maxMessageLen]
	}
	return strings.TrimSpace(string(r))
}
