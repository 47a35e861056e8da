package checkout

import (
	"strconv"
	"strings"

	"pix-storefront/internal/domain"
)

// FormatCPF маскирует CPF как 000.000.000-00 по мере ввода. Лишние цифры отбрасываются.
func FormatCPF(value string) string {
	digits := limit(domain.Digits(value), 11)
	var b strings.Builder
	for i, r := range digits {
		switch i {
		case 3, 6:
			b.WriteByte('.')
		case 9:
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatPhone маскирует телефон как (00) 00000-0000, десятизначный номер как (00) 0000-0000.
func FormatPhone(value string) string {
	digits := limit(domain.Digits(value), 11)
	if len(digits) <= 2 {
		return digits
	}
	split := 6
	if len(digits) == 11 {
		split = 7
	}
	var b strings.Builder
	b.WriteString("(" + digits[:2] + ") ")
	if len(digits) <= split {
		b.WriteString(digits[2:])
		return b.String()
	}
	b.WriteString(digits[2:split] + "-" + digits[split:])
	return b.String()
}

// ParsePrice разбирает цену вида "R$ 19,90". Нераспознанная строка даёт 0.
func ParsePrice(price string) float64 {
	var b strings.Builder
	comma := false
	for _, r := range price {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ',' && !comma:
			b.WriteByte('.')
			comma = true
		}
	}
	value, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return value
}

// FormatPrice печатает сумму в бразильском формате: R$ 19,90.
func FormatPrice(amount float64) string {
	return "R$ " + strings.Replace(strconv.FormatFloat(amount, 'f', 2, 64), ".", ",", 1)
}

func limit(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
