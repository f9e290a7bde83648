package pos

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a wire money string into a decimal. Empty or
// malformed input becomes zero so one broken record cannot poison a
// whole report.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatAmount renders a decimal the way the ledger stores it, with
// exactly two fraction digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatRupiah renders an amount for display, e.g. "Rp 12.500".
// Fractions are dropped; rupiah prices are whole numbers in practice.
func FormatRupiah(d decimal.Decimal) string {
	neg := d.IsNegative()
	digits := d.Abs().Round(0).String()

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("Rp ")
	rem := len(digits) % 3
	if rem > 0 {
		b.WriteString(digits[:rem])
		if len(digits) > rem {
			b.WriteByte('.')
		}
	}
	for i := rem; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte('.')
		}
	}
	return b.String()
}
