package walletapi

import (
	"math"
	"strconv"
	"strings"
)

// FormatRupiah formats an amount the way Indonesian receipts do: Rp 1.234.567.
// Fractions are rounded to whole rupiah.
func FormatRupiah(amount float64) string {
	n := int64(math.Round(amount))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return sign + "Rp " + b.String()
}
