// internal/domain/product/price.go
package product

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParsePrice converts a decimal price string into minor currency units,
// rounding half away from zero to two decimals. Unparsable, negative or
// out-of-range input yields 0 instead of an error.
func ParsePrice(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return 0
	}

	minor := d.Round(2).Mul(hundred)
	if !minor.IsInteger() || minor.GreaterThan(decimal.NewFromInt(1<<53)) {
		return 0
	}
	return minor.IntPart()
}

// FormatPrice renders minor units as a two-decimal string
func FormatPrice(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
