package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatRand renders an amount as South African rand with two decimals and
// thousand separators, rounding half up so display totals match the sum of
// displayed parts.
func FormatRand(amount float64) string {
	fixed := decimal.NewFromFloat(amount).Round(2).StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + "R" + groupThousands(whole) + "." + frac
}

// groupThousands inserts commas into a plain digit string.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatCompact renders large amounts in millions or thousands for chart
// labels and summary cards.
func FormatCompact(amount float64) string {
	switch {
	case amount >= 1_000_000:
		return fmt.Sprintf("R%.2fM", amount/1_000_000)
	case amount >= 1_000:
		return fmt.Sprintf("R%dK", int(amount/1_000))
	default:
		return FormatRand(amount)
	}
}

// FormatMonths renders a payoff horizon, using the infinity marker when the
// payment never clears the balance.
func FormatMonths(months int, never bool) string {
	if never {
		return "∞"
	}
	if months >= 12 {
		years := months / 12
		rem := months % 12
		if rem == 0 {
			return fmt.Sprintf("%dy", years)
		}
		return fmt.Sprintf("%dy %dm", years, rem)
	}
	return fmt.Sprintf("%dm", months)
}

// FormatPercent renders a percentage with one decimal place.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
