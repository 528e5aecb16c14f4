package core

import "github.com/shopspring/decimal"

// CurrencySymbol prefixes formatted amounts.
const CurrencySymbol = "₹"

// FormatAmount renders an amount with two decimals, e.g. "₹1250.50".
func FormatAmount(v float64) string {
	d := decimal.NewFromFloat(v)
	if d.IsNegative() {
		return "-" + CurrencySymbol + d.Neg().StringFixed(2)
	}
	return CurrencySymbol + d.StringFixed(2)
}

// FormatPercent renders a percentage with one decimal, e.g. "42.5%".
func FormatPercent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1) + "%"
}
