package domain

import "github.com/shopspring/decimal"

// DeliveryFee is shown to the customer alongside the cart total. It is
// informational: order gates and the composed message use the item total.
var DeliveryFee = decimal.NewFromInt(5)

// Prices are exact 2-decimal currency values. Intermediate sums keep full
// precision; Round2 is applied once after summation.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatPrice renders a value the way the order message expects it: two
// decimals, comma separator, no currency symbol ("18,00").
func FormatPrice(d decimal.Decimal) string {
	s := d.StringFixed(2)
	out := []byte(s)
	for i := range out {
		if out[i] == '.' {
			out[i] = ','
		}
	}
	return string(out)
}
