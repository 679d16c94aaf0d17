package domain

import "github.com/shopspring/decimal"

func init() {
	// Prices and totals are written as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

var hundred = decimal.NewFromInt(100)

func unitPrice(price, discount decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(1).Sub(discount.Div(hundred)))
}

// EffectivePrice is price * (1 - discount/100), rounded to cents for display.
func EffectivePrice(price, discount decimal.Decimal) decimal.Decimal {
	return RoundMoney(unitPrice(price, discount))
}

// LineTotal is price * (1 - discount/100) * quantity. It is not rounded:
// sum the lines first, then round the total with RoundMoney.
func LineTotal(price, discount decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice(price, discount).Mul(decimal.NewFromInt(int64(quantity)))
}

// RoundMoney rounds an amount to cents.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}
