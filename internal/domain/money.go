package domain

import "github.com/shopspring/decimal"

// Money is an amount in minor currency units.
type Money int64

const minorDigits = 2

// Major converts whole currency units to Money.
func Major(units int64) Money {
	return Money(decimal.NewFromInt(units).Shift(minorDigits).IntPart())
}

// MoneyFromDecimal converts a major-unit decimal to Money, rounding half away from zero.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Shift(minorDigits).Round(0).IntPart())
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -minorDigits)
}

// Mul multiplies by an integer quantity.
func (m Money) Mul(qty int) Money {
	return m * Money(qty)
}

// Percent returns pct percent of m, rounded to whole major units.
// Fee schedules are quoted in whole currency units.
func (m Money) Percent(pct decimal.Decimal) Money {
	units := m.Decimal().Mul(pct).Div(decimal.NewFromInt(100)).Round(0)
	return MoneyFromDecimal(units)
}

// PercentMinor returns pct percent of m, rounded to the minor unit.
func (m Money) PercentMinor(pct decimal.Decimal) Money {
	v := decimal.NewFromInt(int64(m)).Mul(pct).Div(decimal.NewFromInt(100)).Round(0)
	return Money(v.IntPart())
}

func (m Money) String() string {
	return m.Decimal().StringFixed(minorDigits)
}
