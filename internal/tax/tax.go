// Package tax computes flat per-country sales tax on a cart.
package tax

import (
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

var defaultRates = map[string]string{
	"PK": "17",
	"AE": "5",
	"SA": "15",
	"IN": "18",
	"GB": "20",
	"DE": "19",
	"CA": "13",
	"AU": "10",
	"US": "0",
}

// Calculator applies a percentage rate keyed by ISO country code.
type Calculator struct {
	rates map[string]decimal.Decimal
}

func NewCalculator(rates map[string]decimal.Decimal) *Calculator {
	normalized := make(map[string]decimal.Decimal, len(rates))
	for country, rate := range rates {
		normalized[strings.ToUpper(strings.TrimSpace(country))] = rate
	}
	return &Calculator{rates: normalized}
}

// Default returns the built-in rate table.
func Default() *Calculator {
	rates := make(map[string]decimal.Decimal, len(defaultRates))
	for country, rate := range defaultRates {
		rates[country] = decimal.RequireFromString(rate)
	}
	return NewCalculator(rates)
}

// Rate returns the percentage for country, zero when unknown.
func (c *Calculator) Rate(country string) decimal.Decimal {
	return c.rates[strings.ToUpper(strings.TrimSpace(country))]
}

// Calculate returns subtotal × rate / 100 using live product prices.
func (c *Calculator) Calculate(lines []domain.CartLine, products domain.ProductSet, dest domain.Address) domain.Money {
	rate := c.Rate(dest.Country)
	if rate.IsZero() {
		return 0
	}
	return Subtotal(lines, products).PercentMinor(rate)
}

// Subtotal sums live price × quantity. Lines without a known product are skipped.
func Subtotal(lines []domain.CartLine, products domain.ProductSet) domain.Money {
	var total domain.Money
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok || l.Quantity <= 0 {
			continue
		}
		total += p.Price.Mul(l.Quantity)
	}
	return total
}
