package payment

import (
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// Fee is a payment method fee schedule.
type Fee interface {
	Compute(amount domain.Money) domain.Money
}

// NoFee charges nothing.
type NoFee struct{}

func (NoFee) Compute(domain.Money) domain.Money { return 0 }

// FlatFee charges a fixed amount regardless of order value.
type FlatFee struct {
	Amount domain.Money
}

func (f FlatFee) Compute(domain.Money) domain.Money { return f.Amount }

// PercentFee charges a percentage rounded to whole currency units.
type PercentFee struct {
	Percent decimal.Decimal
}

func (f PercentFee) Compute(amount domain.Money) domain.Money {
	if amount <= 0 {
		return 0
	}
	return amount.Percent(f.Percent)
}

// PercentPlusFlat charges a rounded percentage plus a fixed amount.
type PercentPlusFlat struct {
	Percent decimal.Decimal
	Flat    domain.Money
}

func (f PercentPlusFlat) Compute(amount domain.Money) domain.Money {
	if amount <= 0 {
		return f.Flat
	}
	return amount.Percent(f.Percent) + f.Flat
}
