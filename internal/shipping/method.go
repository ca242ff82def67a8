package shipping

import (
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/zone"
)

// Method is a configured shipping method. The concrete types below are the
// only implementations; quoteMethod switches over them.
type Method interface {
	Info() MethodInfo
	sealed()
}

// MethodInfo is shared by every method variant.
type MethodInfo struct {
	ID            string
	Name          string
	Carrier       string
	EstimatedDays int
}

func (i MethodInfo) Info() MethodInfo { return i }
func (MethodInfo) sealed()            {}

// FixedRate charges the same cost for every cart.
type FixedRate struct {
	MethodInfo
	Cost domain.Money
}

// WeightBased charges a base cost plus a per-kilogram rate and refuses carts
// heavier than MaxWeightGrams (zero means unlimited).
type WeightBased struct {
	MethodInfo
	BaseCost       domain.Money
	RatePerKg      domain.Money
	MaxWeightGrams int64
}

// CarrierCalculated approximates a carrier rate as base cost plus a weight
// surcharge until a live rate integration exists.
type CarrierCalculated struct {
	MethodInfo
	BaseCost  domain.Money
	RatePerKg domain.Money
}

// ZoneBased charges a per-zone flat rate. Zones without a rate get no quote.
type ZoneBased struct {
	MethodInfo
	Rates map[zone.Class]domain.Money
}

// FreeOver is offered at no cost once the subtotal reaches MinSubtotal.
type FreeOver struct {
	MethodInfo
	MinSubtotal domain.Money
}

type cartMetrics struct {
	subtotal    domain.Money
	weightGrams int64
}

func quoteMethod(m Method, metrics cartMetrics, z zone.Zone) (Quote, bool, error) {
	info := m.Info()
	q := Quote{
		MethodID:      info.ID,
		MethodName:    info.Name,
		Carrier:       info.Carrier,
		EstimatedDays: info.EstimatedDays,
	}
	switch v := m.(type) {
	case FixedRate:
		q.Cost = v.Cost
	case WeightBased:
		if v.MaxWeightGrams > 0 && metrics.weightGrams > v.MaxWeightGrams {
			return Quote{}, false, fmt.Errorf("%w: method %s allows %dg, cart weighs %dg", ErrWeightLimitExceeded, info.ID, v.MaxWeightGrams, metrics.weightGrams)
		}
		q.Cost = v.BaseCost + weightCost(metrics.weightGrams, v.RatePerKg)
	case CarrierCalculated:
		q.Cost = v.BaseCost + weightCost(metrics.weightGrams, v.RatePerKg)
	case ZoneBased:
		rate, ok := v.Rates[z.Class]
		if !ok {
			return Quote{}, false, nil
		}
		q.Cost = rate
	case FreeOver:
		if metrics.subtotal < v.MinSubtotal {
			return Quote{}, false, nil
		}
		q.IsFree = true
	default:
		return Quote{}, false, fmt.Errorf("shipping: unsupported method type %T", m)
	}
	if q.Cost == 0 {
		q.IsFree = true
	}
	return q, true, nil
}

// weightCost prices grams at a per-kilogram rate, rounding half up.
func weightCost(grams int64, ratePerKg domain.Money) domain.Money {
	if grams <= 0 || ratePerKg <= 0 {
		return 0
	}
	return domain.Money((grams*int64(ratePerKg) + 500) / 1000)
}
