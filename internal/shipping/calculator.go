// Package shipping turns a cart and a destination into ranked shipping quotes.
package shipping

import (
	"cmp"
	"errors"
	"slices"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/zone"
)

// ErrWeightLimitExceeded is returned when a weight-based method cannot carry the cart.
var ErrWeightLimitExceeded = errors.New("shipping: weight limit exceeded")

const (
	MethodNoShipping = "no_shipping"
	MethodStandard   = "standard"
	MethodExpress    = "express"
	MethodCOD        = "cod"
	MethodUnverified = "standard_unverified"
)

// Quote is one candidate shipping option.
type Quote struct {
	MethodID      string       `json:"methodId"`
	MethodName    string       `json:"methodName"`
	Cost          domain.Money `json:"cost"`
	EstimatedDays int          `json:"estimatedDays,omitempty"`
	Carrier       string       `json:"carrier,omitempty"`
	IsFree        bool         `json:"isFree"`
}

// Policy holds the tier pricing knobs.
type Policy struct {
	ExpressMultiplier decimal.Decimal
	CODSurcharge      domain.Money
	UnknownZoneCost   domain.Money
	UnknownZoneDays   int
}

func DefaultPolicy() Policy {
	return Policy{
		ExpressMultiplier: decimal.RequireFromString("1.5"),
		CODSurcharge:      domain.Major(50),
		UnknownZoneCost:   domain.Major(500),
		UnknownZoneDays:   10,
	}
}

// Calculator is stateless after construction and safe for concurrent use.
type Calculator struct {
	zones   *zone.Registry
	policy  Policy
	methods []Method
}

func NewCalculator(zones *zone.Registry, policy Policy, methods ...Method) *Calculator {
	if zones == nil {
		zones = zone.Default()
	}
	if policy.ExpressMultiplier.IsZero() {
		policy.ExpressMultiplier = DefaultPolicy().ExpressMultiplier
	}
	return &Calculator{zones: zones, policy: policy, methods: methods}
}

// Calculate returns quotes sorted ascending by cost. Subtotal uses live
// prices across the whole cart; weight only counts items that ship.
func (c *Calculator) Calculate(lines []domain.CartLine, products domain.ProductSet, dest domain.Address) ([]Quote, error) {
	metrics, shippable := measure(lines, products)
	if !shippable {
		return []Quote{{MethodID: MethodNoShipping, MethodName: "No shipping required", IsFree: true}}, nil
	}

	z, ok := c.zones.Resolve(dest)
	if !ok {
		return []Quote{{
			MethodID:      MethodUnverified,
			MethodName:    "Standard delivery (unverified area)",
			Cost:          c.policy.UnknownZoneCost,
			EstimatedDays: c.policy.UnknownZoneDays,
		}}, nil
	}

	standard := z.BaseRate
	free := metrics.subtotal >= z.FreeShippingThreshold
	if free {
		standard = 0
	}

	quotes := []Quote{{
		MethodID:      MethodStandard,
		MethodName:    "Standard delivery",
		Cost:          standard,
		EstimatedDays: z.EstimatedDays,
		IsFree:        free,
	}}

	if z.Class == zone.Metro || z.Class == zone.Urban {
		express := domain.Money(0)
		if !free {
			express = domain.Money(decimal.NewFromInt(int64(standard)).Mul(c.policy.ExpressMultiplier).Round(0).IntPart())
		}
		quotes = append(quotes, Quote{
			MethodID:      MethodExpress,
			MethodName:    "Express delivery",
			Cost:          express,
			EstimatedDays: max(z.EstimatedDays-1, 1),
			IsFree:        free,
		})
	}

	if z.Class != zone.Rural {
		quotes = append(quotes, Quote{
			MethodID:      MethodCOD,
			MethodName:    "Cash on delivery",
			Cost:          standard + c.policy.CODSurcharge,
			EstimatedDays: z.EstimatedDays,
		})
	}

	for _, m := range c.methods {
		q, ok, err := quoteMethod(m, metrics, z)
		if err != nil {
			return nil, err
		}
		if ok {
			quotes = append(quotes, q)
		}
	}

	slices.SortStableFunc(quotes, func(a, b Quote) int {
		return cmp.Compare(a.Cost, b.Cost)
	})
	return quotes, nil
}

// Find returns the quote with the given method id.
func Find(quotes []Quote, methodID string) (Quote, bool) {
	for _, q := range quotes {
		if q.MethodID == methodID {
			return q, true
		}
	}
	return Quote{}, false
}

// Cheapest returns the lowest-cost quote.
func Cheapest(quotes []Quote) (Quote, bool) {
	if len(quotes) == 0 {
		return Quote{}, false
	}
	best := quotes[0]
	for _, q := range quotes[1:] {
		if q.Cost < best.Cost {
			best = q
		}
	}
	return best, true
}

func measure(lines []domain.CartLine, products domain.ProductSet) (cartMetrics, bool) {
	var m cartMetrics
	shippable := false
	for _, line := range lines {
		p, ok := products[line.ProductID]
		if !ok || line.Quantity <= 0 {
			continue
		}
		m.subtotal += p.Price.Mul(line.Quantity)
		if !p.RequiresShipping {
			continue
		}
		shippable = true
		m.weightGrams += p.ShippableWeightGrams() * int64(line.Quantity)
	}
	return m, shippable
}
