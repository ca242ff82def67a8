package cart

import (
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/shipping"
)

// ErrShippingMethodUnavailable is returned when the selected shipping
// method is not among the quotes for the cart and destination.
var ErrShippingMethodUnavailable = errors.New("shipping method unavailable")

type ShippingQuoter interface {
	Calculate(lines []domain.CartLine, products domain.ProductSet, dest domain.Address) ([]shipping.Quote, error)
}

type TaxCalculator interface {
	Calculate(lines []domain.CartLine, products domain.ProductSet, dest domain.Address) domain.Money
}

type SummaryInput struct {
	Lines    []domain.CartLine
	Products domain.ProductSet
	// Address is optional; without it shipping and tax are zero.
	Address          *domain.Address
	ShippingMethodID string
	Shipping         ShippingQuoter
	Tax              TaxCalculator
}

type Summary struct {
	Subtotal         domain.Money     `json:"subtotal"`
	Shipping         domain.Money     `json:"shipping"`
	Tax              domain.Money     `json:"tax"`
	Total            domain.Money     `json:"total"`
	ItemCount        int              `json:"itemCount"`
	Quotes           []shipping.Quote `json:"shippingOptions,omitempty"`
	SelectedShipping *shipping.Quote  `json:"selectedShipping,omitempty"`
}

// Summarize prices lines at live product prices. Lines whose product is
// missing contribute nothing; Validate reports them.
func Summarize(in SummaryInput) (Summary, error) {
	var sum Summary
	for _, l := range in.Lines {
		p, ok := in.Products[l.ProductID]
		if !ok || l.Quantity <= 0 {
			continue
		}
		sum.Subtotal += p.Price.Mul(l.Quantity)
		sum.ItemCount += l.Quantity
	}

	if in.Address != nil && in.Shipping != nil {
		quotes, err := in.Shipping.Calculate(in.Lines, in.Products, *in.Address)
		if err != nil {
			return Summary{}, fmt.Errorf("quote shipping: %w", err)
		}
		sum.Quotes = quotes

		var (
			selected shipping.Quote
			found    bool
		)
		if in.ShippingMethodID != "" {
			selected, found = shipping.Find(quotes, in.ShippingMethodID)
			if !found {
				return Summary{}, fmt.Errorf("%w: %s", ErrShippingMethodUnavailable, in.ShippingMethodID)
			}
		} else {
			selected, found = shipping.Cheapest(quotes)
		}
		if found {
			sum.Shipping = selected.Cost
			sum.SelectedShipping = &selected
		}
	}

	if in.Address != nil && in.Tax != nil {
		sum.Tax = in.Tax.Calculate(in.Lines, in.Products, *in.Address)
	}

	sum.Total = sum.Subtotal + sum.Shipping + sum.Tax
	return sum, nil
}

// Validate reports every problem that blocks checkout. It never fails.
func Validate(lines []domain.CartLine, products domain.ProductSet) []string {
	var problems []string
	if len(lines) == 0 {
		return []string{"cart is empty"}
	}
	for _, l := range lines {
		p, ok := products[l.ProductID]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("product %s is no longer available", l.ProductID))
		case !p.IsActive:
			problems = append(problems, fmt.Sprintf("%s is no longer available", p.Name))
		case l.Quantity <= 0:
			problems = append(problems, fmt.Sprintf("invalid quantity for %s", p.Name))
		case p.StockQuantity < l.Quantity:
			problems = append(problems, fmt.Sprintf("insufficient stock for %s: requested %d, available %d", p.Name, l.Quantity, p.StockQuantity))
		}
	}
	return problems
}
