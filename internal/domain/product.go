package domain

import "time"

type Product struct {
	ID                  string                 `json:"id"`
	Key                 string                 `json:"key"`
	SKU                 string                 `json:"sku"`
	Name                string                 `json:"name"`
	Description         string                 `json:"description,omitempty"`
	Price               Money                  `json:"price"`
	CompareAtPrice      *Money                 `json:"compareAtPrice,omitempty"`
	Currency            string                 `json:"currency"`
	WeightGrams         *int64                 `json:"weightGrams,omitempty"`
	ShippingWeightGrams *int64                 `json:"shippingWeightGrams,omitempty"`
	RequiresShipping    bool                   `json:"requiresShipping"`
	IsFragile           bool                   `json:"isFragile"`
	IsHazardous         bool                   `json:"isHazardous"`
	StockQuantity       int                    `json:"stockQuantity"`
	IsActive            bool                   `json:"isActive"`
	Attributes          map[string]interface{} `json:"attributes,omitempty"`
	CreatedAt           time.Time              `json:"createdAt"`
}

// ShippableWeightGrams returns the per-unit weight used for shipping:
// the shipping override, then the product weight, then zero.
func (p Product) ShippableWeightGrams() int64 {
	if !p.RequiresShipping {
		return 0
	}
	if p.ShippingWeightGrams != nil {
		return *p.ShippingWeightGrams
	}
	if p.WeightGrams != nil {
		return *p.WeightGrams
	}
	return 0
}

// ProductSet indexes a live product snapshot by id.
type ProductSet map[string]Product

func NewProductSet(products []Product) ProductSet {
	set := make(ProductSet, len(products))
	for _, p := range products {
		set[p.ID] = p
	}
	return set
}

// LineProductIDs returns the product ids referenced by lines, without duplicates.
func LineProductIDs(lines []CartLine) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}
