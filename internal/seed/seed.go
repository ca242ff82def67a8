package seed

import (
	"context"
	"fmt"

	"storefront/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

func grams(g int64) *int64 { return &g }

// Products returns the demo catalog priced in currency.
func Products(currency string) []domain.Product {
	return []domain.Product{
		{
			Key:              "demo-kurta",
			SKU:              "SKU-DEMO-KURTA",
			Name:             "Demo Lawn Kurta",
			Description:      "Light cotton lawn kurta for demo purposes",
			Price:            domain.Major(2499),
			Currency:         currency,
			WeightGrams:      grams(350),
			RequiresShipping: true,
			StockQuantity:    40,
			IsActive:         true,
		},
		{
			Key:                 "demo-tea-set",
			SKU:                 "SKU-DEMO-TEASET",
			Name:                "Demo Ceramic Tea Set",
			Description:         "Six cups and a pot, packed in foam",
			Price:               domain.Major(6500),
			CompareAtPrice:      moneyPtr(domain.Major(7200)),
			Currency:            currency,
			WeightGrams:         grams(1800),
			ShippingWeightGrams: grams(2600),
			RequiresShipping:    true,
			IsFragile:           true,
			StockQuantity:       8,
			IsActive:            true,
		},
		{
			Key:              "demo-attar",
			SKU:              "SKU-DEMO-ATTAR",
			Name:             "Demo Attar 12ml",
			Description:      "Alcohol based fragrance oil",
			Price:            domain.Major(1800),
			Currency:         currency,
			WeightGrams:      grams(90),
			RequiresShipping: true,
			IsHazardous:      true,
			StockQuantity:    25,
			IsActive:         true,
		},
		{
			Key:              "demo-ebook",
			SKU:              "SKU-DEMO-EBOOK",
			Name:             "Demo Recipe E-book",
			Description:      "Digital download, no shipping",
			Price:            domain.Major(499),
			Currency:         currency,
			RequiresShipping: false,
			StockQuantity:    10000,
			IsActive:         true,
		},
	}
}

func moneyPtr(m domain.Money) *domain.Money { return &m }

// Apply inserts basic seed data for manual testing. It is idempotent via upsert on product key.
func Apply(ctx context.Context, repo ProductWriter, currency string) error {
	for _, p := range Products(currency) {
		if _, err := repo.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
	}
	return nil
}
