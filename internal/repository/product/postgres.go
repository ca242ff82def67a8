package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

const productColumns = `id::text, key, sku, name, COALESCE(description, ''), price_cents, compare_at_cents, currency,
weight_grams, shipping_weight_grams, requires_shipping, is_fragile, is_hazardous, stock_quantity, is_active,
attributes, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("product_repo")}
}

func (r *postgresRepo) List(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products`
	if activeOnly {
		q += ` WHERE is_active`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error("list", zap.Error(err))
		return nil, err
	}
	result, err := collect(rows)
	if err != nil {
		r.logger.Error("list rows", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("list", zap.Int("count", len(result)), zap.Bool("active_only", activeOnly))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("get not found", zap.String("id", id))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE sku = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetByIDs returns the products that exist; missing ids are silently absent.
func (r *postgresRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := `SELECT ` + productColumns + ` FROM products WHERE id::text = ANY($1)`
	rows, err := r.pool.Query(ctx, q, ids)
	if err != nil {
		r.logger.Error("get by ids", zap.Int("ids", len(ids)), zap.Error(err))
		return nil, err
	}
	return collect(rows)
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, key, sku, name, description, price_cents, compare_at_cents, currency,
    weight_grams, shipping_weight_grams, requires_shipping, is_fragile, is_hazardous, stock_quantity, is_active, attributes)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, NULLIF($5, ''), $6, $7, $8,
    $9, $10, $11, $12, $13, $14, $15, COALESCE($16, '{}'::jsonb))
ON CONFLICT (key) DO UPDATE SET
    sku = EXCLUDED.sku,
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    compare_at_cents = EXCLUDED.compare_at_cents,
    currency = EXCLUDED.currency,
    weight_grams = EXCLUDED.weight_grams,
    shipping_weight_grams = EXCLUDED.shipping_weight_grams,
    requires_shipping = EXCLUDED.requires_shipping,
    is_fragile = EXCLUDED.is_fragile,
    is_hazardous = EXCLUDED.is_hazardous,
    stock_quantity = EXCLUDED.stock_quantity,
    is_active = EXCLUDED.is_active,
    attributes = EXCLUDED.attributes
RETURNING id::text, created_at
`
	res := product
	err := r.pool.QueryRow(ctx, q,
		product.ID,
		product.Key,
		product.SKU,
		product.Name,
		product.Description,
		int64(product.Price),
		moneyPtr(product.CompareAtPrice),
		product.Currency,
		product.WeightGrams,
		product.ShippingWeightGrams,
		product.RequiresShipping,
		product.IsFragile,
		product.IsHazardous,
		product.StockQuantity,
		product.IsActive,
		product.Attributes,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Error("upsert", zap.String("key", product.Key), zap.Error(err))
		return nil, err
	}
	if product.ID != "" && res.ID != product.ID {
		return nil, fmt.Errorf("product repo: id mismatch for key=%s existing_id=%s import_id=%s", product.Key, res.ID, product.ID)
	}
	r.logger.Info("upserted", zap.String("key", res.Key), zap.String("id", res.ID))
	return &res, nil
}

func collect(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()
	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p         domain.Product
		price     int64
		compareAt *int64
	)
	err := row.Scan(
		&p.ID, &p.Key, &p.SKU, &p.Name, &p.Description, &price, &compareAt, &p.Currency,
		&p.WeightGrams, &p.ShippingWeightGrams, &p.RequiresShipping, &p.IsFragile, &p.IsHazardous,
		&p.StockQuantity, &p.IsActive, &p.Attributes, &p.CreatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}
	p.Price = domain.Money(price)
	if compareAt != nil {
		m := domain.Money(*compareAt)
		p.CompareAtPrice = &m
	}
	return p, nil
}

func moneyPtr(m *domain.Money) *int64 {
	if m == nil {
		return nil
	}
	v := int64(*m)
	return &v
}
