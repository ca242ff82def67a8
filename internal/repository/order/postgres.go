package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

const orderColumns = `id::text, user_id, COALESCE(cart_id::text, ''), status, currency, subtotal, tax_amount,
shipping_amount, payment_fee, total_amount, payment_method, shipping_method, COALESCE(transaction_id, ''),
shipping_address, customer_email, customer_phone, lines, created_at, updated_at, cancelled_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("order_repo")}
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) error {
	const q = `
INSERT INTO orders (id, user_id, cart_id, status, currency, subtotal, tax_amount, shipping_amount, payment_fee,
    total_amount, payment_method, shipping_method, transaction_id, shipping_address, customer_email, customer_phone,
    lines, created_at, updated_at, cancelled_at)
VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''), $14, $15, $16, $17, $18, $19, $20)
`
	lines := o.Lines
	if lines == nil {
		lines = []domain.OrderLine{}
	}
	_, err := r.pool.Exec(ctx, q,
		o.ID, o.UserID, o.CartID, string(o.Status), o.Currency,
		int64(o.Subtotal), int64(o.TaxAmount), int64(o.ShippingAmount), int64(o.PaymentFee), int64(o.TotalAmount),
		o.PaymentMethod, o.ShippingMethod, o.TransactionID, o.ShippingAddress, o.CustomerEmail, o.CustomerPhone,
		lines, o.CreatedAt, o.UpdatedAt, o.CancelledAt,
	)
	if err != nil {
		r.logger.Error("create", zap.String("order_id", o.ID), zap.Error(err))
		return err
	}
	r.logger.Info("created", zap.String("order_id", o.ID), zap.String("status", o.Status.String()))
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get", zap.String("order_id", id), zap.Error(err))
		return nil, err
	}
	return &o, nil
}

func (r *postgresRepo) Update(ctx context.Context, o domain.Order, from domain.OrderStatus) error {
	const q = `
UPDATE orders
SET status = $1, transaction_id = NULLIF($2, ''), updated_at = $3, cancelled_at = $4
WHERE id = $5 AND status = $6
`
	cmd, err := r.pool.Exec(ctx, q, string(o.Status), o.TransactionID, o.UpdatedAt, o.CancelledAt, o.ID, string(from))
	if err != nil {
		r.logger.Error("update", zap.String("order_id", o.ID), zap.Error(err))
		return err
	}
	if cmd.RowsAffected() == 0 {
		var current string
		if err := r.pool.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, o.ID).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		r.logger.Warn("update lost race",
			zap.String("order_id", o.ID),
			zap.String("expected", from.String()),
			zap.String("current", current),
		)
		return fmt.Errorf("%w: order %s is %s, expected %s", domain.ErrInvalidTransition, o.ID, current, from)
	}
	return nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o                                   domain.Order
		status                              string
		subtotal, tax, shipping, fee, total int64
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.CartID, &status, &o.Currency,
		&subtotal, &tax, &shipping, &fee, &total,
		&o.PaymentMethod, &o.ShippingMethod, &o.TransactionID,
		&o.ShippingAddress, &o.CustomerEmail, &o.CustomerPhone, &o.Lines,
		&o.CreatedAt, &o.UpdatedAt, &o.CancelledAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	o.Subtotal = domain.Money(subtotal)
	o.TaxAmount = domain.Money(tax)
	o.ShippingAmount = domain.Money(shipping)
	o.PaymentFee = domain.Money(fee)
	o.TotalAmount = domain.Money(total)
	return o, nil
}
