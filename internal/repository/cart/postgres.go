package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

const cartColumns = `id::text, customer_id, currency, total_cents, state, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("cart_repo")}
}

func (r *postgresRepo) Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error) {
	const q = `
INSERT INTO carts (customer_id, currency, total_cents, state)
VALUES ($1, $2, 0, 'active')
RETURNING ` + cartColumns

	var cart domain.Cart
	var total int64
	if err := r.pool.QueryRow(ctx, q, in.CustomerID, in.Currency).Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.Currency,
		&total,
		&cart.State,
		&cart.CreatedAt,
	); err != nil {
		r.logger.Error("create", zap.Error(err))
		return nil, err
	}
	cart.Total = domain.Money(total)
	r.logger.Debug("created", zap.String("cart_id", cart.ID))
	return &cart, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Cart, error) {
	return r.fetchCart(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, id)
}

func (r *postgresRepo) GetActiveByCustomer(ctx context.Context, customerID string) (*domain.Cart, error) {
	const cartQuery = `
SELECT ` + cartColumns + `
FROM carts
WHERE customer_id = $1 AND state = 'active'
ORDER BY created_at DESC
LIMIT 1
`
	return r.fetchCart(ctx, cartQuery, customerID)
}

func (r *postgresRepo) AddLineItem(ctx context.Context, cartID string, product domain.Product, quantity int, snapshot map[string]interface{}) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if snapshot == nil {
		snapshot = map[string]interface{}{}
	}

	var lineID string
	var existingQty int
	err = tx.QueryRow(ctx, `
SELECT id::text, quantity
FROM cart_lines
WHERE cart_id = $1 AND product_id = $2
FOR UPDATE
`, cartID, product.ID).Scan(&lineID, &existingQty)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	unitPrice := int64(product.Price)
	if err == nil {
		newQty := existingQty + quantity
		if _, err := tx.Exec(ctx, `
UPDATE cart_lines
SET quantity = $1, unit_price_cents = $2, total_cents = $3, snapshot = $4
WHERE id = $5
`, newQty, unitPrice, unitPrice*int64(newQty), snapshot, lineID); err != nil {
			return err
		}
	} else {
		if _, err := tx.Exec(ctx, `
INSERT INTO cart_lines (cart_id, product_id, quantity, unit_price_cents, total_cents, snapshot)
VALUES ($1, $2, $3, $4, $5, $6)
`, cartID, product.ID, quantity, unitPrice, unitPrice*int64(quantity), snapshot); err != nil {
			return err
		}
	}

	if err := updateCartTotal(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ChangeLineItemQuantity sets the line quantity; zero or less removes the line.
func (r *postgresRepo) ChangeLineItemQuantity(ctx context.Context, cartID, lineItemID string, quantity int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if quantity <= 0 {
		cmd, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE id = $1 AND cart_id = $2`, lineItemID, cartID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
	} else {
		cmd, err := tx.Exec(ctx, `
UPDATE cart_lines
SET quantity = $1, total_cents = unit_price_cents * $1
WHERE id = $2 AND cart_id = $3
`, quantity, lineItemID, cartID)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
	}

	if err := updateCartTotal(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) TransitionState(ctx context.Context, cartID, from, to string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE carts SET state = $1 WHERE id = $2 AND state = $3`, to, cartID, from)
	if err != nil {
		r.logger.Error("transition state", zap.String("cart_id", cartID), zap.Error(err))
		return err
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}
	var current string
	if err := r.pool.QueryRow(ctx, `SELECT state FROM carts WHERE id = $1`, cartID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	return fmt.Errorf("%w: cart %s is %s, expected %s", domain.ErrStateConflict, cartID, current, from)
}

func (r *postgresRepo) fetchCart(ctx context.Context, cartQuery string, args ...interface{}) (*domain.Cart, error) {
	var cart domain.Cart
	var total int64
	err := r.pool.QueryRow(ctx, cartQuery, args...).Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.Currency,
		&total,
		&cart.State,
		&cart.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	cart.Total = domain.Money(total)

	const linesQuery = `
SELECT id::text, cart_id::text, product_id::text, quantity, unit_price_cents, total_cents, snapshot, created_at
FROM cart_lines
WHERE cart_id = $1
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		var unit, lineTotal int64
		if err := rows.Scan(
			&line.ID,
			&line.CartID,
			&line.ProductID,
			&line.Quantity,
			&unit,
			&lineTotal,
			&line.Snapshot,
			&line.CreatedAt,
		); err != nil {
			return nil, err
		}
		line.UnitPrice = domain.Money(unit)
		line.Total = domain.Money(lineTotal)
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

func updateCartTotal(ctx context.Context, tx pgx.Tx, cartID string) error {
	_, err := tx.Exec(ctx, `
UPDATE carts
SET total_cents = COALESCE((
	SELECT SUM(total_cents)
	FROM cart_lines
	WHERE cart_id = $1
), 0)
WHERE id = $1
`, cartID)
	return err
}
