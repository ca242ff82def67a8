package cart

import (
	"context"

	"storefront/internal/domain"
)

type CreateCartInput struct {
	CustomerID *string
	Currency   string
}

type Repository interface {
	Create(ctx context.Context, in CreateCartInput) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	GetActiveByCustomer(ctx context.Context, customerID string) (*domain.Cart, error)
	AddLineItem(ctx context.Context, cartID string, product domain.Product, quantity int, snapshot map[string]interface{}) error
	ChangeLineItemQuantity(ctx context.Context, cartID, lineItemID string, quantity int) error
	// TransitionState moves the cart from one state to another atomically and
	// fails with domain.ErrStateConflict when it is no longer in from.
	TransitionState(ctx context.Context, cartID, from, to string) error
}
