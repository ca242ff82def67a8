package order

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, order domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// Update persists the mutable fields: status, transaction id and timestamps.
	// It only applies while the stored status is still from.
	Update(ctx context.Context, order domain.Order, from domain.OrderStatus) error
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
}
