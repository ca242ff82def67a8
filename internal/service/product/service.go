package product

import (
	"context"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

// List returns the catalog; inactive products are hidden unless includeInactive is set.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	return s.repo.List(ctx, !includeInactive)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}
