// Package order exposes the post-checkout order lifecycle: owner reads,
// customer cancellation and operator-driven progression.
package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

type orderRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	Update(ctx context.Context, order domain.Order, from domain.OrderStatus) error
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
}

type Service struct {
	repo   orderRepo
	logger *zap.Logger
	now    func() time.Time
}

func New(repo orderRepo, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		logger: logger.Named("order"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the order only to its owner; anyone else sees not found.
func (s *Service) Get(ctx context.Context, requesterID, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(requesterID) {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (s *Service) List(ctx context.Context, requesterID string) ([]domain.Order, error) {
	id := strings.TrimSpace(requesterID)
	if id == "" {
		return nil, domain.ErrNotOrderOwner
	}
	return s.repo.ListByUser(ctx, id)
}

// Cancel cancels the order on behalf of requesterID.
func (s *Service) Cancel(ctx context.Context, requesterID, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	prev := order.Status
	if err := order.Cancel(requesterID, s.now()); err != nil {
		s.logger.Info("cancel rejected",
			zap.String("order_id", order.ID),
			zap.String("status", prev.String()),
			zap.Error(err),
		)
		return nil, err
	}
	if err := s.repo.Update(ctx, *order, prev); err != nil {
		return nil, fmt.Errorf("persist cancellation: %w", err)
	}
	s.logger.Info("order cancelled", zap.String("order_id", order.ID), zap.String("previous_status", prev.String()))
	return order, nil
}

type AdvanceCommand struct {
	OrderID string
	Target  string
	// ExpectedStatus guards against concurrent operators; empty skips the check.
	ExpectedStatus string
}

// Advance moves an order along the lifecycle on behalf of an operator.
func (s *Service) Advance(ctx context.Context, cmd AdvanceCommand) (*domain.Order, error) {
	target, ok := domain.ParseOrderStatus(cmd.Target)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, cmd.Target)
	}
	order, err := s.repo.GetByID(ctx, strings.TrimSpace(cmd.OrderID))
	if err != nil {
		return nil, err
	}
	if expected := strings.TrimSpace(cmd.ExpectedStatus); expected != "" && string(order.Status) != expected {
		return nil, fmt.Errorf("%w: expected status %q but was %q", domain.ErrInvalidTransition, expected, order.Status)
	}

	prev := order.Status
	if err := order.Transition(target, s.now()); err != nil {
		return nil, err
	}
	if prev == order.Status {
		return order, nil
	}
	if err := s.repo.Update(ctx, *order, prev); err != nil {
		return nil, fmt.Errorf("persist transition: %w", err)
	}
	s.logger.Info("order status changed",
		zap.String("order_id", order.ID),
		zap.String("from", prev.String()),
		zap.String("to", order.Status.String()),
	)
	return order, nil
}
