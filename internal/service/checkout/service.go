// Package checkout turns an active cart into a placed, paid order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/internal/domain"
	"storefront/internal/payment"
	cartsvc "storefront/internal/service/cart"
)

// ErrPaymentMethodUnavailable is returned when the chosen method does not
// accept the order amount.
var ErrPaymentMethodUnavailable = errors.New("payment method unavailable for this amount")

// ValidationError carries every problem that blocked checkout.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "checkout blocked: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return domain.ErrInvalidInput
}

type carts interface {
	Get(ctx context.Context, requesterID, id string) (*domain.Cart, error)
	Products(ctx context.Context, lines []domain.CartLine) (domain.ProductSet, error)
	Claim(ctx context.Context, cartID string) error
	Reopen(ctx context.Context, cartID string) error
}

type orders interface {
	Create(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order, from domain.OrderStatus) error
}

type payments interface {
	MethodByID(id string, amount domain.Money) (payment.Method, bool)
	Validate(req payment.Request) payment.ValidationResult
	Process(ctx context.Context, req payment.Request) (payment.Result, error)
}

type Service struct {
	carts    carts
	orders   orders
	payments payments
	shipping cartsvc.ShippingQuoter
	tax      cartsvc.TaxCalculator
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

type Deps struct {
	Carts    carts
	Orders   orders
	Payments payments
	Shipping cartsvc.ShippingQuoter
	Tax      cartsvc.TaxCalculator
	Logger   *zap.Logger
}

func New(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		carts:    d.Carts,
		orders:   d.Orders,
		payments: d.Payments,
		shipping: d.Shipping,
		tax:      d.Tax,
		logger:   logger.Named("checkout"),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

type PlaceOrderInput struct {
	CustomerID       string         `json:"-"`
	CartID           string         `json:"cartId" binding:"required"`
	ShippingAddress  domain.Address `json:"shippingAddress" binding:"required"`
	ShippingMethodID string         `json:"shippingMethodId,omitempty"`
	PaymentMethodID  string         `json:"paymentMethodId" binding:"required"`
	CustomerEmail    string         `json:"customerEmail" binding:"required"`
	CustomerPhone    string         `json:"customerPhone" binding:"required"`
}

type Receipt struct {
	Order   domain.Order    `json:"order"`
	Payment payment.Result  `json:"payment"`
	Summary cartsvc.Summary `json:"summary"`
}

// PlaceOrder prices the cart at live prices, persists a pending order,
// submits the payment and settles the order status from its outcome.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Receipt, error) {
	customerID := strings.TrimSpace(in.CustomerID)
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer id required", domain.ErrInvalidInput)
	}

	cart, err := s.carts.Get(ctx, customerID, in.CartID)
	if err != nil {
		return nil, err
	}
	if cart.State != domain.CartStateActive {
		return nil, fmt.Errorf("%w: cart is %s", domain.ErrInvalidInput, cart.State)
	}

	products, err := s.carts.Products(ctx, cart.Lines)
	if err != nil {
		return nil, err
	}
	if problems := cartsvc.Validate(cart.Lines, products); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	address := in.ShippingAddress
	summary, err := cartsvc.Summarize(cartsvc.SummaryInput{
		Lines:            cart.Lines,
		Products:         products,
		Address:          &address,
		ShippingMethodID: in.ShippingMethodID,
		Shipping:         s.shipping,
		Tax:              s.tax,
	})
	if err != nil {
		return nil, err
	}

	method, ok := s.payments.MethodByID(in.PaymentMethodID, summary.Total)
	if !ok {
		return nil, fmt.Errorf("%w: unknown payment method %q", domain.ErrInvalidInput, in.PaymentMethodID)
	}
	if !method.Available {
		return nil, fmt.Errorf("%w: %s", ErrPaymentMethodUnavailable, method.Name)
	}

	now := s.now()
	order := domain.Order{
		ID:              s.newID(),
		UserID:          customerID,
		CartID:          cart.ID,
		Status:          domain.OrderStatusPending,
		Currency:        cart.Currency,
		Subtotal:        summary.Subtotal,
		TaxAmount:       summary.Tax,
		ShippingAmount:  summary.Shipping,
		PaymentFee:      method.Fee,
		PaymentMethod:   method.ID,
		ShippingAddress: address,
		CustomerEmail:   strings.TrimSpace(in.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		Lines:           orderLines(cart.Lines, products),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if summary.SelectedShipping != nil {
		order.ShippingMethod = summary.SelectedShipping.MethodID
	}
	order.ComputeTotal()

	req := payment.Request{
		OrderID:         order.ID,
		Amount:          order.TotalAmount,
		PaymentMethodID: method.ID,
		Currency:        order.Currency,
		CustomerEmail:   order.CustomerEmail,
		CustomerPhone:   order.CustomerPhone,
	}
	if v := s.payments.Validate(req); !v.Valid {
		return nil, &ValidationError{Problems: v.Errors}
	}

	if err := s.carts.Claim(ctx, cart.ID); err != nil {
		return nil, err
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.reopen(ctx, cart.ID)
		return nil, fmt.Errorf("create order: %w", err)
	}

	result, payErr := s.payments.Process(ctx, req)
	if payErr != nil {
		result = payment.Result{Status: domain.PaymentStatusFailed, PaymentID: method.ID, Error: payErr.Error()}
	}
	if err := order.Transition(domain.StatusFromPayment(result.Status), s.now()); err != nil {
		return nil, err
	}
	order.TransactionID = result.TransactionID

	if err := s.settle(ctx, order, domain.OrderStatusPending, payErr != nil); err != nil {
		return nil, err
	}
	if payErr != nil {
		s.logger.Warn("payment failed", zap.String("order_id", order.ID), zap.Error(payErr))
		return nil, fmt.Errorf("process payment for order %s: %w", order.ID, payErr)
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("cart_id", cart.ID),
		zap.String("status", order.Status.String()),
		zap.Stringer("total", order.TotalAmount),
	)
	return &Receipt{Order: order, Payment: result, Summary: summary}, nil
}

// settle persists the payment outcome and, when the payment failed, reopens
// the claimed cart so the customer can retry. Both writes run concurrently.
func (s *Service) settle(ctx context.Context, order domain.Order, from domain.OrderStatus, aborted bool) error {
	if aborted {
		ctx = context.WithoutCancel(ctx)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.orders.Update(ctx, order, from); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return nil
	})
	if order.Status == domain.OrderStatusPaymentFailed {
		g.Go(func() error { return s.carts.Reopen(ctx, order.CartID) })
	}
	return g.Wait()
}

// reopen releases a claimed cart after checkout gave up before payment.
func (s *Service) reopen(ctx context.Context, cartID string) {
	if err := s.carts.Reopen(context.WithoutCancel(ctx), cartID); err != nil {
		s.logger.Error("reopen cart", zap.String("cart_id", cartID), zap.Error(err))
	}
}

func orderLines(lines []domain.CartLine, products domain.ProductSet) []domain.OrderLine {
	out := make([]domain.OrderLine, 0, len(lines))
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			continue
		}
		out = append(out, domain.OrderLine{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  l.Quantity,
			UnitPrice: p.Price,
			Total:     p.Price.Mul(l.Quantity),
		})
	}
	return out
}
