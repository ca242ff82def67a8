package domain

import "fmt"

// OrderStatus is the lifecycle position of an order.
type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "pending"
	OrderStatusConfirmed     OrderStatus = "confirmed"
	OrderStatusPaymentFailed OrderStatus = "payment_failed"
	OrderStatusProcessing    OrderStatus = "processing"
	OrderStatusShipped       OrderStatus = "shipped"
	OrderStatusDelivered     OrderStatus = "delivered"
	OrderStatusCancelled     OrderStatus = "cancelled"
)

// PaymentStatus is the outcome reported by payment processing.
type PaymentStatus string

const (
	PaymentStatusConfirmed           PaymentStatus = "confirmed"
	PaymentStatusPending             PaymentStatus = "pending"
	PaymentStatusPendingVerification PaymentStatus = "pending_verification"
	PaymentStatusFailed              PaymentStatus = "failed"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:       {OrderStatusConfirmed, OrderStatusPaymentFailed, OrderStatusCancelled},
	OrderStatusConfirmed:     {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusPaymentFailed: {OrderStatusPending},
	OrderStatusProcessing:    {OrderStatusShipped},
	OrderStatusShipped:       {OrderStatusDelivered},
	OrderStatusDelivered:     nil,
	OrderStatusCancelled:     nil,
}

// ParseOrderStatus validates a raw status value.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	s := OrderStatus(raw)
	_, ok := orderTransitions[s]
	return s, ok
}

func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no forward transition exists from s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether s may move directly to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StatusFromPayment maps a payment outcome to the resulting order status.
func StatusFromPayment(p PaymentStatus) OrderStatus {
	switch p {
	case PaymentStatusConfirmed:
		return OrderStatusConfirmed
	case PaymentStatusPending, PaymentStatusPendingVerification:
		return OrderStatusPending
	default:
		return OrderStatusPaymentFailed
	}
}

// CanCancel is true only for pending and confirmed orders.
func CanCancel(s OrderStatus) bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// CancelError explains why an order in Status cannot be cancelled.
type CancelError struct {
	Status OrderStatus
}

func (e *CancelError) Error() string {
	return e.Reason()
}

// Reason is a customer-facing message specific to the rejected status.
func (e *CancelError) Reason() string {
	switch e.Status {
	case OrderStatusProcessing:
		return "order is already being prepared and can no longer be cancelled"
	case OrderStatusShipped:
		return "order has already shipped and can no longer be cancelled"
	case OrderStatusDelivered:
		return "order has been delivered; request a return instead of a cancellation"
	case OrderStatusCancelled:
		return "order is already cancelled"
	case OrderStatusPaymentFailed:
		return "payment for this order failed, there is nothing to cancel"
	default:
		return fmt.Sprintf("order in status %q cannot be cancelled", e.Status)
	}
}

func (e *CancelError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// TransitionError reports an illegal status change.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
