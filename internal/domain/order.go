package domain

import "time"

// Order is a placed checkout. TotalAmount is fixed once the order is placed.
type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	CartID          string      `json:"cartId,omitempty"`
	Status          OrderStatus `json:"status"`
	Currency        string      `json:"currency"`
	Subtotal        Money       `json:"subtotal"`
	TaxAmount       Money       `json:"taxAmount"`
	ShippingAmount  Money       `json:"shippingAmount"`
	PaymentFee      Money       `json:"paymentFee"`
	TotalAmount     Money       `json:"totalAmount"`
	PaymentMethod   string      `json:"paymentMethod"`
	ShippingMethod  string      `json:"shippingMethod"`
	TransactionID   string      `json:"transactionId,omitempty"`
	ShippingAddress Address     `json:"shippingAddress"`
	CustomerEmail   string      `json:"customerEmail"`
	CustomerPhone   string      `json:"customerPhone"`
	Lines           []OrderLine `json:"lines,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
	CancelledAt     *time.Time  `json:"cancelledAt,omitempty"`
}

type OrderLine struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice Money  `json:"unitPrice"`
	Total     Money  `json:"total"`
}

// ComputeTotal sets TotalAmount from its components.
func (o *Order) ComputeTotal() {
	o.TotalAmount = o.Subtotal + o.ShippingAmount + o.TaxAmount + o.PaymentFee
}

// OwnedBy reports whether userID is exactly the order owner.
func (o Order) OwnedBy(userID string) bool {
	return userID != "" && userID == o.UserID
}

// Transition moves the order to next if the state machine allows it.
func (o *Order) Transition(next OrderStatus, now time.Time) error {
	if o.Status == next {
		return nil
	}
	if !o.Status.CanTransitionTo(next) {
		return &TransitionError{From: o.Status, To: next}
	}
	o.Status = next
	o.UpdatedAt = now
	if next == OrderStatusCancelled {
		t := now
		o.CancelledAt = &t
	}
	return nil
}

// Cancel cancels the order on behalf of requesterID. Ownership is checked
// before status, so a non-owner is always rejected.
func (o *Order) Cancel(requesterID string, now time.Time) error {
	if !o.OwnedBy(requesterID) {
		return ErrNotOrderOwner
	}
	if !CanCancel(o.Status) {
		return &CancelError{Status: o.Status}
	}
	return o.Transition(OrderStatusCancelled, now)
}
