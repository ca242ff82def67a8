package domain

import "time"

const (
	CartStateActive  = "active"
	CartStateOrdered = "ordered"
)

type Cart struct {
	ID         string     `json:"id"`
	CustomerID *string    `json:"customerId,omitempty"`
	Currency   string     `json:"currency"`
	Total      Money      `json:"total"`
	State      string     `json:"state"`
	CreatedAt  time.Time  `json:"createdAt"`
	Lines      []CartLine `json:"lineItems,omitempty"`
}

// CartLine carries the unit price captured at add-to-cart time. Pricing
// always recomputes from the live product; the snapshot is display-only.
type CartLine struct {
	ID        string                 `json:"id"`
	CartID    string                 `json:"cartId"`
	ProductID string                 `json:"productId"`
	Quantity  int                    `json:"quantity"`
	UnitPrice Money                  `json:"unitPrice"`
	Total     Money                  `json:"total"`
	Snapshot  map[string]interface{} `json:"snapshot,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}
