package domain

// Address is a delivery destination.
type Address struct {
	Country    string `json:"country"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	City       string `json:"city,omitempty"`
	Line1      string `json:"addressLine1"`
	Line2      string `json:"addressLine2,omitempty"`
}
