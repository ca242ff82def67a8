package payment

import (
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

const (
	MethodCashOnDelivery = "cod"
	MethodBankTransfer   = "bank-transfer"
	MethodJazzCash       = "jazzcash"
	MethodEasyPaisa      = "easypaisa"
	MethodCardGateway    = "card-gateway"
)

// Definition is the static description of a payment method.
type Definition struct {
	ID             string
	Name           string
	Provider       string
	Description    string
	ProcessingTime string
	Fee            Fee
	// MaxAmount is the inclusive order ceiling; zero means no ceiling.
	MaxAmount domain.Money
	// Outcome is the status a processed payment resolves to.
	Outcome domain.PaymentStatus
}

// Method is a definition priced for a specific order amount.
type Method struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Provider       string        `json:"provider"`
	Description    string        `json:"description,omitempty"`
	Fee            domain.Money  `json:"fee"`
	Available      bool          `json:"available"`
	ProcessingTime string        `json:"processingTime"`
	MaxAmount      *domain.Money `json:"maxAmount,omitempty"`
}

// DefaultDefinitions returns the storefront's payment methods in display order.
func DefaultDefinitions(codFee, codMax domain.Money) []Definition {
	return []Definition{
		{
			ID:             MethodCashOnDelivery,
			Name:           "Cash on Delivery",
			Provider:       "cod",
			Description:    "Pay in cash when your order arrives",
			ProcessingTime: "Pay on delivery",
			Fee:            FlatFee{Amount: codFee},
			MaxAmount:      codMax,
			Outcome:        domain.PaymentStatusConfirmed,
		},
		{
			ID:             MethodBankTransfer,
			Name:           "Bank Transfer",
			Provider:       "bank",
			Description:    "Transfer to our account; the order ships once the transfer is verified",
			ProcessingTime: "1-2 business days",
			Fee:            NoFee{},
			Outcome:        domain.PaymentStatusPendingVerification,
		},
		{
			ID:             MethodJazzCash,
			Name:           "JazzCash",
			Provider:       "jazzcash",
			Description:    "Mobile wallet payment",
			ProcessingTime: "Instant",
			Fee:            PercentFee{Percent: decimal.RequireFromString("1.5")},
			Outcome:        domain.PaymentStatusPending,
		},
		{
			ID:             MethodEasyPaisa,
			Name:           "EasyPaisa",
			Provider:       "easypaisa",
			Description:    "Mobile wallet payment",
			ProcessingTime: "Instant",
			Fee:            PercentFee{Percent: decimal.RequireFromString("2.0")},
			Outcome:        domain.PaymentStatusPending,
		},
		{
			ID:             MethodCardGateway,
			Name:           "Credit / Debit Card",
			Provider:       "card",
			Description:    "Visa, Mastercard and UnionPay",
			ProcessingTime: "Instant",
			Fee:            PercentPlusFlat{Percent: decimal.RequireFromString("2.9"), Flat: domain.Major(30)},
			Outcome:        domain.PaymentStatusPending,
		},
	}
}

func (d Definition) price(amount domain.Money) Method {
	m := Method{
		ID:             d.ID,
		Name:           d.Name,
		Provider:       d.Provider,
		Description:    d.Description,
		Fee:            d.Fee.Compute(amount),
		Available:      true,
		ProcessingTime: d.ProcessingTime,
	}
	if d.MaxAmount > 0 {
		ceiling := d.MaxAmount
		m.MaxAmount = &ceiling
		m.Available = amount <= ceiling
	}
	return m
}
