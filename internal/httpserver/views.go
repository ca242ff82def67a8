package httpserver

import (
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/zone"
)

type priceValue struct {
	CurrencyCode   string `json:"currencyCode"`
	CentAmount     int64  `json:"centAmount"`
	FractionDigits int    `json:"fractionDigits"`
	Formatted      string `json:"formatted"`
}

func price(currency string, m domain.Money) priceValue {
	return priceValue{
		CurrencyCode:   currency,
		CentAmount:     int64(m),
		FractionDigits: 2,
		Formatted:      m.String(),
	}
}

type productView struct {
	ID                  string      `json:"id"`
	Key                 string      `json:"key,omitempty"`
	SKU                 string      `json:"sku"`
	Name                string      `json:"name"`
	Description         string      `json:"description,omitempty"`
	Slug                string      `json:"slug,omitempty"`
	Price               priceValue  `json:"price"`
	CompareAtPrice      *priceValue `json:"compareAtPrice,omitempty"`
	WeightGrams         *int64      `json:"weightGrams,omitempty"`
	ShippingWeightGrams *int64      `json:"shippingWeightGrams,omitempty"`
	RequiresShipping    bool        `json:"requiresShipping"`
	IsFragile           bool        `json:"isFragile"`
	IsHazardous         bool        `json:"isHazardous"`
	InStock             bool        `json:"inStock"`
	StockQuantity       int         `json:"stockQuantity"`
	Images              []string    `json:"images,omitempty"`
	CreatedAt           time.Time   `json:"createdAt"`
}

func toProductView(p domain.Product) productView {
	v := productView{
		ID:                  p.ID,
		Key:                 p.Key,
		SKU:                 p.SKU,
		Name:                p.Name,
		Description:         p.Description,
		Price:               price(p.Currency, p.Price),
		WeightGrams:         p.WeightGrams,
		ShippingWeightGrams: p.ShippingWeightGrams,
		RequiresShipping:    p.RequiresShipping,
		IsFragile:           p.IsFragile,
		IsHazardous:         p.IsHazardous,
		InStock:             p.StockQuantity > 0,
		StockQuantity:       p.StockQuantity,
		Images:              parseImageList(p.Attributes["images"]),
		CreatedAt:           p.CreatedAt,
	}
	if p.Key != "" {
		v.Slug = strings.ReplaceAll(strings.ToLower(p.Key), " ", "-")
	}
	if p.CompareAtPrice != nil {
		cmp := price(p.Currency, *p.CompareAtPrice)
		v.CompareAtPrice = &cmp
	}
	return v
}

type locationView struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Zone                  zone.Class `json:"zone"`
	BaseRate              priceValue `json:"baseRate"`
	FreeShippingThreshold priceValue `json:"freeShippingThreshold"`
	EstimatedDays         int        `json:"estimatedDays"`
}

func toLocationView(loc zone.Location, z zone.Zone, currency string) locationView {
	return locationView{
		ID:                    loc.ID,
		Name:                  loc.Name,
		Zone:                  loc.Class,
		BaseRate:              price(currency, z.BaseRate),
		FreeShippingThreshold: price(currency, z.FreeShippingThreshold),
		EstimatedDays:         z.EstimatedDays,
	}
}

type cartView struct {
	ID                    string           `json:"id"`
	CustomerID            string           `json:"customerId,omitempty"`
	State                 string           `json:"cartState"`
	LineItems             []lineItemView   `json:"lineItems"`
	TotalPrice            priceValue       `json:"totalPrice"`
	TotalLineItemQuantity int              `json:"totalLineItemQuantity"`
	CreatedAt             time.Time        `json:"createdAt"`
	Summary               *cartsvc.Summary `json:"summary,omitempty"`
	Problems              []string         `json:"problems,omitempty"`
}

type lineItemView struct {
	ID          string     `json:"id"`
	ProductID   string     `json:"productId"`
	ProductKey  string     `json:"productKey,omitempty"`
	ProductSlug string     `json:"productSlug,omitempty"`
	Name        string     `json:"name"`
	SKU         string     `json:"sku,omitempty"`
	Price       priceValue `json:"price"`
	Quantity    int        `json:"quantity"`
	TotalPrice  priceValue `json:"totalPrice"`
	Images      []string   `json:"images,omitempty"`
	AddedAt     time.Time  `json:"addedAt"`
}

type cartLineSnapshot struct {
	ProductKey  string
	ProductName string
	SKU         string
	ProductSlug string
	Currency    string
	UnitPrice   int64
	Images      []string
}

// toCartView renders lines from their add-to-cart snapshot. Pricing shown
// in the summary always comes from the live catalog.
func toCartView(cart domain.Cart) cartView {
	lineItems := make([]lineItemView, 0, len(cart.Lines))
	totalQty := 0
	for _, line := range cart.Lines {
		snap := parseLineSnapshot(line.Snapshot)
		name := snap.ProductName
		if name == "" {
			name = snap.ProductKey
		}
		if name == "" {
			name = line.ProductID
		}
		slug := snap.ProductSlug
		if slug == "" {
			slug = snap.ProductKey
		}
		currency := snap.Currency
		if currency == "" {
			currency = cart.Currency
		}
		unit := line.UnitPrice
		if unit == 0 && snap.UnitPrice > 0 {
			unit = domain.Money(snap.UnitPrice)
		}
		lineItems = append(lineItems, lineItemView{
			ID:          line.ID,
			ProductID:   line.ProductID,
			ProductKey:  snap.ProductKey,
			ProductSlug: slug,
			Name:        name,
			SKU:         snap.SKU,
			Price:       price(currency, unit),
			Quantity:    line.Quantity,
			TotalPrice:  price(currency, line.Total),
			Images:      snap.Images,
			AddedAt:     line.CreatedAt,
		})
		totalQty += line.Quantity
	}

	out := cartView{
		ID:                    cart.ID,
		State:                 cart.State,
		LineItems:             lineItems,
		TotalPrice:            price(cart.Currency, cart.Total),
		TotalLineItemQuantity: totalQty,
		CreatedAt:             cart.CreatedAt,
	}
	if cart.CustomerID != nil {
		out.CustomerID = *cart.CustomerID
	}
	return out
}

func parseLineSnapshot(raw map[string]interface{}) cartLineSnapshot {
	var out cartLineSnapshot
	if raw == nil {
		return out
	}
	if v, ok := raw["productKey"].(string); ok {
		out.ProductKey = v
	}
	if v, ok := raw["productName"].(string); ok {
		out.ProductName = v
	}
	if v, ok := raw["sku"].(string); ok {
		out.SKU = v
	}
	if v, ok := raw["productSlug"].(string); ok {
		out.ProductSlug = v
	}
	switch v := raw["unitPrice"].(type) {
	case int64:
		out.UnitPrice = v
	case int:
		out.UnitPrice = int64(v)
	case float64:
		out.UnitPrice = int64(v)
	case string:
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			out.UnitPrice = parsed
		}
	}
	if v, ok := raw["currency"].(string); ok {
		out.Currency = v
	}
	out.Images = parseImageList(raw["images"])
	return out
}

func parseImageList(raw interface{}) []string {
	var urls []string
	switch v := raw.(type) {
	case []string:
		urls = v
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				urls = append(urls, s)
			}
		}
	}
	var out []string
	for _, u := range urls {
		if strings.TrimSpace(u) != "" {
			out = append(out, u)
		}
	}
	return out
}
