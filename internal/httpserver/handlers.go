package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/service/cart"
	"storefront/internal/service/checkout"
	"storefront/internal/service/order"
	"storefront/internal/zone"
)

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.deps.Products.List(c.Request.Context(), false)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, toProductView(p))
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "results": out})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.Products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toProductView(*p))
}

func (h *handlers) createCart(c *gin.Context) {
	var in cart.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	created, err := h.deps.Carts.Create(c.Request.Context(), customerID(c), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, toCartView(*created))
}

func (h *handlers) getCart(c *gin.Context) {
	found, err := h.deps.Carts.Get(c.Request.Context(), customerID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toCartView(*found))
}

func (h *handlers) updateCart(c *gin.Context) {
	var in cart.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	updated, err := h.deps.Carts.Update(c.Request.Context(), customerID(c), c.Param("id"), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toCartView(*updated))
}

// cartSummary prices the cart; the destination comes from query parameters.
func (h *handlers) cartSummary(c *gin.Context) {
	req := cart.SummaryRequest{
		Address:          addressFromQuery(c),
		ShippingMethodID: strings.TrimSpace(c.Query("shippingMethodId")),
	}
	priced, err := h.deps.Carts.Summary(c.Request.Context(), customerID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	view := toCartView(*priced.Cart)
	view.Summary = &priced.Summary
	view.Problems = priced.Problems
	c.JSON(http.StatusOK, view)
}

type quoteLine struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type quoteRequest struct {
	CartID          string         `json:"cartId"`
	Lines           []quoteLine    `json:"lines" binding:"omitempty,dive"`
	ShippingAddress domain.Address `json:"shippingAddress"`
}

func (h *handlers) shippingQuotes(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	ctx := c.Request.Context()

	var lines []domain.CartLine
	if id := strings.TrimSpace(req.CartID); id != "" {
		found, err := h.deps.Carts.Get(ctx, customerID(c), id)
		if err != nil {
			writeError(c, h.logger, err)
			return
		}
		lines = found.Lines
	} else {
		for _, l := range req.Lines {
			lines = append(lines, domain.CartLine{ProductID: l.ProductID, Quantity: l.Quantity})
		}
	}
	if len(lines) == 0 {
		badRequest(c, "cartId or lines required")
		return
	}

	products, err := h.deps.Carts.Products(ctx, lines)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	quotes, err := h.deps.Shipping.Calculate(lines, products, req.ShippingAddress)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes})
}

// shippingLocations lists the destinations the zone registry knows, with
// their zone terms, optionally filtered by ?class=.
func (h *handlers) shippingLocations(c *gin.Context) {
	class := zone.Class(strings.ToLower(strings.TrimSpace(c.Query("class"))))
	switch class {
	case "", zone.Metro, zone.Urban, zone.Rural:
	default:
		badRequest(c, "class must be one of metro, urban, rural")
		return
	}
	currency := h.deps.Payments.Currency()
	locations := h.deps.Zones.Locations(class)
	out := make([]locationView, 0, len(locations))
	for _, loc := range locations {
		z, ok := h.deps.Zones.Zone(loc.Class)
		if !ok {
			continue
		}
		out = append(out, toLocationView(loc, z, currency))
	}
	c.JSON(http.StatusOK, gin.H{"country": h.deps.Zones.Country(), "count": len(out), "results": out})
}

// paymentMethods prices every method for amount, given in minor units.
func (h *handlers) paymentMethods(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("amount"))
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || amount < 0 {
		badRequest(c, "amount must be a non-negative integer in minor units")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"currency": h.deps.Payments.Currency(),
		"methods":  h.deps.Payments.AvailableMethods(domain.Money(amount)),
	})
}

func (h *handlers) validatePayment(c *gin.Context) {
	var req payment.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, h.deps.Payments.Validate(req))
}

func (h *handlers) placeOrder(c *gin.Context) {
	var in checkout.PlaceOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err.Error())
		return
	}
	in.CustomerID = customerID(c)
	receipt, err := h.deps.Checkout.PlaceOrder(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.deps.Orders.List(c.Request.Context(), customerID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "results": orders})
}

func (h *handlers) getOrder(c *gin.Context) {
	o, err := h.deps.Orders.Get(c.Request.Context(), customerID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o, "canCancel": domain.CanCancel(o.Status)})
}

func (h *handlers) cancelOrder(c *gin.Context) {
	o, err := h.deps.Orders.Cancel(c.Request.Context(), customerID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

type advanceRequest struct {
	Status         string `json:"status" binding:"required"`
	ExpectedStatus string `json:"expectedStatus"`
}

func (h *handlers) advanceOrder(c *gin.Context) {
	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	o, err := h.deps.Orders.Advance(c.Request.Context(), order.AdvanceCommand{
		OrderID:        c.Param("id"),
		Target:         req.Status,
		ExpectedStatus: req.ExpectedStatus,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

func addressFromQuery(c *gin.Context) *domain.Address {
	addr := domain.Address{
		Country:    strings.TrimSpace(c.Query("country")),
		State:      strings.TrimSpace(c.Query("state")),
		PostalCode: strings.TrimSpace(c.Query("postalCode")),
		City:       strings.TrimSpace(c.Query("city")),
	}
	if addr.Country == "" && addr.City == "" && addr.PostalCode == "" {
		return nil
	}
	return &addr
}
