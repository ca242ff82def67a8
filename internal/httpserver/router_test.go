package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/service/cart"
	"storefront/internal/service/checkout"
	"storefront/internal/service/order"
	"storefront/internal/shipping"
	"storefront/internal/zone"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubProducts struct {
	products []domain.Product
}

func (s *stubProducts) List(context.Context, bool) ([]domain.Product, error) {
	return s.products, nil
}

func (s *stubProducts) Get(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

type stubCarts struct {
	cart     *domain.Cart
	products domain.ProductSet
	priced   *cart.PricedCart
	err      error
	lastReq  cart.SummaryRequest
}

func (s *stubCarts) Create(_ context.Context, customerID string, in cart.CreateInput) (*domain.Cart, error) {
	c := &domain.Cart{ID: "c1", Currency: in.Currency, State: domain.CartStateActive}
	if customerID != "" {
		c.CustomerID = &customerID
	}
	return c, nil
}

func (s *stubCarts) Get(context.Context, string, string) (*domain.Cart, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.cart, nil
}

func (s *stubCarts) Update(context.Context, string, string, cart.UpdateInput) (*domain.Cart, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.cart, nil
}

func (s *stubCarts) Products(context.Context, []domain.CartLine) (domain.ProductSet, error) {
	return s.products, nil
}

func (s *stubCarts) Summary(_ context.Context, _, _ string, req cart.SummaryRequest) (*cart.PricedCart, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.priced, nil
}

type stubCheckout struct {
	receipt *checkout.Receipt
	err     error
	last    checkout.PlaceOrderInput
}

func (s *stubCheckout) PlaceOrder(_ context.Context, in checkout.PlaceOrderInput) (*checkout.Receipt, error) {
	s.last = in
	return s.receipt, s.err
}

type stubOrders struct {
	order      *domain.Order
	err        error
	lastCmd    order.AdvanceCommand
	lastCaller string
}

func (s *stubOrders) Get(_ context.Context, requesterID, _ string) (*domain.Order, error) {
	s.lastCaller = requesterID
	return s.order, s.err
}

func (s *stubOrders) List(context.Context, string) ([]domain.Order, error) {
	return nil, s.err
}

func (s *stubOrders) Cancel(_ context.Context, requesterID, _ string) (*domain.Order, error) {
	s.lastCaller = requesterID
	return s.order, s.err
}

func (s *stubOrders) Advance(_ context.Context, cmd order.AdvanceCommand) (*domain.Order, error) {
	s.lastCmd = cmd
	return s.order, s.err
}

type fixture struct {
	carts    *stubCarts
	checkout *stubCheckout
	orders   *stubOrders
	router   *gin.Engine
}

func grams(g int64) *int64 { return &g }

func newFixture(t *testing.T, db pinger) *fixture {
	t.Helper()
	products := []domain.Product{{
		ID: "p1", Key: "Kurta Blue", SKU: "K-1", Name: "Kurta", Price: domain.Major(1500), Currency: "PKR",
		WeightGrams: grams(400), RequiresShipping: true, IsActive: true, StockQuantity: 3,
	}}
	f := &fixture{
		carts: &stubCarts{
			cart: &domain.Cart{ID: "c1", Currency: "PKR", State: domain.CartStateActive, Lines: []domain.CartLine{
				{ID: "l1", ProductID: "p1", Quantity: 2, UnitPrice: domain.Major(1500), Total: domain.Major(3000),
					Snapshot: map[string]interface{}{"productName": "Kurta", "sku": "K-1", "images": []interface{}{"a.jpg"}}},
			}},
			products: domain.NewProductSet(products),
		},
		checkout: &stubCheckout{},
		orders:   &stubOrders{},
	}
	f.router = buildRouter(zap.NewNop(), db, Deps{
		Products:   &stubProducts{products: products},
		Carts:      f.carts,
		Shipping:   shipping.NewCalculator(zone.Default(), shipping.DefaultPolicy()),
		Zones:      zone.Default(),
		Payments:   payment.NewResolver(payment.DefaultConfig()),
		Checkout:   f.checkout,
		Orders:     f.orders,
		AdminToken: "secret",
	})
	return f
}

func (f *fixture) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthAndReady(t *testing.T) {
	f := newFixture(t, stubPinger{})
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/healthz", nil, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/readyz", nil, nil).Code)

	down := newFixture(t, stubPinger{err: errors.New("down")})
	assert.Equal(t, http.StatusServiceUnavailable, down.do(http.MethodGet, "/readyz", nil, nil).Code)

	none := newFixture(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, none.do(http.MethodGet, "/readyz", nil, nil).Code)
}

func TestProducts(t *testing.T) {
	f := newFixture(t, stubPinger{})

	rec := f.do(http.MethodGet, "/products/p1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "kurta-blue", body["slug"])
	assert.Equal(t, "1500.00", body["price"].(map[string]interface{})["formatted"])

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/products/missing", nil, nil).Code)

	rec = f.do(http.MethodGet, "/products", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])
}

func TestCreateAndGetCart(t *testing.T) {
	f := newFixture(t, stubPinger{})

	rec := f.do(http.MethodPost, "/carts", map[string]string{"currency": "PKR"}, map[string]string{customerHeader: "cust-1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "cust-1", decode(t, rec)["customerId"])

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/carts", map[string]string{}, nil).Code)

	rec = f.do(http.MethodGet, "/carts/c1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 2, body["totalLineItemQuantity"])
	line := body["lineItems"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Kurta", line["name"])
	assert.Equal(t, []interface{}{"a.jpg"}, line["images"])

	f.carts.err = domain.ErrNotFound
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/carts/c1", nil, nil).Code)
}

func TestUpdateCart_InvalidInput(t *testing.T) {
	f := newFixture(t, stubPinger{})
	f.carts.err = errors.Join(domain.ErrInvalidInput, errors.New("quantity must be positive"))

	rec := f.do(http.MethodPost, "/carts/c1/lines", map[string]interface{}{
		"actions": []map[string]interface{}{{"action": "addLineItem", "sku": "K-1", "quantity": 0}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decode(t, rec)["kind"])
}

func TestCartSummary(t *testing.T) {
	f := newFixture(t, stubPinger{})
	f.carts.priced = &cart.PricedCart{
		Cart:     f.carts.cart,
		Summary:  cart.Summary{Subtotal: domain.Major(3000), Total: domain.Major(3510), Tax: domain.Major(510)},
		Problems: []string{"insufficient stock for Kurta: requested 2, available 1"},
	}

	rec := f.do(http.MethodGet, "/carts/c1/summary?country=PK&city=Karachi&shippingMethodId=express", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.carts.lastReq.Address)
	assert.Equal(t, "Karachi", f.carts.lastReq.Address.City)
	assert.Equal(t, "express", f.carts.lastReq.ShippingMethodID)
	body := decode(t, rec)
	assert.EqualValues(t, 351000, body["summary"].(map[string]interface{})["total"])
	assert.Len(t, body["problems"], 1)

	f.do(http.MethodGet, "/carts/c1/summary", nil, nil)
	assert.Nil(t, f.carts.lastReq.Address)

	f.carts.err = cart.ErrShippingMethodUnavailable
	rec = f.do(http.MethodGet, "/carts/c1/summary?city=Gilgit&shippingMethodId=express", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestShippingQuotes(t *testing.T) {
	f := newFixture(t, stubPinger{})

	rec := f.do(http.MethodPost, "/shipping/quotes", map[string]interface{}{
		"lines":           []map[string]interface{}{{"productId": "p1", "quantity": 1}},
		"shippingAddress": map[string]string{"country": "PK", "city": "Lahore", "addressLine1": "x"},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	quotes := decode(t, rec)["quotes"].([]interface{})
	require.Len(t, quotes, 3)
	assert.Equal(t, shipping.MethodStandard, quotes[0].(map[string]interface{})["methodId"])

	rec = f.do(http.MethodPost, "/shipping/quotes", map[string]interface{}{
		"cartId":          "c1",
		"shippingAddress": map[string]string{"country": "PK", "city": "Atlantis"},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	quotes = decode(t, rec)["quotes"].([]interface{})
	require.Len(t, quotes, 1)
	assert.Equal(t, shipping.MethodUnverified, quotes[0].(map[string]interface{})["methodId"])

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/shipping/quotes", map[string]interface{}{}, nil).Code)
}

func TestShippingLocations(t *testing.T) {
	f := newFixture(t, stubPinger{})

	rec := f.do(http.MethodGet, "/shipping/locations?class=metro", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "PK", body["country"])
	assert.EqualValues(t, 4, body["count"])
	results := body["results"].([]interface{})
	first := results[0].(map[string]interface{})
	assert.Equal(t, "islamabad", first["id"])
	assert.Equal(t, "metro", first["zone"])
	assert.EqualValues(t, 20000, first["baseRate"].(map[string]interface{})["centAmount"])

	rec = f.do(http.MethodGet, "/shipping/locations", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 16, decode(t, rec)["count"])

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/shipping/locations?class=moon", nil, nil).Code)
}

func TestPaymentMethods(t *testing.T) {
	f := newFixture(t, stubPinger{})

	rec := f.do(http.MethodGet, "/payment-methods?amount=6000000", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "PKR", body["currency"])
	methods := body["methods"].([]interface{})
	require.Len(t, methods, 5)
	cod := methods[0].(map[string]interface{})
	assert.Equal(t, payment.MethodCashOnDelivery, cod["id"])
	assert.Equal(t, false, cod["available"])

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/payment-methods?amount=abc", nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/payment-methods", nil, nil).Code)
}

func TestValidatePayment(t *testing.T) {
	f := newFixture(t, stubPinger{})

	rec := f.do(http.MethodPost, "/payments/validate", map[string]interface{}{
		"amount": 0, "paymentMethodId": "bitcoin", "currency": "USD",
		"customerEmail": "nope", "customerPhone": "123",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["isValid"])
	assert.Len(t, body["errors"], 5)
}

func TestCheckout(t *testing.T) {
	f := newFixture(t, stubPinger{})
	payload := map[string]interface{}{
		"cartId":          "c1",
		"paymentMethodId": "cod",
		"customerEmail":   "a@example.com",
		"customerPhone":   "+923001234567",
		"shippingAddress": map[string]string{"country": "PK", "city": "Karachi", "addressLine1": "x"},
	}

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/checkout", payload, nil).Code)

	f.checkout.receipt = &checkout.Receipt{Order: domain.Order{ID: "o1", Status: domain.OrderStatusConfirmed}}
	rec := f.do(http.MethodPost, "/checkout", payload, map[string]string{customerHeader: "cust-1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "cust-1", f.checkout.last.CustomerID)

	f.checkout.err = &checkout.ValidationError{Problems: []string{"Kurta is no longer available"}}
	rec = f.do(http.MethodPost, "/checkout", payload, map[string]string{customerHeader: "cust-1"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "validation_failed", body["kind"])
	assert.Equal(t, []interface{}{"Kurta is no longer available"}, body["details"])

	f.checkout.err = context.DeadlineExceeded
	rec = f.do(http.MethodPost, "/checkout", payload, map[string]string{customerHeader: "cust-1"})
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestOrders(t *testing.T) {
	f := newFixture(t, stubPinger{})
	headers := map[string]string{customerHeader: "cust-1"}
	f.orders.order = &domain.Order{ID: "o1", UserID: "cust-1", Status: domain.OrderStatusConfirmed}

	rec := f.do(http.MethodGet, "/orders/o1", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["canCancel"])
	assert.Equal(t, "cust-1", f.orders.lastCaller)

	f.orders.err = &domain.CancelError{Status: domain.OrderStatusShipped}
	rec = f.do(http.MethodPost, "/orders/o1/cancel", nil, headers)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "already shipped")

	f.orders.err = domain.ErrNotOrderOwner
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/orders/o1/cancel", nil, headers).Code)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/orders/o1", nil, nil).Code)
}

func TestAdvanceOrder_RequiresAdmin(t *testing.T) {
	f := newFixture(t, stubPinger{})
	f.orders.order = &domain.Order{ID: "o1", Status: domain.OrderStatusProcessing}
	body := map[string]string{"status": "processing", "expectedStatus": "confirmed"}

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/orders/o1/status", body, nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/orders/o1/status", body, map[string]string{adminHeader: "wrong"}).Code)

	rec := f.do(http.MethodPost, "/orders/o1/status", body, map[string]string{adminHeader: "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, order.AdvanceCommand{OrderID: "o1", Target: "processing", ExpectedStatus: "confirmed"}, f.orders.lastCmd)

	f.orders.err = &domain.TransitionError{From: domain.OrderStatusDelivered, To: domain.OrderStatusPending}
	rec = f.do(http.MethodPost, "/orders/o1/status", map[string]string{"status": "pending"}, map[string]string{adminHeader: "secret"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind string
		code int
	}{
		{nil, "", http.StatusOK},
		{domain.ErrNotFound, "not_found", http.StatusNotFound},
		{shipping.ErrWeightLimitExceeded, "weight_limit_exceeded", http.StatusUnprocessableEntity},
		{checkout.ErrPaymentMethodUnavailable, "payment_unavailable", http.StatusUnprocessableEntity},
		{payment.ErrPaymentInProgress, "conflict", http.StatusConflict},
		{fmt.Errorf("claim cart: %w", domain.ErrStateConflict), "conflict", http.StatusConflict},
		{fmt.Errorf("persist cancellation: %w", domain.ErrInvalidTransition), "invalid_transition", http.StatusConflict},
		{context.Canceled, "canceled", http.StatusBadRequest},
		{errors.New("boom"), "internal", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		kind := errorKind(tt.err)
		assert.Equal(t, tt.kind, kind, "%v", tt.err)
		assert.Equal(t, tt.code, httpStatus(kind), "%v", tt.err)
	}
}
