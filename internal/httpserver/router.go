package httpserver

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/service/cart"
	"storefront/internal/service/checkout"
	"storefront/internal/service/order"
	"storefront/internal/shipping"
	"storefront/internal/zone"
)

type ProductService interface {
	List(ctx context.Context, includeInactive bool) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

type CartService interface {
	Create(ctx context.Context, customerID string, in cart.CreateInput) (*domain.Cart, error)
	Get(ctx context.Context, requesterID, id string) (*domain.Cart, error)
	Update(ctx context.Context, requesterID, cartID string, in cart.UpdateInput) (*domain.Cart, error)
	Products(ctx context.Context, lines []domain.CartLine) (domain.ProductSet, error)
	Summary(ctx context.Context, requesterID, cartID string, req cart.SummaryRequest) (*cart.PricedCart, error)
}

type ShippingQuoter interface {
	Calculate(lines []domain.CartLine, products domain.ProductSet, dest domain.Address) ([]shipping.Quote, error)
}

type ZoneDirectory interface {
	Country() string
	Zone(c zone.Class) (zone.Zone, bool)
	Locations(c zone.Class) []zone.Location
}

type PaymentResolver interface {
	Currency() string
	AvailableMethods(amount domain.Money) []payment.Method
	Validate(req payment.Request) payment.ValidationResult
}

type CheckoutService interface {
	PlaceOrder(ctx context.Context, in checkout.PlaceOrderInput) (*checkout.Receipt, error)
}

type OrderService interface {
	Get(ctx context.Context, requesterID, id string) (*domain.Order, error)
	List(ctx context.Context, requesterID string) ([]domain.Order, error)
	Cancel(ctx context.Context, requesterID, id string) (*domain.Order, error)
	Advance(ctx context.Context, cmd order.AdvanceCommand) (*domain.Order, error)
}

// Deps are the services the router exposes.
type Deps struct {
	Products    ProductService
	Carts       CartService
	Shipping    ShippingQuoter
	Zones       ZoneDirectory
	Payments    PaymentResolver
	Checkout    CheckoutService
	Orders      OrderService
	CORSOrigins []string
	AdminToken  string
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db pinger, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), cors.New(corsConfig(deps.CORSOrigins)), identify(), requestLogger(logger))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	h := &handlers{deps: deps, logger: logger}

	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)

	router.POST("/carts", h.createCart)
	router.GET("/carts/:id", h.getCart)
	router.POST("/carts/:id/lines", h.updateCart)
	router.GET("/carts/:id/summary", h.cartSummary)

	router.POST("/shipping/quotes", h.shippingQuotes)
	router.GET("/shipping/locations", h.shippingLocations)
	router.GET("/payment-methods", h.paymentMethods)
	router.POST("/payments/validate", h.validatePayment)

	customer := router.Group("", requireCustomer())
	customer.POST("/checkout", h.placeOrder)
	customer.GET("/orders", h.listOrders)
	customer.GET("/orders/:id", h.getOrder)
	customer.POST("/orders/:id/cancel", h.cancelOrder)

	router.POST("/orders/:id/status", requireAdmin(deps.AdminToken), h.advanceOrder)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", customerHeader, adminHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
