package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/httpserver"
	"storefront/internal/logging"
	"storefront/internal/migrate"
	"storefront/internal/payment"
	cartrepo "storefront/internal/repository/cart"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	cartsvc "storefront/internal/service/cart"
	checkoutsvc "storefront/internal/service/checkout"
	ordersvc "storefront/internal/service/order"
	productsvc "storefront/internal/service/product"
	"storefront/internal/shipping"
	"storefront/internal/tax"
	"storefront/internal/zone"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("api")

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, db.Options{})
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	if err := migrate.Apply(ctx, dbpool); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	co := cfg.Checkout
	zones := zone.Default()
	calculator := shipping.NewCalculator(zones, shipping.Policy{
		ExpressMultiplier: co.ExpressMultiplier,
		CODSurcharge:      co.CODSurcharge,
		UnknownZoneCost:   co.UnknownZoneCost,
		UnknownZoneDays:   co.UnknownZoneDays,
	}, shipping.CarrierCalculated{
		MethodInfo: shipping.MethodInfo{ID: "tcs-overnight", Name: "TCS Overnight", Carrier: "TCS", EstimatedDays: 1},
		BaseCost:   domain.Major(350),
		RatePerKg:  domain.Major(120),
	})
	taxes := tax.Default()
	payments := payment.NewResolver(payment.Config{
		Currency:     co.Currency,
		CODFee:       co.CODFee,
		CODMaxAmount: co.CODMaxAmount,
		Timeout:      co.PaymentTimeout,
	}, payment.WithLogger(logger))

	productRepo := productrepo.NewPostgres(dbpool, logger)
	productService := productsvc.New(productRepo)
	cartRepo := cartrepo.NewPostgres(dbpool, logger)
	cartService := cartsvc.New(cartRepo, productRepo,
		cartsvc.WithPricing(calculator, taxes),
		cartsvc.WithLogger(logger),
	)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	orderService := ordersvc.New(orderRepo, logger)
	checkoutService := checkoutsvc.New(checkoutsvc.Deps{
		Carts:    cartService,
		Orders:   orderRepo,
		Payments: payments,
		Shipping: calculator,
		Tax:      taxes,
		Logger:   logger,
	})

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Products:    productService,
		Carts:       cartService,
		Shipping:    calculator,
		Zones:       zones,
		Payments:    payments,
		Checkout:    checkoutService,
		Orders:      orderService,
		CORSOrigins: cfg.CORSOrigins,
		AdminToken:  cfg.AdminToken,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
