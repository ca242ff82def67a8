// Package payment prices, validates and processes checkout payments.
//
// Processing is simulated: every method resolves deterministically to the
// outcome in its Definition. Process is bounded by a timeout, honours caller
// cancellation, and is idempotent per order id.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

var (
	// ErrPaymentInProgress is returned when a payment for the same order is still running.
	ErrPaymentInProgress = errors.New("payment: already in progress for order")
	// ErrIdempotencyConflict is returned when an order is resubmitted with different payment details.
	ErrIdempotencyConflict = errors.New("payment: order already paid with different details")
)

// Request is a payment submission for one order.
type Request struct {
	OrderID         string       `json:"orderId"`
	Amount          domain.Money `json:"amount"`
	PaymentMethodID string       `json:"paymentMethodId"`
	Currency        string       `json:"currency"`
	CustomerEmail   string       `json:"customerEmail"`
	CustomerPhone   string       `json:"customerPhone"`
}

// ValidationResult lists every violated constraint; empty means valid.
type ValidationResult struct {
	Valid  bool     `json:"isValid"`
	Errors []string `json:"errors"`
}

// Result is the outcome of processing. PaymentID echoes the method id.
type Result struct {
	Success        bool                 `json:"success"`
	Status         domain.PaymentStatus `json:"status"`
	TransactionID  string               `json:"transactionId,omitempty"`
	PaymentID      string               `json:"paymentId"`
	RequiresAction bool                 `json:"requiresAction"`
	Error          string               `json:"error,omitempty"`
}

type Config struct {
	Currency     string
	CODFee       domain.Money
	CODMaxAmount domain.Money
	Timeout      time.Duration
	// Latency simulates the provider round-trip.
	Latency time.Duration
}

func DefaultConfig() Config {
	return Config{
		Currency:     "PKR",
		CODFee:       domain.Major(100),
		CODMaxAmount: domain.Major(50000),
		Timeout:      10 * time.Second,
	}
}

// Resolver is safe for concurrent use.
type Resolver struct {
	cfg      Config
	defs     []Definition
	byID     map[string]Definition
	validate *validator.Validate
	newID    func() string
	logger   *zap.Logger

	mu       sync.Mutex
	attempts map[string]attempt
}

type attempt struct {
	fingerprint string
	done        bool
	result      Result
}

type Option func(*Resolver)

// WithDefinitions replaces the default method table.
func WithDefinitions(defs []Definition) Option {
	return func(r *Resolver) { r.defs = defs }
}

// WithIDGenerator overrides transaction id generation.
func WithIDGenerator(fn func() string) Option {
	return func(r *Resolver) { r.newID = fn }
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

func NewResolver(cfg Config, opts ...Option) *Resolver {
	def := DefaultConfig()
	if strings.TrimSpace(cfg.Currency) == "" {
		cfg.Currency = def.Currency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	r := &Resolver{
		cfg:      cfg,
		validate: validator.New(),
		newID:    func() string { return "txn_" + uuid.NewString() },
		logger:   zap.NewNop(),
		attempts: make(map[string]attempt),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.defs == nil {
		r.defs = DefaultDefinitions(cfg.CODFee, cfg.CODMaxAmount)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	r.byID = make(map[string]Definition, len(r.defs))
	for _, d := range r.defs {
		r.byID[d.ID] = d
	}
	return r
}

// Currency is the single accepted currency code.
func (r *Resolver) Currency() string {
	return r.cfg.Currency
}

// AvailableMethods prices every method for amount and flags the ones over their ceiling.
func (r *Resolver) AvailableMethods(amount domain.Money) []Method {
	out := make([]Method, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d.price(amount))
	}
	return out
}

// MethodByID prices a single method; unknown ids return false.
func (r *Resolver) MethodByID(id string, amount domain.Money) (Method, bool) {
	d, ok := r.byID[id]
	if !ok {
		return Method{}, false
	}
	return d.price(amount), true
}

// Validate checks every field and reports all violations together.
func (r *Resolver) Validate(req Request) ValidationResult {
	var errs []string
	if req.Amount <= 0 {
		errs = append(errs, "invalid amount: must be greater than zero")
	}
	if _, ok := r.byID[req.PaymentMethodID]; !ok {
		errs = append(errs, fmt.Sprintf("invalid payment method: %q", req.PaymentMethodID))
	}
	if req.Currency != r.cfg.Currency {
		errs = append(errs, fmt.Sprintf("unsupported currency %q: only %s is accepted", req.Currency, r.cfg.Currency))
	}
	if err := r.validate.Var(req.CustomerEmail, "required,email"); err != nil {
		errs = append(errs, "invalid email address")
	}
	if err := r.validate.Var(req.CustomerPhone, "required,e164,startsnotwith=+0"); err != nil {
		errs = append(errs, "invalid phone number: use international format with country code, e.g. +923001234567")
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Process submits a payment. A repeated call for the same order returns the
// first result without charging again.
func (r *Resolver) Process(ctx context.Context, req Request) (Result, error) {
	if v := r.Validate(req); !v.Valid {
		return Result{
			Success:   false,
			Status:    domain.PaymentStatusFailed,
			PaymentID: req.PaymentMethodID,
			Error:     strings.Join(v.Errors, "; "),
		}, nil
	}

	fingerprint := fmt.Sprintf("%s|%d|%s", req.PaymentMethodID, req.Amount, req.Currency)
	if res, replay, err := r.reserve(req.OrderID, fingerprint); err != nil || replay {
		return res, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	if err := waitOrCancel(ctx, r.cfg.Latency); err != nil {
		r.release(req.OrderID)
		r.logger.Warn("payment aborted",
			zap.String("order_id", req.OrderID),
			zap.String("method", req.PaymentMethodID),
			zap.Error(err))
		return Result{}, fmt.Errorf("payment: %w", err)
	}

	def := r.byID[req.PaymentMethodID]
	res := Result{
		Success:        true,
		Status:         def.Outcome,
		TransactionID:  r.newID(),
		PaymentID:      def.ID,
		RequiresAction: def.Outcome != domain.PaymentStatusConfirmed,
	}
	r.complete(req.OrderID, res)

	r.logger.Info("payment processed",
		zap.String("order_id", req.OrderID),
		zap.String("method", def.ID),
		zap.String("status", string(res.Status)),
		zap.String("transaction_id", res.TransactionID))
	return res, nil
}

func (r *Resolver) reserve(orderID, fingerprint string) (Result, bool, error) {
	if orderID == "" {
		return Result{}, false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[orderID]
	if !ok {
		r.attempts[orderID] = attempt{fingerprint: fingerprint}
		return Result{}, false, nil
	}
	if a.fingerprint != fingerprint {
		return Result{}, false, ErrIdempotencyConflict
	}
	if !a.done {
		return Result{}, false, ErrPaymentInProgress
	}
	return a.result, true, nil
}

func (r *Resolver) complete(orderID string, res Result) {
	if orderID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.attempts[orderID]
	a.done = true
	a.result = res
	r.attempts[orderID] = a
}

func (r *Resolver) release(orderID string) {
	if orderID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, orderID)
}

// waitOrCancel blocks for d or until ctx is done.
func waitOrCancel(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
