package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

type Service struct {
	repo        cartRepo
	productRepo productRepo
	shipping    ShippingQuoter
	tax         TaxCalculator
	logger      *zap.Logger
}

type cartRepo interface {
	Create(ctx context.Context, in cartrepo.CreateCartInput) (*domain.Cart, error)
	GetByID(ctx context.Context, id string) (*domain.Cart, error)
	GetActiveByCustomer(ctx context.Context, customerID string) (*domain.Cart, error)
	AddLineItem(ctx context.Context, cartID string, product domain.Product, quantity int, snapshot map[string]interface{}) error
	ChangeLineItemQuantity(ctx context.Context, cartID, lineItemID string, quantity int) error
	TransitionState(ctx context.Context, cartID, from, to string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
}

type Option func(*Service)

func WithPricing(shipping ShippingQuoter, tax TaxCalculator) Option {
	return func(s *Service) {
		s.shipping = shipping
		s.tax = tax
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func New(repo cartRepo, productRepo productRepo, opts ...Option) *Service {
	s := &Service{repo: repo, productRepo: productRepo}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("cart")
	return s
}

type CreateInput struct {
	Currency string `json:"currency" binding:"required,len=3"`
}

type UpdateInput struct {
	Actions []UpdateAction `json:"actions" binding:"required,min=1,dive"`
}

type UpdateAction struct {
	Action     string `json:"action" binding:"required"`
	SKU        string `json:"sku,omitempty"`
	ProductID  string `json:"productId,omitempty"`
	LineItemID string `json:"lineItemId,omitempty"`
	Quantity   int    `json:"quantity,omitempty"`
}

// Create opens a cart. An empty customerID yields a guest cart.
func (s *Service) Create(ctx context.Context, customerID string, in CreateInput) (*domain.Cart, error) {
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		return nil, fmt.Errorf("%w: currency required", domain.ErrInvalidInput)
	}
	var owner *string
	if id := strings.TrimSpace(customerID); id != "" {
		owner = &id
	}
	cart, err := s.repo.Create(ctx, cartrepo.CreateCartInput{CustomerID: owner, Currency: currency})
	if err != nil {
		return nil, err
	}
	s.logger.Info("cart created", zap.String("cart_id", cart.ID), zap.Bool("guest", owner == nil))
	return cart, nil
}

// Get returns the cart if requesterID may see it. Carts owned by someone
// else read as not found.
func (s *Service) Get(ctx context.Context, requesterID, id string) (*domain.Cart, error) {
	cart, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(cart, requesterID) {
		return nil, domain.ErrNotFound
	}
	return cart, nil
}

func (s *Service) GetActive(ctx context.Context, customerID string) (*domain.Cart, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetActiveByCustomer(ctx, customerID)
}

func (s *Service) Update(ctx context.Context, requesterID, cartID string, in UpdateInput) (*domain.Cart, error) {
	if len(in.Actions) == 0 {
		return nil, fmt.Errorf("%w: actions required", domain.ErrInvalidInput)
	}
	cart, err := s.Get(ctx, requesterID, cartID)
	if err != nil {
		return nil, err
	}
	if cart.State != domain.CartStateActive {
		return nil, fmt.Errorf("%w: cart is %s", domain.ErrInvalidInput, cart.State)
	}

	for _, action := range in.Actions {
		switch strings.ToLower(strings.TrimSpace(action.Action)) {
		case "addlineitem":
			if action.Quantity <= 0 {
				return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
			}
			product, err := s.lookupProduct(ctx, action)
			if err != nil {
				return nil, err
			}
			if err := s.repo.AddLineItem(ctx, cartID, *product, action.Quantity, snapshotFromProduct(*product)); err != nil {
				return nil, err
			}
		case "changelineitemquantity":
			lineID := strings.TrimSpace(action.LineItemID)
			if lineID == "" {
				return nil, fmt.Errorf("%w: lineItemId required", domain.ErrInvalidInput)
			}
			if action.Quantity <= 0 {
				return nil, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
			}
			if err := s.repo.ChangeLineItemQuantity(ctx, cartID, lineID, action.Quantity); err != nil {
				return nil, err
			}
		case "removelineitem":
			lineID := strings.TrimSpace(action.LineItemID)
			if lineID == "" {
				return nil, fmt.Errorf("%w: lineItemId required", domain.ErrInvalidInput)
			}
			if err := s.repo.ChangeLineItemQuantity(ctx, cartID, lineID, 0); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unsupported action %q", domain.ErrInvalidInput, action.Action)
		}
	}

	return s.repo.GetByID(ctx, cartID)
}

// Products loads the live catalog entries referenced by lines.
func (s *Service) Products(ctx context.Context, lines []domain.CartLine) (domain.ProductSet, error) {
	ids := domain.LineProductIDs(lines)
	if len(ids) == 0 {
		return domain.ProductSet{}, nil
	}
	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return domain.NewProductSet(products), nil
}

type SummaryRequest struct {
	Address          *domain.Address
	ShippingMethodID string
}

// PricedCart is a cart with its live-price summary and checkout blockers.
type PricedCart struct {
	Cart     *domain.Cart
	Summary  Summary
	Problems []string
}

// Summary prices the cart against the live catalog.
func (s *Service) Summary(ctx context.Context, requesterID, cartID string, req SummaryRequest) (*PricedCart, error) {
	cart, err := s.Get(ctx, requesterID, cartID)
	if err != nil {
		return nil, err
	}
	products, err := s.Products(ctx, cart.Lines)
	if err != nil {
		return nil, err
	}
	summary, err := Summarize(SummaryInput{
		Lines:            cart.Lines,
		Products:         products,
		Address:          req.Address,
		ShippingMethodID: req.ShippingMethodID,
		Shipping:         s.shipping,
		Tax:              s.tax,
	})
	if err != nil {
		return nil, err
	}
	return &PricedCart{Cart: cart, Summary: summary, Problems: Validate(cart.Lines, products)}, nil
}

// Claim moves an active cart to ordered. Only one caller can claim a cart;
// the rest get domain.ErrStateConflict.
func (s *Service) Claim(ctx context.Context, cartID string) error {
	if err := s.repo.TransitionState(ctx, cartID, domain.CartStateActive, domain.CartStateOrdered); err != nil {
		return fmt.Errorf("claim cart: %w", err)
	}
	return nil
}

// Reopen returns a claimed cart to active, e.g. after a failed payment.
func (s *Service) Reopen(ctx context.Context, cartID string) error {
	if err := s.repo.TransitionState(ctx, cartID, domain.CartStateOrdered, domain.CartStateActive); err != nil {
		return fmt.Errorf("reopen cart: %w", err)
	}
	return nil
}

func (s *Service) lookupProduct(ctx context.Context, action UpdateAction) (*domain.Product, error) {
	var (
		product *domain.Product
		err     error
	)
	switch {
	case strings.TrimSpace(action.ProductID) != "":
		product, err = s.productRepo.GetByID(ctx, strings.TrimSpace(action.ProductID))
	case strings.TrimSpace(action.SKU) != "":
		product, err = s.productRepo.GetBySKU(ctx, strings.TrimSpace(action.SKU))
	default:
		return nil, fmt.Errorf("%w: sku or productId required", domain.ErrInvalidInput)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: product not found", domain.ErrInvalidInput)
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, fmt.Errorf("%w: product %s is not available", domain.ErrInvalidInput, product.SKU)
	}
	return product, nil
}

func visibleTo(cart *domain.Cart, requesterID string) bool {
	if cart.CustomerID == nil {
		return true
	}
	return *cart.CustomerID == strings.TrimSpace(requesterID)
}

func snapshotFromProduct(p domain.Product) map[string]interface{} {
	slug := strings.TrimSpace(p.Key)
	if slug == "" {
		slug = strings.ReplaceAll(strings.ToLower(p.Name), " ", "-")
	}
	snap := map[string]interface{}{
		"productKey":  p.Key,
		"productName": p.Name,
		"sku":         p.SKU,
		"productSlug": slug,
		"unitPrice":   int64(p.Price),
		"currency":    p.Currency,
	}
	if images, ok := p.Attributes["images"]; ok {
		snap["images"] = images
	}
	return snap
}
