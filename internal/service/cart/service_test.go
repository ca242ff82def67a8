package cart

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

type stubRepo struct {
	createCart        *domain.Cart
	createErr         error
	lastCreate        cartrepo.CreateCartInput
	getByIDResults    []*domain.Cart
	getByIDErr        error
	getByIDCalls      int
	activeCart        *domain.Cart
	activeErr         error
	addLineItemErr    error
	changeLineItemErr error
	lastAddCartID     string
	lastAddProduct    domain.Product
	lastAddQty        int
	lastAddSnapshot   map[string]interface{}
	lastChangeCartID  string
	lastChangeLineID  string
	lastChangeQty     int
	lastStateCartID   string
	lastStateFrom     string
	lastStateValue    string
	setStateErr       error
}

func (s *stubRepo) Create(_ context.Context, in cartrepo.CreateCartInput) (*domain.Cart, error) {
	s.lastCreate = in
	return s.createCart, s.createErr
}

func (s *stubRepo) GetByID(_ context.Context, _ string) (*domain.Cart, error) {
	if s.getByIDErr != nil {
		return nil, s.getByIDErr
	}
	var res *domain.Cart
	if len(s.getByIDResults) > 0 {
		idx := s.getByIDCalls
		if idx >= len(s.getByIDResults) {
			idx = len(s.getByIDResults) - 1
		}
		res = s.getByIDResults[idx]
	}
	s.getByIDCalls++
	return res, nil
}

func (s *stubRepo) GetActiveByCustomer(_ context.Context, _ string) (*domain.Cart, error) {
	return s.activeCart, s.activeErr
}

func (s *stubRepo) AddLineItem(_ context.Context, cartID string, product domain.Product, quantity int, snapshot map[string]interface{}) error {
	s.lastAddCartID = cartID
	s.lastAddProduct = product
	s.lastAddQty = quantity
	s.lastAddSnapshot = snapshot
	return s.addLineItemErr
}

func (s *stubRepo) ChangeLineItemQuantity(_ context.Context, cartID, lineItemID string, quantity int) error {
	s.lastChangeCartID = cartID
	s.lastChangeLineID = lineItemID
	s.lastChangeQty = quantity
	return s.changeLineItemErr
}

func (s *stubRepo) TransitionState(_ context.Context, cartID, from, to string) error {
	s.lastStateCartID = cartID
	s.lastStateFrom = from
	s.lastStateValue = to
	return s.setStateErr
}

type stubProductRepo struct {
	products map[string]domain.Product
	err      error
	lastIDs  []string
}

func (s *stubProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *stubProductRepo) GetBySKU(_ context.Context, sku string) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.products {
		if p.SKU == sku {
			p := p
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubProductRepo) GetByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	s.lastIDs = ids
	if s.err != nil {
		return nil, s.err
	}
	var res []domain.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			res = append(res, p)
		}
	}
	return res, nil
}

func strPtr(v string) *string { return &v }

func TestCreate_RequiresCurrency(t *testing.T) {
	svc := New(&stubRepo{}, &stubProductRepo{})
	_, err := svc.Create(context.Background(), "cust-1", CreateInput{Currency: "  "})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreate_GuestAndOwned(t *testing.T) {
	repo := &stubRepo{createCart: &domain.Cart{ID: "c1"}}
	svc := New(repo, &stubProductRepo{})

	if _, err := svc.Create(context.Background(), "", CreateInput{Currency: "pkr"}); err != nil {
		t.Fatalf("Create guest: %v", err)
	}
	if repo.lastCreate.CustomerID != nil || repo.lastCreate.Currency != "PKR" {
		t.Fatalf("unexpected guest input %+v", repo.lastCreate)
	}

	if _, err := svc.Create(context.Background(), "cust-1", CreateInput{Currency: "PKR"}); err != nil {
		t.Fatalf("Create owned: %v", err)
	}
	if repo.lastCreate.CustomerID == nil || *repo.lastCreate.CustomerID != "cust-1" {
		t.Fatalf("expected owner cust-1, got %+v", repo.lastCreate)
	}
}

func TestGet_HidesOtherCustomersCart(t *testing.T) {
	repo := &stubRepo{getByIDResults: []*domain.Cart{{ID: "c1", CustomerID: strPtr("owner")}}}
	svc := New(repo, &stubProductRepo{})

	if _, err := svc.Get(context.Background(), "intruder", "c1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "owner", "c1"); err != nil {
		t.Fatalf("owner Get: %v", err)
	}
}

func TestUpdate_AddLineItemBySKU(t *testing.T) {
	repo := &stubRepo{getByIDResults: []*domain.Cart{
		{ID: "c1", CustomerID: strPtr("cust-1"), State: domain.CartStateActive},
		{ID: "c1", CustomerID: strPtr("cust-1"), State: domain.CartStateActive, Lines: []domain.CartLine{{ID: "l1"}}},
	}}
	products := &stubProductRepo{products: map[string]domain.Product{
		"p1": {ID: "p1", Key: "shirt", SKU: "SKU-1", Name: "Shirt", Price: domain.Major(1500), Currency: "PKR", IsActive: true},
	}}
	svc := New(repo, products)

	cart, err := svc.Update(context.Background(), "cust-1", "c1", UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", SKU: "SKU-1", Quantity: 2},
	}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("expected reloaded cart with a line, got %+v", cart)
	}
	if repo.lastAddProduct.ID != "p1" || repo.lastAddQty != 2 {
		t.Fatalf("unexpected add call product=%+v qty=%d", repo.lastAddProduct, repo.lastAddQty)
	}
	if repo.lastAddSnapshot["productSlug"] != "shirt" || repo.lastAddSnapshot["unitPrice"] != int64(150000) {
		t.Fatalf("unexpected snapshot %+v", repo.lastAddSnapshot)
	}
}

func TestUpdate_AddLineItemByProductID(t *testing.T) {
	repo := &stubRepo{getByIDResults: []*domain.Cart{{ID: "c1", State: domain.CartStateActive}}}
	products := &stubProductRepo{products: map[string]domain.Product{
		"p1": {ID: "p1", SKU: "SKU-1", Name: "Shirt", IsActive: true},
	}}
	svc := New(repo, products)

	if _, err := svc.Update(context.Background(), "", "c1", UpdateInput{Actions: []UpdateAction{
		{Action: "addLineItem", ProductID: "p1", Quantity: 1},
	}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if repo.lastAddProduct.ID != "p1" {
		t.Fatalf("expected product p1, got %+v", repo.lastAddProduct)
	}
}

func TestUpdate_RejectsInactiveAndUnknownProducts(t *testing.T) {
	repo := &stubRepo{getByIDResults: []*domain.Cart{{ID: "c1", State: domain.CartStateActive}}}
	products := &stubProductRepo{products: map[string]domain.Product{
		"p1": {ID: "p1", SKU: "OLD", Name: "Old", IsActive: false},
	}}
	svc := New(repo, products)

	for _, sku := range []string{"OLD", "MISSING"} {
		_, err := svc.Update(context.Background(), "", "c1", UpdateInput{Actions: []UpdateAction{
			{Action: "addLineItem", SKU: sku, Quantity: 1},
		}})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("sku %s: expected ErrInvalidInput, got %v", sku, err)
		}
	}
}

func TestUpdate_ChangeAndRemoveLineItem(t *testing.T) {
	repo := &stubRepo{getByIDResults: []*domain.Cart{{ID: "c1", CustomerID: strPtr("cust-1"), State: domain.CartStateActive}}}
	svc := New(repo, &stubProductRepo{})

	if _, err := svc.Update(context.Background(), "cust-1", "c1", UpdateInput{Actions: []UpdateAction{
		{Action: "changeLineItemQuantity", LineItemID: "l1", Quantity: 4},
	}}); err != nil {
		t.Fatalf("change: %v", err)
	}
	if repo.lastChangeLineID != "l1" || repo.lastChangeQty != 4 {
		t.Fatalf("unexpected change call %s %d", repo.lastChangeLineID, repo.lastChangeQty)
	}

	if _, err := svc.Update(context.Background(), "cust-1", "c1", UpdateInput{Actions: []UpdateAction{
		{Action: "removeLineItem", LineItemID: "l1"},
	}}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if repo.lastChangeQty != 0 {
		t.Fatalf("expected removal via quantity 0, got %d", repo.lastChangeQty)
	}
}

func TestUpdate_RejectsOrderedCartAndUnknownAction(t *testing.T) {
	ordered := &stubRepo{getByIDResults: []*domain.Cart{{ID: "c1", State: domain.CartStateOrdered}}}
	svc := New(ordered, &stubProductRepo{})
	_, err := svc.Update(context.Background(), "", "c1", UpdateInput{Actions: []UpdateAction{{Action: "removeLineItem", LineItemID: "l1"}}})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for ordered cart, got %v", err)
	}

	active := &stubRepo{getByIDResults: []*domain.Cart{{ID: "c1", State: domain.CartStateActive}}}
	svc = New(active, &stubProductRepo{})
	_, err = svc.Update(context.Background(), "", "c1", UpdateInput{Actions: []UpdateAction{{Action: "setShippingAddress"}}})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown action, got %v", err)
	}
}

func TestClaimAndReopen(t *testing.T) {
	repo := &stubRepo{}
	svc := New(repo, &stubProductRepo{})
	if err := svc.Claim(context.Background(), "c1"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if repo.lastStateCartID != "c1" || repo.lastStateFrom != domain.CartStateActive || repo.lastStateValue != domain.CartStateOrdered {
		t.Fatalf("unexpected claim call %s %s->%s", repo.lastStateCartID, repo.lastStateFrom, repo.lastStateValue)
	}

	if err := svc.Reopen(context.Background(), "c1"); err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if repo.lastStateFrom != domain.CartStateOrdered || repo.lastStateValue != domain.CartStateActive {
		t.Fatalf("unexpected reopen call %s->%s", repo.lastStateFrom, repo.lastStateValue)
	}

	repo.setStateErr = domain.ErrStateConflict
	if err := svc.Claim(context.Background(), "c1"); !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("expected wrapped ErrStateConflict, got %v", err)
	}
}

func TestSummary_UsesLivePricesAndReportsProblems(t *testing.T) {
	repo := &stubRepo{getByIDResults: []*domain.Cart{{
		ID:         "c1",
		CustomerID: strPtr("cust-1"),
		State:      domain.CartStateActive,
		Lines: []domain.CartLine{
			{ID: "l1", ProductID: "shirt", Quantity: 2, UnitPrice: domain.Major(400)},
			{ID: "l2", ProductID: "scarce", Quantity: 3, UnitPrice: domain.Major(50)},
		},
	}}}
	products := &stubProductRepo{products: catalog()}
	ship, tx := calculators()
	svc := New(repo, products, WithPricing(ship, tx))

	priced, err := svc.Summary(context.Background(), "cust-1", "c1", SummaryRequest{
		Address: &domain.Address{Country: "PK", City: "Karachi", Line1: "1 Main St"},
	})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if priced.Summary.Subtotal != domain.Major(1150) {
		t.Fatalf("expected live subtotal 1150, got %v", priced.Summary.Subtotal)
	}
	if len(priced.Problems) != 1 || priced.Problems[0] != "insufficient stock for Scarce: requested 3, available 1" {
		t.Fatalf("unexpected problems: %v", priced.Problems)
	}
	if len(products.lastIDs) != 2 {
		t.Fatalf("expected one catalog lookup for both products, got %v", products.lastIDs)
	}
}

func TestSummary_UnknownShippingMethod(t *testing.T) {
	repo := &stubRepo{getByIDResults: []*domain.Cart{{
		ID:    "c1",
		State: domain.CartStateActive,
		Lines: []domain.CartLine{{ID: "l1", ProductID: "shirt", Quantity: 1}},
	}}}
	ship, tx := calculators()
	svc := New(repo, &stubProductRepo{products: catalog()}, WithPricing(ship, tx))

	_, err := svc.Summary(context.Background(), "", "c1", SummaryRequest{
		Address:          &domain.Address{Country: "PK", City: "Karachi", Line1: "1 Main St"},
		ShippingMethodID: "teleport",
	})
	if !errors.Is(err, ErrShippingMethodUnavailable) {
		t.Fatalf("expected ErrShippingMethodUnavailable, got %v", err)
	}
}
