package http

import (
	"context"
	"sync"

	"github.com/fjod/go_delivery/internal/cart"
	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/pricing"
	"github.com/fjod/go_delivery/internal/service"
)

// MockService records the last request of each kind and returns whatever
// the test configured.
type MockService struct {
	mu  sync.Mutex
	Err error

	Draft       *service.PricedDraft
	PriceReq    *service.PriceRequest
	Submit      *service.SubmitResult
	SubmitReq   *service.SubmitRequest
	Estimate    pricing.Estimate
	EstimateKm  float64
	Offers      []*domain.Offer
	Order       *domain.Order
	Orders      []*domain.Order
	Transition  *service.TransitionResult
	TransReq    *service.TransitionRequest
	Review      *domain.Review
	ReviewReq   *service.ReviewRequest
	Pickup      *domain.PickupJob
	PickupReq   *service.PickupRequest
	Addresses   []*domain.Address
	SavedAddr   *domain.Address
	DefaultAddr string
	Catalog     *service.RuleCatalog
	SavedRule   any
	Toggled     []string
	Settings    *domain.Settings
	ViewedBy    domain.Actor
	SoldOut     map[string]bool
}

func (m *MockService) ComputePrice(_ context.Context, req *service.PriceRequest) (*service.PricedDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PriceReq = req
	return m.Draft, m.Err
}

func (m *MockService) SubmitOrder(_ context.Context, req *service.SubmitRequest) (*service.SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitReq = req
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Submit, nil
}

func (m *MockService) GetDeliveryEstimate(_ context.Context, km float64) (pricing.Estimate, error) {
	m.EstimateKm = km
	return m.Estimate, m.Err
}

func (m *MockService) ListPublicOffers(context.Context) ([]*domain.Offer, error) {
	return m.Offers, m.Err
}

func (m *MockService) GetOrder(_ context.Context, actor domain.Actor, _ string) (*domain.Order, error) {
	m.ViewedBy = actor
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Order, nil
}

func (m *MockService) ListOrders(context.Context, string) ([]*domain.Order, error) {
	return m.Orders, m.Err
}

func (m *MockService) TransitionOrderStatus(_ context.Context, req *service.TransitionRequest) (*service.TransitionResult, error) {
	m.TransReq = req
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Transition, nil
}

func (m *MockService) AttachReview(_ context.Context, req *service.ReviewRequest) (*domain.Review, error) {
	m.ReviewReq = req
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Review, nil
}

func (m *MockService) CreatePickupJob(_ context.Context, req *service.PickupRequest) (*domain.PickupJob, error) {
	m.PickupReq = req
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Pickup, nil
}

func (m *MockService) GetPickupJob(_ context.Context, actor domain.Actor, _ string) (*domain.PickupJob, error) {
	m.ViewedBy = actor
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Pickup, nil
}

func (m *MockService) TransitionPickupStatus(_ context.Context, req *service.TransitionRequest) (*service.TransitionResult, error) {
	m.TransReq = req
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Transition, nil
}

func (m *MockService) ListAddresses(context.Context, string) ([]*domain.Address, error) {
	return m.Addresses, m.Err
}

func (m *MockService) SaveAddress(_ context.Context, a *domain.Address) error {
	m.SavedAddr = a
	if m.Err == nil && a.ID == "" {
		a.ID = "addr-new"
	}
	return m.Err
}

func (m *MockService) SetDefaultAddress(_ context.Context, _, id string) error {
	m.DefaultAddr = id
	return m.Err
}

func (m *MockService) ListRules(context.Context) (*service.RuleCatalog, error) {
	return m.Catalog, m.Err
}

func (m *MockService) SaveDeliveryFeeRule(_ context.Context, rule *domain.DeliveryFeeRule) error {
	m.SavedRule = rule
	return m.Err
}

func (m *MockService) SaveDeliveryTimeRule(_ context.Context, rule *domain.DeliveryTimeRule) error {
	m.SavedRule = rule
	return m.Err
}

func (m *MockService) SaveHandlingCharge(_ context.Context, c *domain.HandlingCharge) error {
	m.SavedRule = c
	return m.Err
}

func (m *MockService) SaveGstTax(_ context.Context, g *domain.GstTax) error {
	m.SavedRule = g
	return m.Err
}

func (m *MockService) SaveOffer(_ context.Context, o *domain.Offer) error {
	m.SavedRule = o
	return m.Err
}

func (m *MockService) SetRuleActive(_ context.Context, kind domain.RuleKind, id string, active bool) error {
	state := "off"
	if active {
		state = "on"
	}
	m.Toggled = append(m.Toggled, string(kind)+"/"+id+"/"+state)
	return m.Err
}

func (m *MockService) UpdateSettings(_ context.Context, s *domain.Settings) error {
	m.Settings = s
	return m.Err
}

func (m *MockService) SetProductAvailability(_ context.Context, id, _ string, available bool) error {
	if m.SoldOut == nil {
		m.SoldOut = make(map[string]bool)
	}
	m.SoldOut[id] = !available
	return m.Err
}

type MockCarts struct {
	carts map[string]*domain.Cart
	err   error
}

func newMockCarts() *MockCarts {
	return &MockCarts{carts: make(map[string]*domain.Cart)}
}

func (m *MockCarts) GetCart(_ context.Context, customerID string) (*domain.Cart, error) {
	if m.err != nil {
		return nil, m.err
	}
	if c, ok := m.carts[customerID]; ok {
		return c, nil
	}
	return &domain.Cart{CustomerID: customerID}, nil
}

func (m *MockCarts) AddItem(_ context.Context, customerID string, item domain.CartItem) error {
	if m.err != nil {
		return m.err
	}
	c, ok := m.carts[customerID]
	if !ok {
		c = &domain.Cart{CustomerID: customerID}
		m.carts[customerID] = c
	}
	c.Items = append(c.Items, item)
	return nil
}

func (m *MockCarts) UpdateQuantity(_ context.Context, customerID, productID string, quantity int) error {
	if m.err != nil {
		return m.err
	}
	c, ok := m.carts[customerID]
	if !ok {
		return cart.ErrItemNotFound
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	return cart.ErrItemNotFound
}

func (m *MockCarts) RemoveItem(ctx context.Context, customerID, productID string) error {
	return m.UpdateQuantity(ctx, customerID, productID, 0)
}

func (m *MockCarts) ClearCart(_ context.Context, customerID string) error {
	delete(m.carts, customerID)
	return m.err
}
