package service

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_delivery/internal/cache"
	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/offer"
	r "github.com/fjod/go_delivery/internal/repository"
)

// MockStore implements Store for testing
type MockStore struct {
	mu sync.Mutex

	Rules       *domain.RuleSet
	RuleSetErr  error
	RuleSetHits int

	Addresses      map[string]*domain.Address
	PaymentMethods map[string]*domain.PaymentMethod
	PaymentCalls   int
	Unavailable    []string
	Availability   map[string]bool

	Offers      map[string]*domain.Offer
	Redemptions map[string]int

	Orders         map[string]*domain.Order
	CreateOrderErr error
	Reservation    *r.OfferReservation
	Created        *domain.Order
	IdempotencyIDs map[string]string

	// StatusConflicts makes that many UpdateOrderStatus/UpdatePickupStatus
	// calls fail before one succeeds.
	StatusConflicts int
	StatusChanges   []*r.StatusChange

	Pickups map[string]*domain.PickupJob
	Reviews map[string]*domain.Review

	Saved       []any
	Settings    *domain.Settings
	ActiveCalls []string
}

func NewMockStore() *MockStore {
	return &MockStore{
		Rules:          &domain.RuleSet{Settings: domain.Settings{SystemStatus: domain.SystemOnline}},
		Addresses:      make(map[string]*domain.Address),
		PaymentMethods: make(map[string]*domain.PaymentMethod),
		Offers:         make(map[string]*domain.Offer),
		Redemptions:    make(map[string]int),
		Orders:         make(map[string]*domain.Order),
		IdempotencyIDs: make(map[string]string),
		Pickups:        make(map[string]*domain.PickupJob),
		Reviews:        make(map[string]*domain.Review),
	}
}

func (m *MockStore) GetOfferByCode(_ context.Context, code string) (*domain.Offer, error) {
	o, ok := m.Offers[code]
	if !ok {
		return nil, offer.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockStore) CountRedemptions(_ context.Context, offerID, customerID string) (int, error) {
	return m.Redemptions[offerID+"/"+customerID], nil
}

func (m *MockStore) GetAddress(_ context.Context, customerID, id string) (*domain.Address, error) {
	a, ok := m.Addresses[id]
	if !ok || a.CustomerID != customerID {
		return nil, r.ErrAddressNotFound
	}
	return a, nil
}

func (m *MockStore) GetPaymentMethod(_ context.Context, code string) (*domain.PaymentMethod, error) {
	m.PaymentCalls++
	pm, ok := m.PaymentMethods[code]
	if !ok {
		return nil, r.ErrPaymentNotFound
	}
	return pm, nil
}

func (m *MockStore) UnavailableProducts(_ context.Context, _ []string) ([]string, error) {
	return m.Unavailable, nil
}

func (m *MockStore) SetProductAvailability(_ context.Context, id, _ string, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Availability == nil {
		m.Availability = make(map[string]bool)
	}
	m.Availability[id] = available
	return nil
}

func (m *MockStore) CreateOrder(_ context.Context, o *domain.Order, res *r.OfferReservation) error {
	m.Reservation = res
	if m.CreateOrderErr != nil {
		return m.CreateOrderErr
	}
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	m.Created = o
	m.Orders[o.ID] = o
	if o.IdempotencyKey != "" {
		m.IdempotencyIDs[o.CustomerID+"/"+o.IdempotencyKey] = o.ID
	}
	return nil
}

func (m *MockStore) FindOrderIDByIdempotencyKey(_ context.Context, customerID, key string) (string, error) {
	id, ok := m.IdempotencyIDs[customerID+"/"+key]
	if !ok {
		return "", r.ErrOrderNotFound
	}
	return id, nil
}

func (m *MockStore) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.Orders[id]
	if !ok {
		return nil, r.ErrOrderNotFound
	}
	cp := *o
	cp.StatusHistory = append([]domain.StatusEntry(nil), o.StatusHistory...)
	return &cp, nil
}

func (m *MockStore) ListOrdersByCustomer(_ context.Context, customerID string, limit int) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range m.Orders {
		if o.CustomerID == customerID && len(out) < limit {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MockStore) UpdateOrderStatus(_ context.Context, c *r.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatusChanges = append(m.StatusChanges, c)
	if m.StatusConflicts > 0 {
		m.StatusConflicts--
		return r.ErrStatusConflict
	}
	o, ok := m.Orders[c.ID]
	if !ok {
		return r.ErrOrderNotFound
	}
	if string(o.Status) != c.From || o.Version() != c.ExpectedVersion {
		return r.ErrStatusConflict
	}
	o.Status = domain.OrderStatus(c.Entry.Status)
	o.StatusHistory = append(o.StatusHistory, c.Entry)
	if o.DeliveryPartnerID == "" {
		o.DeliveryPartnerID = c.ClaimPartner
	}
	return nil
}

func (m *MockStore) AddReview(_ context.Context, orderID, productID string, rev *domain.Review) error {
	key := orderID + "/" + productID
	if _, ok := m.Reviews[key]; ok {
		return r.ErrReviewExists
	}
	m.Reviews[key] = rev
	return nil
}

func (m *MockStore) ListPublicOffers(_ context.Context, now time.Time) ([]*domain.Offer, error) {
	var out []*domain.Offer
	for _, o := range m.Offers {
		if o.IsActive && o.IsPublic && !now.Before(o.ValidFrom) && !now.After(o.ValidTo) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *MockStore) CreatePickupJob(_ context.Context, p *domain.PickupJob) error {
	m.Pickups[p.ID] = p
	return nil
}

func (m *MockStore) GetPickupJob(_ context.Context, id string) (*domain.PickupJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Pickups[id]
	if !ok {
		return nil, r.ErrPickupNotFound
	}
	cp := *p
	cp.StatusHistory = append([]domain.StatusEntry(nil), p.StatusHistory...)
	return &cp, nil
}

func (m *MockStore) UpdatePickupStatus(_ context.Context, c *r.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatusChanges = append(m.StatusChanges, c)
	if m.StatusConflicts > 0 {
		m.StatusConflicts--
		return r.ErrStatusConflict
	}
	p, ok := m.Pickups[c.ID]
	if !ok {
		return r.ErrPickupNotFound
	}
	p.Status = domain.PickupStatus(c.Entry.Status)
	p.StatusHistory = append(p.StatusHistory, c.Entry)
	if p.DeliveryPartnerID == "" {
		p.DeliveryPartnerID = c.ClaimPartner
	}
	return nil
}

func (m *MockStore) ListAddresses(_ context.Context, customerID string) ([]*domain.Address, error) {
	var out []*domain.Address
	for _, a := range m.Addresses {
		if a.CustomerID == customerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MockStore) SaveAddress(_ context.Context, a *domain.Address) error {
	if a.ID == "" {
		a.ID = "addr-new"
	}
	m.Addresses[a.ID] = a
	return nil
}

func (m *MockStore) SetDefaultAddress(_ context.Context, customerID, id string) error {
	if _, err := m.GetAddress(context.Background(), customerID, id); err != nil {
		return err
	}
	for _, a := range m.Addresses {
		if a.CustomerID == customerID {
			a.IsDefault = a.ID == id
		}
	}
	return nil
}

func (m *MockStore) GetRuleSet(_ context.Context) (*domain.RuleSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RuleSetHits++
	if m.RuleSetErr != nil {
		return nil, m.RuleSetErr
	}
	return m.Rules, nil
}

func (m *MockStore) UpdateSettings(_ context.Context, s *domain.Settings) error {
	m.Settings = s
	return nil
}

func (m *MockStore) ListDeliveryFeeRules(context.Context) ([]domain.DeliveryFeeRule, error) {
	return m.Rules.FeeRules, nil
}

func (m *MockStore) ListDeliveryTimeRules(context.Context) ([]domain.DeliveryTimeRule, error) {
	return m.Rules.TimeRules, nil
}

func (m *MockStore) ListHandlingCharges(context.Context) ([]domain.HandlingCharge, error) {
	return m.Rules.HandlingCharges, nil
}

func (m *MockStore) ListGstTaxes(context.Context) ([]domain.GstTax, error) {
	return m.Rules.Taxes, nil
}

func (m *MockStore) ListOffers(context.Context) ([]*domain.Offer, error) {
	out := make([]*domain.Offer, 0, len(m.Offers))
	for _, o := range m.Offers {
		out = append(out, o)
	}
	return out, nil
}

func (m *MockStore) SaveDeliveryFeeRule(_ context.Context, rule *domain.DeliveryFeeRule) error {
	m.Saved = append(m.Saved, rule)
	return nil
}

func (m *MockStore) SaveDeliveryTimeRule(_ context.Context, rule *domain.DeliveryTimeRule) error {
	m.Saved = append(m.Saved, rule)
	return nil
}

func (m *MockStore) SaveHandlingCharge(_ context.Context, c *domain.HandlingCharge) error {
	m.Saved = append(m.Saved, c)
	return nil
}

func (m *MockStore) SaveGstTax(_ context.Context, g *domain.GstTax) error {
	m.Saved = append(m.Saved, g)
	return nil
}

func (m *MockStore) SaveOffer(_ context.Context, o *domain.Offer) error {
	m.Saved = append(m.Saved, o)
	return nil
}

func (m *MockStore) SetRuleActive(_ context.Context, kind domain.RuleKind, id string, _ bool) error {
	m.ActiveCalls = append(m.ActiveCalls, string(kind)+"/"+id)
	return nil
}

// MockRuleCache implements cache.RuleCache for testing
type MockRuleCache struct {
	mu          sync.Mutex
	rules       *domain.RuleSet
	GetErr      error
	Invalidated int
}

func (c *MockRuleCache) GetRuleSet(context.Context) (*domain.RuleSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.GetErr != nil {
		return nil, c.GetErr
	}
	if c.rules == nil {
		return nil, cache.ErrCacheMiss
	}
	return c.rules, nil
}

func (c *MockRuleCache) SetRuleSet(_ context.Context, rs *domain.RuleSet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = rs
	return nil
}

func (c *MockRuleCache) InvalidateRuleSet(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Invalidated++
	c.rules = nil
	return nil
}

// MockCarts implements CartStore for testing
type MockCarts struct {
	Carts   map[string]*domain.Cart
	Cleared []string
}

func (c *MockCarts) GetCart(_ context.Context, customerID string) (*domain.Cart, error) {
	if cart, ok := c.Carts[customerID]; ok {
		return cart, nil
	}
	return &domain.Cart{CustomerID: customerID}, nil
}

func (c *MockCarts) ClearCart(_ context.Context, customerID string) error {
	c.Cleared = append(c.Cleared, customerID)
	return nil
}

// MockRecorder implements Recorder for testing
type MockRecorder struct {
	mu          sync.Mutex
	Submissions []string
	Transitions []string
}

func (m *MockRecorder) OrderSubmitted(_ context.Context, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Submissions = append(m.Submissions, outcome)
}

func (m *MockRecorder) StatusTransition(_ context.Context, entity, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transitions = append(m.Transitions, entity+":"+outcome)
}
