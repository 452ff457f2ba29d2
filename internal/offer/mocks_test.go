package offer

import (
	"context"

	"github.com/fjod/go_delivery/internal/domain"
)

// MockStore implements Store for testing
type MockStore struct {
	Offers       map[string]*domain.Offer
	Redemptions  map[string]int
	GetErr       error
	CountErr     error
	CountCalls   int
	RequestedKey string
}

func (m *MockStore) GetOfferByCode(_ context.Context, code string) (*domain.Offer, error) {
	m.RequestedKey = code
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	o, ok := m.Offers[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockStore) CountRedemptions(_ context.Context, offerID, customerID string) (int, error) {
	m.CountCalls++
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	return m.Redemptions[offerID+"/"+customerID], nil
}
