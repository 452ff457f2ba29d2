package service

import (
	"context"
	"strings"

	"github.com/fjod/go_delivery/internal/domain"
)

func (s *Service) ListAddresses(ctx context.Context, customerID string) ([]*domain.Address, error) {
	return s.store.ListAddresses(ctx, customerID)
}

// SaveAddress requires a distance; addresses without one only exist from
// before the field became mandatory.
func (s *Service) SaveAddress(ctx context.Context, a *domain.Address) error {
	if a.CustomerID == "" {
		return validationError("customer is required")
	}
	if strings.TrimSpace(a.FullAddress) == "" || strings.TrimSpace(a.City) == "" || strings.TrimSpace(a.Pincode) == "" {
		return validationError("full address, city and pincode are required")
	}
	if a.Expired() {
		return validationError("distance in km is required")
	}
	return s.store.SaveAddress(ctx, a)
}

func (s *Service) SetDefaultAddress(ctx context.Context, customerID, id string) error {
	return s.store.SetDefaultAddress(ctx, customerID, id)
}
