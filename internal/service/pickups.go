package service

import (
	"context"
	"strings"

	"github.com/fjod/go_delivery/internal/domain"
	r "github.com/fjod/go_delivery/internal/repository"
	"github.com/fjod/go_delivery/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PickupRequest struct {
	CustomerID    string
	PickupAddress domain.AddressSnapshot
	DropAddress   domain.AddressSnapshot
	ItemType      string
	Note          string
	TotalAmount   *decimal.Decimal
}

func (s *Service) CreatePickupJob(ctx context.Context, req *PickupRequest) (*domain.PickupJob, error) {
	if req.CustomerID == "" {
		return nil, validationError("customer is required")
	}
	if strings.TrimSpace(req.PickupAddress.FullAddress) == "" || strings.TrimSpace(req.DropAddress.FullAddress) == "" {
		return nil, validationError("pickup and drop addresses are required")
	}
	if strings.TrimSpace(req.ItemType) == "" {
		return nil, validationError("item type is required")
	}
	if req.TotalAmount != nil && req.TotalAmount.IsNegative() {
		return nil, validationError("total amount must not be negative")
	}

	now := s.now()
	p := &domain.PickupJob{
		ID:            uuid.NewString(),
		CustomerID:    req.CustomerID,
		PickupAddress: req.PickupAddress,
		DropAddress:   req.DropAddress,
		ItemType:      strings.TrimSpace(req.ItemType),
		Note:          strings.TrimSpace(req.Note),
		TotalAmount:   req.TotalAmount,
		Status:        domain.PickupPending,
		StatusHistory: []domain.StatusEntry{{
			Status:    string(domain.PickupPending),
			Timestamp: now,
			Actor:     domain.Actor{ID: req.CustomerID, Role: domain.RoleCustomer},
			Message:   "pickup requested",
		}},
	}
	if err := s.store.CreatePickupJob(ctx, p); err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.log).Info("pickup job created",
		zap.String("pickup_id", p.ID), zap.String("customer_id", p.CustomerID))
	return p, nil
}

func (s *Service) GetPickupJob(ctx context.Context, actor domain.Actor, id string) (*domain.PickupJob, error) {
	p, err := s.store.GetPickupJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleRestaurant || !canView(actor, p.CustomerID, p.DeliveryPartnerID) {
		return nil, r.ErrPickupNotFound
	}
	return p, nil
}
