package service

import (
	"context"
	"strings"

	"github.com/fjod/go_delivery/internal/domain"
	r "github.com/fjod/go_delivery/internal/repository"
	"github.com/fjod/go_delivery/pkg/logger"
	"go.uber.org/zap"
)

// GetOrder hides orders the actor has no business seeing behind not found.
func (s *Service) GetOrder(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, o.CustomerID, o.DeliveryPartnerID) {
		return nil, r.ErrOrderNotFound
	}
	return o, nil
}

// ListOrders returns the customer's own orders, newest first.
func (s *Service) ListOrders(ctx context.Context, customerID string) ([]*domain.Order, error) {
	if customerID == "" {
		return nil, validationError("customer is required")
	}
	return s.store.ListOrdersByCustomer(ctx, customerID, s.cfg.OrderPageSize)
}

type ReviewRequest struct {
	OrderID   string
	ProductID string
	Actor     domain.Actor
	Rating    int
	Comment   string
}

// AttachReview stores a customer's review of one delivered item.
func (s *Service) AttachReview(ctx context.Context, req *ReviewRequest) (*domain.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, validationError("rating must be between 1 and 5")
	}

	o, err := s.store.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if req.Actor.Role != domain.RoleCustomer || o.CustomerID != req.Actor.ID {
		return nil, ErrForbidden
	}
	if !o.ReviewsUnlocked() {
		return nil, ErrReviewLocked
	}
	if _, ok := o.Item(req.ProductID); !ok {
		return nil, validationError("product %s is not part of order %s", req.ProductID, o.ID)
	}

	rev := &domain.Review{
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: s.now(),
	}
	if err := s.store.AddReview(ctx, o.ID, req.ProductID, rev); err != nil {
		return nil, err
	}

	logger.FromContext(ctx, s.log).Info("review attached",
		zap.String("order_id", o.ID),
		zap.String("product_id", req.ProductID),
		zap.Int("rating", rev.Rating))
	return rev, nil
}

func (s *Service) ListPublicOffers(ctx context.Context) ([]*domain.Offer, error) {
	return s.store.ListPublicOffers(ctx, s.now())
}

func canView(actor domain.Actor, ownerID, partnerID string) bool {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleRestaurant:
		return true
	case domain.RoleCustomer:
		return actor.ID == ownerID
	case domain.RoleDelivery:
		return partnerID == "" || partnerID == actor.ID
	}
	return false
}
