package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/offer"
	"github.com/fjod/go_delivery/internal/pricing"
	r "github.com/fjod/go_delivery/internal/repository"
	"github.com/fjod/go_delivery/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SubmitRequest struct {
	CustomerID     string
	AddressID      string
	OfferCode      string
	PaymentMethod  string
	IdempotencyKey string

	// Items overrides the stored cart when non-empty.
	Items []domain.CartItem
}

type SubmitResult struct {
	OrderID             string             `json:"order_id"`
	Status              domain.OrderStatus `json:"status"`
	Total               decimal.Decimal    `json:"total"`
	PaymentInstructions string             `json:"payment_instructions,omitempty"`

	// Duplicate is set when the idempotency key matched an earlier order.
	Duplicate bool `json:"duplicate,omitempty"`
}

const (
	outcomePlaced    = "placed"
	outcomeDuplicate = "duplicate"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"
)

// SubmitOrder re-prices the cart and persists it as a pending order. The
// offer unit is reserved in the same transaction that inserts the order.
func (s *Service) SubmitOrder(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	res, err := s.submitOrder(ctx, req)
	switch {
	case err == nil && res.Duplicate:
		s.metrics.OrderSubmitted(ctx, outcomeDuplicate)
	case err == nil:
		s.metrics.OrderSubmitted(ctx, outcomePlaced)
	case isBusinessError(err):
		logger.FromContext(ctx, s.log).Info("order rejected",
			zap.String("customer_id", req.CustomerID), zap.Error(err))
		s.metrics.OrderSubmitted(ctx, outcomeRejected)
	default:
		logger.FromContext(ctx, s.log).Error("order submission failed",
			zap.String("customer_id", req.CustomerID), zap.Error(err))
		s.metrics.OrderSubmitted(ctx, outcomeFailed)
	}
	return res, err
}

func (s *Service) submitOrder(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	if req.CustomerID == "" || req.AddressID == "" {
		return nil, validationError("customer and address are required")
	}

	rules, err := s.rules.Active(ctx)
	if err != nil {
		return nil, err
	}
	if status := rules.Settings.SystemStatus; status != domain.SystemOnline {
		return nil, &SiteUnavailableError{Status: string(status)}
	}

	method, err := s.store.GetPaymentMethod(ctx, domain.NormalizePaymentCode(req.PaymentMethod))
	if errors.Is(err, r.ErrPaymentNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrPaymentMethodUnavailable, req.PaymentMethod)
	}
	if err != nil {
		return nil, err
	}
	if !method.IsActive {
		return nil, fmt.Errorf("%w: %q", ErrPaymentMethodUnavailable, method.Code)
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" {
		if res, err := s.existingOrder(ctx, req.CustomerID, key, method); res != nil || err != nil {
			return res, err
		}
	}

	items, err := s.resolveItems(ctx, req.CustomerID, req.Items)
	if err != nil {
		return nil, err
	}
	address, err := s.store.GetAddress(ctx, req.CustomerID, req.AddressID)
	if err != nil {
		return nil, err
	}
	if address.Expired() {
		return nil, pricing.ErrAddressMissingDistance
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	unavailable, err := s.store.UnavailableProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(unavailable) > 0 {
		return nil, &ItemUnavailableError{ProductIDs: unavailable}
	}

	draft, o, err := s.price(ctx, req.CustomerID, items, address, rules, req.OfferCode)
	if err != nil {
		return nil, err
	}

	now := s.now()
	actor := domain.Actor{ID: req.CustomerID, Role: domain.RoleCustomer}
	order := newOrder(draft, req.CustomerID, method.Code, key)
	order.StatusHistory = []domain.StatusEntry{{
		Status:    string(domain.OrderPending),
		Timestamp: now,
		Actor:     actor,
		Message:   "order placed",
	}}

	var reservation *r.OfferReservation
	if o != nil {
		reservation = &r.OfferReservation{
			OfferID:          o.ID,
			CustomerID:       req.CustomerID,
			PerCustomerLimit: o.PerCustomerLimit,
		}
	}

	err = s.store.CreateOrder(ctx, order, reservation)
	switch {
	case errors.Is(err, r.ErrOfferExhausted):
		return nil, &offer.Error{Code: o.Code, Reason: offer.ReasonUsageExhausted, Detail: "usage limit reached"}
	case errors.Is(err, r.ErrCustomerLimitReached):
		return nil, &offer.Error{Code: o.Code, Reason: offer.ReasonCustomerLimitReached, Detail: "already redeemed"}
	case errors.Is(err, r.ErrDuplicateOrder) && key != "":
		res, errExisting := s.existingOrder(ctx, req.CustomerID, key, method)
		if errExisting != nil {
			return nil, errExisting
		}
		if res != nil {
			return res, nil
		}
		return nil, err
	case err != nil:
		return nil, err
	}

	logger.FromContext(ctx, s.log).Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("customer_id", order.CustomerID),
		zap.String("total", order.Total.StringFixed(2)),
		zap.String("offer_code", order.AppliedOfferCode))

	if len(req.Items) == 0 {
		if err := s.carts.ClearCart(ctx, req.CustomerID); err != nil {
			logger.FromContext(ctx, s.log).Warn("failed to clear cart after order",
				zap.String("order_id", order.ID), zap.Error(err))
		}
	}

	return &SubmitResult{
		OrderID:             order.ID,
		Status:              order.Status,
		Total:               order.Total,
		PaymentInstructions: method.Instructions,
	}, nil
}

// existingOrder returns nil, nil when no order carries the key yet.
func (s *Service) existingOrder(ctx context.Context, customerID, key string, method *domain.PaymentMethod) (*SubmitResult, error) {
	id, err := s.store.FindOrderIDByIdempotencyKey(ctx, customerID, key)
	if errors.Is(err, r.ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}

	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx, s.log).Info("duplicate order submission",
		zap.String("idempotency_key", key), zap.String("order_id", id))
	return &SubmitResult{
		OrderID:             o.ID,
		Status:              o.Status,
		Total:               o.Total,
		PaymentInstructions: method.Instructions,
		Duplicate:           true,
	}, nil
}

func newOrder(d *pricing.Draft, customerID, paymentMethod, idempotencyKey string) *domain.Order {
	items := make([]domain.OrderItem, 0, len(d.Lines))
	for _, l := range d.Lines {
		items = append(items, domain.OrderItem{
			ProductID:           l.ProductID,
			Name:                l.Name,
			UnitPrice:           l.UnitPrice,
			DiscountedUnitPrice: l.DiscountedUnitPrice,
			Quantity:            l.Quantity,
			LineTotal:           l.LineTotal,
		})
	}
	return &domain.Order{
		ID:               uuid.NewString(),
		CustomerID:       customerID,
		Items:            items,
		Subtotal:         d.Subtotal,
		DeliveryFee:      d.DeliveryFee,
		HandlingCharge:   d.HandlingCharge,
		Tax:              d.Tax,
		Discount:         d.Discount,
		Total:            d.Total,
		PaymentMethod:    paymentMethod,
		DeliveryAddress:  d.Address,
		AppliedOfferCode: d.AppliedOfferCode,
		Status:           domain.OrderPending,
		IdempotencyKey:   idempotencyKey,
	}
}

// isBusinessError separates caller-fixable outcomes from infrastructure
// failures.
func isBusinessError(err error) bool {
	for _, target := range []error{
		ErrValidation, ErrSiteUnavailable, ErrItemUnavailable, ErrPaymentMethodUnavailable,
		ErrForbidden, ErrReviewLocked,
		offer.ErrOfferInvalid,
		pricing.ErrEmptyCart, pricing.ErrInvalidQuantity, pricing.ErrAddressMissingDistance, pricing.ErrBelowMinimumCart,
		r.ErrAddressNotFound, r.ErrOrderNotFound, r.ErrPickupNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
