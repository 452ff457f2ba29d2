package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/offer"
	"github.com/fjod/go_delivery/internal/pricing"
	"github.com/fjod/go_delivery/pkg/logger"
	"go.uber.org/zap"
)

type PriceRequest struct {
	CustomerID string
	AddressID  string
	OfferCode  string

	// Items overrides the stored cart when non-empty.
	Items []domain.CartItem
}

// OfferRejection tells the customer why a typed code was not applied.
type OfferRejection struct {
	Code   string       `json:"code"`
	Reason offer.Reason `json:"reason"`
	Detail string       `json:"detail,omitempty"`
}

type PricedDraft struct {
	*pricing.Draft
	OfferRejection *OfferRejection `json:"offer_rejection,omitempty"`
}

// ComputePrice prices a cart for preview. An offer that fails validation
// does not fail the preview; the draft comes back at full price with the
// rejection attached.
func (s *Service) ComputePrice(ctx context.Context, req *PriceRequest) (*PricedDraft, error) {
	if req.CustomerID == "" || req.AddressID == "" {
		return nil, validationError("customer and address are required")
	}

	items, err := s.resolveItems(ctx, req.CustomerID, req.Items)
	if err != nil {
		return nil, err
	}
	address, err := s.store.GetAddress(ctx, req.CustomerID, req.AddressID)
	if err != nil {
		return nil, err
	}
	rules, err := s.rules.Active(ctx)
	if err != nil {
		return nil, err
	}

	draft, _, err := s.price(ctx, req.CustomerID, items, address, rules, req.OfferCode)
	var oe *offer.Error
	if errors.As(err, &oe) {
		return &PricedDraft{
			Draft:          draft,
			OfferRejection: &OfferRejection{Code: oe.Code, Reason: oe.Reason, Detail: oe.Detail},
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &PricedDraft{Draft: draft}, nil
}

// price runs the calculator and validates the offer against the resulting
// subtotal. On an offer failure the full-price draft is returned with the
// *offer.Error.
func (s *Service) price(
	ctx context.Context,
	customerID string,
	items []domain.CartItem,
	address *domain.Address,
	rules *domain.RuleSet,
	offerCode string) (*pricing.Draft, *domain.Offer, error) {

	in := pricing.Input{Items: items, Address: *address, Rules: *rules}
	draft, err := pricing.Calculate(in)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(offerCode) == "" {
		return draft, nil, nil
	}

	o, err := s.validator.Validate(ctx, offerCode, customerID, draft.Subtotal)
	if err != nil {
		if errors.Is(err, offer.ErrOfferInvalid) {
			logger.FromContext(ctx, s.log).Info("offer rejected",
				zap.String("customer_id", customerID),
				zap.String("offer_code", offerCode),
				zap.String("reason", string(offer.ReasonOf(err))))
		}
		return draft, nil, err
	}

	in.Offer = o
	draft, err = pricing.Calculate(in)
	if err != nil {
		return nil, nil, err
	}
	return draft, o, nil
}

func (s *Service) resolveItems(ctx context.Context, customerID string, items []domain.CartItem) ([]domain.CartItem, error) {
	if len(items) > 0 {
		return items, nil
	}
	c, err := s.carts.GetCart(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(c.Items) == 0 {
		return nil, pricing.ErrEmptyCart
	}
	return c.Items, nil
}

// GetDeliveryEstimate never fails for a missing band; the estimate comes
// back marked unavailable instead.
func (s *Service) GetDeliveryEstimate(ctx context.Context, distanceKm float64) (pricing.Estimate, error) {
	if distanceKm < 0 {
		return pricing.Estimate{}, validationError("distance must not be negative")
	}
	rules, err := s.rules.Active(ctx)
	if err != nil {
		return pricing.Estimate{}, err
	}
	return pricing.EstimateDelivery(rules.TimeRules, distanceKm), nil
}
