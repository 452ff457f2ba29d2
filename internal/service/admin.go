package service

import (
	"context"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// RuleCatalog is every rule record, active or not, as the admin screens
// list them.
type RuleCatalog struct {
	FeeRules        []domain.DeliveryFeeRule  `json:"fee_rules"`
	TimeRules       []domain.DeliveryTimeRule `json:"time_rules"`
	HandlingCharges []domain.HandlingCharge   `json:"handling_charges"`
	Taxes           []domain.GstTax           `json:"taxes"`
	Offers          []*domain.Offer           `json:"offers"`
}

func (s *Service) ListRules(ctx context.Context) (*RuleCatalog, error) {
	var (
		c   RuleCatalog
		err error
	)
	if c.FeeRules, err = s.store.ListDeliveryFeeRules(ctx); err != nil {
		return nil, err
	}
	if c.TimeRules, err = s.store.ListDeliveryTimeRules(ctx); err != nil {
		return nil, err
	}
	if c.HandlingCharges, err = s.store.ListHandlingCharges(ctx); err != nil {
		return nil, err
	}
	if c.Taxes, err = s.store.ListGstTaxes(ctx); err != nil {
		return nil, err
	}
	if c.Offers, err = s.store.ListOffers(ctx); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) SaveDeliveryFeeRule(ctx context.Context, rule *domain.DeliveryFeeRule) error {
	if rule.Amount.IsNegative() || rule.MinSubtotal.IsNegative() {
		return validationError("amount and minimum subtotal must not be negative")
	}
	if rule.MaxSubtotal != nil && rule.MaxSubtotal.LessThan(rule.MinSubtotal) {
		return validationError("maximum subtotal is below the minimum")
	}
	return s.ruleWrite(ctx, domain.RuleDeliveryFee, func() error { return s.store.SaveDeliveryFeeRule(ctx, rule) })
}

func (s *Service) SaveDeliveryTimeRule(ctx context.Context, rule *domain.DeliveryTimeRule) error {
	if rule.MinDistance < 0 || rule.MaxDistance < rule.MinDistance {
		return validationError("distance band is invalid")
	}
	if rule.MinTime < 0 || rule.MaxTime < rule.MinTime {
		return validationError("time range is invalid")
	}
	return s.ruleWrite(ctx, domain.RuleDeliveryTime, func() error { return s.store.SaveDeliveryTimeRule(ctx, rule) })
}

func (s *Service) SaveHandlingCharge(ctx context.Context, c *domain.HandlingCharge) error {
	if c.Amount.IsNegative() {
		return validationError("handling charge must not be negative")
	}
	return s.ruleWrite(ctx, domain.RuleHandlingCharge, func() error { return s.store.SaveHandlingCharge(ctx, c) })
}

func (s *Service) SaveGstTax(ctx context.Context, g *domain.GstTax) error {
	switch g.Type {
	case domain.ChargeFlat:
	case domain.ChargePercentage:
		if g.Value.GreaterThan(hundred) {
			return validationError("tax rate above 100%%")
		}
	default:
		return validationError("unknown tax type %q", g.Type)
	}
	if g.Value.IsNegative() {
		return validationError("tax must not be negative")
	}
	return s.ruleWrite(ctx, domain.RuleGstTax, func() error { return s.store.SaveGstTax(ctx, g) })
}

func (s *Service) SaveOffer(ctx context.Context, o *domain.Offer) error {
	if domain.NormalizeOfferCode(o.Code) == "" {
		return validationError("offer code is required")
	}
	switch o.DiscountType {
	case domain.DiscountFlat:
	case domain.DiscountPercentage:
		if o.DiscountValue.GreaterThan(hundred) {
			return validationError("percentage discount above 100%%")
		}
	default:
		return validationError("unknown discount type %q", o.DiscountType)
	}
	if !o.DiscountValue.IsPositive() || o.MinOrderValue.IsNegative() {
		return validationError("discount must be positive and minimum order not negative")
	}
	if o.MaxDiscount != nil && o.MaxDiscount.IsNegative() {
		return validationError("maximum discount must not be negative")
	}
	if !o.ValidTo.After(o.ValidFrom) {
		return validationError("offer must end after it starts")
	}
	if o.TotalUsageLimit != nil && *o.TotalUsageLimit < 0 {
		return validationError("usage limit must not be negative")
	}
	return s.ruleWrite(ctx, domain.RuleOffer, func() error { return s.store.SaveOffer(ctx, o) })
}

func (s *Service) SetRuleActive(ctx context.Context, kind domain.RuleKind, id string, active bool) error {
	if !kind.Valid() {
		return validationError("unknown rule kind %q", kind)
	}
	return s.ruleWrite(ctx, kind, func() error { return s.store.SetRuleActive(ctx, kind, id, active) })
}

func (s *Service) UpdateSettings(ctx context.Context, settings *domain.Settings) error {
	status, ok := domain.ParseSystemStatus(string(settings.SystemStatus))
	if !ok {
		return validationError("unknown system status %q", settings.SystemStatus)
	}
	settings.SystemStatus = status
	if settings.MinCartAmount.IsNegative() {
		return validationError("minimum cart amount must not be negative")
	}
	return s.ruleWrite(ctx, "settings", func() error { return s.store.UpdateSettings(ctx, settings) })
}

// SetProductAvailability marks a menu item as orderable or sold out.
// Submissions containing a sold-out item fail with ItemUnavailable.
func (s *Service) SetProductAvailability(ctx context.Context, productID, name string, available bool) error {
	if productID == "" {
		return validationError("product id is required")
	}
	if err := s.store.SetProductAvailability(ctx, productID, name, available); err != nil {
		return err
	}
	logger.FromContext(ctx, s.log).Info("product availability changed",
		zap.String("product_id", productID), zap.Bool("available", available))
	return nil
}

func (s *Service) ruleWrite(ctx context.Context, kind domain.RuleKind, write func() error) error {
	if err := write(); err != nil {
		return err
	}
	s.rules.Invalidate(ctx)
	logger.FromContext(ctx, s.log).Info("pricing rules changed", zap.String("kind", string(kind)))
	return nil
}
