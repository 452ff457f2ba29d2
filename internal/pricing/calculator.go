package pricing

import (
	"fmt"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/shopspring/decimal"
)

// Input is everything a price depends on. The calculator reads it and never
// writes back.
type Input struct {
	Items   []domain.CartItem
	Address domain.Address
	Offer   *domain.Offer
	Rules   domain.RuleSet
}

type Line struct {
	ProductID           string           `json:"product_id"`
	Name                string           `json:"name,omitempty"`
	UnitPrice           decimal.Decimal  `json:"unit_price"`
	DiscountedUnitPrice *decimal.Decimal `json:"discounted_unit_price,omitempty"`
	Quantity            int              `json:"quantity"`
	LineTotal           decimal.Decimal  `json:"line_total"`
}

// Draft is a fully priced, unpersisted order.
type Draft struct {
	Lines            []Line                 `json:"lines"`
	Address          domain.AddressSnapshot `json:"address"`
	AddressID        string                 `json:"address_id"`
	Subtotal         decimal.Decimal        `json:"subtotal"`
	DeliveryFee      decimal.Decimal        `json:"delivery_fee"`
	HandlingCharge   decimal.Decimal        `json:"handling_charge"`
	Tax              decimal.Decimal        `json:"tax"`
	Discount         decimal.Decimal        `json:"discount"`
	Total            decimal.Decimal        `json:"total"`
	AppliedOfferCode string                 `json:"applied_offer_code,omitempty"`
	Estimate         Estimate               `json:"estimate"`
}

// Calculate prices a cart. The only failures are an empty cart, a bad item or
// quantity, an address without distance, and a subtotal below the active
// minimum cart amount.
func Calculate(in Input) (*Draft, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if in.Address.Expired() {
		return nil, ErrAddressMissingDistance
	}

	lines := make([]Line, 0, len(in.Items))
	subtotal := decimal.Zero
	for _, item := range in.Items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, ErrInvalidQuantity)
		}
		if err := validItem(item); err != nil {
			return nil, err
		}
		total := item.LineTotal()
		subtotal = subtotal.Add(total)
		lines = append(lines, Line{
			ProductID:           item.ProductID,
			Name:                item.Name,
			UnitPrice:           item.UnitPrice,
			DiscountedUnitPrice: item.DiscountedUnitPrice,
			Quantity:            item.Quantity,
			LineTotal:           total,
		})
	}
	subtotal = subtotal.Round(2)

	settings := in.Rules.Settings
	if settings.MinCartActive && subtotal.LessThan(settings.MinCartAmount) {
		return nil, &BelowMinimumError{Subtotal: subtotal, Minimum: settings.MinCartAmount}
	}

	draft := &Draft{
		Lines:          lines,
		Address:        in.Address.Snapshot(),
		AddressID:      in.Address.ID,
		Subtotal:       subtotal,
		DeliveryFee:    DeliveryFee(in.Rules.FeeRules, subtotal),
		HandlingCharge: HandlingCharge(in.Rules.HandlingCharges),
		Tax:            Tax(in.Rules.Taxes, subtotal),
		Discount:       decimal.Zero,
		Estimate:       EstimateDelivery(in.Rules.TimeRules, *in.Address.DistanceKm),
	}

	if in.Offer != nil && !subtotal.LessThan(in.Offer.MinOrderValue) {
		draft.Discount = in.Offer.Discount(subtotal)
		draft.AppliedOfferCode = in.Offer.Code
	}

	draft.Total = Total(draft.Subtotal, draft.DeliveryFee, draft.HandlingCharge, draft.Tax, draft.Discount)
	return draft, nil
}

func validItem(item domain.CartItem) error {
	if item.ProductID == "" || !item.UnitPrice.IsPositive() {
		return fmt.Errorf("product %q: %w", item.ProductID, ErrInvalidItem)
	}
	if item.DiscountedUnitPrice != nil && item.DiscountedUnitPrice.IsNegative() {
		return fmt.Errorf("product %q: %w", item.ProductID, ErrInvalidItem)
	}
	return nil
}

func DeliveryFee(rules []domain.DeliveryFeeRule, subtotal decimal.Decimal) decimal.Decimal {
	r, ok := SelectFeeRule(rules, subtotal)
	if !ok {
		return decimal.Zero
	}
	return r.Amount
}

func HandlingCharge(charges []domain.HandlingCharge) decimal.Decimal {
	sum := decimal.Zero
	for _, c := range charges {
		if c.IsActive {
			sum = sum.Add(c.Amount)
		}
	}
	return sum
}

func Tax(taxes []domain.GstTax, subtotal decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range taxes {
		if t.IsActive {
			sum = sum.Add(t.Amount(subtotal))
		}
	}
	return sum
}

// Total never goes below zero.
func Total(subtotal, fee, handling, tax, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(fee).Add(handling).Add(tax).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total.Round(2)
}
