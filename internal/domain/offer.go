package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountFlat       DiscountType = "flat"
	DiscountPercentage DiscountType = "percentage"
)

type Offer struct {
	ID               string           `json:"id"`
	Code             string           `json:"code"`
	Description      string           `json:"description,omitempty"`
	DiscountType     DiscountType     `json:"discount_type"`
	DiscountValue    decimal.Decimal  `json:"discount_value"`
	MinOrderValue    decimal.Decimal  `json:"min_order_value"`
	MaxDiscount      *decimal.Decimal `json:"max_discount,omitempty"`
	ValidFrom        time.Time        `json:"valid_from"`
	ValidTo          time.Time        `json:"valid_to"`
	IsActive         bool             `json:"is_active"`
	IsPublic         bool             `json:"is_public"`
	TotalUsageLimit  *int             `json:"total_usage_limit,omitempty"`
	PerCustomerLimit int              `json:"per_customer_limit"`
	UsageCount       int              `json:"usage_count"`
	Version          int              `json:"version"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NormalizeOfferCode makes codes comparable regardless of how they were typed.
func NormalizeOfferCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Exhausted reports whether the global usage cap is used up.
func (o Offer) Exhausted() bool {
	return o.TotalUsageLimit != nil && o.UsageCount >= *o.TotalUsageLimit
}

// CustomerLimited reports whether a customer with the given number of
// redemptions may not redeem again. A non-positive limit means unlimited.
func (o Offer) CustomerLimited(redemptions int) bool {
	return o.PerCustomerLimit > 0 && redemptions >= o.PerCustomerLimit
}

// Discount returns the raw discount for subtotal, capped by MaxDiscount.
// Minimum order value is not checked here.
func (o Offer) Discount(subtotal decimal.Decimal) decimal.Decimal {
	var raw decimal.Decimal
	switch o.DiscountType {
	case DiscountPercentage:
		raw = subtotal.Mul(o.DiscountValue).Div(decimal.NewFromInt(100))
	default:
		raw = o.DiscountValue
	}
	if o.MaxDiscount != nil && raw.GreaterThan(*o.MaxDiscount) {
		raw = *o.MaxDiscount
	}
	if raw.IsNegative() {
		return decimal.Zero
	}
	return raw.Round(2)
}
