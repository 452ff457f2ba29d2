package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ProductID           string           `json:"product_id"`
	Name                string           `json:"name"`
	UnitPrice           decimal.Decimal  `json:"unit_price"`
	DiscountedUnitPrice *decimal.Decimal `json:"discounted_unit_price,omitempty"`
	Quantity            int              `json:"quantity"`
	AddedAt             time.Time        `json:"added_at"`
}

// EffectiveUnitPrice is the discounted price when one is set, the list price otherwise.
func (c CartItem) EffectiveUnitPrice() decimal.Decimal {
	if c.DiscountedUnitPrice != nil {
		return *c.DiscountedUnitPrice
	}
	return c.UnitPrice
}

func (c CartItem) LineTotal() decimal.Decimal {
	return c.EffectiveUnitPrice().Mul(decimal.NewFromInt(int64(c.Quantity)))
}

type Cart struct {
	CustomerID string     `json:"customer_id"`
	Items      []CartItem `json:"items"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
