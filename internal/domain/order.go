package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusEntry is one immutable line of a status history.
type StatusEntry struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Actor     Actor     `json:"actor"`
	Message   string    `json:"message,omitempty"`
}

type OrderItem struct {
	ProductID           string           `json:"product_id"`
	Name                string           `json:"name"`
	UnitPrice           decimal.Decimal  `json:"unit_price"`
	DiscountedUnitPrice *decimal.Decimal `json:"discounted_unit_price,omitempty"`
	Quantity            int              `json:"quantity"`
	LineTotal           decimal.Decimal  `json:"line_total"`
	Review              *Review          `json:"review,omitempty"`
}

type Review struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Order struct {
	ID                string          `json:"id"`
	CustomerID        string          `json:"customer_id"`
	Items             []OrderItem     `json:"items"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	DeliveryFee       decimal.Decimal `json:"delivery_fee"`
	HandlingCharge    decimal.Decimal `json:"handling_charge"`
	Tax               decimal.Decimal `json:"tax"`
	Discount          decimal.Decimal `json:"discount"`
	Total             decimal.Decimal `json:"total"`
	PaymentMethod     string          `json:"payment_method"`
	DeliveryAddress   AddressSnapshot `json:"delivery_address"`
	AppliedOfferCode  string          `json:"applied_offer_code,omitempty"`
	Status            OrderStatus     `json:"status"`
	StatusHistory     []StatusEntry   `json:"status_history"`
	DeliveryPartnerID string          `json:"delivery_partner_id,omitempty"`
	IdempotencyKey    string          `json:"-"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Version is the optimistic-concurrency token of an order: the number of
// history entries written so far.
func (o *Order) Version() int {
	return len(o.StatusHistory)
}

// ReviewsUnlocked reports whether items may carry customer reviews.
func (o *Order) ReviewsUnlocked() bool {
	return o.Status == OrderDelivered
}

func (o *Order) Item(productID string) (*OrderItem, bool) {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return &o.Items[i], true
		}
	}
	return nil, false
}
