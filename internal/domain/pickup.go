package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PickupJob is a pickup-and-drop errand carried out by a delivery partner.
type PickupJob struct {
	ID                string           `json:"id"`
	CustomerID        string           `json:"customer_id"`
	PickupAddress     AddressSnapshot  `json:"pickup_address"`
	DropAddress       AddressSnapshot  `json:"drop_address"`
	ItemType          string           `json:"item_type"`
	Note              string           `json:"note,omitempty"`
	TotalAmount       *decimal.Decimal `json:"total_amount,omitempty"`
	Status            PickupStatus     `json:"status"`
	StatusHistory     []StatusEntry    `json:"status_history"`
	DeliveryPartnerID string           `json:"delivery_partner_id,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func (p *PickupJob) Version() int {
	return len(p.StatusHistory)
}
