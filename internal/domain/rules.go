package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RuleKind names a toggle-able rule table.
type RuleKind string

const (
	RuleDeliveryFee    RuleKind = "delivery_fee"
	RuleDeliveryTime   RuleKind = "delivery_time"
	RuleHandlingCharge RuleKind = "handling_charge"
	RuleGstTax         RuleKind = "gst_tax"
	RuleOffer          RuleKind = "offer"
)

func (k RuleKind) Valid() bool {
	switch k {
	case RuleDeliveryFee, RuleDeliveryTime, RuleHandlingCharge, RuleGstTax, RuleOffer:
		return true
	}
	return false
}

// DeliveryFeeRule applies Amount to subtotals inside [MinSubtotal, MaxSubtotal].
// A nil MaxSubtotal means "and above".
type DeliveryFeeRule struct {
	ID          string           `json:"id"`
	Amount      decimal.Decimal  `json:"amount"`
	MinSubtotal decimal.Decimal  `json:"min_subtotal"`
	MaxSubtotal *decimal.Decimal `json:"max_subtotal,omitempty"`
	IsActive    bool             `json:"is_active"`
	Version     int              `json:"version"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (r DeliveryFeeRule) Contains(subtotal decimal.Decimal) bool {
	if subtotal.LessThan(r.MinSubtotal) {
		return false
	}
	return r.MaxSubtotal == nil || !subtotal.GreaterThan(*r.MaxSubtotal)
}

// Overlaps reports whether the two closed bands share at least one value.
func (r DeliveryFeeRule) Overlaps(o DeliveryFeeRule) bool {
	if r.MaxSubtotal != nil && r.MaxSubtotal.LessThan(o.MinSubtotal) {
		return false
	}
	if o.MaxSubtotal != nil && o.MaxSubtotal.LessThan(r.MinSubtotal) {
		return false
	}
	return true
}

type HandlingCharge struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
	IsActive  bool            `json:"is_active"`
	Version   int             `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type ChargeType string

const (
	ChargeFlat       ChargeType = "flat"
	ChargePercentage ChargeType = "percentage"
)

type GstTax struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Type      ChargeType      `json:"type"`
	Value     decimal.Decimal `json:"value"`
	IsActive  bool            `json:"is_active"`
	Version   int             `json:"version"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Amount is the tax owed on subtotal for this record.
func (g GstTax) Amount(subtotal decimal.Decimal) decimal.Decimal {
	if g.Type == ChargePercentage {
		return subtotal.Mul(g.Value).Div(decimal.NewFromInt(100)).Round(2)
	}
	return g.Value
}

// DeliveryTimeRule maps a distance band in km to an estimate in minutes.
type DeliveryTimeRule struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	MinDistance float64   `json:"min_distance"`
	MaxDistance float64   `json:"max_distance"`
	MinTime     int       `json:"min_time"`
	MaxTime     int       `json:"max_time"`
	IsActive    bool      `json:"is_active"`
	Version     int       `json:"version"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r DeliveryTimeRule) Contains(km float64) bool {
	return km >= r.MinDistance && km <= r.MaxDistance
}

func (r DeliveryTimeRule) Overlaps(o DeliveryTimeRule) bool {
	return r.MinDistance <= o.MaxDistance && o.MinDistance <= r.MaxDistance
}

type SystemStatus string

const (
	SystemOnline      SystemStatus = "online"
	SystemMaintenance SystemStatus = "maintenance"
	SystemOffline     SystemStatus = "offline"
)

func ParseSystemStatus(s string) (SystemStatus, bool) {
	switch SystemStatus(strings.ToLower(strings.TrimSpace(s))) {
	case SystemOnline:
		return SystemOnline, true
	case SystemMaintenance:
		return SystemMaintenance, true
	case SystemOffline:
		return SystemOffline, true
	}
	return "", false
}

// Settings holds the site-wide switches that gate checkout.
type Settings struct {
	SystemStatus  SystemStatus    `json:"system_status"`
	MinCartAmount decimal.Decimal `json:"min_cart_amount"`
	MinCartActive bool            `json:"min_cart_active"`
}

// RuleSet is a snapshot of the active pricing configuration. Inactive
// records never appear in it.
type RuleSet struct {
	FeeRules        []DeliveryFeeRule  `json:"fee_rules"`
	HandlingCharges []HandlingCharge   `json:"handling_charges"`
	Taxes           []GstTax           `json:"taxes"`
	TimeRules       []DeliveryTimeRule `json:"time_rules"`
	Settings        Settings           `json:"settings"`
	LoadedAt        time.Time          `json:"loaded_at"`
}
