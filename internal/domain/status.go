package domain

import "strings"

type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderPreparing      OrderStatus = "preparing"
	OrderPacked         OrderStatus = "packed"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderOnTheWay       OrderStatus = "on_the_way"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
	OrderHeavyTraffic   OrderStatus = "heavy_traffic"
)

// OrderFlow is the forward sequence of an order.
var OrderFlow = []OrderStatus{
	OrderPending,
	OrderConfirmed,
	OrderPreparing,
	OrderPacked,
	OrderOutForDelivery,
	OrderOnTheWay,
	OrderDelivered,
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

func (s OrderStatus) String() string {
	return string(s)
}

// ParseOrderStatus is the single normalization point for order statuses
// coming from clients; casing, separators and spelling variants collapse to
// one value.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch normalizeStatus(s) {
	case "pending", "placed":
		return OrderPending, true
	case "confirmed", "accepted":
		return OrderConfirmed, true
	case "preparing":
		return OrderPreparing, true
	case "packed", "ready", "ready_for_pickup":
		return OrderPacked, true
	case "out_for_delivery", "picked", "picked_up":
		return OrderOutForDelivery, true
	case "on_the_way", "ontheway", "in_transit":
		return OrderOnTheWay, true
	case "delivered":
		return OrderDelivered, true
	case "cancelled", "canceled":
		return OrderCancelled, true
	case "heavy_traffic":
		return OrderHeavyTraffic, true
	}
	return "", false
}

type PickupStatus string

const (
	PickupPending   PickupStatus = "pending"
	PickupAccepted  PickupStatus = "accepted"
	PickupPicked    PickupStatus = "picked"
	PickupOnTheWay  PickupStatus = "on_the_way"
	PickupDelivered PickupStatus = "delivered"
	PickupCancelled PickupStatus = "cancelled"
)

var PickupFlow = []PickupStatus{
	PickupPending,
	PickupAccepted,
	PickupPicked,
	PickupOnTheWay,
	PickupDelivered,
}

func (s PickupStatus) IsTerminal() bool {
	return s == PickupDelivered || s == PickupCancelled
}

func (s PickupStatus) String() string {
	return string(s)
}

func ParsePickupStatus(s string) (PickupStatus, bool) {
	switch normalizeStatus(s) {
	case "pending":
		return PickupPending, true
	case "accepted":
		return PickupAccepted, true
	case "picked", "picked_up":
		return PickupPicked, true
	case "on_the_way", "ontheway", "in_transit":
		return PickupOnTheWay, true
	case "delivered":
		return PickupDelivered, true
	case "cancelled", "canceled":
		return PickupCancelled, true
	}
	return "", false
}

func normalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return s
}
