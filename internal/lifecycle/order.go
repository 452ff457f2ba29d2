package lifecycle

import "github.com/fjod/go_delivery/internal/domain"

// heavyTrafficFrom are the in-transit statuses a delay can interrupt.
var heavyTrafficFrom = []domain.OrderStatus{domain.OrderOutForDelivery, domain.OrderOnTheWay}

var orderMachine = NewMachine(Config[domain.OrderStatus]{
	Entity:            "order",
	Flow:              domain.OrderFlow,
	Cancelled:         domain.OrderCancelled,
	Informational:     domain.OrderHeavyTraffic,
	InformationalFrom: heavyTrafficFrom,
	Override:          domain.RoleAdmin,
	Parse:             domain.ParseOrderStatus,
	Edges: []Edge[domain.OrderStatus]{
		{Role: domain.RoleRestaurant, To: domain.OrderConfirmed, From: []domain.OrderStatus{domain.OrderPending}},
		{Role: domain.RoleRestaurant, To: domain.OrderPreparing, From: []domain.OrderStatus{domain.OrderConfirmed}},
		{Role: domain.RoleRestaurant, To: domain.OrderPacked, From: []domain.OrderStatus{domain.OrderPreparing}},

		// delivery may run one step ahead of the restaurant
		{Role: domain.RoleDelivery, To: domain.OrderOutForDelivery, From: []domain.OrderStatus{domain.OrderPreparing, domain.OrderPacked}},
		{Role: domain.RoleDelivery, To: domain.OrderOnTheWay, From: []domain.OrderStatus{domain.OrderPacked, domain.OrderOutForDelivery}},
		{Role: domain.RoleDelivery, To: domain.OrderDelivered, From: []domain.OrderStatus{domain.OrderOnTheWay}},
		{Role: domain.RoleDelivery, To: domain.OrderHeavyTraffic, From: heavyTrafficFrom},

		{Role: domain.RoleCustomer, To: domain.OrderCancelled, From: []domain.OrderStatus{domain.OrderPending, domain.OrderConfirmed}},
	},
})

func OrderSubject(o *domain.Order) Subject[domain.OrderStatus] {
	return Subject[domain.OrderStatus]{
		Current:   o.Status,
		History:   o.StatusHistory,
		OwnerID:   o.CustomerID,
		PartnerID: o.DeliveryPartnerID,
	}
}

// DecideOrder validates an order transition without applying it.
func DecideOrder(o *domain.Order, target domain.OrderStatus, actor domain.Actor) (Decision[domain.OrderStatus], error) {
	return orderMachine.Decide(OrderSubject(o), target, actor)
}

// OrderEffectiveStatus hides heavy_traffic behind the status it interrupted.
func OrderEffectiveStatus(o *domain.Order) domain.OrderStatus {
	return orderMachine.Effective(OrderSubject(o))
}

// ParseOrderTarget normalizes a client supplied status.
func ParseOrderTarget(s string) (domain.OrderStatus, error) {
	st, ok := domain.ParseOrderStatus(s)
	if !ok {
		return "", ErrUnknownStatus
	}
	return st, nil
}
