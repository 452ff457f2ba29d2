package lifecycle

import "github.com/fjod/go_delivery/internal/domain"

var pickupMachine = NewMachine(Config[domain.PickupStatus]{
	Entity:    "pickup",
	Flow:      domain.PickupFlow,
	Cancelled: domain.PickupCancelled,
	Override:  domain.RoleAdmin,
	Parse:     domain.ParsePickupStatus,
	Edges: []Edge[domain.PickupStatus]{
		{Role: domain.RoleDelivery, To: domain.PickupAccepted, From: []domain.PickupStatus{domain.PickupPending}},
		{Role: domain.RoleDelivery, To: domain.PickupPicked, From: []domain.PickupStatus{domain.PickupAccepted}},
		{Role: domain.RoleDelivery, To: domain.PickupOnTheWay, From: []domain.PickupStatus{domain.PickupAccepted, domain.PickupPicked}},
		{Role: domain.RoleDelivery, To: domain.PickupDelivered, From: []domain.PickupStatus{domain.PickupOnTheWay}},

		{Role: domain.RoleCustomer, To: domain.PickupCancelled, From: []domain.PickupStatus{domain.PickupPending}},
	},
})

func PickupSubject(p *domain.PickupJob) Subject[domain.PickupStatus] {
	return Subject[domain.PickupStatus]{
		Current:   p.Status,
		History:   p.StatusHistory,
		OwnerID:   p.CustomerID,
		PartnerID: p.DeliveryPartnerID,
	}
}

func DecidePickup(p *domain.PickupJob, target domain.PickupStatus, actor domain.Actor) (Decision[domain.PickupStatus], error) {
	return pickupMachine.Decide(PickupSubject(p), target, actor)
}

func ParsePickupTarget(s string) (domain.PickupStatus, error) {
	st, ok := domain.ParsePickupStatus(s)
	if !ok {
		return "", ErrUnknownStatus
	}
	return st, nil
}
