package domain

import "strings"

// Role is the kind of actor that initiates a lifecycle transition.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleRestaurant Role = "restaurant"
	RoleDelivery   Role = "delivery"
	RoleAdmin      Role = "admin"
)

// Actor identifies who is acting on an order or pickup job.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// ParseRole accepts the role spellings used by the different client surfaces.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer", "user":
		return RoleCustomer, true
	case "restaurant", "vendor", "store":
		return RoleRestaurant, true
	case "delivery", "delivery_partner", "rider", "driver":
		return RoleDelivery, true
	case "admin":
		return RoleAdmin, true
	default:
		return "", false
	}
}

func (a Actor) String() string {
	return string(a.Role) + ":" + a.ID
}
