package pricing

import (
	"fmt"

	"github.com/fjod/go_delivery/internal/domain"
)

// Estimate is a delivery time range in minutes. Unavailable is set when no
// active band covers the distance; it is a valid answer, not an error.
type Estimate struct {
	Title       string `json:"title,omitempty"`
	MinTime     int    `json:"min_time,omitempty"`
	MaxTime     int    `json:"max_time,omitempty"`
	Unavailable bool   `json:"unavailable,omitempty"`
}

func (e Estimate) String() string {
	if e.Unavailable {
		return "estimate unavailable"
	}
	return fmt.Sprintf("%d-%d min", e.MinTime, e.MaxTime)
}

func EstimateDelivery(rules []domain.DeliveryTimeRule, distanceKm float64) Estimate {
	if distanceKm < 0 {
		return Estimate{Unavailable: true}
	}
	r, ok := SelectTimeRule(rules, distanceKm)
	if !ok {
		return Estimate{Unavailable: true}
	}
	return Estimate{Title: r.Title, MinTime: r.MinTime, MaxTime: r.MaxTime}
}
