package pricing

import (
	"sort"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/shopspring/decimal"
)

// SelectFeeRule returns the active fee rule whose band contains subtotal.
// Bands are scanned in ascending order of their lower bound so the result is
// stable even if an overlapping pair slipped past the store.
func SelectFeeRule(rules []domain.DeliveryFeeRule, subtotal decimal.Decimal) (domain.DeliveryFeeRule, bool) {
	sorted := make([]domain.DeliveryFeeRule, 0, len(rules))
	for _, r := range rules {
		if r.IsActive {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinSubtotal.LessThan(sorted[j].MinSubtotal)
	})

	for _, r := range sorted {
		if r.Contains(subtotal) {
			return r, true
		}
	}
	return domain.DeliveryFeeRule{}, false
}

// SelectTimeRule is the distance counterpart of SelectFeeRule.
func SelectTimeRule(rules []domain.DeliveryTimeRule, km float64) (domain.DeliveryTimeRule, bool) {
	sorted := make([]domain.DeliveryTimeRule, 0, len(rules))
	for _, r := range rules {
		if r.IsActive {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinDistance < sorted[j].MinDistance
	})

	for _, r := range sorted {
		if r.Contains(km) {
			return r, true
		}
	}
	return domain.DeliveryTimeRule{}, false
}

// FindFeeOverlap reports the first active rule in existing that overlaps
// candidate. The candidate itself (same ID) is skipped.
func FindFeeOverlap(existing []domain.DeliveryFeeRule, candidate domain.DeliveryFeeRule) (domain.DeliveryFeeRule, bool) {
	if !candidate.IsActive {
		return domain.DeliveryFeeRule{}, false
	}
	for _, r := range existing {
		if !r.IsActive || r.ID == candidate.ID {
			continue
		}
		if r.Overlaps(candidate) {
			return r, true
		}
	}
	return domain.DeliveryFeeRule{}, false
}

func FindTimeOverlap(existing []domain.DeliveryTimeRule, candidate domain.DeliveryTimeRule) (domain.DeliveryTimeRule, bool) {
	if !candidate.IsActive {
		return domain.DeliveryTimeRule{}, false
	}
	for _, r := range existing {
		if !r.IsActive || r.ID == candidate.ID {
			continue
		}
		if r.Overlaps(candidate) {
			return r, true
		}
	}
	return domain.DeliveryTimeRule{}, false
}
