package pricing

import (
	"testing"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSelectFeeRule(t *testing.T) {
	rules := testRules().FeeRules

	tests := []struct {
		name     string
		subtotal string
		wantID   string
		wantOK   bool
	}{
		{"lower bound inclusive", "500", "fee-mid", true},
		{"upper bound inclusive", "999", "fee-mid", true},
		{"inside first band", "120", "fee-low", true},
		{"open ended band", "25000", "fee-high", true},
		{"gap between bands", "999.50", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectFeeRule(rules, dec(tt.subtotal))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestSelectFeeRule_IgnoresInactive(t *testing.T) {
	rules := []domain.DeliveryFeeRule{
		{ID: "off", Amount: dec("99"), MinSubtotal: dec("0"), IsActive: false},
		{ID: "on", Amount: dec("20"), MinSubtotal: dec("100"), IsActive: true},
	}

	_, ok := SelectFeeRule(rules, dec("50"))
	assert.False(t, ok)

	got, ok := SelectFeeRule(rules, dec("150"))
	assert.True(t, ok)
	assert.Equal(t, "on", got.ID)
}

func TestSelectFeeRule_LowestBandWinsOnOverlap(t *testing.T) {
	rules := []domain.DeliveryFeeRule{
		{ID: "b", Amount: dec("10"), MinSubtotal: dec("200"), IsActive: true},
		{ID: "a", Amount: dec("30"), MinSubtotal: dec("100"), MaxSubtotal: decPtr("300"), IsActive: true},
	}

	got, ok := SelectFeeRule(rules, dec("250"))

	assert.True(t, ok)
	assert.Equal(t, "a", got.ID)
}

func TestFindFeeOverlap(t *testing.T) {
	existing := testRules().FeeRules

	_, clash := FindFeeOverlap(existing, domain.DeliveryFeeRule{ID: "new", MinSubtotal: dec("900"), MaxSubtotal: decPtr("1200"), IsActive: true})
	assert.True(t, clash)

	_, clash = FindFeeOverlap(existing, domain.DeliveryFeeRule{ID: "fee-mid", MinSubtotal: dec("500"), MaxSubtotal: decPtr("990"), IsActive: true})
	assert.False(t, clash, "a rule never overlaps with its own previous version")

	_, clash = FindFeeOverlap(existing, domain.DeliveryFeeRule{ID: "new", MinSubtotal: dec("0"), IsActive: false})
	assert.False(t, clash, "inactive candidates are not checked")

	_, clash = FindFeeOverlap(existing, domain.DeliveryFeeRule{ID: "new", MinSubtotal: dec("999.10"), MaxSubtotal: decPtr("999.90"), IsActive: true})
	assert.False(t, clash)
}

func TestFindTimeOverlap(t *testing.T) {
	existing := testRules().TimeRules

	hit, clash := FindTimeOverlap(existing, domain.DeliveryTimeRule{ID: "x", MinDistance: 2, MaxDistance: 3.5, IsActive: true})
	assert.True(t, clash)
	assert.Equal(t, "near", hit.ID)

	_, clash = FindTimeOverlap(existing, domain.DeliveryTimeRule{ID: "x", MinDistance: 10.5, MaxDistance: 20, IsActive: true})
	assert.False(t, clash)
}

func TestEstimateDelivery(t *testing.T) {
	rules := testRules().TimeRules

	est := EstimateDelivery(rules, 3)
	assert.False(t, est.Unavailable)
	assert.Equal(t, "Nearby", est.Title)
	assert.Equal(t, "15-25 min", est.String())

	est = EstimateDelivery(rules, 7.2)
	assert.Equal(t, 30, est.MinTime)
	assert.Equal(t, 45, est.MaxTime)

	est = EstimateDelivery(rules, 3.005)
	assert.True(t, est.Unavailable)
	assert.Equal(t, "estimate unavailable", est.String())

	assert.True(t, EstimateDelivery(rules, -1).Unavailable)
	assert.True(t, EstimateDelivery(nil, 1).Unavailable)
}
