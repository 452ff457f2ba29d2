package pricing

import (
	"errors"
	"testing"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func km(v float64) *float64 {
	return &v
}

func testRules() domain.RuleSet {
	return domain.RuleSet{
		FeeRules: []domain.DeliveryFeeRule{
			{ID: "fee-low", Amount: dec("60"), MinSubtotal: dec("0"), MaxSubtotal: decPtr("499.99"), IsActive: true},
			{ID: "fee-mid", Amount: dec("40"), MinSubtotal: dec("500"), MaxSubtotal: decPtr("999"), IsActive: true},
			{ID: "fee-high", Amount: dec("0"), MinSubtotal: dec("1000"), IsActive: true},
		},
		HandlingCharges: []domain.HandlingCharge{
			{ID: "h1", Amount: dec("10"), IsActive: true},
			{ID: "h2", Amount: dec("25"), IsActive: false},
		},
		Taxes: []domain.GstTax{
			{ID: "gst", Type: domain.ChargePercentage, Value: dec("5"), IsActive: true},
		},
		TimeRules: []domain.DeliveryTimeRule{
			{ID: "near", Title: "Nearby", MinDistance: 0, MaxDistance: 3, MinTime: 15, MaxTime: 25, IsActive: true},
			{ID: "far", Title: "Across town", MinDistance: 3.01, MaxDistance: 10, MinTime: 30, MaxTime: 45, IsActive: true},
		},
	}
}

func welcome50() *domain.Offer {
	return &domain.Offer{
		Code:          "WELCOME50",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: dec("50"),
		MinOrderValue: dec("300"),
		MaxDiscount:   decPtr("150"),
		IsActive:      true,
	}
}

func TestCalculate_ReferenceExample(t *testing.T) {
	in := Input{
		Items: []domain.CartItem{
			{ProductID: "biryani", UnitPrice: dec("250"), Quantity: 2},
			{ProductID: "raita", UnitPrice: dec("50"), DiscountedUnitPrice: decPtr("40"), Quantity: 2},
		},
		Address: domain.Address{ID: "addr-1", City: "Pune", DistanceKm: km(2.5)},
		Offer:   welcome50(),
		Rules:   testRules(),
	}

	draft, err := Calculate(in)

	require.NoError(t, err)
	assert.True(t, dec("580").Equal(draft.Subtotal), "subtotal %s", draft.Subtotal)
	assert.True(t, dec("40").Equal(draft.DeliveryFee))
	assert.True(t, dec("10").Equal(draft.HandlingCharge))
	assert.True(t, dec("29").Equal(draft.Tax))
	assert.True(t, dec("150").Equal(draft.Discount))
	assert.True(t, dec("509").Equal(draft.Total), "total %s", draft.Total)
	assert.Equal(t, "WELCOME50", draft.AppliedOfferCode)
	assert.Equal(t, 15, draft.Estimate.MinTime)
	assert.Equal(t, 25, draft.Estimate.MaxTime)
	assert.Equal(t, "addr-1", draft.AddressID)
	require.Len(t, draft.Lines, 2)
	assert.True(t, dec("80").Equal(draft.Lines[1].LineTotal))
}

func TestCalculate_EmptyCart(t *testing.T) {
	_, err := Calculate(Input{Address: domain.Address{DistanceKm: km(1)}, Rules: testRules()})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCalculate_AddressMissingDistance(t *testing.T) {
	in := Input{
		Items:   []domain.CartItem{{ProductID: "p1", UnitPrice: dec("100"), Quantity: 1}},
		Address: domain.Address{ID: "old"},
		Rules:   testRules(),
	}

	_, err := Calculate(in)

	assert.ErrorIs(t, err, ErrAddressMissingDistance)
}

func TestCalculate_InvalidQuantity(t *testing.T) {
	in := Input{
		Items:   []domain.CartItem{{ProductID: "p1", UnitPrice: dec("100"), Quantity: 0}},
		Address: domain.Address{DistanceKm: km(1)},
		Rules:   testRules(),
	}

	_, err := Calculate(in)

	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Contains(t, err.Error(), "p1")
}

func TestCalculate_InvalidItem(t *testing.T) {
	rules := testRules()
	rules.Settings = domain.Settings{MinCartAmount: dec("40"), MinCartActive: true}

	tests := []struct {
		name  string
		items []domain.CartItem
	}{
		{"negative price offsets another line", []domain.CartItem{
			{ProductID: "p1", UnitPrice: dec("500"), Quantity: 1},
			{ProductID: "p2", UnitPrice: dec("-450"), Quantity: 1},
		}},
		{"zero price", []domain.CartItem{{ProductID: "p1", UnitPrice: decimal.Zero, Quantity: 1}}},
		{"missing product id", []domain.CartItem{{UnitPrice: dec("100"), Quantity: 1}}},
		{"negative discounted price", []domain.CartItem{
			{ProductID: "p1", UnitPrice: dec("100"), DiscountedUnitPrice: decPtr("-10"), Quantity: 1},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{Items: tt.items, Address: domain.Address{DistanceKm: km(1)}, Rules: rules}

			draft, err := Calculate(in)

			assert.ErrorIs(t, err, ErrInvalidItem)
			assert.Nil(t, draft)
		})
	}
}

func TestCalculate_BelowMinimumCart(t *testing.T) {
	rules := testRules()
	rules.Settings = domain.Settings{MinCartAmount: dec("199"), MinCartActive: true}
	in := Input{
		Items:   []domain.CartItem{{ProductID: "p1", UnitPrice: dec("150"), Quantity: 1}},
		Address: domain.Address{DistanceKm: km(1)},
		Rules:   rules,
	}

	_, err := Calculate(in)

	require.ErrorIs(t, err, ErrBelowMinimumCart)
	var below *BelowMinimumError
	require.True(t, errors.As(err, &below))
	assert.True(t, dec("49").Equal(below.Shortfall()))
}

func TestCalculate_MinimumCartInactive(t *testing.T) {
	rules := testRules()
	rules.Settings = domain.Settings{MinCartAmount: dec("199"), MinCartActive: false}
	in := Input{
		Items:   []domain.CartItem{{ProductID: "p1", UnitPrice: dec("150"), Quantity: 1}},
		Address: domain.Address{DistanceKm: km(1)},
		Rules:   rules,
	}

	draft, err := Calculate(in)

	require.NoError(t, err)
	assert.True(t, dec("150").Equal(draft.Subtotal))
}

func TestCalculate_OfferBelowMinOrderIsDropped(t *testing.T) {
	in := Input{
		Items:   []domain.CartItem{{ProductID: "p1", UnitPrice: dec("200"), Quantity: 1}},
		Address: domain.Address{DistanceKm: km(1)},
		Offer:   welcome50(),
		Rules:   testRules(),
	}

	draft, err := Calculate(in)

	require.NoError(t, err)
	assert.True(t, draft.Discount.IsZero())
	assert.Empty(t, draft.AppliedOfferCode)
	// 200 + 60 fee + 10 handling + 10 tax
	assert.True(t, dec("280").Equal(draft.Total), "total %s", draft.Total)
}

func TestCalculate_FlatOfferCappedAndClamped(t *testing.T) {
	offer := &domain.Offer{
		Code:          "FLAT500",
		DiscountType:  domain.DiscountFlat,
		DiscountValue: dec("500"),
		MinOrderValue: dec("0"),
		IsActive:      true,
	}
	rules := domain.RuleSet{}
	in := Input{
		Items:   []domain.CartItem{{ProductID: "p1", UnitPrice: dec("120"), Quantity: 1}},
		Address: domain.Address{DistanceKm: km(1)},
		Offer:   offer,
		Rules:   rules,
	}

	draft, err := Calculate(in)

	require.NoError(t, err)
	assert.True(t, draft.Total.IsZero())

	offer.MaxDiscount = decPtr("100")
	draft, err = Calculate(in)
	require.NoError(t, err)
	assert.True(t, dec("100").Equal(draft.Discount))
	assert.True(t, dec("20").Equal(draft.Total))
}

func TestCalculate_NoFeeRuleMeansZeroFee(t *testing.T) {
	rules := testRules()
	rules.FeeRules = nil
	rules.TimeRules = nil
	in := Input{
		Items:   []domain.CartItem{{ProductID: "p1", UnitPrice: dec("100"), Quantity: 1}},
		Address: domain.Address{DistanceKm: km(50)},
		Rules:   rules,
	}

	draft, err := Calculate(in)

	require.NoError(t, err)
	assert.True(t, draft.DeliveryFee.IsZero())
	assert.True(t, draft.Estimate.Unavailable)
}

func TestTax_FlatAndPercentageAreSummed(t *testing.T) {
	taxes := []domain.GstTax{
		{Type: domain.ChargePercentage, Value: dec("2.5"), IsActive: true},
		{Type: domain.ChargePercentage, Value: dec("2.5"), IsActive: true},
		{Type: domain.ChargeFlat, Value: dec("3"), IsActive: true},
		{Type: domain.ChargeFlat, Value: dec("100"), IsActive: false},
	}

	assert.True(t, dec("53").Equal(Tax(taxes, dec("1000"))))
}

func TestCalculate_IsDeterministic(t *testing.T) {
	in := Input{
		Items:   []domain.CartItem{{ProductID: "p1", UnitPrice: dec("333.33"), Quantity: 3}},
		Address: domain.Address{DistanceKm: km(4)},
		Offer:   welcome50(),
		Rules:   testRules(),
	}

	first, err := Calculate(in)
	require.NoError(t, err)
	second, err := Calculate(in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 0, in.Offer.UsageCount)
}
