package pricing

import (
	"testing"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

func TestProperties_Pricing(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	rules := testRules()

	properties.Property("total is the clamped sum of its components", prop.ForAll(
		func(pricesPaise []int, qty int, flatOff int, pct int) bool {
			items := make([]domain.CartItem, 0, len(pricesPaise))
			for i, p := range pricesPaise {
				items = append(items, domain.CartItem{
					ProductID: string(rune('a' + i)),
					UnitPrice: decimal.New(int64(p), -2),
					Quantity:  qty,
				})
			}
			offer := &domain.Offer{
				Code:          "PROP",
				DiscountType:  domain.DiscountFlat,
				DiscountValue: decimal.NewFromInt(int64(flatOff)),
				MinOrderValue: decimal.Zero,
				IsActive:      true,
			}
			if pct%2 == 0 {
				offer.DiscountType = domain.DiscountPercentage
				offer.DiscountValue = decimal.NewFromInt(int64(pct))
			}

			draft, err := Calculate(Input{
				Items:   items,
				Address: domain.Address{DistanceKm: km(2)},
				Offer:   offer,
				Rules:   rules,
			})
			if err != nil {
				return false
			}

			want := draft.Subtotal.Add(draft.DeliveryFee).Add(draft.HandlingCharge).Add(draft.Tax).Sub(draft.Discount)
			if want.IsNegative() {
				want = decimal.Zero
			}
			return draft.Total.Equal(want.Round(2)) && !draft.Total.IsNegative()
		},
		gen.SliceOfN(4, gen.IntRange(1, 200000)),
		gen.IntRange(1, 5),
		gen.IntRange(0, 5000),
		gen.IntRange(0, 100),
	))

	properties.Property("at most one active fee rule contains any subtotal", prop.ForAll(
		func(paise int) bool {
			subtotal := decimal.New(int64(paise), -2)
			matches := 0
			for _, r := range rules.FeeRules {
				if r.IsActive && r.Contains(subtotal) {
					matches++
				}
			}
			return matches <= 1
		},
		gen.IntRange(0, 10000000),
	))

	properties.Property("toggling an inactive rule never changes the fee", prop.ForAll(
		func(paise int, amount int) bool {
			subtotal := decimal.New(int64(paise), -2)
			before := DeliveryFee(rules.FeeRules, subtotal)

			withInactive := append([]domain.DeliveryFeeRule{{
				ID:          "dormant",
				Amount:      decimal.NewFromInt(int64(amount)),
				MinSubtotal: decimal.Zero,
				IsActive:    false,
			}}, rules.FeeRules...)

			return DeliveryFee(withInactive, subtotal).Equal(before)
		},
		gen.IntRange(0, 10000000),
		gen.IntRange(1, 500),
	))

	properties.Property("discount never exceeds the cap", prop.ForAll(
		func(paise int, pct int, capRupees int) bool {
			limit := decimal.NewFromInt(int64(capRupees))
			offer := domain.Offer{
				DiscountType:  domain.DiscountPercentage,
				DiscountValue: decimal.NewFromInt(int64(pct)),
				MaxDiscount:   &limit,
			}
			d := offer.Discount(decimal.New(int64(paise), -2))
			return !d.GreaterThan(limit) && !d.IsNegative()
		},
		gen.IntRange(0, 10000000),
		gen.IntRange(0, 100),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}
