package offer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int {
	return &v
}

func baseOffer() *domain.Offer {
	return &domain.Offer{
		ID:               "offer-1",
		Code:             "FLAT100",
		DiscountType:     domain.DiscountFlat,
		DiscountValue:    decimal.NewFromInt(100),
		MinOrderValue:    decimal.NewFromInt(300),
		ValidFrom:        now.Add(-24 * time.Hour),
		ValidTo:          now.Add(24 * time.Hour),
		IsActive:         true,
		TotalUsageLimit:  intPtr(10),
		PerCustomerLimit: 2,
		UsageCount:       3,
	}
}

func newTestValidator(o *domain.Offer, redemptions int) (*Validator, *MockStore) {
	store := &MockStore{
		Offers:      map[string]*domain.Offer{o.Code: o},
		Redemptions: map[string]int{o.ID + "/cust-1": redemptions},
	}
	return NewValidator(store).WithClock(func() time.Time { return now }), store
}

func TestValidate_Success(t *testing.T) {
	v, store := newTestValidator(baseOffer(), 1)

	o, err := v.Validate(context.Background(), "  flat100 ", "cust-1", decimal.NewFromInt(500))

	require.NoError(t, err)
	assert.Equal(t, "FLAT100", o.Code)
	assert.Equal(t, "FLAT100", store.RequestedKey)
	assert.Equal(t, 1, store.CountCalls)
}

func TestValidate_Reasons(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(o *domain.Offer)
		subtotal    int64
		redemptions int
		want        Reason
	}{
		{"inactive", func(o *domain.Offer) { o.IsActive = false }, 500, 0, ReasonInactive},
		{"not started", func(o *domain.Offer) { o.ValidFrom = now.Add(time.Hour) }, 500, 0, ReasonNotStarted},
		{"expired", func(o *domain.Offer) { o.ValidTo = now.Add(-time.Minute) }, 500, 0, ReasonExpired},
		{"below min order", func(o *domain.Offer) {}, 299, 0, ReasonBelowMinOrder},
		{"usage exhausted", func(o *domain.Offer) { o.UsageCount = 10 }, 500, 0, ReasonUsageExhausted},
		{"customer limit", func(o *domain.Offer) {}, 500, 2, ReasonCustomerLimitReached},
		{"first failing check wins", func(o *domain.Offer) {
			o.IsActive = false
			o.UsageCount = 10
		}, 100, 5, ReasonInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := baseOffer()
			tt.mutate(o)
			v, _ := newTestValidator(o, tt.redemptions)

			_, err := v.Validate(context.Background(), "FLAT100", "cust-1", decimal.NewFromInt(tt.subtotal))

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrOfferInvalid)
			assert.Equal(t, tt.want, ReasonOf(err))
		})
	}
}

func TestValidate_NotFound(t *testing.T) {
	v, _ := newTestValidator(baseOffer(), 0)

	_, err := v.Validate(context.Background(), "NOPE", "cust-1", decimal.NewFromInt(500))

	assert.ErrorIs(t, err, ErrOfferInvalid)
	assert.Equal(t, ReasonNotFound, ReasonOf(err))
}

func TestValidate_UnlimitedPerCustomerSkipsCount(t *testing.T) {
	o := baseOffer()
	o.PerCustomerLimit = 0
	v, store := newTestValidator(o, 99)

	_, err := v.Validate(context.Background(), "FLAT100", "cust-1", decimal.NewFromInt(500))

	require.NoError(t, err)
	assert.Zero(t, store.CountCalls)
}

func TestValidate_NoGlobalLimit(t *testing.T) {
	o := baseOffer()
	o.TotalUsageLimit = nil
	o.UsageCount = 100000
	v, _ := newTestValidator(o, 0)

	_, err := v.Validate(context.Background(), "FLAT100", "cust-1", decimal.NewFromInt(500))

	assert.NoError(t, err)
}

func TestValidate_StoreErrorsAreNotOfferErrors(t *testing.T) {
	v, store := newTestValidator(baseOffer(), 0)
	store.GetErr = errors.New("connection refused")

	_, err := v.Validate(context.Background(), "FLAT100", "cust-1", decimal.NewFromInt(500))

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrOfferInvalid)
	assert.Contains(t, err.Error(), "failed to load offer")

	store.GetErr = nil
	store.CountErr = errors.New("timeout")
	_, err = v.Validate(context.Background(), "FLAT100", "cust-1", decimal.NewFromInt(500))
	assert.Contains(t, err.Error(), "failed to count redemptions")
}

func TestError_Message(t *testing.T) {
	err := newError("WELCOME50", ReasonBelowMinOrder, "minimum order is 300.00")
	assert.Equal(t, `offer "WELCOME50": below_min_order: minimum order is 300.00`, err.Error())
	assert.Equal(t, `offer "X": expired`, newError("X", ReasonExpired, "").Error())
}
