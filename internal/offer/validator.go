package offer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by a Store when no offer has the code.
var ErrNotFound = errors.New("offer not found")

// Store is the read side the validator needs. Reservation happens in the
// order transaction, not here.
type Store interface {
	GetOfferByCode(ctx context.Context, code string) (*domain.Offer, error)
	CountRedemptions(ctx context.Context, offerID, customerID string) (int, error)
}

type Validator struct {
	store Store
	now   func() time.Time
}

func NewValidator(store Store) *Validator {
	return &Validator{store: store, now: time.Now}
}

// WithClock replaces the time source.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate runs the checks in order and reports the first failure as *Error.
// It never mutates counters.
func (v *Validator) Validate(ctx context.Context, code, customerID string, subtotal decimal.Decimal) (*domain.Offer, error) {
	code = domain.NormalizeOfferCode(code)
	o, err := v.store.GetOfferByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, newError(code, ReasonNotFound, "")
		}
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}

	redemptions := 0
	if o.PerCustomerLimit > 0 {
		redemptions, err = v.store.CountRedemptions(ctx, o.ID, customerID)
		if err != nil {
			return nil, fmt.Errorf("failed to count redemptions: %w", err)
		}
	}

	if err := Check(o, v.now(), subtotal, redemptions); err != nil {
		return nil, err
	}
	return o, nil
}

// Check applies the offer rules to an already loaded offer.
func Check(o *domain.Offer, now time.Time, subtotal decimal.Decimal, redemptions int) error {
	switch {
	case !o.IsActive:
		return newError(o.Code, ReasonInactive, "")
	case now.Before(o.ValidFrom):
		return newError(o.Code, ReasonNotStarted, "valid from "+o.ValidFrom.Format(time.RFC3339))
	case now.After(o.ValidTo):
		return newError(o.Code, ReasonExpired, "expired at "+o.ValidTo.Format(time.RFC3339))
	case subtotal.LessThan(o.MinOrderValue):
		return newError(o.Code, ReasonBelowMinOrder, "minimum order is "+o.MinOrderValue.StringFixed(2))
	case o.Exhausted():
		return newError(o.Code, ReasonUsageExhausted, "")
	case o.CustomerLimited(redemptions):
		return newError(o.Code, ReasonCustomerLimitReached, "")
	}
	return nil
}
