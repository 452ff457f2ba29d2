package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrPickupNotFound       = errors.New("pickup job not found")
	ErrAddressNotFound      = errors.New("address not found")
	ErrRuleNotFound         = errors.New("rule not found")
	ErrPaymentNotFound      = errors.New("payment method not found")
	ErrDuplicateOrder       = errors.New("order with this idempotency key already exists")
	ErrDuplicateOfferCode   = errors.New("offer code already exists")
	ErrOverlappingBand      = errors.New("band overlaps an active rule")
	ErrStatusConflict       = errors.New("status changed concurrently")
	ErrOfferExhausted       = errors.New("offer usage limit reached")
	ErrCustomerLimitReached = errors.New("offer already used the maximum number of times by this customer")
	ErrReviewExists         = errors.New("item already reviewed")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
