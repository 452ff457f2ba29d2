package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSiteUnavailable          = errors.New("ordering is currently unavailable")
	ErrItemUnavailable          = errors.New("some items are no longer available")
	ErrPaymentMethodUnavailable = errors.New("payment method is not available")
	ErrValidation               = errors.New("invalid request")
	ErrForbidden                = errors.New("actor may not perform this action")
	ErrReviewLocked             = errors.New("reviews open once the order is delivered")
	ErrConcurrentUpdate         = errors.New("status changed concurrently, try again")
)

type ItemUnavailableError struct {
	ProductIDs []string
}

func (e *ItemUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrItemUnavailable, strings.Join(e.ProductIDs, ", "))
}

func (e *ItemUnavailableError) Is(target error) bool {
	return target == ErrItemUnavailable
}

type SiteUnavailableError struct {
	Status string
}

func (e *SiteUnavailableError) Error() string {
	return fmt.Sprintf("%s: site is %s", ErrSiteUnavailable, e.Status)
}

func (e *SiteUnavailableError) Is(target error) bool {
	return target == ErrSiteUnavailable
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
