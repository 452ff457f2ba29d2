package offer

import (
	"errors"
	"fmt"
)

var ErrOfferInvalid = errors.New("offer cannot be applied")

// Reason is a stable machine-readable cause; clients switch on it.
type Reason string

const (
	ReasonNotFound             Reason = "not_found"
	ReasonInactive             Reason = "inactive"
	ReasonNotStarted           Reason = "not_started"
	ReasonExpired              Reason = "expired"
	ReasonBelowMinOrder        Reason = "below_min_order"
	ReasonUsageExhausted       Reason = "usage_exhausted"
	ReasonCustomerLimitReached Reason = "customer_limit_reached"
)

type Error struct {
	Code   string
	Reason Reason
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("offer %q: %s: %s", e.Code, e.Reason, e.Detail)
	}
	return fmt.Sprintf("offer %q: %s", e.Code, e.Reason)
}

func (e *Error) Is(target error) bool {
	return target == ErrOfferInvalid
}

func newError(code string, reason Reason, detail string) *Error {
	return &Error{Code: code, Reason: reason, Detail: detail}
}

// ReasonOf extracts the reason from err, or "" when err is not an offer error.
func ReasonOf(err error) Reason {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Reason
	}
	return ""
}
