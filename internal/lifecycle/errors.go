package lifecycle

import (
	"errors"
	"fmt"

	"github.com/fjod/go_delivery/internal/domain"
)

var (
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrNotAuthorized     = errors.New("actor is not authorized for this transition")
	ErrUnknownStatus     = errors.New("unknown status")
)

type Kind string

const (
	KindIllegalTransition Kind = "illegal_transition"
	KindNotAuthorized     Kind = "not_authorized"
)

// TransitionError describes a rejected transition with enough context for the
// caller to show the actor what happened.
type TransitionError struct {
	Kind   Kind
	Entity string
	From   string
	To     string
	Role   domain.Role
	Reason string
}

func (e *TransitionError) Error() string {
	var msg string
	if e.Kind == KindNotAuthorized {
		msg = fmt.Sprintf("%s: %s may not set status %s", e.Entity, e.Role, e.To)
	} else {
		msg = fmt.Sprintf("%s: cannot move from %s to %s", e.Entity, e.From, e.To)
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *TransitionError) Is(target error) bool {
	switch e.Kind {
	case KindIllegalTransition:
		return target == ErrIllegalTransition
	case KindNotAuthorized:
		return target == ErrNotAuthorized
	}
	return false
}
