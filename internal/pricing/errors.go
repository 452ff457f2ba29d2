package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart              = errors.New("cart is empty")
	ErrInvalidQuantity        = errors.New("item quantity must be at least 1")
	ErrInvalidItem            = errors.New("item needs a product id, a positive price and a non-negative discounted price")
	ErrAddressMissingDistance = errors.New("address has no delivery distance, re-enter it before checkout")
	ErrBelowMinimumCart       = errors.New("cart is below the minimum order amount")
)

// BelowMinimumError carries the amounts the customer needs to see.
type BelowMinimumError struct {
	Subtotal decimal.Decimal
	Minimum  decimal.Decimal
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("cart subtotal %s is below the minimum order amount %s",
		e.Subtotal.StringFixed(2), e.Minimum.StringFixed(2))
}

func (e *BelowMinimumError) Is(target error) bool {
	return target == ErrBelowMinimumCart
}

// Shortfall is how much more the customer has to add.
func (e *BelowMinimumError) Shortfall() decimal.Decimal {
	return e.Minimum.Sub(e.Subtotal)
}
