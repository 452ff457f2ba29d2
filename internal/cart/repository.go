package cart

import (
	"context"
	"errors"

	"github.com/fjod/go_delivery/internal/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
)

// Repository is the storage of in-progress carts, one per customer.
type Repository interface {
	GetCart(ctx context.Context, customerID string) (*domain.Cart, error)
	AddItem(ctx context.Context, customerID string, item domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, customerID, productID string, quantity int) error
	RemoveItem(ctx context.Context, customerID, productID string) error
	DeleteCart(ctx context.Context, customerID string) error
}
