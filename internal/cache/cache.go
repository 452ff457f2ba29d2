package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_delivery/internal/domain"
)

type RuleCache interface {
	GetRuleSet(ctx context.Context) (*domain.RuleSet, error)
	SetRuleSet(ctx context.Context, rs *domain.RuleSet) error
	InvalidateRuleSet(ctx context.Context) error
}

type CartCache interface {
	Get(ctx context.Context, customerID string) (*domain.Cart, error)
	Set(ctx context.Context, customerID string, cart *domain.Cart) error
	Delete(ctx context.Context, customerID string) error
}

var ErrCacheMiss = errors.New("cache miss")
