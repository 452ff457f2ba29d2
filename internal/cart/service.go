package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_delivery/internal/cache"
	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrInvalidItem = errors.New("invalid cart item")

type Service struct {
	repo  Repository
	cache cache.CartCache
	log   *zap.Logger
	sfg   singleflight.Group
}

func NewService(repo Repository, c cache.CartCache, log *zap.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: c,
		log:   log,
	}
}

// GetCart returns an empty cart when the customer has none yet.
func (s *Service) GetCart(ctx context.Context, customerID string) (*domain.Cart, error) {
	log := logger.FromContext(ctx, s.log)

	v, err, _ := s.sfg.Do(customerID, func() (interface{}, error) {
		c, err := s.cache.Get(ctx, customerID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn("cart cache get failed", zap.String("customer_id", customerID), zap.Error(err))
		}

		c, err = s.repo.GetCart(ctx, customerID)
		if errors.Is(err, ErrCartNotFound) {
			now := time.Now().UTC()
			return &domain.Cart{CustomerID: customerID, CreatedAt: now, UpdatedAt: now}, nil
		}
		if err != nil {
			return nil, err
		}

		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(setCtx, customerID, c); errSet != nil {
				log.Warn("cart cache set failed", zap.String("customer_id", customerID), zap.Error(errSet))
			}
		}()

		return c, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

func (s *Service) AddItem(ctx context.Context, customerID string, item domain.CartItem) error {
	if item.ProductID == "" || item.Quantity < 1 || !item.UnitPrice.IsPositive() {
		return fmt.Errorf("%w: product id, positive price and quantity are required", ErrInvalidItem)
	}
	if item.DiscountedUnitPrice != nil && item.DiscountedUnitPrice.IsNegative() {
		return fmt.Errorf("%w: discounted price is negative", ErrInvalidItem)
	}

	if err := s.repo.AddItem(ctx, customerID, item); err != nil {
		return err
	}
	s.invalidate(ctx, customerID)
	return nil
}

func (s *Service) UpdateQuantity(ctx context.Context, customerID, productID string, quantity int) error {
	if quantity < 1 {
		return s.RemoveItem(ctx, customerID, productID)
	}
	if err := s.repo.UpdateItemQuantity(ctx, customerID, productID, quantity); err != nil {
		return err
	}
	s.invalidate(ctx, customerID)
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, customerID, productID string) error {
	if err := s.repo.RemoveItem(ctx, customerID, productID); err != nil {
		return err
	}
	s.invalidate(ctx, customerID)
	return nil
}

// ClearCart is a no-op for customers without a cart.
func (s *Service) ClearCart(ctx context.Context, customerID string) error {
	err := s.repo.DeleteCart(ctx, customerID)
	if err != nil && !errors.Is(err, ErrCartNotFound) {
		return err
	}
	s.invalidate(ctx, customerID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, customerID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, customerID); err != nil {
		logger.FromContext(ctx, s.log).Warn("cart cache invalidate failed",
			zap.String("customer_id", customerID), zap.Error(err))
	}
}
