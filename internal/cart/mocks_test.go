package cart

import (
	"context"
	"sync"

	"github.com/fjod/go_delivery/internal/cache"
	"github.com/fjod/go_delivery/internal/domain"
)

type mockRepository struct {
	m        sync.Mutex
	carts    map[string]*domain.Cart
	err      error
	getCalls int
}

func newMockRepository() *mockRepository {
	return &mockRepository{carts: make(map[string]*domain.Cart)}
}

func (m *mockRepository) GetCart(_ context.Context, customerID string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.getCalls++
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[customerID]
	if !ok {
		return nil, ErrCartNotFound
	}
	cp := *c
	cp.Items = append([]domain.CartItem(nil), c.Items...)
	return &cp, nil
}

func (m *mockRepository) AddItem(_ context.Context, customerID string, item domain.CartItem) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	c, ok := m.carts[customerID]
	if !ok {
		c = &domain.Cart{CustomerID: customerID}
		m.carts[customerID] = c
	}
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i] = item
			return nil
		}
	}
	c.Items = append(c.Items, item)
	return nil
}

func (m *mockRepository) UpdateItemQuantity(_ context.Context, customerID, productID string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	c, ok := m.carts[customerID]
	if !ok {
		return ErrItemNotFound
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	return ErrItemNotFound
}

func (m *mockRepository) RemoveItem(_ context.Context, customerID, productID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	c, ok := m.carts[customerID]
	if !ok {
		return ErrCartNotFound
	}
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	return nil
}

func (m *mockRepository) DeleteCart(_ context.Context, customerID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.carts[customerID]; !ok {
		return ErrCartNotFound
	}
	delete(m.carts, customerID)
	return nil
}

type mockCache struct {
	m       sync.Mutex
	carts   map[string]*domain.Cart
	getErr  error
	deletes int
}

func newMockCache() *mockCache {
	return &mockCache{carts: make(map[string]*domain.Cart)}
}

func (c *mockCache) Get(_ context.Context, customerID string) (*domain.Cart, error) {
	c.m.Lock()
	defer c.m.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	cart, ok := c.carts[customerID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return cart, nil
}

func (c *mockCache) Set(_ context.Context, customerID string, cart *domain.Cart) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.carts[customerID] = cart
	return nil
}

func (c *mockCache) Delete(_ context.Context, customerID string) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.deletes++
	delete(c.carts, customerID)
	return nil
}

func (c *mockCache) cached(customerID string) bool {
	c.m.Lock()
	defer c.m.Unlock()
	_, ok := c.carts[customerID]
	return ok
}
