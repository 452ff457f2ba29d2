package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/redis/go-redis/v9"
)

const ruleSetKey = "rules:active"

func NewRedisCache(client *redis.Client, rulesTTL, cartTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   client,
		rulesTTL: rulesTTL,
		cartTTL:  cartTTL,
	}
}

type RedisCache struct {
	client   *redis.Client
	rulesTTL time.Duration
	cartTTL  time.Duration
}

func (r *RedisCache) GetRuleSet(ctx context.Context) (*domain.RuleSet, error) {
	var rs domain.RuleSet
	if err := r.get(ctx, ruleSetKey, &rs); err != nil {
		return nil, err
	}
	return &rs, nil
}

// SetRuleSet stores the snapshot under the single key all replicas share.
func (r *RedisCache) SetRuleSet(ctx context.Context, rs *domain.RuleSet) error {
	return r.set(ctx, ruleSetKey, rs, r.rulesTTL)
}

func (r *RedisCache) InvalidateRuleSet(ctx context.Context) error {
	return r.del(ctx, ruleSetKey)
}

func (r *RedisCache) Get(ctx context.Context, customerID string) (*domain.Cart, error) {
	var cart domain.Cart
	if err := r.get(ctx, cartKey(customerID), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *RedisCache) Set(ctx context.Context, customerID string, cart *domain.Cart) error {
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	return r.set(ctx, cartKey(customerID), cart, r.cartTTL+jitter)
}

func (r *RedisCache) Delete(ctx context.Context, customerID string) error {
	return r.del(ctx, cartKey(customerID))
}

func (r *RedisCache) get(ctx context.Context, key string, dst any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func (r *RedisCache) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cartKey(customerID string) string {
	return fmt.Sprintf("cart:%s", customerID)
}
