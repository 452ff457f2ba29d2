package service

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

type RuleSource interface {
	GetRuleSet(ctx context.Context) (*domain.RuleSet, error)
}

// RuleProvider serves the active rule set from Redis, falling back to the
// database. Concurrent misses share one database read.
type RuleProvider struct {
	source RuleSource
	cache  cache.RuleCache
	log    *zap.Logger
	sfg    singleflight.Group
}

func NewRuleProvider(source RuleSource, c cache.RuleCache, log *zap.Logger) *RuleProvider {
	return &RuleProvider{source: source, cache: c, log: log}
}

func (p *RuleProvider) Active(ctx context.Context) (*domain.RuleSet, error) {
	log := logger.FromContext(ctx, p.log)

	rs, err := p.cache.GetRuleSet(ctx)
	if err == nil {
		return rs, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn("rule cache get failed", zap.Error(err))
	}

	v, err, _ := p.sfg.Do("rules", func() (interface{}, error) {
		rs, err := p.source.GetRuleSet(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load rules: %w", err)
		}

		setCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if errSet := p.cache.SetRuleSet(setCtx, rs); errSet != nil {
			log.Warn("rule cache set failed", zap.Error(errSet))
		}
		return rs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.RuleSet), nil
}

// Invalidate drops the cached snapshot after an admin write.
func (p *RuleProvider) Invalidate(ctx context.Context) {
	if err := p.cache.InvalidateRuleSet(ctx); err != nil {
		logger.FromContext(ctx, p.log).Error("rule cache invalidate failed", zap.Error(err))
	}
}
