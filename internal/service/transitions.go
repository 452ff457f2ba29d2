package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/lifecycle"
	r "github.com/fjod/go_delivery/internal/repository"
	"github.com/fjod/go_delivery/pkg/logger"
	"go.uber.org/zap"
)

type TransitionRequest struct {
	ID     string
	Target string
	Actor  domain.Actor
	Note   string
}

type TransitionResult struct {
	Status        string               `json:"status"`
	StatusHistory []domain.StatusEntry `json:"status_history"`

	// Changed is false for an idempotent resubmit.
	Changed bool `json:"changed"`
}

const (
	entityOrder  = "order"
	entityPickup = "pickup"
)

// TransitionOrderStatus applies one lifecycle step. A lost race against a
// concurrent update re-reads the order and decides again.
func (s *Service) TransitionOrderStatus(ctx context.Context, req *TransitionRequest) (*TransitionResult, error) {
	target, err := lifecycle.ParseOrderTarget(req.Target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v %q", ErrValidation, err, req.Target)
	}

	return s.retryTransition(ctx, entityOrder, req, func() (*TransitionResult, error) {
		o, err := s.store.GetOrder(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		d, err := lifecycle.DecideOrder(o, target, req.Actor)
		if err != nil {
			return nil, err
		}
		if d.NoOp {
			return &TransitionResult{Status: string(o.Status), StatusHistory: o.StatusHistory}, nil
		}

		entry := s.entry(string(d.To), req)
		err = s.store.UpdateOrderStatus(ctx, &r.StatusChange{
			ID:              o.ID,
			CustomerID:      o.CustomerID,
			From:            string(o.Status),
			ExpectedVersion: o.Version(),
			Entry:           entry,
			ClaimPartner:    d.ClaimPartner,
		})
		if err != nil {
			return nil, err
		}
		return &TransitionResult{
			Status:        entry.Status,
			StatusHistory: append(o.StatusHistory, entry),
			Changed:       true,
		}, nil
	})
}

func (s *Service) TransitionPickupStatus(ctx context.Context, req *TransitionRequest) (*TransitionResult, error) {
	target, err := lifecycle.ParsePickupTarget(req.Target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v %q", ErrValidation, err, req.Target)
	}

	return s.retryTransition(ctx, entityPickup, req, func() (*TransitionResult, error) {
		p, err := s.store.GetPickupJob(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		d, err := lifecycle.DecidePickup(p, target, req.Actor)
		if err != nil {
			return nil, err
		}
		if d.NoOp {
			return &TransitionResult{Status: string(p.Status), StatusHistory: p.StatusHistory}, nil
		}

		entry := s.entry(string(d.To), req)
		err = s.store.UpdatePickupStatus(ctx, &r.StatusChange{
			ID:              p.ID,
			CustomerID:      p.CustomerID,
			From:            string(p.Status),
			ExpectedVersion: p.Version(),
			Entry:           entry,
			ClaimPartner:    d.ClaimPartner,
		})
		if err != nil {
			return nil, err
		}
		return &TransitionResult{
			Status:        entry.Status,
			StatusHistory: append(p.StatusHistory, entry),
			Changed:       true,
		}, nil
	})
}

func (s *Service) entry(status string, req *TransitionRequest) domain.StatusEntry {
	return domain.StatusEntry{
		Status:    status,
		Timestamp: s.now(),
		Actor:     req.Actor,
		Message:   req.Note,
	}
}

func (s *Service) retryTransition(
	ctx context.Context,
	entity string,
	req *TransitionRequest,
	attempt func() (*TransitionResult, error)) (*TransitionResult, error) {

	log := logger.FromContext(ctx, s.log).With(
		zap.String(entity+"_id", req.ID),
		zap.String("target", req.Target),
		zap.Stringer("actor", req.Actor))

	for i := 0; ; i++ {
		res, err := attempt()
		switch {
		case err == nil:
			if res.Changed {
				log.Info("status changed", zap.String("status", res.Status))
				s.metrics.StatusTransition(ctx, entity, "applied")
			} else {
				s.metrics.StatusTransition(ctx, entity, "noop")
			}
			return res, nil
		case errors.Is(err, r.ErrStatusConflict) && i < s.cfg.StatusRetries:
			log.Debug("status conflict, retrying", zap.Int("attempt", i+1))
			continue
		case errors.Is(err, r.ErrStatusConflict):
			log.Warn("status conflict retries exhausted")
			s.metrics.StatusTransition(ctx, entity, "conflict")
			return nil, fmt.Errorf("%w: %v", ErrConcurrentUpdate, err)
		case errors.Is(err, lifecycle.ErrNotAuthorized):
			log.Info("transition not authorized", zap.Error(err))
			s.metrics.StatusTransition(ctx, entity, "not_authorized")
			return nil, err
		case errors.Is(err, lifecycle.ErrIllegalTransition):
			log.Info("illegal transition", zap.Error(err))
			s.metrics.StatusTransition(ctx, entity, "illegal")
			return nil, err
		default:
			if !isBusinessError(err) {
				log.Error("transition failed", zap.Error(err))
			}
			s.metrics.StatusTransition(ctx, entity, "failed")
			return nil, err
		}
	}
}
