package http

import (
	"context"
	"net/http"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/service"
	"github.com/go-chi/chi/v5"
)

type TransitionStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())
	orderID := chi.URLParam(r, "order_id")

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	order, err := h.svc.GetOrder(ctx, actor, orderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// ListOrders returns the calling customer's orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	orders, err := h.svc.ListOrders(ctx, actor.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handler) TransitionOrderStatus(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, chi.URLParam(r, "order_id"), h.svc.TransitionOrderStatus)
}

func (h *Handler) TransitionPickupStatus(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, chi.URLParam(r, "pickup_id"), h.svc.TransitionPickupStatus)
}

type transitionFunc func(ctx context.Context, req *service.TransitionRequest) (*service.TransitionResult, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, id string, apply transitionFunc) {
	actor, _ := ActorFrom(r.Context())

	var req TransitionStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "validation", err.Error())
		return
	}
	if req.Status == "" {
		respondError(w, http.StatusBadRequest, "status is required", "validation", "")
		return
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	res, err := apply(ctx, &service.TransitionRequest{
		ID:     id,
		Target: req.Status,
		Actor:  actor,
		Note:   req.Note,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// AttachReview handles POST /api/v1/orders/{order_id}/items/{product_id}/review.
func (h *Handler) AttachReview(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	var req ReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "validation", err.Error())
		return
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	review, err := h.svc.AttachReview(ctx, &service.ReviewRequest{
		OrderID:   chi.URLParam(r, "order_id"),
		ProductID: chi.URLParam(r, "product_id"),
		Actor:     actor,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, review)
}
