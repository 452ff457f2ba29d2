package http

import (
	"net/http"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type CreatePickupRequest struct {
	PickupAddress domain.AddressSnapshot `json:"pickup_address"`
	DropAddress   domain.AddressSnapshot `json:"drop_address"`
	ItemType      string                 `json:"item_type"`
	Note          string                 `json:"note,omitempty"`
	TotalAmount   *decimal.Decimal       `json:"total_amount,omitempty"`
}

func (h *Handler) CreatePickupJob(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	var req CreatePickupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "validation", err.Error())
		return
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	job, err := h.svc.CreatePickupJob(ctx, &service.PickupRequest{
		CustomerID:    actor.ID,
		PickupAddress: req.PickupAddress,
		DropAddress:   req.DropAddress,
		ItemType:      req.ItemType,
		Note:          req.Note,
		TotalAmount:   req.TotalAmount,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, job)
}

func (h *Handler) GetPickupJob(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	job, err := h.svc.GetPickupJob(ctx, actor, chi.URLParam(r, "pickup_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, job)
}
