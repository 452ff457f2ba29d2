package http

import (
	"net/http"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/go-chi/chi/v5"
)

type AddressRequest struct {
	Title       string   `json:"title"`
	FullAddress string   `json:"full_address"`
	Landmark    string   `json:"landmark,omitempty"`
	City        string   `json:"city"`
	Pincode     string   `json:"pincode"`
	DistanceKm  *float64 `json:"distance_km"`
	IsDefault   bool     `json:"is_default"`
}

func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	addrs, err := h.svc.ListAddresses(ctx, actor.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if addrs == nil {
		addrs = []*domain.Address{}
	}
	respondJSON(w, http.StatusOK, addrs)
}

// SaveAddress serves both POST /addresses and PUT /addresses/{address_id}.
func (h *Handler) SaveAddress(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	var req AddressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "validation", err.Error())
		return
	}

	addr := &domain.Address{
		ID:          chi.URLParam(r, "address_id"),
		CustomerID:  actor.ID,
		Title:       req.Title,
		FullAddress: req.FullAddress,
		Landmark:    req.Landmark,
		City:        req.City,
		Pincode:     req.Pincode,
		DistanceKm:  req.DistanceKm,
		IsDefault:   req.IsDefault,
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	if err := h.svc.SaveAddress(ctx, addr); err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
	}
	respondJSON(w, status, addr)
}

func (h *Handler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	if err := h.svc.SetDefaultAddress(ctx, actor.ID, chi.URLParam(r, "address_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
