package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/go-chi/chi/v5"
)

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	CustomerID string            `json:"customer_id"`
	Items      []domain.CartItem `json:"items"`
	UpdatedAt  *time.Time        `json:"updated_at,omitempty"`
}

func toCartResponse(c *domain.Cart) CartResponse {
	resp := CartResponse{CustomerID: c.CustomerID, Items: c.Items}
	if resp.Items == nil {
		resp.Items = []domain.CartItem{}
	}
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		resp.UpdatedAt = &t
	}
	return resp
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	c, err := h.carts.GetCart(ctx, actor.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	var req ItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "validation", err.Error())
		return
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	if err := h.carts.AddItem(ctx, actor.ID, req.toDomain()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondCart(w, r, actor.ID)
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	var req UpdateQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "validation", err.Error())
		return
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	if err := h.carts.UpdateQuantity(ctx, actor.ID, chi.URLParam(r, "product_id"), req.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondCart(w, r, actor.ID)
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	if err := h.carts.RemoveItem(ctx, actor.ID, chi.URLParam(r, "product_id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondCart(w, r, actor.ID)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	if err := h.carts.ClearCart(ctx, actor.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondCart(w http.ResponseWriter, r *http.Request, customerID string) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	c, err := h.carts.GetCart(ctx, customerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(c))
}
