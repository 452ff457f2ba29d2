package http

import (
	"context"
	"net/http"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/go-chi/chi/v5"
)

type SetActiveRequest struct {
	Active bool `json:"active"`
}

type ProductAvailabilityRequest struct {
	Name      string `json:"name,omitempty"`
	Available bool   `json:"available"`
}

func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	catalog, err := h.svc.ListRules(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, catalog)
}

func (h *Handler) SaveDeliveryFeeRule(w http.ResponseWriter, r *http.Request) {
	saveRule(h, w, r, h.svc.SaveDeliveryFeeRule)
}

func (h *Handler) SaveDeliveryTimeRule(w http.ResponseWriter, r *http.Request) {
	saveRule(h, w, r, h.svc.SaveDeliveryTimeRule)
}

func (h *Handler) SaveHandlingCharge(w http.ResponseWriter, r *http.Request) {
	saveRule(h, w, r, h.svc.SaveHandlingCharge)
}

func (h *Handler) SaveGstTax(w http.ResponseWriter, r *http.Request) {
	saveRule(h, w, r, h.svc.SaveGstTax)
}

func (h *Handler) SaveOffer(w http.ResponseWriter, r *http.Request) {
	saveRule(h, w, r, h.svc.SaveOffer)
}

// saveRule decodes one rule record and hands it to save. The stored record,
// with its id and version filled in, is echoed back.
func saveRule[T any](h *Handler, w http.ResponseWriter, r *http.Request, save func(context.Context, *T) error) {
	var rule T
	if err := decodeJSON(w, r, &rule); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "validation", err.Error())
		return
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	if err := save(ctx, &rule); err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, &rule)
}

// SetRuleActive handles PUT /api/v1/admin/rules/{kind}/{rule_id}/active.
func (h *Handler) SetRuleActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "validation", err.Error())
		return
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	kind := domain.RuleKind(chi.URLParam(r, "kind"))
	if err := h.svc.SetRuleActive(ctx, kind, chi.URLParam(r, "rule_id"), req.Active); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.Settings
	if err := decodeJSON(w, r, &settings); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "validation", err.Error())
		return
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	if err := h.svc.UpdateSettings(ctx, &settings); err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// SetProductAvailability lets a restaurant mark an item sold out or back on
// the menu.
func (h *Handler) SetProductAvailability(w http.ResponseWriter, r *http.Request) {
	var req ProductAvailabilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "validation", err.Error())
		return
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	if err := h.svc.SetProductAvailability(ctx, chi.URLParam(r, "product_id"), req.Name, req.Available); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
