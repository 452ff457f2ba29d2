package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/service"
	"github.com/shopspring/decimal"
)

// ItemRequest is a cart line sent inline with a price or submit request.
type ItemRequest struct {
	ProductID           string           `json:"product_id"`
	Name                string           `json:"name"`
	UnitPrice           decimal.Decimal  `json:"unit_price"`
	DiscountedUnitPrice *decimal.Decimal `json:"discounted_unit_price,omitempty"`
	Quantity            int              `json:"quantity"`
}

func (i ItemRequest) toDomain() domain.CartItem {
	return domain.CartItem{
		ProductID:           i.ProductID,
		Name:                i.Name,
		UnitPrice:           i.UnitPrice,
		DiscountedUnitPrice: i.DiscountedUnitPrice,
		Quantity:            i.Quantity,
	}
}

func toCartItems(items []ItemRequest) []domain.CartItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]domain.CartItem, len(items))
	for i, item := range items {
		out[i] = item.toDomain()
	}
	return out
}

type PriceRequest struct {
	AddressID string        `json:"address_id"`
	OfferCode string        `json:"offer_code,omitempty"`
	Items     []ItemRequest `json:"items,omitempty"`
}

type SubmitOrderRequest struct {
	AddressID      string        `json:"address_id"`
	OfferCode      string        `json:"offer_code,omitempty"`
	PaymentMethod  string        `json:"payment_method"`
	IdempotencyKey string        `json:"idempotency_key,omitempty"`
	Items          []ItemRequest `json:"items,omitempty"`
}

// GetDeliveryEstimate handles GET /api/v1/estimate?distance_km=4.2
func (h *Handler) GetDeliveryEstimate(w http.ResponseWriter, r *http.Request) {
	km, err := strconv.ParseFloat(r.URL.Query().Get("distance_km"), 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "distance_km must be a number", "validation", "")
		return
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	est, err := h.svc.GetDeliveryEstimate(ctx, km)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, est)
}

func (h *Handler) ListPublicOffers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r)
	defer cancel()

	offers, err := h.svc.ListPublicOffers(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if offers == nil {
		offers = []*domain.Offer{}
	}
	respondJSON(w, http.StatusOK, offers)
}

// ComputePrice handles POST /api/v1/checkout/price. An offer that cannot be
// applied still yields 200 with offer_rejection set.
func (h *Handler) ComputePrice(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	var req PriceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "validation", err.Error())
		return
	}
	if req.AddressID == "" {
		respondError(w, http.StatusBadRequest, "address_id is required", "validation", "")
		return
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	draft, err := h.svc.ComputePrice(ctx, &service.PriceRequest{
		CustomerID: actor.ID,
		AddressID:  req.AddressID,
		OfferCode:  req.OfferCode,
		Items:      toCartItems(req.Items),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, draft)
}

// SubmitOrder handles POST /api/v1/orders. The Idempotency-Key header is
// used when the body does not carry one.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFrom(r.Context())

	var req SubmitOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", "validation", err.Error())
		return
	}
	if req.AddressID == "" || req.PaymentMethod == "" {
		respondError(w, http.StatusBadRequest, "address_id and payment_method are required", "validation", "")
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = r.Header.Get("Idempotency-Key")
	}

	ctx, cancel := h.withTimeout(r)
	defer cancel()

	res, err := h.svc.SubmitOrder(ctx, &service.SubmitRequest{
		CustomerID:     actor.ID,
		AddressID:      req.AddressID,
		OfferCode:      req.OfferCode,
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: req.IdempotencyKey,
		Items:          toCartItems(req.Items),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	w.Header().Set("Location", fmt.Sprintf("/api/v1/orders/%s", res.OrderID))
	respondJSON(w, status, res)
}
