package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fjod/go_delivery/internal/cart"
	"github.com/fjod/go_delivery/internal/lifecycle"
	"github.com/fjod/go_delivery/internal/offer"
	"github.com/fjod/go_delivery/internal/pricing"
	"github.com/fjod/go_delivery/internal/repository"
	"github.com/fjod/go_delivery/internal/service"
	"github.com/fjod/go_delivery/pkg/logger"
	"go.uber.org/zap"
)

// ErrorResponse is the envelope of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondError(w http.ResponseWriter, status int, message, code, details string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code, Details: details})
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: the first matching sentinel wins.
var errorMappings = []errorMapping{
	{service.ErrValidation, http.StatusBadRequest, "validation"},
	{lifecycle.ErrUnknownStatus, http.StatusBadRequest, "validation"},
	{pricing.ErrInvalidQuantity, http.StatusBadRequest, "validation"},
	{pricing.ErrInvalidItem, http.StatusBadRequest, "validation"},
	{cart.ErrInvalidItem, http.StatusBadRequest, "validation"},

	{lifecycle.ErrNotAuthorized, http.StatusForbidden, "not_authorized"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},

	{repository.ErrOrderNotFound, http.StatusNotFound, "not_found"},
	{repository.ErrPickupNotFound, http.StatusNotFound, "not_found"},
	{repository.ErrAddressNotFound, http.StatusNotFound, "not_found"},
	{repository.ErrRuleNotFound, http.StatusNotFound, "not_found"},
	{cart.ErrItemNotFound, http.StatusNotFound, "not_found"},
	{cart.ErrCartNotFound, http.StatusNotFound, "not_found"},

	{lifecycle.ErrIllegalTransition, http.StatusConflict, "illegal_transition"},
	{service.ErrConcurrentUpdate, http.StatusConflict, "conflict"},
	{repository.ErrStatusConflict, http.StatusConflict, "conflict"},
	{repository.ErrReviewExists, http.StatusConflict, "review_exists"},
	{repository.ErrDuplicateOfferCode, http.StatusConflict, "duplicate_offer_code"},
	{repository.ErrOverlappingBand, http.StatusConflict, "overlapping_band"},

	{pricing.ErrBelowMinimumCart, http.StatusUnprocessableEntity, "below_minimum_cart"},
	{pricing.ErrAddressMissingDistance, http.StatusUnprocessableEntity, "address_missing_distance"},
	{pricing.ErrEmptyCart, http.StatusUnprocessableEntity, "empty_cart"},
	{service.ErrItemUnavailable, http.StatusUnprocessableEntity, "item_unavailable"},
	{service.ErrPaymentMethodUnavailable, http.StatusUnprocessableEntity, "payment_method_unavailable"},
	{repository.ErrPaymentNotFound, http.StatusUnprocessableEntity, "payment_method_unavailable"},
	{service.ErrReviewLocked, http.StatusUnprocessableEntity, "review_locked"},

	{service.ErrSiteUnavailable, http.StatusServiceUnavailable, "site_unavailable"},
}

// writeError turns a service error into the response the client sees.
// Business failures are logged at Info, everything else at Error.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), h.log)

	if errors.Is(err, offer.ErrOfferInvalid) {
		log.Info("offer rejected", zap.Error(err))
		respondError(w, http.StatusUnprocessableEntity, err.Error(), "offer_invalid", string(offer.ReasonOf(err)))
		return
	}

	var below *pricing.BelowMinimumError
	if errors.As(err, &below) {
		log.Info("cart below minimum", zap.Error(err))
		respondError(w, http.StatusUnprocessableEntity, err.Error(), "below_minimum_cart", below.Shortfall().StringFixed(2))
		return
	}

	var unavailable *service.ItemUnavailableError
	if errors.As(err, &unavailable) {
		log.Info("items unavailable", zap.Strings("product_ids", unavailable.ProductIDs))
		respondError(w, http.StatusUnprocessableEntity, err.Error(), "item_unavailable", strings.Join(unavailable.ProductIDs, ","))
		return
	}

	var transition *lifecycle.TransitionError
	if errors.As(err, &transition) {
		log.Info("transition rejected",
			zap.String("kind", string(transition.Kind)),
			zap.String("from", transition.From),
			zap.String("to", transition.To))
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if transition == nil {
				log.Info("request rejected", zap.String("code", m.code), zap.Error(err))
			}
			respondError(w, m.status, err.Error(), m.code, "")
			return
		}
	}

	log.Error("request failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal error", "internal", "")
}
