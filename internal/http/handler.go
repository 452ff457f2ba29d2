package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/pricing"
	"github.com/fjod/go_delivery/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// DeliveryService is implemented by *service.Service.
type DeliveryService interface {
	ComputePrice(ctx context.Context, req *service.PriceRequest) (*service.PricedDraft, error)
	SubmitOrder(ctx context.Context, req *service.SubmitRequest) (*service.SubmitResult, error)
	GetDeliveryEstimate(ctx context.Context, distanceKm float64) (pricing.Estimate, error)
	ListPublicOffers(ctx context.Context) ([]*domain.Offer, error)

	GetOrder(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, customerID string) ([]*domain.Order, error)
	TransitionOrderStatus(ctx context.Context, req *service.TransitionRequest) (*service.TransitionResult, error)
	AttachReview(ctx context.Context, req *service.ReviewRequest) (*domain.Review, error)

	CreatePickupJob(ctx context.Context, req *service.PickupRequest) (*domain.PickupJob, error)
	GetPickupJob(ctx context.Context, actor domain.Actor, id string) (*domain.PickupJob, error)
	TransitionPickupStatus(ctx context.Context, req *service.TransitionRequest) (*service.TransitionResult, error)

	ListAddresses(ctx context.Context, customerID string) ([]*domain.Address, error)
	SaveAddress(ctx context.Context, a *domain.Address) error
	SetDefaultAddress(ctx context.Context, customerID, id string) error

	ListRules(ctx context.Context) (*service.RuleCatalog, error)
	SaveDeliveryFeeRule(ctx context.Context, rule *domain.DeliveryFeeRule) error
	SaveDeliveryTimeRule(ctx context.Context, rule *domain.DeliveryTimeRule) error
	SaveHandlingCharge(ctx context.Context, c *domain.HandlingCharge) error
	SaveGstTax(ctx context.Context, g *domain.GstTax) error
	SaveOffer(ctx context.Context, o *domain.Offer) error
	SetRuleActive(ctx context.Context, kind domain.RuleKind, id string, active bool) error
	UpdateSettings(ctx context.Context, s *domain.Settings) error
	SetProductAvailability(ctx context.Context, productID, name string, available bool) error
}

// CartService is implemented by *cart.Service.
type CartService interface {
	GetCart(ctx context.Context, customerID string) (*domain.Cart, error)
	AddItem(ctx context.Context, customerID string, item domain.CartItem) error
	UpdateQuantity(ctx context.Context, customerID, productID string, quantity int) error
	RemoveItem(ctx context.Context, customerID, productID string) error
	ClearCart(ctx context.Context, customerID string) error
}

type Handler struct {
	svc     DeliveryService
	carts   CartService
	log     *zap.Logger
	timeout time.Duration
}

func NewHandler(svc DeliveryService, carts CartService, log *zap.Logger, timeout time.Duration) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, carts: carts, log: log, timeout: timeout}
}

type RouterConfig struct {
	RequestTimeout time.Duration

	// SubmitLimiter throttles order submission per actor. Nil disables it.
	SubmitLimiter *ActorRateLimiter
}

// NewRouter mounts every route under /api/v1 and wraps the result with
// OpenTelemetry instrumentation.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	submitLimiter := cfg.SubmitLimiter
	if submitLimiter == nil {
		submitLimiter = NewActorRateLimiter(0, 0)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.log))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ActorMiddleware)

		r.Get("/estimate", h.GetDeliveryEstimate)
		r.Get("/offers", h.ListPublicOffers)

		r.Get("/orders/{order_id}", h.GetOrder)
		r.Post("/orders/{order_id}/status", h.TransitionOrderStatus)
		r.Get("/pickups/{pickup_id}", h.GetPickupJob)
		r.Post("/pickups/{pickup_id}/status", h.TransitionPickupStatus)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(domain.RoleCustomer))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.ClearCart)
				r.Post("/items", h.AddCartItem)
				r.Put("/items/{product_id}", h.UpdateCartItem)
				r.Delete("/items/{product_id}", h.RemoveCartItem)
			})

			r.Get("/addresses", h.ListAddresses)
			r.Post("/addresses", h.SaveAddress)
			r.Put("/addresses/{address_id}", h.SaveAddress)
			r.Post("/addresses/{address_id}/default", h.SetDefaultAddress)

			r.Post("/checkout/price", h.ComputePrice)
			r.With(submitLimiter.Middleware).Post("/orders", h.SubmitOrder)
			r.Get("/orders", h.ListOrders)
			r.Post("/orders/{order_id}/items/{product_id}/review", h.AttachReview)

			r.Post("/pickups", h.CreatePickupJob)
		})

		r.With(RequireRole(domain.RoleRestaurant, domain.RoleAdmin)).
			Put("/products/{product_id}/availability", h.SetProductAvailability)

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireRole(domain.RoleAdmin))

			r.Get("/rules", h.ListRules)
			r.Post("/rules/delivery-fee", h.SaveDeliveryFeeRule)
			r.Post("/rules/delivery-time", h.SaveDeliveryTimeRule)
			r.Post("/rules/handling-charges", h.SaveHandlingCharge)
			r.Post("/rules/gst-taxes", h.SaveGstTax)
			r.Post("/rules/offers", h.SaveOffer)
			r.Put("/rules/{kind}/{rule_id}/active", h.SetRuleActive)
			r.Put("/settings", h.UpdateSettings)
		})
	})

	return otelhttp.NewHandler(r, "delivery-api")
}

func (h *Handler) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}
