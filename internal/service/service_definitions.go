package service

import (
	"context"
	"time"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/offer"
	r "github.com/fjod/go_delivery/internal/repository"
	"go.uber.org/zap"
)

// OrderStore is the persistence the checkout and lifecycle operations need.
type OrderStore interface {
	offer.Store
	GetAddress(ctx context.Context, customerID, id string) (*domain.Address, error)
	GetPaymentMethod(ctx context.Context, code string) (*domain.PaymentMethod, error)
	UnavailableProducts(ctx context.Context, productIDs []string) ([]string, error)
	SetProductAvailability(ctx context.Context, id, name string, available bool) error
	CreateOrder(ctx context.Context, o *domain.Order, res *r.OfferReservation) error
	FindOrderIDByIdempotencyKey(ctx context.Context, customerID, key string) (string, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string, limit int) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, c *r.StatusChange) error
	AddReview(ctx context.Context, orderID, productID string, rev *domain.Review) error
	ListPublicOffers(ctx context.Context, now time.Time) ([]*domain.Offer, error)
}

type PickupStore interface {
	CreatePickupJob(ctx context.Context, p *domain.PickupJob) error
	GetPickupJob(ctx context.Context, id string) (*domain.PickupJob, error)
	UpdatePickupStatus(ctx context.Context, c *r.StatusChange) error
}

type AddressStore interface {
	ListAddresses(ctx context.Context, customerID string) ([]*domain.Address, error)
	SaveAddress(ctx context.Context, a *domain.Address) error
	SetDefaultAddress(ctx context.Context, customerID, id string) error
}

// RuleStore is the admin side of the pricing configuration.
type RuleStore interface {
	GetRuleSet(ctx context.Context) (*domain.RuleSet, error)
	UpdateSettings(ctx context.Context, s *domain.Settings) error
	ListDeliveryFeeRules(ctx context.Context) ([]domain.DeliveryFeeRule, error)
	ListDeliveryTimeRules(ctx context.Context) ([]domain.DeliveryTimeRule, error)
	ListHandlingCharges(ctx context.Context) ([]domain.HandlingCharge, error)
	ListGstTaxes(ctx context.Context) ([]domain.GstTax, error)
	ListOffers(ctx context.Context) ([]*domain.Offer, error)
	SaveDeliveryFeeRule(ctx context.Context, rule *domain.DeliveryFeeRule) error
	SaveDeliveryTimeRule(ctx context.Context, rule *domain.DeliveryTimeRule) error
	SaveHandlingCharge(ctx context.Context, c *domain.HandlingCharge) error
	SaveGstTax(ctx context.Context, g *domain.GstTax) error
	SaveOffer(ctx context.Context, o *domain.Offer) error
	SetRuleActive(ctx context.Context, kind domain.RuleKind, id string, active bool) error
}

// Store is implemented by *repository.Repository.
type Store interface {
	OrderStore
	PickupStore
	AddressStore
	RuleStore
}

// CartStore is implemented by *cart.Service.
type CartStore interface {
	GetCart(ctx context.Context, customerID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, customerID string) error
}

// Recorder receives business outcomes for telemetry.
type Recorder interface {
	OrderSubmitted(ctx context.Context, outcome string)
	StatusTransition(ctx context.Context, entity, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) OrderSubmitted(context.Context, string) {}
func (nopRecorder) StatusTransition(context.Context, string, string) {}

type Config struct {
	// StatusRetries bounds how often a transition is re-evaluated after losing
	// a concurrent update.
	StatusRetries int
	OrderPageSize int
}

func DefaultConfig() Config {
	return Config{StatusRetries: 3, OrderPageSize: 50}
}

type Service struct {
	store     Store
	rules     *RuleProvider
	carts     CartStore
	validator *offer.Validator
	metrics   Recorder
	log       *zap.Logger
	cfg       Config
	now       func() time.Time
}

func NewService(store Store, rules *RuleProvider, carts CartStore, metrics Recorder, log *zap.Logger, cfg Config) *Service {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.StatusRetries < 0 {
		cfg.StatusRetries = 0
	}
	if cfg.OrderPageSize <= 0 {
		cfg.OrderPageSize = DefaultConfig().OrderPageSize
	}

	s := &Service{
		store:   store,
		rules:   rules,
		carts:   carts,
		metrics: metrics,
		log:     log,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
	s.validator = offer.NewValidator(store).WithClock(func() time.Time { return s.now() })
	return s
}
