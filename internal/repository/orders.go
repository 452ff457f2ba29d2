package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type OrderPlacedEvent struct {
	OrderID       string          `json:"order_id"`
	CustomerID    string          `json:"customer_id"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	OfferCode     string          `json:"offer_code,omitempty"`
	Status        string          `json:"status"`
	PlacedAt      time.Time       `json:"placed_at"`
}

type StatusChangedEvent struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	ActorID    string    `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	Message    string    `json:"message,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
}

// StatusChange is a compare-and-set on (status, version) plus the history
// line to append.
type StatusChange struct {
	ID              string
	CustomerID      string
	From            string
	ExpectedVersion int
	Entry           domain.StatusEntry
	ClaimPartner    string
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateOrder persists a priced order, its first history line and the
// order.placed event. When res is set the offer unit is consumed in the same
// transaction, so a failed insert never leaks a redemption.
func (r *Repository) CreateOrder(ctx context.Context, o *domain.Order, res *OfferReservation) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	addressJSON, err := json.Marshal(o.DeliveryAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery address: %w", err)
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		if res != nil {
			if err := reserveOffer(ctx, tx, res); err != nil {
				return err
			}
		}

		err := tx.QueryRowContext(ctx,
			`INSERT INTO orders (id, customer_id, items, subtotal, delivery_fee, handling_charge, tax, discount, total,
			     payment_method, delivery_address, applied_offer_code, status, version, idempotency_key)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			 RETURNING created_at, updated_at`,
			o.ID, o.CustomerID, itemsJSON, o.Subtotal, o.DeliveryFee, o.HandlingCharge, o.Tax, o.Discount, o.Total,
			o.PaymentMethod, addressJSON, nullIfEmpty(o.AppliedOfferCode), o.Status, len(o.StatusHistory),
			nullIfEmpty(o.IdempotencyKey),
		).Scan(&o.CreatedAt, &o.UpdatedAt)
		if isUniqueViolation(err) {
			return ErrDuplicateOrder
		}
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, e := range o.StatusHistory {
			if err := insertHistory(ctx, tx, orderTables, o.ID, e); err != nil {
				return err
			}
		}

		return insertOutboxEvent(ctx, tx, o.ID, EventOrderPlaced, OrderPlacedEvent{
			OrderID:       o.ID,
			CustomerID:    o.CustomerID,
			Total:         o.Total,
			PaymentMethod: o.PaymentMethod,
			OfferCode:     o.AppliedOfferCode,
			Status:        string(o.Status),
			PlacedAt:      o.CreatedAt,
		})
	})
}

// FindOrderIDByIdempotencyKey returns the order a previous submission created.
func (r *Repository) FindOrderIDByIdempotencyKey(ctx context.Context, customerID, key string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM orders WHERE customer_id = $1 AND idempotency_key = $2`,
		customerID, key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query order by idempotency key: %w", err)
	}
	return id, nil
}

const orderColumns = `id, customer_id, items, subtotal, delivery_fee, handling_charge, tax, discount, total,
	payment_method, delivery_address, applied_offer_code, status, delivery_partner_id, created_at, updated_at`

func scanOrder(s scanner) (*domain.Order, error) {
	var (
		o                          domain.Order
		itemsJSON, addressJSON     []byte
		offerCode, deliveryPartner sql.NullString
	)
	err := s.Scan(&o.ID, &o.CustomerID, &itemsJSON, &o.Subtotal, &o.DeliveryFee, &o.HandlingCharge, &o.Tax,
		&o.Discount, &o.Total, &o.PaymentMethod, &addressJSON, &offerCode, &o.Status, &deliveryPartner,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(addressJSON, &o.DeliveryAddress); err != nil {
		return nil, fmt.Errorf("unmarshal delivery address: %w", err)
	}
	o.AppliedOfferCode = offerCode.String
	o.DeliveryPartnerID = deliveryPartner.String
	return &o, nil
}

func (r *Repository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrOrderNotFound
	}

	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	history, err := r.loadHistory(ctx, orderTables, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.StatusHistory = history[o.ID]

	if err := r.attachReviews(ctx, []*domain.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// ListOrdersByCustomer returns the customer's orders, newest first.
func (r *Repository) ListOrdersByCustomer(ctx context.Context, customerID string, limit int) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2`,
		customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query orders by customer: %w", err)
	}
	defer rows.Close()

	var (
		orders []*domain.Order
		ids    []string
	)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	history, err := r.loadHistory(ctx, orderTables, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		o.StatusHistory = history[o.ID]
	}

	if err := r.attachReviews(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *Repository) UpdateOrderStatus(ctx context.Context, c *StatusChange) error {
	return r.applyStatusChange(ctx, orderTables, c)
}

// attachReviews loads the item reviews of every order in one query.
func (r *Repository) attachReviews(ctx context.Context, orders []*domain.Order) error {
	byID := make(map[string]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT order_id, product_id, rating, comment, created_at FROM order_item_reviews WHERE order_id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID, productID string
			rev                domain.Review
		)
		if err := rows.Scan(&orderID, &productID, &rev.Rating, &rev.Comment, &rev.CreatedAt); err != nil {
			return fmt.Errorf("scan review: %w", err)
		}
		o, ok := byID[orderID]
		if !ok {
			continue
		}
		if item, ok := o.Item(productID); ok {
			item.Review = &rev
		}
	}
	return rows.Err()
}

func (r *Repository) AddReview(ctx context.Context, orderID, productID string, rev *domain.Review) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO order_item_reviews (order_id, product_id, rating, comment)
		 VALUES ($1, $2, $3, $4) RETURNING created_at`,
		orderID, productID, rev.Rating, rev.Comment,
	).Scan(&rev.CreatedAt)
	if isUniqueViolation(err) {
		return ErrReviewExists
	}
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

type lifecycleTables struct {
	entity    string
	history   string
	fk        string
	eventType string
}

var (
	orderTables  = lifecycleTables{entity: "orders", history: "order_status_history", fk: "order_id", eventType: EventOrderStatusChanged}
	pickupTables = lifecycleTables{entity: "pickup_jobs", history: "pickup_status_history", fk: "pickup_id", eventType: EventPickupStatusChanged}
)

func insertHistory(ctx context.Context, tx *sql.Tx, t lifecycleTables, id string, e domain.StatusEntry) error {
	at := e.Timestamp
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO `+t.history+` (`+t.fk+`, status, actor_id, actor_role, message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, e.Status, e.Actor.ID, string(e.Actor.Role), e.Message, at)
	if err != nil {
		return fmt.Errorf("insert %s: %w", t.history, err)
	}
	return nil
}

func (r *Repository) loadHistory(ctx context.Context, t lifecycleTables, ids []string) (map[string][]domain.StatusEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+t.fk+`, status, actor_id, actor_role, message, created_at
		 FROM `+t.history+` WHERE `+t.fk+` = ANY($1) ORDER BY id`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.history, err)
	}
	defer rows.Close()

	history := make(map[string][]domain.StatusEntry, len(ids))
	for rows.Next() {
		var (
			id   string
			e    domain.StatusEntry
			role string
		)
		if err := rows.Scan(&id, &e.Status, &e.Actor.ID, &role, &e.Message, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.history, err)
		}
		e.Actor.Role = domain.Role(role)
		history[id] = append(history[id], e)
	}
	return history, rows.Err()
}

// applyStatusChange moves an entity only if nobody else moved it since it was
// read. History, status and the outbox event are written atomically.
func (r *Repository) applyStatusChange(ctx context.Context, t lifecycleTables, c *StatusChange) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE `+t.entity+`
			 SET status = $1, version = version + 1,
			     delivery_partner_id = COALESCE(delivery_partner_id, $2),
			     updated_at = NOW()
			 WHERE id = $3 AND status = $4 AND version = $5`,
			c.Entry.Status, nullIfEmpty(c.ClaimPartner), c.ID, c.From, c.ExpectedVersion)
		if err != nil {
			return fmt.Errorf("update %s status: %w", t.entity, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update %s status: %w", t.entity, err)
		}
		if n == 0 {
			return ErrStatusConflict
		}

		if err := insertHistory(ctx, tx, t, c.ID, c.Entry); err != nil {
			return err
		}

		return insertOutboxEvent(ctx, tx, c.ID, t.eventType, StatusChangedEvent{
			ID:         c.ID,
			CustomerID: c.CustomerID,
			From:       c.From,
			To:         c.Entry.Status,
			ActorID:    c.Entry.Actor.ID,
			ActorRole:  string(c.Entry.Actor.Role),
			Message:    c.Entry.Message,
			ChangedAt:  c.Entry.Timestamp,
		})
	})
}
