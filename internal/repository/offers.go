package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/offer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const offerColumns = `id, code, description, discount_type, discount_value, min_order_value, max_discount,
	valid_from, valid_to, is_active, is_public, total_usage_limit, per_customer_limit, usage_count, version, updated_at`

func scanOffer(s scanner) (*domain.Offer, error) {
	var (
		o           domain.Offer
		maxDiscount decimal.NullDecimal
		usageLimit  sql.NullInt64
	)
	err := s.Scan(&o.ID, &o.Code, &o.Description, &o.DiscountType, &o.DiscountValue, &o.MinOrderValue, &maxDiscount,
		&o.ValidFrom, &o.ValidTo, &o.IsActive, &o.IsPublic, &usageLimit, &o.PerCustomerLimit, &o.UsageCount, &o.Version, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if maxDiscount.Valid {
		o.MaxDiscount = &maxDiscount.Decimal
	}
	if usageLimit.Valid {
		limit := int(usageLimit.Int64)
		o.TotalUsageLimit = &limit
	}
	return &o, nil
}

// GetOfferByCode looks the code up case-insensitively. Inactive offers are
// returned too so the validator can report why they do not apply.
func (r *Repository) GetOfferByCode(ctx context.Context, code string) (*domain.Offer, error) {
	o, err := scanOffer(r.db.QueryRowContext(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE UPPER(code) = $1`, domain.NormalizeOfferCode(code)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, offer.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query offer by code: %w", err)
	}
	return o, nil
}

func (r *Repository) CountRedemptions(ctx context.Context, offerID, customerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT redemptions FROM offer_redemptions WHERE offer_id = $1 AND customer_id = $2`,
		offerID, customerID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query offer redemptions: %w", err)
	}
	return n, nil
}

func (r *Repository) ListOffers(ctx context.Context) ([]*domain.Offer, error) {
	return r.queryOffers(ctx, `SELECT `+offerColumns+` FROM offers ORDER BY valid_to DESC`)
}

// ListPublicOffers returns the offers a customer may browse at now.
func (r *Repository) ListPublicOffers(ctx context.Context, now time.Time) ([]*domain.Offer, error) {
	return r.queryOffers(ctx,
		`SELECT `+offerColumns+` FROM offers
		 WHERE is_active AND is_public AND valid_from <= $1 AND valid_to >= $1
		   AND (total_usage_limit IS NULL OR usage_count < total_usage_limit)
		 ORDER BY valid_to`, now)
}

func (r *Repository) queryOffers(ctx context.Context, query string, args ...any) ([]*domain.Offer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query offers: %w", err)
	}
	defer rows.Close()

	var offers []*domain.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// SaveOffer inserts or updates an offer. Usage counters are never written
// here; they only move when an order is placed.
func (r *Repository) SaveOffer(ctx context.Context, o *domain.Offer) error {
	o.Code = domain.NormalizeOfferCode(o.Code)

	var err error
	if o.ID == "" {
		o.ID = uuid.NewString()
		err = r.db.QueryRowContext(ctx,
			`INSERT INTO offers (id, code, description, discount_type, discount_value, min_order_value, max_discount,
			     valid_from, valid_to, is_active, is_public, total_usage_limit, per_customer_limit)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			 RETURNING usage_count, version, updated_at`,
			o.ID, o.Code, o.Description, o.DiscountType, o.DiscountValue, o.MinOrderValue, o.MaxDiscount,
			o.ValidFrom, o.ValidTo, o.IsActive, o.IsPublic, o.TotalUsageLimit, o.PerCustomerLimit,
		).Scan(&o.UsageCount, &o.Version, &o.UpdatedAt)
	} else {
		err = r.db.QueryRowContext(ctx,
			`UPDATE offers SET code = $2, description = $3, discount_type = $4, discount_value = $5,
			     min_order_value = $6, max_discount = $7, valid_from = $8, valid_to = $9, is_active = $10,
			     is_public = $11, total_usage_limit = $12, per_customer_limit = $13,
			     version = version + 1, updated_at = NOW()
			 WHERE id = $1
			 RETURNING usage_count, version, updated_at`,
			o.ID, o.Code, o.Description, o.DiscountType, o.DiscountValue, o.MinOrderValue, o.MaxDiscount,
			o.ValidFrom, o.ValidTo, o.IsActive, o.IsPublic, o.TotalUsageLimit, o.PerCustomerLimit,
		).Scan(&o.UsageCount, &o.Version, &o.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRuleNotFound
		}
	}
	if isUniqueViolation(err) {
		return ErrDuplicateOfferCode
	}
	if err != nil {
		return fmt.Errorf("save offer: %w", err)
	}
	return nil
}

// OfferReservation asks the order transaction to consume one unit of an offer.
type OfferReservation struct {
	OfferID          string
	CustomerID       string
	PerCustomerLimit int
}

// reserveOffer consumes one global and one per-customer unit. Both updates
// are conditional so concurrent checkouts can never push a counter past its
// limit; a zero-row update aborts the surrounding transaction.
func reserveOffer(ctx context.Context, tx *sql.Tx, res *OfferReservation) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE offers SET usage_count = usage_count + 1, updated_at = NOW()
		 WHERE id = $1 AND is_active AND valid_from <= NOW() AND valid_to >= NOW()
		   AND (total_usage_limit IS NULL OR usage_count < total_usage_limit)`,
		res.OfferID)
	if err != nil {
		return fmt.Errorf("reserve offer: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserve offer: %w", err)
	}
	if n == 0 {
		return ErrOfferExhausted
	}

	result, err = tx.ExecContext(ctx,
		`INSERT INTO offer_redemptions (offer_id, customer_id, redemptions, updated_at)
		 VALUES ($1, $2, 1, NOW())
		 ON CONFLICT (offer_id, customer_id) DO UPDATE
		 SET redemptions = offer_redemptions.redemptions + 1, updated_at = NOW()
		 WHERE $3 <= 0 OR offer_redemptions.redemptions < $3`,
		res.OfferID, res.CustomerID, res.PerCustomerLimit)
	if err != nil {
		return fmt.Errorf("record offer redemption: %w", err)
	}
	n, err = result.RowsAffected()
	if err != nil {
		return fmt.Errorf("record offer redemption: %w", err)
	}
	if n == 0 {
		return ErrCustomerLimitReached
	}
	return nil
}
