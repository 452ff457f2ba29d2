package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type scanner interface {
	Scan(dest ...any) error
}

const (
	feeRuleColumns  = `id, amount, min_subtotal, max_subtotal, is_active, version, updated_at`
	timeRuleColumns = `id, title, min_distance, max_distance, min_time, max_time, is_active, version, updated_at`
)

func scanFeeRule(s scanner) (domain.DeliveryFeeRule, error) {
	var r domain.DeliveryFeeRule
	var maxSubtotal decimal.NullDecimal
	err := s.Scan(&r.ID, &r.Amount, &r.MinSubtotal, &maxSubtotal, &r.IsActive, &r.Version, &r.UpdatedAt)
	if maxSubtotal.Valid {
		r.MaxSubtotal = &maxSubtotal.Decimal
	}
	return r, err
}

func scanTimeRule(s scanner) (domain.DeliveryTimeRule, error) {
	var r domain.DeliveryTimeRule
	err := s.Scan(&r.ID, &r.Title, &r.MinDistance, &r.MaxDistance, &r.MinTime, &r.MaxTime, &r.IsActive, &r.Version, &r.UpdatedAt)
	return r, err
}

func queryFeeRules(ctx context.Context, q querier, where string) ([]domain.DeliveryFeeRule, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+feeRuleColumns+` FROM delivery_fee_rules `+where+` ORDER BY min_subtotal`)
	if err != nil {
		return nil, fmt.Errorf("query delivery fee rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.DeliveryFeeRule
	for rows.Next() {
		r, err := scanFeeRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery fee rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func queryTimeRules(ctx context.Context, q querier, where string) ([]domain.DeliveryTimeRule, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+timeRuleColumns+` FROM delivery_time_rules `+where+` ORDER BY min_distance`)
	if err != nil {
		return nil, fmt.Errorf("query delivery time rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.DeliveryTimeRule
	for rows.Next() {
		r, err := scanTimeRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery time rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func queryHandlingCharges(ctx context.Context, q querier, where string) ([]domain.HandlingCharge, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, title, amount, is_active, version, updated_at FROM handling_charges `+where+` ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("query handling charges: %w", err)
	}
	defer rows.Close()

	var charges []domain.HandlingCharge
	for rows.Next() {
		var c domain.HandlingCharge
		if err := rows.Scan(&c.ID, &c.Title, &c.Amount, &c.IsActive, &c.Version, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan handling charge: %w", err)
		}
		charges = append(charges, c)
	}
	return charges, rows.Err()
}

func queryGstTaxes(ctx context.Context, q querier, where string) ([]domain.GstTax, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, title, type, value, is_active, version, updated_at FROM gst_taxes `+where+` ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("query gst taxes: %w", err)
	}
	defer rows.Close()

	var taxes []domain.GstTax
	for rows.Next() {
		var g domain.GstTax
		if err := rows.Scan(&g.ID, &g.Title, &g.Type, &g.Value, &g.IsActive, &g.Version, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan gst tax: %w", err)
		}
		taxes = append(taxes, g)
	}
	return taxes, rows.Err()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GetRuleSet loads the active pricing configuration.
func (r *Repository) GetRuleSet(ctx context.Context) (*domain.RuleSet, error) {
	const active = `WHERE is_active`
	var (
		rs  domain.RuleSet
		err error
	)
	if rs.FeeRules, err = queryFeeRules(ctx, r.db, active); err != nil {
		return nil, err
	}
	if rs.TimeRules, err = queryTimeRules(ctx, r.db, active); err != nil {
		return nil, err
	}
	if rs.HandlingCharges, err = queryHandlingCharges(ctx, r.db, active); err != nil {
		return nil, err
	}
	if rs.Taxes, err = queryGstTaxes(ctx, r.db, active); err != nil {
		return nil, err
	}
	settings, err := r.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	rs.Settings = *settings
	rs.LoadedAt = time.Now().UTC()
	return &rs, nil
}

func (r *Repository) GetSettings(ctx context.Context) (*domain.Settings, error) {
	var s domain.Settings
	err := r.db.QueryRowContext(ctx,
		`SELECT system_status, min_cart_amount, min_cart_active FROM settings WHERE id = 1`,
	).Scan(&s.SystemStatus, &s.MinCartAmount, &s.MinCartActive)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.Settings{SystemStatus: domain.SystemOnline}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	return &s, nil
}

func (r *Repository) UpdateSettings(ctx context.Context, s *domain.Settings) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (id, system_status, min_cart_amount, min_cart_active, updated_at)
		 VALUES (1, $1, $2, $3, NOW())
		 ON CONFLICT (id) DO UPDATE SET system_status = EXCLUDED.system_status,
		     min_cart_amount = EXCLUDED.min_cart_amount,
		     min_cart_active = EXCLUDED.min_cart_active,
		     updated_at = NOW()`,
		s.SystemStatus, s.MinCartAmount, s.MinCartActive)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

func (r *Repository) ListDeliveryFeeRules(ctx context.Context) ([]domain.DeliveryFeeRule, error) {
	return queryFeeRules(ctx, r.db, "")
}

func (r *Repository) ListDeliveryTimeRules(ctx context.Context) ([]domain.DeliveryTimeRule, error) {
	return queryTimeRules(ctx, r.db, "")
}

func (r *Repository) ListHandlingCharges(ctx context.Context) ([]domain.HandlingCharge, error) {
	return queryHandlingCharges(ctx, r.db, "")
}

func (r *Repository) ListGstTaxes(ctx context.Context) ([]domain.GstTax, error) {
	return queryGstTaxes(ctx, r.db, "")
}

// SaveDeliveryFeeRule inserts a rule when ID is empty and updates it
// otherwise. Active bands may not overlap.
func (r *Repository) SaveDeliveryFeeRule(ctx context.Context, rule *domain.DeliveryFeeRule) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `LOCK TABLE delivery_fee_rules IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock delivery fee rules: %w", err)
		}
		existing, err := queryFeeRules(ctx, tx, `WHERE is_active`)
		if err != nil {
			return err
		}
		if clash, ok := pricing.FindFeeOverlap(existing, *rule); ok {
			return fmt.Errorf("%w: rule %s", ErrOverlappingBand, clash.ID)
		}

		if rule.ID == "" {
			rule.ID = uuid.NewString()
			err = tx.QueryRowContext(ctx,
				`INSERT INTO delivery_fee_rules (id, amount, min_subtotal, max_subtotal, is_active)
				 VALUES ($1, $2, $3, $4, $5) RETURNING version, updated_at`,
				rule.ID, rule.Amount, rule.MinSubtotal, rule.MaxSubtotal, rule.IsActive,
			).Scan(&rule.Version, &rule.UpdatedAt)
			if err != nil {
				return fmt.Errorf("insert delivery fee rule: %w", err)
			}
			return nil
		}

		err = tx.QueryRowContext(ctx,
			`UPDATE delivery_fee_rules
			 SET amount = $2, min_subtotal = $3, max_subtotal = $4, is_active = $5,
			     version = version + 1, updated_at = NOW()
			 WHERE id = $1 RETURNING version, updated_at`,
			rule.ID, rule.Amount, rule.MinSubtotal, rule.MaxSubtotal, rule.IsActive,
		).Scan(&rule.Version, &rule.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRuleNotFound
		}
		if err != nil {
			return fmt.Errorf("update delivery fee rule: %w", err)
		}
		return nil
	})
}

func (r *Repository) SaveDeliveryTimeRule(ctx context.Context, rule *domain.DeliveryTimeRule) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `LOCK TABLE delivery_time_rules IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock delivery time rules: %w", err)
		}
		existing, err := queryTimeRules(ctx, tx, `WHERE is_active`)
		if err != nil {
			return err
		}
		if clash, ok := pricing.FindTimeOverlap(existing, *rule); ok {
			return fmt.Errorf("%w: rule %s", ErrOverlappingBand, clash.ID)
		}

		if rule.ID == "" {
			rule.ID = uuid.NewString()
			err = tx.QueryRowContext(ctx,
				`INSERT INTO delivery_time_rules (id, title, min_distance, max_distance, min_time, max_time, is_active)
				 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING version, updated_at`,
				rule.ID, rule.Title, rule.MinDistance, rule.MaxDistance, rule.MinTime, rule.MaxTime, rule.IsActive,
			).Scan(&rule.Version, &rule.UpdatedAt)
			if err != nil {
				return fmt.Errorf("insert delivery time rule: %w", err)
			}
			return nil
		}

		err = tx.QueryRowContext(ctx,
			`UPDATE delivery_time_rules
			 SET title = $2, min_distance = $3, max_distance = $4, min_time = $5, max_time = $6,
			     is_active = $7, version = version + 1, updated_at = NOW()
			 WHERE id = $1 RETURNING version, updated_at`,
			rule.ID, rule.Title, rule.MinDistance, rule.MaxDistance, rule.MinTime, rule.MaxTime, rule.IsActive,
		).Scan(&rule.Version, &rule.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRuleNotFound
		}
		if err != nil {
			return fmt.Errorf("update delivery time rule: %w", err)
		}
		return nil
	})
}

func (r *Repository) SaveHandlingCharge(ctx context.Context, c *domain.HandlingCharge) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
		err := r.db.QueryRowContext(ctx,
			`INSERT INTO handling_charges (id, title, amount, is_active)
			 VALUES ($1, $2, $3, $4) RETURNING version, updated_at`,
			c.ID, c.Title, c.Amount, c.IsActive,
		).Scan(&c.Version, &c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert handling charge: %w", err)
		}
		return nil
	}

	err := r.db.QueryRowContext(ctx,
		`UPDATE handling_charges
		 SET title = $2, amount = $3, is_active = $4, version = version + 1, updated_at = NOW()
		 WHERE id = $1 RETURNING version, updated_at`,
		c.ID, c.Title, c.Amount, c.IsActive,
	).Scan(&c.Version, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRuleNotFound
	}
	if err != nil {
		return fmt.Errorf("update handling charge: %w", err)
	}
	return nil
}

func (r *Repository) SaveGstTax(ctx context.Context, g *domain.GstTax) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
		err := r.db.QueryRowContext(ctx,
			`INSERT INTO gst_taxes (id, title, type, value, is_active)
			 VALUES ($1, $2, $3, $4, $5) RETURNING version, updated_at`,
			g.ID, g.Title, g.Type, g.Value, g.IsActive,
		).Scan(&g.Version, &g.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert gst tax: %w", err)
		}
		return nil
	}

	err := r.db.QueryRowContext(ctx,
		`UPDATE gst_taxes
		 SET title = $2, type = $3, value = $4, is_active = $5, version = version + 1, updated_at = NOW()
		 WHERE id = $1 RETURNING version, updated_at`,
		g.ID, g.Title, g.Type, g.Value, g.IsActive,
	).Scan(&g.Version, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRuleNotFound
	}
	if err != nil {
		return fmt.Errorf("update gst tax: %w", err)
	}
	return nil
}

var ruleTables = map[domain.RuleKind]string{
	domain.RuleDeliveryFee:    "delivery_fee_rules",
	domain.RuleDeliveryTime:   "delivery_time_rules",
	domain.RuleHandlingCharge: "handling_charges",
	domain.RuleGstTax:         "gst_taxes",
	domain.RuleOffer:          "offers",
}

// SetRuleActive toggles a record. Activating a banded rule is rejected when
// it would overlap another active band.
func (r *Repository) SetRuleActive(ctx context.Context, kind domain.RuleKind, id string, active bool) error {
	table, ok := ruleTables[kind]
	if !ok {
		return fmt.Errorf("unknown rule kind %q", kind)
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		if active {
			if err := checkActivation(ctx, tx, kind, id); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE `+table+` SET is_active = $2, version = version + 1, updated_at = NOW() WHERE id = $1`,
			id, active)
		if err != nil {
			return fmt.Errorf("toggle %s: %w", kind, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("toggle %s: %w", kind, err)
		}
		if n == 0 {
			return ErrRuleNotFound
		}
		return nil
	})
}

func checkActivation(ctx context.Context, tx *sql.Tx, kind domain.RuleKind, id string) error {
	switch kind {
	case domain.RuleDeliveryFee:
		if _, err := tx.ExecContext(ctx, `LOCK TABLE delivery_fee_rules IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock delivery fee rules: %w", err)
		}
		target, err := scanFeeRule(tx.QueryRowContext(ctx, `SELECT `+feeRuleColumns+` FROM delivery_fee_rules WHERE id = $1`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRuleNotFound
		}
		if err != nil {
			return fmt.Errorf("load delivery fee rule: %w", err)
		}
		existing, err := queryFeeRules(ctx, tx, `WHERE is_active`)
		if err != nil {
			return err
		}
		target.IsActive = true
		if clash, ok := pricing.FindFeeOverlap(existing, target); ok {
			return fmt.Errorf("%w: rule %s", ErrOverlappingBand, clash.ID)
		}
	case domain.RuleDeliveryTime:
		if _, err := tx.ExecContext(ctx, `LOCK TABLE delivery_time_rules IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock delivery time rules: %w", err)
		}
		target, err := scanTimeRule(tx.QueryRowContext(ctx, `SELECT `+timeRuleColumns+` FROM delivery_time_rules WHERE id = $1`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRuleNotFound
		}
		if err != nil {
			return fmt.Errorf("load delivery time rule: %w", err)
		}
		existing, err := queryTimeRules(ctx, tx, `WHERE is_active`)
		if err != nil {
			return err
		}
		target.IsActive = true
		if clash, ok := pricing.FindTimeOverlap(existing, target); ok {
			return fmt.Errorf("%w: rule %s", ErrOverlappingBand, clash.ID)
		}
	}
	return nil
}
