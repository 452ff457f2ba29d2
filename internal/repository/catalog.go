package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/lib/pq"
)

func (r *Repository) GetPaymentMethod(ctx context.Context, code string) (*domain.PaymentMethod, error) {
	var pm domain.PaymentMethod
	err := r.db.QueryRowContext(ctx,
		`SELECT code, title, instructions, is_active FROM payment_methods WHERE code = $1`,
		domain.NormalizePaymentCode(code),
	).Scan(&pm.Code, &pm.Title, &pm.Instructions, &pm.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query payment method: %w", err)
	}
	return &pm, nil
}

// UnavailableProducts returns the ids among productIDs that are switched off
// or unknown to the catalog.
func (r *Repository) UnavailableProducts(ctx context.Context, productIDs []string) ([]string, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM products WHERE id = ANY($1) AND is_available`, pq.Array(productIDs))
	if err != nil {
		return nil, fmt.Errorf("query product availability: %w", err)
	}
	defer rows.Close()

	available := make(map[string]bool, len(productIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		available[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []string
	for _, id := range productIDs {
		if !available[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r *Repository) SetProductAvailability(ctx context.Context, id, name string, available bool) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, name, is_available) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET is_available = EXCLUDED.is_available,
		     name = COALESCE(NULLIF(EXCLUDED.name, ''), products.name), updated_at = NOW()`,
		id, name, available)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}
