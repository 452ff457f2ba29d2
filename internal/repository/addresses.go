package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/google/uuid"
)

const addressColumns = `id, customer_id, title, full_address, landmark, city, pincode, distance_km, is_default`

func scanAddress(s scanner) (*domain.Address, error) {
	var (
		a        domain.Address
		distance sql.NullFloat64
	)
	if err := s.Scan(&a.ID, &a.CustomerID, &a.Title, &a.FullAddress, &a.Landmark, &a.City, &a.Pincode, &distance, &a.IsDefault); err != nil {
		return nil, err
	}
	if distance.Valid {
		a.DistanceKm = &distance.Float64
	}
	return &a, nil
}

// GetAddress only finds addresses that belong to customerID.
func (r *Repository) GetAddress(ctx context.Context, customerID, id string) (*domain.Address, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrAddressNotFound
	}
	a, err := scanAddress(r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND customer_id = $2`, id, customerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query address: %w", err)
	}
	return a, nil
}

func (r *Repository) ListAddresses(ctx context.Context, customerID string) ([]*domain.Address, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE customer_id = $1 ORDER BY is_default DESC, created_at`,
		customerID)
	if err != nil {
		return nil, fmt.Errorf("query addresses: %w", err)
	}
	defer rows.Close()

	var addresses []*domain.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

// SaveAddress inserts or updates an address. Saving it as default clears the
// previous default in the same transaction.
func (r *Repository) SaveAddress(ctx context.Context, a *domain.Address) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if a.IsDefault {
			if err := clearDefault(ctx, tx, a.CustomerID); err != nil {
				return err
			}
		}

		if a.ID == "" {
			a.ID = uuid.NewString()
			_, err := tx.ExecContext(ctx,
				`INSERT INTO addresses (id, customer_id, title, full_address, landmark, city, pincode, distance_km, is_default)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				a.ID, a.CustomerID, a.Title, a.FullAddress, a.Landmark, a.City, a.Pincode, a.DistanceKm, a.IsDefault)
			if err != nil {
				return fmt.Errorf("insert address: %w", err)
			}
			return nil
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE addresses SET title = $3, full_address = $4, landmark = $5, city = $6, pincode = $7,
			     distance_km = $8, is_default = $9, updated_at = NOW()
			 WHERE id = $1 AND customer_id = $2`,
			a.ID, a.CustomerID, a.Title, a.FullAddress, a.Landmark, a.City, a.Pincode, a.DistanceKm, a.IsDefault)
		if err != nil {
			return fmt.Errorf("update address: %w", err)
		}
		return expectOneRow(res, ErrAddressNotFound)
	})
}

func (r *Repository) SetDefaultAddress(ctx context.Context, customerID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrAddressNotFound
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := clearDefault(ctx, tx, customerID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE addresses SET is_default = TRUE, updated_at = NOW() WHERE id = $1 AND customer_id = $2`,
			id, customerID)
		if err != nil {
			return fmt.Errorf("set default address: %w", err)
		}
		return expectOneRow(res, ErrAddressNotFound)
	})
}

func clearDefault(ctx context.Context, tx *sql.Tx, customerID string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE addresses SET is_default = FALSE, updated_at = NOW() WHERE customer_id = $1 AND is_default`,
		customerID)
	if err != nil {
		return fmt.Errorf("clear default address: %w", err)
	}
	return nil
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
