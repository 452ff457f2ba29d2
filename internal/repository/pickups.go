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
	"github.com/shopspring/decimal"
)

type PickupCreatedEvent struct {
	PickupID   string    `json:"pickup_id"`
	CustomerID string    `json:"customer_id"`
	ItemType   string    `json:"item_type"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r *Repository) CreatePickupJob(ctx context.Context, p *domain.PickupJob) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	pickupJSON, err := json.Marshal(p.PickupAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal pickup address: %w", err)
	}
	dropJSON, err := json.Marshal(p.DropAddress)
	if err != nil {
		return fmt.Errorf("failed to marshal drop address: %w", err)
	}

	return r.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO pickup_jobs (id, customer_id, pickup_address, drop_address, item_type, note, total_amount, status, version)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING created_at, updated_at`,
			p.ID, p.CustomerID, pickupJSON, dropJSON, p.ItemType, p.Note, p.TotalAmount, p.Status, len(p.StatusHistory),
		).Scan(&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert pickup job: %w", err)
		}

		for _, e := range p.StatusHistory {
			if err := insertHistory(ctx, tx, pickupTables, p.ID, e); err != nil {
				return err
			}
		}

		return insertOutboxEvent(ctx, tx, p.ID, EventPickupCreated, PickupCreatedEvent{
			PickupID:   p.ID,
			CustomerID: p.CustomerID,
			ItemType:   p.ItemType,
			CreatedAt:  p.CreatedAt,
		})
	})
}

func (r *Repository) GetPickupJob(ctx context.Context, id string) (*domain.PickupJob, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrPickupNotFound
	}

	var (
		p                    domain.PickupJob
		pickupJSON, dropJSON []byte
		total                decimal.NullDecimal
		partner              sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, customer_id, pickup_address, drop_address, item_type, note, total_amount, status,
		     delivery_partner_id, created_at, updated_at
		 FROM pickup_jobs WHERE id = $1`, id,
	).Scan(&p.ID, &p.CustomerID, &pickupJSON, &dropJSON, &p.ItemType, &p.Note, &total, &p.Status,
		&partner, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPickupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query pickup job: %w", err)
	}

	if err := json.Unmarshal(pickupJSON, &p.PickupAddress); err != nil {
		return nil, fmt.Errorf("unmarshal pickup address: %w", err)
	}
	if err := json.Unmarshal(dropJSON, &p.DropAddress); err != nil {
		return nil, fmt.Errorf("unmarshal drop address: %w", err)
	}
	if total.Valid {
		p.TotalAmount = &total.Decimal
	}
	p.DeliveryPartnerID = partner.String

	history, err := r.loadHistory(ctx, pickupTables, []string{p.ID})
	if err != nil {
		return nil, err
	}
	p.StatusHistory = history[p.ID]
	return &p, nil
}

func (r *Repository) UpdatePickupStatus(ctx context.Context, c *StatusChange) error {
	return r.applyStatusChange(ctx, pickupTables, c)
}
