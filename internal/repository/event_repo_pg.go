package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository is the append-only idempotency ledger for payment outcomes.
type EventRepository interface {
	// RecordOnce inserts the event if its idempotency key is unseen.
	// Returns false when the key already exists, meaning the event was
	// processed by an earlier delivery.
	RecordOnce(ctx context.Context, idempotencyKey, bookingID, status string) (bool, error)
}

type PGEventRepository struct {
	db *pgxpool.Pool
}

func NewEventRepository(db *pgxpool.Pool) EventRepository {
	return &PGEventRepository{db: db}
}

func (r *PGEventRepository) RecordOnce(ctx context.Context, idempotencyKey, bookingID, status string) (bool, error) {
	// ON CONFLICT DO NOTHING is atomic: of two concurrent identical
	// deliveries exactly one sees RowsAffected == 1.
	tag, err := exec(ctx, r.db, `INSERT INTO webhook_events (id, idempotency_key, booking_id, status)
		VALUES (gen_random_uuid(), $1, $2, $3)
		ON CONFLICT (idempotency_key) DO NOTHING`, idempotencyKey, bookingID, status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

var _ EventRepository = (*PGEventRepository)(nil)
