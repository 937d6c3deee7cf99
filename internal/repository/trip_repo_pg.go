package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotyolo/tripbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) error
	ListPublished(ctx context.Context) ([]domain.Trip, error)
	GetByID(ctx context.Context, id string) (*domain.Trip, error)
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error)
	DecrementSeats(ctx context.Context, tripID string, numSeats int) error
	IncrementSeats(ctx context.Context, tripID string, numSeats int) error
}

type PGTripRepository struct {
	db *pgxpool.Pool
}

func NewTripRepository(db *pgxpool.Pool) TripRepository {
	return &PGTripRepository{db: db}
}

const tripColumns = `id, title, destination, start_date, end_date, price, max_capacity, available_seats, status, refundable_until_days_before, cancellation_fee_percent, created_at, updated_at`

func (r *PGTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	return queryRow(ctx, r.db, `INSERT INTO trips (id, title, destination, start_date, end_date, price, max_capacity, available_seats, status, refundable_until_days_before, cancellation_fee_percent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		trip.ID, trip.Title, trip.Destination, trip.StartDate, trip.EndDate, trip.Price,
		trip.MaxCapacity, trip.AvailableSeats, trip.Status, trip.RefundableUntilDaysBefore, trip.CancellationFeePercent).
		Scan(&trip.CreatedAt, &trip.UpdatedAt)
}

func (r *PGTripRepository) ListPublished(ctx context.Context) ([]domain.Trip, error) {
	rows, err := query(ctx, r.db, `SELECT `+tripColumns+` FROM trips WHERE status = $1 ORDER BY start_date`, domain.TripStatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := make([]domain.Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}

func (r *PGTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	row := queryRow(ctx, r.db, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id)
	t, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTripNotFound
		}
		return nil, err
	}
	return t, nil
}

// GetByIDForUpdate acquires an exclusive row lock on the trip for the duration
// of the enclosing transaction. Concurrent callers for the same trip block
// behind each other; this is the serialization point for all seat mutations.
func (r *PGTripRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	if txFromContext(ctx) == nil {
		return nil, fmt.Errorf("lock trip %s: %w", id, errNoTx)
	}
	row := queryRow(ctx, r.db, `SELECT `+tripColumns+` FROM trips WHERE id = $1 FOR UPDATE`, id)
	t, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTripNotFound
		}
		return nil, err
	}
	return t, nil
}

// DecrementSeats must be called while holding the trip row lock, after the
// caller has verified capacity. Dropping below zero means that contract was
// broken, so it fails instead of clamping.
func (r *PGTripRepository) DecrementSeats(ctx context.Context, tripID string, numSeats int) error {
	if txFromContext(ctx) == nil {
		return fmt.Errorf("decrement seats for trip %s: %w", tripID, errNoTx)
	}
	tag, err := exec(ctx, r.db, `UPDATE trips SET available_seats = available_seats - $2, updated_at = now() WHERE id = $1 AND available_seats >= $2`, tripID, numSeats)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("decrement seats for trip %s: would drop available seats below zero", tripID)
	}
	return nil
}

func (r *PGTripRepository) IncrementSeats(ctx context.Context, tripID string, numSeats int) error {
	if txFromContext(ctx) == nil {
		return fmt.Errorf("increment seats for trip %s: %w", tripID, errNoTx)
	}
	tag, err := exec(ctx, r.db, `UPDATE trips SET available_seats = available_seats + $2, updated_at = now() WHERE id = $1`, tripID, numSeats)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTripNotFound
	}
	return nil
}

func scanTrip(row pgx.Row) (*domain.Trip, error) {
	var t domain.Trip
	if err := row.Scan(&t.ID, &t.Title, &t.Destination, &t.StartDate, &t.EndDate, &t.Price,
		&t.MaxCapacity, &t.AvailableSeats, &t.Status, &t.RefundableUntilDaysBefore,
		&t.CancellationFeePercent, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

var _ TripRepository = (*PGTripRepository)(nil)
