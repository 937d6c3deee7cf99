package repository

import (
	"context"
	"errors"
	"time"

	"github.com/gotyolo/tripbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StateUpdate carries the optional columns written alongside a state change.
type StateUpdate struct {
	RefundAmount     *decimal.Decimal
	PaymentReference *string
	CancelledAt      *time.Time
}

type BookingRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error)
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Booking, error)
	GetForCancellation(ctx context.Context, id string) (*domain.CancellationView, error)
	UpdateState(ctx context.Context, id string, state domain.BookingState, extras StateUpdate) error
	FindExpiredHolds(ctx context.Context) ([]domain.ExpiredHold, error)
	ExpireBookings(ctx context.Context, ids []string) error
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.db, fn)
}

const bookingColumns = `id, trip_id, user_id, num_seats, state, price_at_booking, expires_at, idempotency_key, payment_reference, refund_amount, cancelled_at, created_at, updated_at`

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	err := queryRow(ctx, r.db, `INSERT INTO bookings (id, trip_id, user_id, num_seats, state, price_at_booking, expires_at, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		booking.ID, booking.TripID, booking.UserID, booking.NumSeats, booking.State,
		booking.PriceAtBooking, booking.ExpiresAt, booking.IdempotencyKey).
		Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		// The unique constraint on (user_id, idempotency_key) is the
		// authoritative duplicate guard; losing that race is not fatal.
		if isUniqueViolation(err) {
			return domain.ErrBookingExists
		}
		return err
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return r.getBooking(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *PGBookingRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	if txFromContext(ctx) == nil {
		return nil, errNoTx
	}
	return r.getBooking(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

// FindByIdempotencyKey returns nil, nil when no booking carries the key.
func (r *PGBookingRepository) FindByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Booking, error) {
	b, err := r.getBooking(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 AND idempotency_key = $2`, userID, key)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

// GetForCancellation locks the booking row and reads it joined with the trip's
// refund policy in one statement. Only the booking row is locked; the trip row
// is locked later, and only if seats actually go back to the pool.
func (r *PGBookingRepository) GetForCancellation(ctx context.Context, id string) (*domain.CancellationView, error) {
	if txFromContext(ctx) == nil {
		return nil, errNoTx
	}
	row := queryRow(ctx, r.db, `SELECT b.id, b.trip_id, b.user_id, b.num_seats, b.state, b.price_at_booking,
			t.start_date, t.refundable_until_days_before, t.cancellation_fee_percent
		FROM bookings b
		JOIN trips t ON t.id = b.trip_id
		WHERE b.id = $1
		FOR UPDATE OF b`, id)

	var v domain.CancellationView
	if err := row.Scan(&v.BookingID, &v.TripID, &v.UserID, &v.NumSeats, &v.State, &v.PriceAtBooking,
		&v.TripStartDate, &v.RefundableUntilDaysBefore, &v.CancellationFeePercent); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *PGBookingRepository) UpdateState(ctx context.Context, id string, state domain.BookingState, extras StateUpdate) error {
	tag, err := exec(ctx, r.db, `UPDATE bookings SET
			state = $2,
			refund_amount = COALESCE($3, refund_amount),
			payment_reference = COALESCE($4, payment_reference),
			cancelled_at = COALESCE($5, cancelled_at),
			updated_at = now()
		WHERE id = $1`,
		id, state, extras.RefundAmount, extras.PaymentReference, extras.CancelledAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}

// FindExpiredHolds claims overdue PENDING_PAYMENT rows with SKIP LOCKED, so
// sweeper instances racing on the same table each take a disjoint subset
// instead of queueing behind one another.
func (r *PGBookingRepository) FindExpiredHolds(ctx context.Context) ([]domain.ExpiredHold, error) {
	if txFromContext(ctx) == nil {
		return nil, errNoTx
	}
	rows, err := query(ctx, r.db, `SELECT id, trip_id, num_seats
		FROM bookings
		WHERE state = $1 AND expires_at < now()
		FOR UPDATE SKIP LOCKED`, domain.BookingStatePendingPayment)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holds []domain.ExpiredHold
	for rows.Next() {
		var h domain.ExpiredHold
		if err := rows.Scan(&h.BookingID, &h.TripID, &h.NumSeats); err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	return holds, rows.Err()
}

func (r *PGBookingRepository) ExpireBookings(ctx context.Context, ids []string) error {
	if txFromContext(ctx) == nil {
		return errNoTx
	}
	_, err := exec(ctx, r.db, `UPDATE bookings SET state = $2, updated_at = now() WHERE id::text = ANY($1)`, ids, domain.BookingStateExpired)
	return err
}

func (r *PGBookingRepository) getBooking(ctx context.Context, sql string, args ...any) (*domain.Booking, error) {
	row := queryRow(ctx, r.db, sql, args...)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.TripID, &b.UserID, &b.NumSeats, &b.State, &b.PriceAtBooking,
		&b.ExpiresAt, &b.IdempotencyKey, &b.PaymentReference, &b.RefundAmount, &b.CancelledAt,
		&b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
