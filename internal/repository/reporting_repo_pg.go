package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TripMetricsRow is the raw aggregate for one trip. SUM over no rows is NULL,
// hence the NullDecimal fields.
type TripMetricsRow struct {
	ID             string
	Title          string
	MaxCapacity    int
	AvailableSeats int
	ConfirmedCount int64
	PendingCount   int64
	CancelledCount int64
	ExpiredCount   int64
	GrossRevenue   decimal.NullDecimal
	RefundsIssued  decimal.NullDecimal
}

type AtRiskTripRow struct {
	ID               string
	Title            string
	StartDate        time.Time
	OccupancyPercent float64
}

// ReportingRepository exposes read-only aggregates for the admin surface.
// It never mutates trips or bookings.
type ReportingRepository interface {
	TripMetrics(ctx context.Context, tripID string) (*TripMetricsRow, error)
	AtRiskTrips(ctx context.Context) ([]AtRiskTripRow, error)
}

type PGReportingRepository struct {
	db *pgxpool.Pool
}

func NewReportingRepository(db *pgxpool.Pool) ReportingRepository {
	return &PGReportingRepository{db: db}
}

func (r *PGReportingRepository) TripMetrics(ctx context.Context, tripID string) (*TripMetricsRow, error) {
	row := queryRow(ctx, r.db, `SELECT
			t.id,
			t.title,
			t.max_capacity,
			t.available_seats,
			COUNT(CASE WHEN b.state = 'CONFIRMED'       THEN 1 END) AS confirmed_count,
			COUNT(CASE WHEN b.state = 'PENDING_PAYMENT' THEN 1 END) AS pending_count,
			COUNT(CASE WHEN b.state = 'CANCELLED'       THEN 1 END) AS cancelled_count,
			COUNT(CASE WHEN b.state = 'EXPIRED'         THEN 1 END) AS expired_count,
			SUM(CASE WHEN b.state = 'CONFIRMED' THEN b.price_at_booking END)            AS gross_revenue,
			SUM(CASE WHEN b.state = 'CANCELLED' THEN COALESCE(b.refund_amount, 0) END)  AS refunds_issued
		FROM trips t
		LEFT JOIN bookings b ON b.trip_id = t.id
		WHERE t.id = $1
		GROUP BY t.id, t.title, t.max_capacity, t.available_seats`, tripID)

	var m TripMetricsRow
	if err := row.Scan(&m.ID, &m.Title, &m.MaxCapacity, &m.AvailableSeats,
		&m.ConfirmedCount, &m.PendingCount, &m.CancelledCount, &m.ExpiredCount,
		&m.GrossRevenue, &m.RefundsIssued); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *PGReportingRepository) AtRiskTrips(ctx context.Context) ([]AtRiskTripRow, error) {
	rows, err := query(ctx, r.db, `SELECT
			t.id,
			t.title,
			t.start_date,
			ROUND((t.max_capacity - t.available_seats)::numeric / t.max_capacity * 100, 2) AS occupancy_percent
		FROM trips t
		WHERE t.status = 'PUBLISHED'
			AND t.start_date >  now()
			AND t.start_date <= now() + INTERVAL '7 days'
			AND (t.max_capacity - t.available_seats)::numeric / t.max_capacity < 0.5
		ORDER BY t.start_date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := make([]AtRiskTripRow, 0)
	for rows.Next() {
		var t AtRiskTripRow
		if err := rows.Scan(&t.ID, &t.Title, &t.StartDate, &t.OccupancyPercent); err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

var _ ReportingRepository = (*PGReportingRepository)(nil)
