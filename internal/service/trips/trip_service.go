package trips

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/gotyolo/tripbooking/internal/domain"
	"github.com/gotyolo/tripbooking/internal/repository"
	"github.com/shopspring/decimal"
)

type TripUseCase interface {
	Create(ctx context.Context, input CreateTripInput) (*domain.Trip, error)
	ListPublished(ctx context.Context) ([]domain.Trip, error)
	GetByID(ctx context.Context, id string) (*domain.Trip, error)
	Metrics(ctx context.Context, tripID string) (*domain.TripMetrics, error)
	AtRisk(ctx context.Context) ([]domain.AtRiskTrip, error)
}

// Cache holds the published-trip list between reads. It never feeds seat
// availability decisions; the booking path always reads the locked row.
type Cache interface {
	GetTrips(ctx context.Context) ([]domain.Trip, error)
	SetTrips(ctx context.Context, trips []domain.Trip) error
	InvalidateTrips(ctx context.Context) error
}

type TripService struct {
	repo      repository.TripRepository
	reporting repository.ReportingRepository
	cache     Cache
}

func NewTripService(repo repository.TripRepository, reporting repository.ReportingRepository, cache Cache) *TripService {
	return &TripService{repo: repo, reporting: reporting, cache: cache}
}

type CreateTripInput struct {
	Title                     string
	Destination               string
	StartDate                 time.Time
	EndDate                   time.Time
	Price                     decimal.Decimal
	MaxCapacity               int
	RefundableUntilDaysBefore int
	CancellationFeePercent    decimal.Decimal
	Draft                     bool
}

func (s *TripService) Create(ctx context.Context, input CreateTripInput) (*domain.Trip, error) {
	if input.MaxCapacity < 1 {
		return nil, &domain.ValidationError{Reason: "max capacity must be at least 1"}
	}
	if !input.Price.IsPositive() {
		return nil, &domain.ValidationError{Reason: "price must be positive"}
	}
	if input.CancellationFeePercent.IsNegative() || input.CancellationFeePercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, &domain.ValidationError{Reason: "cancellation fee percent must be between 0 and 100"}
	}
	if !input.EndDate.After(input.StartDate) {
		return nil, &domain.ValidationError{Reason: "end date must be after start date"}
	}

	status := domain.TripStatusPublished
	if input.Draft {
		status = domain.TripStatusDraft
	}

	trip := &domain.Trip{
		ID:                        uuid.NewString(),
		Title:                     input.Title,
		Destination:               input.Destination,
		StartDate:                 input.StartDate,
		EndDate:                   input.EndDate,
		Price:                     input.Price,
		MaxCapacity:               input.MaxCapacity,
		AvailableSeats:            input.MaxCapacity,
		Status:                    status,
		RefundableUntilDaysBefore: input.RefundableUntilDaysBefore,
		CancellationFeePercent:    input.CancellationFeePercent,
	}
	if err := s.repo.Create(ctx, trip); err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateTrips(ctx)
	}
	return trip, nil
}

func (s *TripService) ListPublished(ctx context.Context) ([]domain.Trip, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetTrips(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	trips, err := s.repo.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetTrips(ctx, trips)
	}
	return trips, nil
}

func (s *TripService) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *TripService) Metrics(ctx context.Context, tripID string) (*domain.TripMetrics, error) {
	trip, err := s.repo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	row, err := s.reporting.TripMetrics(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return emptyMetrics(trip), nil
	}

	bookedSeats := row.MaxCapacity - row.AvailableSeats
	occupancy := 0
	if row.MaxCapacity > 0 {
		occupancy = int(math.Round(float64(bookedSeats) / float64(row.MaxCapacity) * 100))
	}

	gross := decimal.Zero
	if row.GrossRevenue.Valid {
		gross = row.GrossRevenue.Decimal
	}
	refunds := decimal.Zero
	if row.RefundsIssued.Valid {
		refunds = row.RefundsIssued.Decimal
	}

	return &domain.TripMetrics{
		TripID:           row.ID,
		Title:            row.Title,
		OccupancyPercent: occupancy,
		TotalSeats:       row.MaxCapacity,
		BookedSeats:      bookedSeats,
		AvailableSeats:   row.AvailableSeats,
		BookingSummary: domain.BookingSummary{
			Confirmed:      int(row.ConfirmedCount),
			PendingPayment: int(row.PendingCount),
			Cancelled:      int(row.CancelledCount),
			Expired:        int(row.ExpiredCount),
		},
		Financial: domain.FinancialSummary{
			GrossRevenue:  gross.Round(2),
			RefundsIssued: refunds.Round(2),
			NetRevenue:    gross.Sub(refunds).Round(2),
		},
	}, nil
}

func emptyMetrics(trip *domain.Trip) *domain.TripMetrics {
	return &domain.TripMetrics{
		TripID:         trip.ID,
		Title:          trip.Title,
		TotalSeats:     trip.MaxCapacity,
		BookedSeats:    trip.MaxCapacity - trip.AvailableSeats,
		AvailableSeats: trip.AvailableSeats,
	}
}

func (s *TripService) AtRisk(ctx context.Context) ([]domain.AtRiskTrip, error) {
	rows, err := s.reporting.AtRiskTrips(ctx)
	if err != nil {
		return nil, err
	}

	trips := make([]domain.AtRiskTrip, 0, len(rows))
	for _, row := range rows {
		trips = append(trips, domain.AtRiskTrip{
			TripID:           row.ID,
			Title:            row.Title,
			DepartureDate:    row.StartDate.Format("2006-01-02"),
			OccupancyPercent: int(math.Round(row.OccupancyPercent)),
			Reason:           "Low occupancy with imminent departure",
		})
	}
	return trips, nil
}

var _ TripUseCase = (*TripService)(nil)
