package trips

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gotyolo/tripbooking/internal/domain"
	"github.com/gotyolo/tripbooking/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockTripRepository struct {
	mock.Mock
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	args := m.Called(ctx, trip)
	return args.Error(0)
}

func (m *MockTripRepository) ListPublished(ctx context.Context) ([]domain.Trip, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Trip), args.Error(1)
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *MockTripRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *MockTripRepository) DecrementSeats(ctx context.Context, id string, numSeats int) error {
	args := m.Called(ctx, id, numSeats)
	return args.Error(0)
}

func (m *MockTripRepository) IncrementSeats(ctx context.Context, id string, numSeats int) error {
	args := m.Called(ctx, id, numSeats)
	return args.Error(0)
}

type MockReportingRepository struct {
	mock.Mock
}

func (m *MockReportingRepository) TripMetrics(ctx context.Context, tripID string) (*repository.TripMetricsRow, error) {
	args := m.Called(ctx, tripID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TripMetricsRow), args.Error(1)
}

func (m *MockReportingRepository) AtRiskTrips(ctx context.Context) ([]repository.AtRiskTripRow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.AtRiskTripRow), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetTrips(ctx context.Context) ([]domain.Trip, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Trip), args.Error(1)
}

func (m *MockCache) SetTrips(ctx context.Context, trips []domain.Trip) error {
	args := m.Called(ctx, trips)
	return args.Error(0)
}

func (m *MockCache) InvalidateTrips(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func validCreateInput() CreateTripInput {
	return CreateTripInput{
		Title:                     "Lisbon Coast Week",
		Destination:               "Lisbon",
		StartDate:                 time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:                   time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC),
		Price:                     decimal.RequireFromString("450.00"),
		MaxCapacity:               20,
		RefundableUntilDaysBefore: 7,
		CancellationFeePercent:    decimal.RequireFromString("10"),
	}
}

func TestTripService_Create_Success(t *testing.T) {
	repo := &MockTripRepository{}
	cache := &MockCache{}
	service := NewTripService(repo, &MockReportingRepository{}, cache)

	ctx := context.Background()
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Trip")).Return(nil).Once()
	cache.On("InvalidateTrips", ctx).Return(nil).Once()

	trip, err := service.Create(ctx, validCreateInput())

	assert.NoError(t, err)
	assert.NotEmpty(t, trip.ID)
	assert.Equal(t, domain.TripStatusPublished, trip.Status)
	// A fresh trip opens with the full house available.
	assert.Equal(t, 20, trip.AvailableSeats)
	cache.AssertExpectations(t)
}

func TestTripService_Create_Draft(t *testing.T) {
	repo := &MockTripRepository{}
	cache := &MockCache{}
	service := NewTripService(repo, &MockReportingRepository{}, cache)

	ctx := context.Background()
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Trip")).Return(nil).Once()
	cache.On("InvalidateTrips", ctx).Return(nil).Once()

	input := validCreateInput()
	input.Draft = true

	trip, err := service.Create(ctx, input)

	assert.NoError(t, err)
	assert.Equal(t, domain.TripStatusDraft, trip.Status)
}

func TestTripService_Create_Validation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*CreateTripInput)
	}{
		{"zero capacity", func(in *CreateTripInput) { in.MaxCapacity = 0 }},
		{"zero price", func(in *CreateTripInput) { in.Price = decimal.Zero }},
		{"negative fee", func(in *CreateTripInput) { in.CancellationFeePercent = decimal.RequireFromString("-1") }},
		{"fee above 100", func(in *CreateTripInput) { in.CancellationFeePercent = decimal.RequireFromString("101") }},
		{"end before start", func(in *CreateTripInput) { in.EndDate = in.StartDate.AddDate(0, 0, -1) }},
		{"end equals start", func(in *CreateTripInput) { in.EndDate = in.StartDate }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &MockTripRepository{}
			service := NewTripService(repo, &MockReportingRepository{}, nil)

			input := validCreateInput()
			tc.mutate(&input)

			trip, err := service.Create(context.Background(), input)

			var validationErr *domain.ValidationError
			assert.ErrorAs(t, err, &validationErr)
			assert.Nil(t, trip)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestTripService_ListPublished_CacheHit(t *testing.T) {
	repo := &MockTripRepository{}
	cache := &MockCache{}
	service := NewTripService(repo, &MockReportingRepository{}, cache)

	cached := []domain.Trip{{ID: "trip-1", Title: "Lisbon Coast Week"}}

	ctx := context.Background()
	cache.On("GetTrips", ctx).Return(cached, nil).Once()

	trips, err := service.ListPublished(ctx)

	assert.NoError(t, err)
	assert.Equal(t, cached, trips)
	repo.AssertNotCalled(t, "ListPublished", mock.Anything)
}

func TestTripService_ListPublished_CacheMissFillsCache(t *testing.T) {
	repo := &MockTripRepository{}
	cache := &MockCache{}
	service := NewTripService(repo, &MockReportingRepository{}, cache)

	fromDB := []domain.Trip{{ID: "trip-1"}, {ID: "trip-2"}}

	ctx := context.Background()
	cache.On("GetTrips", ctx).Return(nil, errors.New("redis: nil")).Once()
	repo.On("ListPublished", ctx).Return(fromDB, nil).Once()
	cache.On("SetTrips", ctx, fromDB).Return(nil).Once()

	trips, err := service.ListPublished(ctx)

	assert.NoError(t, err)
	assert.Equal(t, fromDB, trips)
	cache.AssertExpectations(t)
}

func TestTripService_ListPublished_NoCacheConfigured(t *testing.T) {
	repo := &MockTripRepository{}
	service := NewTripService(repo, &MockReportingRepository{}, nil)

	fromDB := []domain.Trip{{ID: "trip-1"}}

	ctx := context.Background()
	repo.On("ListPublished", ctx).Return(fromDB, nil).Once()

	trips, err := service.ListPublished(ctx)

	assert.NoError(t, err)
	assert.Equal(t, fromDB, trips)
}

func TestTripService_Metrics(t *testing.T) {
	repo := &MockTripRepository{}
	reporting := &MockReportingRepository{}
	service := NewTripService(repo, reporting, nil)

	ctx := context.Background()
	repo.On("GetByID", ctx, "trip-1").Return(&domain.Trip{ID: "trip-1", Title: "Lisbon Coast Week"}, nil).Once()
	reporting.On("TripMetrics", ctx, "trip-1").Return(&repository.TripMetricsRow{
		ID:             "trip-1",
		Title:          "Lisbon Coast Week",
		MaxCapacity:    20,
		AvailableSeats: 7,
		ConfirmedCount: 5,
		PendingCount:   2,
		CancelledCount: 1,
		ExpiredCount:   3,
		GrossRevenue:   decimal.NewNullDecimal(decimal.RequireFromString("4500.00")),
		RefundsIssued:  decimal.NewNullDecimal(decimal.RequireFromString("405.00")),
	}, nil).Once()

	metrics, err := service.Metrics(ctx, "trip-1")

	assert.NoError(t, err)
	assert.Equal(t, 13, metrics.BookedSeats)
	// 13 of 20 seats is 65%.
	assert.Equal(t, 65, metrics.OccupancyPercent)
	assert.Equal(t, 5, metrics.BookingSummary.Confirmed)
	assert.Equal(t, 3, metrics.BookingSummary.Expired)
	assert.True(t, metrics.Financial.GrossRevenue.Equal(decimal.RequireFromString("4500.00")))
	assert.True(t, metrics.Financial.NetRevenue.Equal(decimal.RequireFromString("4095.00")))
}

func TestTripService_Metrics_NoBookings(t *testing.T) {
	repo := &MockTripRepository{}
	reporting := &MockReportingRepository{}
	service := NewTripService(repo, reporting, nil)

	ctx := context.Background()
	repo.On("GetByID", ctx, "trip-1").Return(&domain.Trip{ID: "trip-1"}, nil).Once()
	reporting.On("TripMetrics", ctx, "trip-1").Return(&repository.TripMetricsRow{
		ID:             "trip-1",
		MaxCapacity:    20,
		AvailableSeats: 20,
	}, nil).Once()

	metrics, err := service.Metrics(ctx, "trip-1")

	assert.NoError(t, err)
	assert.Equal(t, 0, metrics.OccupancyPercent)
	assert.True(t, metrics.Financial.GrossRevenue.IsZero())
	assert.True(t, metrics.Financial.NetRevenue.IsZero())
}

func TestTripService_Metrics_TripNotFound(t *testing.T) {
	repo := &MockTripRepository{}
	reporting := &MockReportingRepository{}
	service := NewTripService(repo, reporting, nil)

	ctx := context.Background()
	repo.On("GetByID", ctx, "ghost").Return(nil, domain.ErrTripNotFound).Once()

	metrics, err := service.Metrics(ctx, "ghost")

	assert.ErrorIs(t, err, domain.ErrTripNotFound)
	assert.Nil(t, metrics)
	reporting.AssertNotCalled(t, "TripMetrics", mock.Anything, mock.Anything)
}

func TestTripService_AtRisk(t *testing.T) {
	reporting := &MockReportingRepository{}
	service := NewTripService(&MockTripRepository{}, reporting, nil)

	ctx := context.Background()
	reporting.On("AtRiskTrips", ctx).Return([]repository.AtRiskTripRow{
		{
			ID:               "trip-1",
			Title:            "Lisbon Coast Week",
			StartDate:        time.Date(2025, 9, 3, 14, 0, 0, 0, time.UTC),
			OccupancyPercent: 33.33,
		},
	}, nil).Once()

	trips, err := service.AtRisk(ctx)

	assert.NoError(t, err)
	assert.Len(t, trips, 1)
	assert.Equal(t, "2025-09-03", trips[0].DepartureDate)
	assert.Equal(t, 33, trips[0].OccupancyPercent)
	assert.Equal(t, "Low occupancy with imminent departure", trips[0].Reason)
}
