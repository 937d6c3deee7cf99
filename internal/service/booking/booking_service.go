package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gotyolo/tripbooking/internal/domain"
	"github.com/gotyolo/tripbooking/internal/kafka"
	"github.com/gotyolo/tripbooking/internal/repository"
	"github.com/shopspring/decimal"
)

type BookingUseCase interface {
	Reserve(ctx context.Context, input ReserveInput) (*domain.Booking, bool, error)
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	Cancel(ctx context.Context, bookingID, userID string) (*CancellationResult, error)
	ApplyPaymentOutcome(ctx context.Context, outcome PaymentOutcome) (SettlementAction, error)
	ExpirePending(ctx context.Context) ([]domain.ExpiredHold, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	trips              repository.TripRepository
	events             repository.EventRepository
	producer           Producer
	eventsTopic        string
	notificationsTopic string
	holdWindow         time.Duration
	now                func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithClock overrides the time source, used by tests to pin "now".
func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	trips repository.TripRepository,
	events repository.EventRepository,
	producer Producer,
	eventsTopic string,
	holdWindow time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:    bookings,
		trips:       trips,
		events:      events,
		producer:    producer,
		eventsTopic: eventsTopic,
		holdWindow:  holdWindow,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

type ReserveInput struct {
	TripID         string `json:"trip_id"`
	UserID         string `json:"user_id"`
	NumSeats       int    `json:"num_seats"`
	IdempotencyKey string `json:"idempotency_key"`
}

// Reserve creates a PENDING_PAYMENT booking and decrements the trip's seats
// as one atomic unit. Replays of the same (user, idempotency key) pair return
// the original booking unchanged and decrement nothing.
func (s *BookingService) Reserve(ctx context.Context, input ReserveInput) (*domain.Booking, bool, error) {
	if input.NumSeats <= 0 {
		return nil, false, &domain.ValidationError{Reason: "num seats must be positive"}
	}
	if input.UserID == "" {
		return nil, false, &domain.ValidationError{Reason: "user id is required"}
	}
	if input.IdempotencyKey == "" {
		return nil, false, &domain.ValidationError{Reason: "idempotency key is required"}
	}

	// Fast path: a replayed request skips the trip lock entirely. This is an
	// optimization; the unique constraint remains the correctness guard.
	existing, err := s.bookings.FindByIdempotencyKey(ctx, input.UserID, input.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, true, nil
	}

	var booking *domain.Booking
	alreadyExisted := false
	err = s.bookings.WithTx(ctx, func(ctx context.Context) error {
		trip, err := s.trips.GetByIDForUpdate(ctx, input.TripID)
		if err != nil {
			return err
		}
		if trip.Status != domain.TripStatusPublished {
			return domain.ErrTripNotPublished
		}
		now := s.now()
		if !trip.StartDate.After(now) {
			return domain.ErrTripDeparted
		}
		if trip.AvailableSeats < input.NumSeats {
			return &domain.CapacityError{Available: trip.AvailableSeats}
		}

		// Re-check inside the transaction: two identical requests may both
		// have passed the fast path before either committed. Whichever
		// acquires the trip lock second must observe the first's insert.
		dup, err := s.bookings.FindByIdempotencyKey(ctx, input.UserID, input.IdempotencyKey)
		if err != nil {
			return err
		}
		if dup != nil {
			booking = dup
			alreadyExisted = true
			return nil
		}

		if err := s.trips.DecrementSeats(ctx, input.TripID, input.NumSeats); err != nil {
			return err
		}

		b := &domain.Booking{
			ID:             uuid.NewString(),
			TripID:         input.TripID,
			UserID:         input.UserID,
			NumSeats:       input.NumSeats,
			State:          domain.BookingStatePendingPayment,
			PriceAtBooking: trip.Price.Mul(decimal.NewFromInt(int64(input.NumSeats))),
			ExpiresAt:      now.Add(s.holdWindow),
			IdempotencyKey: input.IdempotencyKey,
		}
		if err := s.bookings.Create(ctx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrBookingExists) {
			// Lost the insert race at commit time. The transaction rolled
			// back (seats included), so hand back the winner's booking.
			winner, ferr := s.bookings.FindByIdempotencyKey(ctx, input.UserID, input.IdempotencyKey)
			if ferr == nil && winner != nil {
				return winner, true, nil
			}
		}
		return nil, false, err
	}

	if !alreadyExisted {
		s.publish(ctx, "booking_created", bookingEvent(booking))
	}
	return booking, alreadyExisted, nil
}

func (s *BookingService) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

type CancellationResult struct {
	RefundAmount   decimal.Decimal `json:"refund_amount"`
	SeatsReleased  bool            `json:"seats_released"`
	IsBeforeCutoff bool            `json:"is_before_cutoff"`
}

// Cancel applies the refund policy and releases seats back to the trip when
// the cancellation lands before the refund cutoff. At or after the cutoff the
// capacity stays committed: zero refund and no seat release.
func (s *BookingService) Cancel(ctx context.Context, bookingID, userID string) (*CancellationResult, error) {
	var result *CancellationResult
	var view *domain.CancellationView
	err := s.bookings.WithTx(ctx, func(ctx context.Context) error {
		v, err := s.bookings.GetForCancellation(ctx, bookingID)
		if err != nil {
			return err
		}
		view = v

		if v.UserID != userID {
			return domain.ErrNotBookingOwner
		}
		if !domain.CanTransition(v.State, domain.BookingStateCancelled) {
			return &domain.TransitionError{From: v.State, To: domain.BookingStateCancelled}
		}

		now := s.now()
		cutoff := v.TripStartDate.AddDate(0, 0, -v.RefundableUntilDaysBefore)
		isBeforeCutoff := now.Before(cutoff)

		// Past the cutoff only a paid booking may still be cancelled.
		// An unpaid hold past the cutoff has nothing to refund; it is
		// left to the expiry sweep.
		if !isBeforeCutoff && v.State != domain.BookingStateConfirmed {
			return domain.ErrCancelAfterCutoff
		}

		refund := decimal.Zero
		if isBeforeCutoff {
			refund = calculateRefund(v.PriceAtBooking, v.CancellationFeePercent)
		}

		cancelledAt := now
		if err := s.bookings.UpdateState(ctx, bookingID, domain.BookingStateCancelled, repository.StateUpdate{
			RefundAmount: &refund,
			CancelledAt:  &cancelledAt,
		}); err != nil {
			return err
		}

		if isBeforeCutoff {
			if err := s.trips.IncrementSeats(ctx, v.TripID, v.NumSeats); err != nil {
				return err
			}
		}

		result = &CancellationResult{
			RefundAmount:   refund,
			SeatsReleased:  isBeforeCutoff,
			IsBeforeCutoff: isBeforeCutoff,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "booking_cancelled", kafka.BookingEvent{
		Type:         "booking_cancelled",
		BookingID:    view.BookingID,
		TripID:       view.TripID,
		UserID:       view.UserID,
		NumSeats:     view.NumSeats,
		State:        string(domain.BookingStateCancelled),
		RefundAmount: result.RefundAmount.StringFixed(2),
	})
	return result, nil
}

var one = decimal.NewFromInt(1)
var oneHundred = decimal.NewFromInt(100)

// calculateRefund keeps (1 - fee%) of what was paid, rounded to cents.
// Exact decimal arithmetic throughout; floats would drift on currency.
func calculateRefund(priceAtBooking, cancellationFeePercent decimal.Decimal) decimal.Decimal {
	keepFraction := one.Sub(cancellationFeePercent.Div(oneHundred))
	return priceAtBooking.Mul(keepFraction).Round(2)
}

func bookingEvent(b *domain.Booking) kafka.BookingEvent {
	return kafka.BookingEvent{
		Type:      "booking_created",
		BookingID: b.ID,
		TripID:    b.TripID,
		UserID:    b.UserID,
		NumSeats:  b.NumSeats,
		State:     string(b.State),
		ExpiresAt: b.ExpiresAt,
	}
}

// publish is best-effort: a broker outage must not fail the user's request.
func (s *BookingService) publish(ctx context.Context, eventType string, event kafka.BookingEvent) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event.Type = eventType
	if err := s.producer.Publish(ctx, s.eventsTopic, event.BookingID, event); err != nil {
		log.Printf("failed to publish %s event for booking %s: %v", eventType, event.BookingID, err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, event.BookingID, event); err != nil {
			log.Printf("failed to publish %s notification for booking %s: %v", eventType, event.BookingID, err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
