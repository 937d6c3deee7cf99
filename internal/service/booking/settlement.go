package booking

import (
	"context"
	"errors"
	"log"

	"github.com/gotyolo/tripbooking/internal/domain"
	"github.com/gotyolo/tripbooking/internal/kafka"
	"github.com/gotyolo/tripbooking/internal/repository"
)

const (
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

// SettlementAction reports what a payment outcome delivery did. Every value
// maps to a success response at the webhook boundary; the payment provider
// must never be invited to retry.
type SettlementAction string

const (
	SettlementDuplicate SettlementAction = "duplicate"
	SettlementSkipped   SettlementAction = "skipped"
	SettlementConfirmed SettlementAction = "confirmed"
	SettlementExpired   SettlementAction = "expired"
)

type PaymentOutcome struct {
	BookingID        string
	Status           string
	IdempotencyKey   string
	PaymentReference string
}

// ApplyPaymentOutcome settles a booking from a payment-provider event.
// Deliveries are untrusted: they arrive duplicated and out of order, so the
// event ledger gates processing and anything no longer applicable degrades to
// a logged no-op rather than an error.
func (s *BookingService) ApplyPaymentOutcome(ctx context.Context, outcome PaymentOutcome) (SettlementAction, error) {
	action := SettlementSkipped
	var settled *domain.Booking
	err := s.bookings.WithTx(ctx, func(ctx context.Context) error {
		inserted, err := s.events.RecordOnce(ctx, outcome.IdempotencyKey, outcome.BookingID, outcome.Status)
		if err != nil {
			return err
		}
		if !inserted {
			action = SettlementDuplicate
			return nil
		}

		b, err := s.bookings.GetByIDForUpdate(ctx, outcome.BookingID)
		if err != nil {
			if errors.Is(err, domain.ErrBookingNotFound) {
				// Event for a booking we do not recognise. The ledger
				// entry stays; there is nothing to act on.
				log.Printf("payment outcome for unknown booking %s recorded", outcome.BookingID)
				return nil
			}
			return err
		}

		target := domain.BookingStateExpired
		if outcome.Status == PaymentStatusSuccess {
			target = domain.BookingStateConfirmed
		}
		if !domain.CanTransition(b.State, target) {
			log.Printf("stale payment outcome for booking %s: %s -> %s not allowed", b.ID, b.State, target)
			return nil
		}

		if target == domain.BookingStateConfirmed {
			var ref *string
			if outcome.PaymentReference != "" {
				ref = &outcome.PaymentReference
			}
			if err := s.bookings.UpdateState(ctx, b.ID, target, repository.StateUpdate{PaymentReference: ref}); err != nil {
				return err
			}
			action = SettlementConfirmed
			settled = b
			return nil
		}

		// Payment failed: the hold dies and its seats go back to the pool.
		// Booking lock is already held; the trip lock is taken inside
		// IncrementSeats' transaction scope, always after the booking lock.
		if err := s.bookings.UpdateState(ctx, b.ID, target, repository.StateUpdate{}); err != nil {
			return err
		}
		if err := s.trips.IncrementSeats(ctx, b.TripID, b.NumSeats); err != nil {
			return err
		}
		action = SettlementExpired
		settled = b
		return nil
	})
	if err != nil {
		return "", err
	}

	if settled != nil {
		eventType := "booking_confirmed"
		state := domain.BookingStateConfirmed
		if action == SettlementExpired {
			eventType = "booking_expired"
			state = domain.BookingStateExpired
		}
		s.publish(ctx, eventType, kafka.BookingEvent{
			BookingID: settled.ID,
			TripID:    settled.TripID,
			UserID:    settled.UserID,
			NumSeats:  settled.NumSeats,
			State:     string(state),
		})
	}
	return action, nil
}

// ExpirePending reclaims abandoned holds: overdue PENDING_PAYMENT bookings
// move to EXPIRED in bulk and their seats return to the pool with one
// increment per trip rather than one per booking.
func (s *BookingService) ExpirePending(ctx context.Context) ([]domain.ExpiredHold, error) {
	var expired []domain.ExpiredHold
	err := s.bookings.WithTx(ctx, func(ctx context.Context) error {
		holds, err := s.bookings.FindExpiredHolds(ctx)
		if err != nil {
			return err
		}
		if len(holds) == 0 {
			return nil
		}

		ids := make([]string, 0, len(holds))
		for _, h := range holds {
			ids = append(ids, h.BookingID)
		}
		if err := s.bookings.ExpireBookings(ctx, ids); err != nil {
			return err
		}

		seatsByTrip := make(map[string]int)
		for _, h := range holds {
			seatsByTrip[h.TripID] += h.NumSeats
		}
		for tripID, numSeats := range seatsByTrip {
			if err := s.trips.IncrementSeats(ctx, tripID, numSeats); err != nil {
				return err
			}
		}

		expired = holds
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, h := range expired {
		s.publish(ctx, "booking_expired", kafka.BookingEvent{
			BookingID: h.BookingID,
			TripID:    h.TripID,
			NumSeats:  h.NumSeats,
			State:     string(domain.BookingStateExpired),
		})
	}
	return expired, nil
}
