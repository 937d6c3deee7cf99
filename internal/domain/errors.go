package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTripNotFound      = errors.New("trip not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrTripNotPublished  = errors.New("trip is not available for booking")
	ErrTripDeparted      = errors.New("trip has already departed")
	ErrNotBookingOwner   = errors.New("booking belongs to another user")
	ErrCancelAfterCutoff = errors.New("only confirmed bookings can be cancelled after the refund cutoff date")

	// ErrBookingExists surfaces a unique-constraint hit on
	// (user_id, idempotency_key). The caller resolves it by returning the
	// booking that won the race.
	ErrBookingExists = errors.New("booking already exists for this idempotency key")
)

// ValidationError rejects malformed caller input before any mutation. It is
// the caller's mistake, not an internal failure.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// CapacityError reports how many seats were actually available when a
// reservation asked for more.
type CapacityError struct {
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("only %d seat(s) available", e.Available)
}

// TransitionError is returned when a mutation would move a booking along an
// edge the transition table does not allow.
type TransitionError struct {
	From BookingState
	To   BookingState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition booking from %s to %s", e.From, e.To)
}
