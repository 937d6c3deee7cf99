package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingState string

const (
	BookingStatePendingPayment BookingState = "PENDING_PAYMENT"
	BookingStateConfirmed      BookingState = "CONFIRMED"
	BookingStateCancelled      BookingState = "CANCELLED"
	BookingStateExpired        BookingState = "EXPIRED"
)

// validTransitions is the full transition table. CANCELLED and EXPIRED are
// terminal. Every state mutation must go through CanTransition.
var validTransitions = map[BookingState][]BookingState{
	BookingStatePendingPayment: {BookingStateConfirmed, BookingStateExpired, BookingStateCancelled},
	BookingStateConfirmed:      {BookingStateCancelled},
	BookingStateCancelled:      {},
	BookingStateExpired:        {},
}

func CanTransition(from, to BookingState) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Booking struct {
	ID               string           `json:"id"`
	TripID           string           `json:"trip_id"`
	UserID           string           `json:"user_id"`
	NumSeats         int              `json:"num_seats"`
	State            BookingState     `json:"state"`
	PriceAtBooking   decimal.Decimal  `json:"price_at_booking"`
	ExpiresAt        time.Time        `json:"expires_at"`
	IdempotencyKey   string           `json:"idempotency_key"`
	PaymentReference *string          `json:"payment_reference,omitempty"`
	RefundAmount     *decimal.Decimal `json:"refund_amount,omitempty"`
	CancelledAt      *time.Time       `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// CancellationView is the single locked read used by cancellation: the booking
// row joined with the owning trip's refund policy fields.
type CancellationView struct {
	BookingID                 string
	TripID                    string
	UserID                    string
	NumSeats                  int
	State                     BookingState
	PriceAtBooking            decimal.Decimal
	TripStartDate             time.Time
	RefundableUntilDaysBefore int
	CancellationFeePercent    decimal.Decimal
}

// ExpiredHold is a row claimed by the expiry sweep.
type ExpiredHold struct {
	BookingID string
	TripID    string
	NumSeats  int
}
