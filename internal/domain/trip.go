package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TripStatus string

const (
	TripStatusDraft     TripStatus = "DRAFT"
	TripStatusPublished TripStatus = "PUBLISHED"
)

type Trip struct {
	ID                        string          `json:"id"`
	Title                     string          `json:"title"`
	Destination               string          `json:"destination"`
	StartDate                 time.Time       `json:"start_date"`
	EndDate                   time.Time       `json:"end_date"`
	Price                     decimal.Decimal `json:"price"`
	MaxCapacity               int             `json:"max_capacity"`
	AvailableSeats            int             `json:"available_seats"`
	Status                    TripStatus      `json:"status"`
	RefundableUntilDaysBefore int             `json:"refundable_until_days_before"`
	CancellationFeePercent    decimal.Decimal `json:"cancellation_fee_percent"`
	CreatedAt                 time.Time       `json:"created_at"`
	UpdatedAt                 time.Time       `json:"updated_at"`
}
