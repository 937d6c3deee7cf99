package domain

import "github.com/shopspring/decimal"

// Read-only reporting shapes consumed by the admin surface.

type TripMetrics struct {
	TripID           string           `json:"trip_id"`
	Title            string           `json:"title"`
	OccupancyPercent int              `json:"occupancy_percent"`
	TotalSeats       int              `json:"total_seats"`
	BookedSeats      int              `json:"booked_seats"`
	AvailableSeats   int              `json:"available_seats"`
	BookingSummary   BookingSummary   `json:"booking_summary"`
	Financial        FinancialSummary `json:"financial"`
}

type BookingSummary struct {
	Confirmed      int `json:"confirmed"`
	PendingPayment int `json:"pending_payment"`
	Cancelled      int `json:"cancelled"`
	Expired        int `json:"expired"`
}

type FinancialSummary struct {
	GrossRevenue  decimal.Decimal `json:"gross_revenue"`
	RefundsIssued decimal.Decimal `json:"refunds_issued"`
	NetRevenue    decimal.Decimal `json:"net_revenue"`
}

type AtRiskTrip struct {
	TripID           string `json:"trip_id"`
	Title            string `json:"title"`
	DepartureDate    string `json:"departure_date"`
	OccupancyPercent int    `json:"occupancy_percent"`
	Reason           string `json:"reason"`
}
