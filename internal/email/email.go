package email

import (
	"context"
	"fmt"

	"github.com/gotyolo/tripbooking/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	fmt.Printf("notify user %s: booking %s on trip %s is now %s (%s)\n",
		event.UserID, event.BookingID, event.TripID, event.State, event.Type)
	return nil
}
