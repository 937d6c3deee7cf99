package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// EventHandler processes one decoded booking lifecycle event.
type EventHandler func(ctx context.Context, event BookingEvent) error

// Consumer reads booking lifecycle events from a consumer group and hands
// them to a handler already decoded. Messages that do not decode to a
// BookingEvent are logged and skipped; a poison message must not wedge the
// notification stream.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

func (c *Consumer) Consume(ctx context.Context, handler EventHandler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		event, ok := decodeEvent(msg)
		if !ok {
			continue
		}

		if err := handler(ctx, event); err != nil {
			return err
		}
	}
}

func decodeEvent(msg kafka.Message) (BookingEvent, bool) {
	var event BookingEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Printf("skipping undecodable message on %s at offset %d: %v", msg.Topic, msg.Offset, err)
		return BookingEvent{}, false
	}
	if event.BookingID == "" {
		log.Printf("skipping message on %s at offset %d: no booking id", msg.Topic, msg.Offset)
		return BookingEvent{}, false
	}
	return event, true
}
