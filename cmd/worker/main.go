package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gotyolo/tripbooking/config"
	"github.com/gotyolo/tripbooking/internal/email"
	"github.com/gotyolo/tripbooking/internal/kafka"
	"github.com/gotyolo/tripbooking/internal/repository"
	"github.com/gotyolo/tripbooking/internal/service/booking"
	"github.com/gotyolo/tripbooking/internal/sweeper"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	tripRepo := repository.NewTripRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	bookingService := booking.NewBookingService(
		bookingRepo,
		tripRepo,
		eventRepo,
		producer,
		cfg.Kafka.BookingEventsTopic,
		time.Duration(cfg.Booking.HoldWindowMinutes)*time.Minute,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	emailSender := email.NewSender()

	go func() {
		if err := consumer.Consume(ctx, emailSender.Send); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	sweep := sweeper.New(bookingService, time.Duration(cfg.Worker.ExpirySweepSeconds)*time.Second)
	sweep.Start(ctx)

	<-ctx.Done()
	log.Println("received shutdown signal, stopping worker")
	sweep.Stop()
}
