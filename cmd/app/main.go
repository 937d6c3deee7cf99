package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gotyolo/tripbooking/config"
	"github.com/gotyolo/tripbooking/internal/bootstrap"
	"github.com/gotyolo/tripbooking/internal/cache"
	"github.com/gotyolo/tripbooking/internal/kafka"
	"github.com/gotyolo/tripbooking/internal/repository"
	"github.com/gotyolo/tripbooking/internal/service/booking"
	"github.com/gotyolo/tripbooking/internal/service/trips"
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

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.TripsCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	tripRepo := repository.NewTripRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	reportingRepo := repository.NewReportingRepository(pool)

	tripService := trips.NewTripService(tripRepo, reportingRepo, redisCache)
	bookingService := booking.NewBookingService(
		bookingRepo,
		tripRepo,
		eventRepo,
		producer,
		cfg.Kafka.BookingEventsTopic,
		time.Duration(cfg.Booking.HoldWindowMinutes)*time.Minute,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	if err := bootstrap.Run(ctx, cfg, tripService, bookingService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
