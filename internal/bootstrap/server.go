package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gotyolo/tripbooking/api"
	"github.com/gotyolo/tripbooking/config"
	"github.com/gotyolo/tripbooking/internal/service/booking"
	"github.com/gotyolo/tripbooking/internal/service/trips"
)

// Run starts the HTTP server and blocks until the context is cancelled or the
// server fails. Cancellation drains in-flight requests before returning.
func Run(ctx context.Context, cfg *config.Config, tripSvc trips.TripUseCase, bookingSvc booking.BookingUseCase) error {
	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: NewRouter(tripSvc, bookingSvc),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewRouter(tripSvc trips.TripUseCase, bookingSvc booking.BookingUseCase) *gin.Engine {
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	api.NewTripHandler(tripSvc).Register(router.Group("/trips"))
	api.NewBookingHandler(bookingSvc).Register(router.Group("/bookings"))
	api.NewWebhookHandler(bookingSvc).Register(router.Group("/webhooks"))
	api.NewAdminHandler(tripSvc).Register(router.Group("/admin"))

	return router
}
