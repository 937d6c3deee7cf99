package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gotyolo/tripbooking/internal/service/booking"
)

type WebhookHandler struct {
	service booking.BookingUseCase
}

func NewWebhookHandler(service booking.BookingUseCase) *WebhookHandler {
	return &WebhookHandler{service: service}
}

func (h *WebhookHandler) Register(router *gin.RouterGroup) {
	router.POST("/payment", h.payment)
}

type paymentWebhookRequest struct {
	BookingID        string `json:"booking_id" binding:"required"`
	Status           string `json:"status" binding:"required,oneof=success failed"`
	IdempotencyKey   string `json:"idempotency_key" binding:"required"`
	PaymentReference string `json:"payment_reference"`
}

// payment applies an asynchronous payment outcome. Every processed delivery
// answers 200, including duplicates and stale events: the provider must not
// retry based on our response.
func (h *WebhookHandler) payment(c *gin.Context) {
	var req paymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, err := h.service.ApplyPaymentOutcome(c.Request.Context(), booking.PaymentOutcome{
		BookingID:        req.BookingID,
		Status:           req.Status,
		IdempotencyKey:   req.IdempotencyKey,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		// Infrastructure failure before the event was recorded; a retry
		// is the correct provider behavior here.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "action": action})
}
