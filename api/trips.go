package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gotyolo/tripbooking/internal/service/trips"
	"github.com/shopspring/decimal"
)

type TripHandler struct {
	service trips.TripUseCase
}

func NewTripHandler(service trips.TripUseCase) *TripHandler {
	return &TripHandler{service: service}
}

func (h *TripHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:id", h.get)
	router.POST("/", h.create)
}

type createTripRequest struct {
	Title                     string          `json:"title" binding:"required"`
	Destination               string          `json:"destination" binding:"required"`
	StartDate                 time.Time       `json:"start_date" binding:"required"`
	EndDate                   time.Time       `json:"end_date" binding:"required"`
	Price                     decimal.Decimal `json:"price"`
	MaxCapacity               int             `json:"max_capacity" binding:"required"`
	RefundableUntilDaysBefore int             `json:"refundable_until_days_before"`
	CancellationFeePercent    decimal.Decimal `json:"cancellation_fee_percent"`
	Draft                     bool            `json:"draft"`
}

func (h *TripHandler) create(c *gin.Context) {
	var req createTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trip, err := h.service.Create(c.Request.Context(), trips.CreateTripInput{
		Title:                     req.Title,
		Destination:               req.Destination,
		StartDate:                 req.StartDate,
		EndDate:                   req.EndDate,
		Price:                     req.Price,
		MaxCapacity:               req.MaxCapacity,
		RefundableUntilDaysBefore: req.RefundableUntilDaysBefore,
		CancellationFeePercent:    req.CancellationFeePercent,
		Draft:                     req.Draft,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"trip": trip})
}

func (h *TripHandler) list(c *gin.Context) {
	trips, err := h.service.ListPublished(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trips)
}

func (h *TripHandler) get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return
	}
	trip, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}
