package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gotyolo/tripbooking/internal/service/trips"
)

// AdminHandler exposes read-only reporting. No mutation surface here.
type AdminHandler struct {
	service trips.TripUseCase
}

func NewAdminHandler(service trips.TripUseCase) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.GET("/trips/:id/metrics", h.metrics)
	router.GET("/at-risk-trips", h.atRisk)
}

func (h *AdminHandler) metrics(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return
	}

	metrics, err := h.service.Metrics(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (h *AdminHandler) atRisk(c *gin.Context) {
	atRisk, err := h.service.AtRisk(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trips": atRisk})
}
