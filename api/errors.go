package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gotyolo/tripbooking/internal/domain"
)

// respondError maps the engine error taxonomy onto HTTP statuses. Anything
// unrecognised is an infrastructure failure and surfaces as a generic 500.
func respondError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	var capacityErr *domain.CapacityError
	var transitionErr *domain.TransitionError

	switch {
	case errors.Is(err, domain.ErrTripNotFound), errors.Is(err, domain.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.Is(err, domain.ErrTripNotPublished), errors.Is(err, domain.ErrTripDeparted):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotBookingOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &capacityErr):
		c.JSON(http.StatusConflict, gin.H{"error": capacityErr.Error(), "available_seats": capacityErr.Available})
	case errors.As(err, &transitionErr), errors.Is(err, domain.ErrCancelAfterCutoff):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
