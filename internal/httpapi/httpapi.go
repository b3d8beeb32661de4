package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"faceattend/internal/models"
)

// Error writes a JSON error response for err. Validation failures become
// 400s with field-level messages, missing entities 404s, everything else
// a generic 500 so internals do not leak.
func Error(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
