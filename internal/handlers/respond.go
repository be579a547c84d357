package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"molvis-backend/internal/models"
	"molvis-backend/internal/services"
)

// respondError maps service errors to HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not found", Message: err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "forbidden", Message: err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized", Message: err.Error()})
	case errors.Is(err, services.ErrPayloadTooLarge), errors.Is(err, services.ErrQuotaExceeded):
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: "payload too large", Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal error", Message: err.Error()})
	}
}
