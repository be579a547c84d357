package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"molvis-backend/internal/middleware"
	"molvis-backend/internal/models"
	"molvis-backend/internal/services"
)

type MeHandler struct {
	entries *services.EntryService
}

func NewMeHandler(entries *services.EntryService) *MeHandler {
	return &MeHandler{entries: entries}
}

// Get returns the authenticated user together with their current
// storage usage in bytes.
func (h *MeHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)

	usage, err := h.entries.StorageUsage(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MeResponse{User: *user, StorageUsage: usage})
}
