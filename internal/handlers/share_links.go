package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"molvis-backend/internal/middleware"
	"molvis-backend/internal/models"
	"molvis-backend/internal/services"
)

// ShareLinksHandler serves the public share-link routes plus the
// owner-side toggle.
type ShareLinksHandler struct {
	links  *services.ShareLinkService
	export *EntriesHandler
	logger *slog.Logger
}

func NewShareLinksHandler(links *services.ShareLinkService, export *EntriesHandler, logger *slog.Logger) *ShareLinksHandler {
	return &ShareLinksHandler{links: links, export: export, logger: logger}
}

// Resolve returns the entry behind an active share link. Inactive and
// unknown links are indistinguishable to callers.
func (h *ShareLinksHandler) Resolve(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("share_link_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "share_link_id must be a UUID"})
		return
	}

	entry, err := h.links.ResolveEntry(c.Request.Context(), linkID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *ShareLinksHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	linkID, err := uuid.Parse(c.Param("share_link_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "share_link_id must be a UUID"})
		return
	}

	var req models.ShareLinkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	link, err := h.links.Update(c.Request.Context(), user, linkID, *req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, link)
}

// Download streams an export package for the entry behind an active
// share link, without requiring authentication.
func (h *ShareLinksHandler) Download(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("share_link_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "share_link_id must be a UUID"})
		return
	}

	entry, err := h.links.ResolveEntry(c.Request.Context(), linkID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.export.serveExport(c, entry)
}
