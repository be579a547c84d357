package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"molvis-backend/internal/middleware"
	"molvis-backend/internal/models"
	"molvis-backend/internal/services"
)

// ViewsHandler serves saved camera/scene views nested under entries.
type ViewsHandler struct {
	views *services.ViewService
}

func NewViewsHandler(views *services.ViewService) *ViewsHandler {
	return &ViewsHandler{views: views}
}

func (h *ViewsHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	entryID, err := uuid.Parse(c.Param("entry_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "entry_id must be a UUID"})
		return
	}

	var req models.ViewCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	view, err := h.views.Create(c.Request.Context(), user, entryID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *ViewsHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)
	entryID, err := uuid.Parse(c.Param("entry_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "entry_id must be a UUID"})
		return
	}

	views, err := h.views.List(c.Request.Context(), user, entryID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

func (h *ViewsHandler) Thumbnail(c *gin.Context) {
	user := middleware.CurrentUser(c)
	entryID, err := uuid.Parse(c.Param("entry_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "entry_id must be a UUID"})
		return
	}

	view, err := h.views.Thumbnail(c.Request.Context(), user, entryID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *ViewsHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	viewID, err := uuid.Parse(c.Param("view_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "view_id must be a UUID"})
		return
	}

	view, err := h.views.Get(c.Request.Context(), user, viewID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *ViewsHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	viewID, err := uuid.Parse(c.Param("view_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "view_id must be a UUID"})
		return
	}

	var req models.ViewUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	view, err := h.views.Update(c.Request.Context(), user, viewID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *ViewsHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	viewID, err := uuid.Parse(c.Param("view_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "view_id must be a UUID"})
		return
	}

	if err := h.views.Delete(c.Request.Context(), user, viewID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
