package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"molvis-backend/internal/middleware"
	"molvis-backend/internal/models"
	"molvis-backend/internal/services"
)

// VolsegHandler serves precomputed volumetric segmentation entries.
type VolsegHandler struct {
	volseg *services.VolsegService
}

func NewVolsegHandler(volseg *services.VolsegService) *VolsegHandler {
	return &VolsegHandler{volseg: volseg}
}

func (h *VolsegHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	name := c.PostForm("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "name is required"})
		return
	}

	isPublic := false
	if raw := c.PostForm("is_public"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "is_public must be a boolean"})
			return
		}
		isPublic = parsed
	}

	file, err := c.FormFile("cvsx_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "cvsx_file is required"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "could not read uploaded file"})
		return
	}
	defer src.Close()

	entry, err := h.volseg.Create(c.Request.Context(), user, name, isPublic, file.Filename, src)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *VolsegHandler) ListPublic(c *gin.Context) {
	entries, err := h.volseg.ListPublic(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *VolsegHandler) ListMine(c *gin.Context) {
	user := middleware.CurrentUser(c)

	entries, err := h.volseg.ListMine(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

func (h *VolsegHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := uuid.Parse(c.Param("volseg_entry_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "volseg_entry_id must be a UUID"})
		return
	}

	entry, err := h.volseg.Get(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

// Data streams the stored segmentation archive.
func (h *VolsegHandler) Data(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := uuid.Parse(c.Param("volseg_entry_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "volseg_entry_id must be a UUID"})
		return
	}

	entry, err := h.volseg.Get(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := h.volseg.GetFile(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+entry.Name+`.cvsx"`)
	c.Data(http.StatusOK, "application/zip", data)
}

func (h *VolsegHandler) Annotations(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := uuid.Parse(c.Param("volseg_entry_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "volseg_entry_id must be a UUID"})
		return
	}

	annotations, err := h.volseg.GetAnnotations(c.Request.Context(), user, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, annotations)
}

func (h *VolsegHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	id, err := uuid.Parse(c.Param("volseg_entry_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "volseg_entry_id must be a UUID"})
		return
	}

	if err := h.volseg.Delete(c.Request.Context(), user, id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
