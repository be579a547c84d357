package handlers

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"molvis-backend/internal/middleware"
	"molvis-backend/internal/models"
	"molvis-backend/internal/pipeline"
	"molvis-backend/internal/services"
)

// EntriesHandler serves the dataset entry routes.
type EntriesHandler struct {
	entries    *services.EntryService
	processing *services.ProcessingService
	logger     *slog.Logger
}

func NewEntriesHandler(entries *services.EntryService, processing *services.ProcessingService, logger *slog.Logger) *EntriesHandler {
	return &EntriesHandler{entries: entries, processing: processing, logger: logger}
}

// Upload accepts a raw dataset archive and schedules its conversion.
// The created entry starts out pending; clients poll it until the
// status turns completed or failed.
func (h *EntriesHandler) Upload(c *gin.Context) {
	user := middleware.CurrentUser(c)

	file, err := c.FormFile("dataset_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "dataset_file is required"})
		return
	}

	latticeToMesh := true
	if raw := c.Query("lattice_to_mesh"); raw != "" {
		latticeToMesh, err = strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "lattice_to_mesh must be a boolean"})
			return
		}
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "could not read uploaded file"})
		return
	}
	defer src.Close()

	entry, err := h.entries.CreateEntry(c.Request.Context(), user, file.Filename, src, file.Size, services.ConversionOptions{
		LatticeToMesh: latticeToMesh,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

func (h *EntriesHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var query models.PaginationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	entries, total, err := h.entries.ListEntries(c.Request.Context(), user, query)
	if err != nil {
		respondError(c, err)
		return
	}

	totalPages := int((total + int64(query.PerPage) - 1) / int64(query.PerPage))
	c.JSON(http.StatusOK, models.PaginatedResponse[models.Entry]{
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
		TotalItems: total,
		Items:      entries,
	})
}

func (h *EntriesHandler) Get(c *gin.Context) {
	user := middleware.CurrentUser(c)
	entryID, err := uuid.Parse(c.Param("entry_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "entry_id must be a UUID"})
		return
	}

	entry, err := h.entries.GetEntry(c.Request.Context(), user, entryID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *EntriesHandler) GetShareLink(c *gin.Context) {
	user := middleware.CurrentUser(c)
	entryID, err := uuid.Parse(c.Param("entry_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "entry_id must be a UUID"})
		return
	}

	link, err := h.entries.GetEntryShareLink(c.Request.Context(), user, entryID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, link)
}

func (h *EntriesHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	entryID, err := uuid.Parse(c.Param("entry_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "entry_id must be a UUID"})
		return
	}

	var req models.EntryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	entry, err := h.entries.UpdateEntry(c.Request.Context(), user, entryID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *EntriesHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	entryID, err := uuid.Parse(c.Param("entry_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "entry_id must be a UUID"})
		return
	}

	if err := h.entries.DeleteEntry(c.Request.Context(), user, entryID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Download builds an export package for a completed entry and streams
// it back as an attachment.
func (h *EntriesHandler) Download(c *gin.Context) {
	user := middleware.CurrentUser(c)
	entryID, err := uuid.Parse(c.Param("entry_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: "entry_id must be a UUID"})
		return
	}

	entry, err := h.entries.GetEntry(c.Request.Context(), user, entryID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.serveExport(c, entry)
}

// serveExport is shared between the owner download route and the
// public share-link download route. The temp work dir is removed only
// after the response body has been written.
func (h *EntriesHandler) serveExport(c *gin.Context, entry *models.Entry) {
	format, err := pipeline.ParseFormat(c.DefaultQuery("format_type", string(pipeline.FormatMVSX)))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request", Message: err.Error()})
		return
	}

	workDir, err := os.MkdirTemp("", "molvis-export-*")
	if err != nil {
		respondError(c, err)
		return
	}
	defer os.RemoveAll(workDir)

	artifact, err := h.processing.GenerateExport(c.Request.Context(), entry.StorageKey, format, workDir)
	if err != nil {
		h.logger.Error("export failed", "entry_id", entry.ID, "format", format, "error", err)
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "application/zip")
	c.FileAttachment(artifact, entry.Name+"."+string(format))
}
