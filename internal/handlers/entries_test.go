package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"molvis-backend/internal/middleware"
	"molvis-backend/internal/models"
	"molvis-backend/internal/repository"
	"molvis-backend/internal/services"
	"molvis-backend/internal/storage"
	"molvis-backend/internal/worker"
)

// deferredScheduler queues conversion jobs so tests can observe the pending
// state before letting them run.
type deferredScheduler struct {
	tasks []worker.Task
}

func (s *deferredScheduler) Submit(task worker.Task) {
	s.tasks = append(s.tasks, task)
}

func (s *deferredScheduler) drain() {
	for _, task := range s.tasks {
		task(context.Background())
	}
	s.tasks = nil
}

type apiFixture struct {
	router    *gin.Engine
	entries   *repository.MemoryEntryRepository
	store     *storage.LocalStorage
	scheduler *deferredScheduler
	user      *models.User
}

// withUser injects an already-resolved user, standing in for the JWT
// middleware covered by its own tests.
func withUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.UserKey, user)
		}
		c.Next()
	}
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.DiscardHandler)
	entries := repository.NewMemoryEntryRepository()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	scheduler := &deferredScheduler{}

	processingService := services.NewProcessingService(entries, store, logger)
	entryService := services.NewEntryService(entries, store, processingService, scheduler, 1<<20, logger)
	linkService := services.NewShareLinkService(entries.ShareLinks())

	entriesHandler := NewEntriesHandler(entryService, processingService, logger)
	linksHandler := NewShareLinksHandler(linkService, entriesHandler, logger)

	user := &models.User{ID: uuid.New(), Sub: "auth0|tester", StorageQuota: 20 << 20}
	auth := withUser(user)

	router := gin.New()
	router.GET("/health", Health)
	router.POST("/entries", auth, entriesHandler.Upload)
	router.GET("/entries", auth, entriesHandler.List)
	router.GET("/entries/:entry_id", auth, entriesHandler.Get)
	router.PUT("/entries/:entry_id", auth, entriesHandler.Update)
	router.DELETE("/entries/:entry_id", auth, entriesHandler.Delete)
	router.GET("/entries/:entry_id/download", auth, entriesHandler.Download)
	router.GET("/entries/:entry_id/share-link", auth, entriesHandler.GetShareLink)
	router.GET("/share_links/:share_link_id", linksHandler.Resolve)
	router.GET("/share_links/:share_link_id/download", linksHandler.Download)
	router.PUT("/share_links/:share_link_id", auth, linksHandler.Update)

	return &apiFixture{router: router, entries: entries, store: store, scheduler: scheduler, user: user}
}

func cvsxPayload(t *testing.T, members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range members {
		member, err := w.Create(name)
		require.NoError(t, err)
		_, err = member.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func (f *apiFixture) upload(t *testing.T, filename string, payload []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("dataset_file", filename)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/entries", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) do(method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeEntry(t *testing.T, w *httptest.ResponseRecorder) models.Entry {
	t.Helper()
	var entry models.Entry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
	return entry
}

func TestHealthRoute(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestUploadPollDownloadFlow(t *testing.T) {
	f := newAPIFixture(t)

	payload := cvsxPayload(t, map[string]string{
		"segmentation.lattice": "lattice-bytes",
		"structure.cif":        "cif-bytes",
	})
	w := f.upload(t, "sample.cvsx", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decodeEntry(t, w)
	assert.Equal(t, models.StatusPending, created.Status)
	require.NotNil(t, created.Link)
	assert.True(t, created.Link.IsActive)

	w = f.do(http.MethodGet, fmt.Sprintf("/entries/%s", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusPending, decodeEntry(t, w).Status)

	f.scheduler.drain()

	w = f.do(http.MethodGet, fmt.Sprintf("/entries/%s", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	converted := decodeEntry(t, w)
	assert.Equal(t, models.StatusCompleted, converted.Status)
	assert.Nil(t, converted.ErrorMessage)

	w = f.do(http.MethodGet, fmt.Sprintf("/entries/%s/download?format_type=mvsx", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "sample.cvsx.mvsx")

	r, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)
	var names []string
	for _, member := range r.File {
		names = append(names, member.Name)
	}
	assert.Contains(t, names, "index.mvsj")
}

func TestUploadFailedConversionReportsError(t *testing.T) {
	f := newAPIFixture(t)

	w := f.upload(t, "broken.cvsx", []byte("not a zip"))
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeEntry(t, w)

	f.scheduler.drain()

	w = f.do(http.MethodGet, fmt.Sprintf("/entries/%s", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	failed := decodeEntry(t, w)
	assert.Equal(t, models.StatusFailed, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
	assert.NotEmpty(t, *failed.ErrorMessage)
}

func TestUploadMissingFile(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodPost, "/entries", bytes.NewReader(nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownloadUnknownEntry(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodGet, fmt.Sprintf("/entries/%s/download", uuid.New()), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadInvalidFormat(t *testing.T) {
	f := newAPIFixture(t)

	w := f.upload(t, "sample.cvsx", cvsxPayload(t, map[string]string{"structure.cif": "x"}))
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeEntry(t, w)
	f.scheduler.drain()

	w = f.do(http.MethodGet, fmt.Sprintf("/entries/%s/download?format_type=tar", created.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownloadMissingStoredObjects(t *testing.T) {
	f := newAPIFixture(t)

	w := f.upload(t, "sample.cvsx", cvsxPayload(t, map[string]string{"structure.cif": "x"}))
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeEntry(t, w)
	// Conversion never ran, so nothing is stored under the entry prefix.
	w = f.do(http.MethodGet, fmt.Sprintf("/entries/%s/download", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListEntriesPagination(t *testing.T) {
	f := newAPIFixture(t)

	for i := 0; i < 3; i++ {
		w := f.upload(t, fmt.Sprintf("sample-%d.cvsx", i), cvsxPayload(t, map[string]string{"structure.cif": "x"}))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := f.do(http.MethodGet, "/entries?page=1&per_page=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page models.PaginatedResponse[models.Entry]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(3), page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 2)
}

func TestUpdateAndDeleteEntry(t *testing.T) {
	f := newAPIFixture(t)

	w := f.upload(t, "sample.cvsx", cvsxPayload(t, map[string]string{"structure.cif": "x"}))
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeEntry(t, w)

	w = f.do(http.MethodPut, fmt.Sprintf("/entries/%s", created.ID),
		bytes.NewReader([]byte(`{"title":"Ribosome"}`)))
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeEntry(t, w)
	require.NotNil(t, updated.Title)
	assert.Equal(t, "Ribosome", *updated.Title)

	w = f.do(http.MethodDelete, fmt.Sprintf("/entries/%s", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(http.MethodGet, fmt.Sprintf("/entries/%s", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShareLinkFlow(t *testing.T) {
	f := newAPIFixture(t)

	w := f.upload(t, "sample.cvsx", cvsxPayload(t, map[string]string{"structure.cif": "x"}))
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeEntry(t, w)
	f.scheduler.drain()

	w = f.do(http.MethodGet, fmt.Sprintf("/entries/%s/share-link", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var link models.ShareLink
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &link))
	assert.True(t, link.IsActive)

	// Public resolve and download need no authentication.
	w = f.do(http.MethodGet, fmt.Sprintf("/share_links/%s", link.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, fmt.Sprintf("/share_links/%s/download", link.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))

	// Deactivating hides the entry from the public routes.
	w = f.do(http.MethodPut, fmt.Sprintf("/share_links/%s", link.ID),
		bytes.NewReader([]byte(`{"is_active":false}`)))
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, fmt.Sprintf("/share_links/%s", link.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodGet, fmt.Sprintf("/share_links/%s/download", link.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuotaExceededUpload(t *testing.T) {
	f := newAPIFixture(t)
	f.user.StorageQuota = 10

	w := f.upload(t, "big.cvsx", cvsxPayload(t, map[string]string{"structure.cif": "somewhat larger than ten bytes"}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	list := f.do(http.MethodGet, "/entries", nil)
	require.Equal(t, http.StatusOK, list.Code)
	var page models.PaginatedResponse[models.Entry]
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &page))
	assert.Zero(t, page.TotalItems)
}
