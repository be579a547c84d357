package services

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"molvis-backend/internal/models"
	"molvis-backend/internal/pipeline"
	"molvis-backend/internal/repository"
	"molvis-backend/internal/storage"
)

func buildCVSX(t *testing.T, members map[string]string) []byte {
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

type processingFixture struct {
	entries *repository.MemoryEntryRepository
	store   *storage.LocalStorage
	service *ProcessingService
}

func newProcessingFixture(t *testing.T) *processingFixture {
	t.Helper()
	entries := repository.NewMemoryEntryRepository()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return &processingFixture{
		entries: entries,
		store:   store,
		service: NewProcessingService(entries, store, testLogger()),
	}
}

// seedEntry inserts a pending entry and stores raw bytes under its temp key.
func (f *processingFixture) seedEntry(t *testing.T, raw []byte) (*models.Entry, string) {
	t.Helper()
	entryID := uuid.New()
	entry := &models.Entry{
		ID:         entryID,
		Name:       "sample.cvsx",
		StorageKey: fmt.Sprintf("datasets/%s", entryID),
		SizeBytes:  int64(len(raw)),
		Status:     models.StatusPending,
		OwnerID:    uuid.New(),
	}
	link := &models.ShareLink{ID: uuid.New(), IsActive: true, EntryID: entryID}
	require.NoError(t, f.entries.CreateWithLink(context.Background(), entry, link))

	rawKey := fmt.Sprintf("temp/%s.cvsx", entryID)
	if raw != nil {
		_, err := f.store.Save(context.Background(), rawKey, bytes.NewReader(raw))
		require.NoError(t, err)
	}
	return entry, rawKey
}

func TestProcessEntryConversionCompletes(t *testing.T) {
	f := newProcessingFixture(t)
	ctx := context.Background()

	raw := buildCVSX(t, map[string]string{
		"segmentation.lattice": "lattice-bytes",
		"structure.cif":        "cif-bytes",
	})
	entry, rawKey := f.seedEntry(t, raw)

	f.service.ProcessEntryConversion(ctx, entry.ID, rawKey, entry.StorageKey, ConversionOptions{LatticeToMesh: true})

	got, err := f.entries.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Nil(t, got.ErrorCode)
	assert.Nil(t, got.ErrorMessage)

	keys, err := f.store.ListDirectory(ctx, entry.StorageKey)
	require.NoError(t, err)
	assert.Contains(t, keys, entry.StorageKey+"/internal.json")
	assert.Contains(t, keys, entry.StorageKey+"/resources/structure.cif")

	exists, err := f.store.Exists(ctx, rawKey)
	require.NoError(t, err)
	assert.False(t, exists, "raw upload should be deleted after completion")
}

func TestProcessEntryConversionPipelineFailure(t *testing.T) {
	f := newProcessingFixture(t)
	ctx := context.Background()

	entry, rawKey := f.seedEntry(t, []byte("not a zip archive"))

	f.service.ProcessEntryConversion(ctx, entry.ID, rawKey, entry.StorageKey, ConversionOptions{})

	got, err := f.entries.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
	require.NotNil(t, got.ErrorCode)
	assert.Equal(t, ErrCodeConversionFailed, *got.ErrorCode)
	require.NotNil(t, got.ErrorMessage)
	assert.Contains(t, *got.ErrorMessage, "ExtractCVSX")

	exists, err := f.store.Exists(ctx, rawKey)
	require.NoError(t, err)
	assert.True(t, exists, "raw upload should be kept for diagnosis")
}

func TestProcessEntryConversionMissingRaw(t *testing.T) {
	f := newProcessingFixture(t)
	ctx := context.Background()

	entry, rawKey := f.seedEntry(t, nil)

	f.service.ProcessEntryConversion(ctx, entry.ID, rawKey, entry.StorageKey, ConversionOptions{})

	got, err := f.entries.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
	require.NotNil(t, got.ErrorCode)
	assert.Equal(t, ErrCodeDownloadFailed, *got.ErrorCode)
}

func TestProcessEntryConversionDeletedEntry(t *testing.T) {
	f := newProcessingFixture(t)

	entryID := uuid.New()
	f.service.ProcessEntryConversion(context.Background(), entryID,
		fmt.Sprintf("temp/%s.cvsx", entryID), fmt.Sprintf("datasets/%s", entryID), ConversionOptions{})
}

func TestProcessEntryConversionSkipsNonPending(t *testing.T) {
	f := newProcessingFixture(t)
	ctx := context.Background()

	raw := buildCVSX(t, map[string]string{"structure.cif": "cif-bytes"})
	entry, rawKey := f.seedEntry(t, raw)

	ok, err := f.entries.MarkProcessing(ctx, entry.ID)
	require.NoError(t, err)
	require.True(t, ok)

	f.service.ProcessEntryConversion(ctx, entry.ID, rawKey, entry.StorageKey, ConversionOptions{})

	got, err := f.entries.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, got.Status)

	keys, err := f.store.ListDirectory(ctx, entry.StorageKey)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func convertEntry(t *testing.T, f *processingFixture) *models.Entry {
	t.Helper()
	raw := buildCVSX(t, map[string]string{
		"segmentation.lattice": "lattice-bytes",
		"structure.cif":        "cif-bytes",
	})
	entry, rawKey := f.seedEntry(t, raw)
	f.service.ProcessEntryConversion(context.Background(), entry.ID, rawKey, entry.StorageKey, ConversionOptions{LatticeToMesh: true})

	got, err := f.entries.GetByID(context.Background(), entry.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, got.Status)
	return got
}

func TestGenerateExportMVSX(t *testing.T) {
	f := newProcessingFixture(t)
	entry := convertEntry(t, f)

	workDir := t.TempDir()
	artifact, err := f.service.GenerateExport(context.Background(), entry.StorageKey, pipeline.FormatMVSX, workDir)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(artifact, ".mvsx"))

	r, err := zip.OpenReader(artifact)
	require.NoError(t, err)
	defer r.Close()

	var names []string
	for _, member := range r.File {
		names = append(names, member.Name)
	}
	assert.Contains(t, names, "index.mvsj")
	assert.Contains(t, names, "resources/structure.cif")
}

func TestGenerateExportIsDeterministic(t *testing.T) {
	f := newProcessingFixture(t)
	entry := convertEntry(t, f)

	first, err := f.service.GenerateExport(context.Background(), entry.StorageKey, pipeline.FormatMVStory, t.TempDir())
	require.NoError(t, err)
	second, err := f.service.GenerateExport(context.Background(), entry.StorageKey, pipeline.FormatMVStory, t.TempDir())
	require.NoError(t, err)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateExportMissingObjects(t *testing.T) {
	f := newProcessingFixture(t)

	workDir := t.TempDir()
	_, err := f.service.GenerateExport(context.Background(), "datasets/"+uuid.NewString(), pipeline.FormatMVSX, workDir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial artifact left behind")
}

func TestGenerateExportDoesNotMutateStorage(t *testing.T) {
	f := newProcessingFixture(t)
	entry := convertEntry(t, f)
	ctx := context.Background()

	before, err := f.store.ListDirectory(ctx, entry.StorageKey)
	require.NoError(t, err)

	_, err = f.service.GenerateExport(ctx, entry.StorageKey, pipeline.FormatMVSX, t.TempDir())
	require.NoError(t, err)

	after, err := f.store.ListDirectory(ctx, entry.StorageKey)
	require.NoError(t, err)
	assert.ElementsMatch(t, before, after)
}
