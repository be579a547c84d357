package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"molvis-backend/internal/models"
	"molvis-backend/internal/repository"
	"molvis-backend/internal/storage"
	"molvis-backend/internal/worker"
)

// ConversionOptions are passed through to the ingest pipeline.
type ConversionOptions struct {
	// LatticeToMesh converts lattice segmentations to meshes instead of
	// volumes.
	LatticeToMesh bool
}

// Scheduler submits fire-and-forget background tasks.
type Scheduler interface {
	Submit(task worker.Task)
}

type EntryService struct {
	entries       repository.EntryRepository
	storage       storage.Storage
	processing    *ProcessingService
	scheduler     Scheduler
	maxUploadSize int64
	logger        *slog.Logger
}

func NewEntryService(
	entries repository.EntryRepository,
	store storage.Storage,
	processing *ProcessingService,
	scheduler Scheduler,
	maxUploadSize int64,
	logger *slog.Logger,
) *EntryService {
	return &EntryService{
		entries:       entries,
		storage:       store,
		processing:    processing,
		scheduler:     scheduler,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

func rawStorageKey(id uuid.UUID) string {
	return fmt.Sprintf("temp/%s.cvsx", id)
}

func entryStorageKey(id uuid.UUID) string {
	return fmt.Sprintf("datasets/%s", id)
}

// CreateEntry validates the upload against the global size limit and the
// owner's quota, persists the raw bytes under a throwaway temp key, inserts
// the entry (pending) with its share link, and schedules the conversion
// job. The returned entry has not been converted yet; callers poll status.
//
// The quota check is a live sum, not a reservation: concurrent uploads by
// the same owner can race past it.
func (s *EntryService) CreateEntry(
	ctx context.Context,
	owner *models.User,
	filename string,
	data io.Reader,
	sizeBytes int64,
	opts ConversionOptions,
) (*models.Entry, error) {
	if sizeBytes > s.maxUploadSize {
		return nil, fmt.Errorf("%w: upload of %d bytes exceeds the %d byte limit", ErrPayloadTooLarge, sizeBytes, s.maxUploadSize)
	}

	usage, err := s.entries.StorageUsage(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute storage usage: %w", err)
	}
	if usage+sizeBytes > owner.StorageQuota {
		return nil, fmt.Errorf("%w: %d of %d bytes used", ErrQuotaExceeded, usage, owner.StorageQuota)
	}

	entryID := uuid.New()
	rawKey := rawStorageKey(entryID)

	if _, err := s.storage.Save(ctx, rawKey, data); err != nil {
		return nil, &StorageError{Op: "upload", Err: err}
	}

	entry := &models.Entry{
		ID:         entryID,
		Name:       filename,
		StorageKey: entryStorageKey(entryID),
		SizeBytes:  sizeBytes,
		Status:     models.StatusPending,
		OwnerID:    owner.ID,
	}
	link := &models.ShareLink{
		ID:       uuid.New(),
		IsActive: true,
		EntryID:  entryID,
	}
	if err := s.entries.CreateWithLink(ctx, entry, link); err != nil {
		if _, delErr := s.storage.Delete(ctx, rawKey); delErr != nil {
			s.logger.Warn("failed to remove raw upload after create failure",
				"entry_id", entryID, "error", delErr)
		}
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}
	entry.Link = link

	s.scheduler.Submit(func(jobCtx context.Context) {
		s.processing.ProcessEntryConversion(jobCtx, entryID, rawKey, entry.StorageKey, opts)
	})

	return entry, nil
}

func (s *EntryService) GetEntry(ctx context.Context, user *models.User, entryID uuid.UUID) (*models.Entry, error) {
	entry, err := s.entries.GetWithLink(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: entry %s", ErrNotFound, entryID)
	}
	if err := checkEntryOwner(entry, user); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *EntryService) GetEntryShareLink(ctx context.Context, user *models.User, entryID uuid.UUID) (*models.ShareLink, error) {
	entry, err := s.GetEntry(ctx, user, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Link == nil {
		return nil, fmt.Errorf("%w: share link for entry %s", ErrNotFound, entryID)
	}
	return entry.Link, nil
}

func (s *EntryService) ListEntries(ctx context.Context, user *models.User, q models.PaginationQuery) ([]models.Entry, int64, error) {
	return s.entries.ListByOwner(ctx, user.ID, q)
}

func (s *EntryService) UpdateEntry(ctx context.Context, user *models.User, entryID uuid.UUID, req models.EntryUpdateRequest) (*models.Entry, error) {
	entry, err := s.GetEntry(ctx, user, entryID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		entry.Name = *req.Name
	}
	if req.Title != nil {
		entry.Title = req.Title
	}
	if req.Description != nil {
		entry.Description = req.Description
	}
	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}
	return entry, nil
}

// DeleteEntry removes the row (cascading to link and views) and every
// stored object for the entry, including a raw temp upload left behind by
// an unfinished or failed conversion.
func (s *EntryService) DeleteEntry(ctx context.Context, user *models.User, entryID uuid.UUID) error {
	entry, err := s.GetEntry(ctx, user, entryID)
	if err != nil {
		return err
	}
	if err := s.entries.Delete(ctx, entryID); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if _, err := s.storage.DeleteDirectory(ctx, entry.StorageKey); err != nil {
		s.logger.Warn("failed to delete stored objects for entry", "entry_id", entryID, "error", err)
	}
	if _, err := s.storage.Delete(ctx, rawStorageKey(entryID)); err != nil {
		s.logger.Warn("failed to delete raw upload for entry", "entry_id", entryID, "error", err)
	}
	return nil
}

func (s *EntryService) StorageUsage(ctx context.Context, user *models.User) (int64, error) {
	return s.entries.StorageUsage(ctx, user.ID)
}

func checkEntryOwner(entry *models.Entry, user *models.User) error {
	if user == nil {
		return ErrUnauthorized
	}
	if entry.OwnerID != user.ID {
		return fmt.Errorf("%w: entry belongs to another user", ErrForbidden)
	}
	return nil
}
