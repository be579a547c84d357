package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/google/uuid"

	"molvis-backend/internal/models"
	"molvis-backend/internal/repository"
	"molvis-backend/internal/storage"
)

// annotationsFileName is the well-known member of a CVSX archive holding
// the segment annotations.
const annotationsFileName = "annotations.json"

// VolsegService manages raw volume-segmentation archives, stored and served
// without conversion.
type VolsegService struct {
	volseg  repository.VolsegRepository
	storage storage.Storage
	logger  *slog.Logger
}

func NewVolsegService(volseg repository.VolsegRepository, store storage.Storage, logger *slog.Logger) *VolsegService {
	return &VolsegService{volseg: volseg, storage: store, logger: logger}
}

func volsegPrefix(userID, entryID uuid.UUID) string {
	return fmt.Sprintf("volseg/%s/%s", userID, entryID)
}

func (s *VolsegService) Create(ctx context.Context, user *models.User, name string, isPublic bool, filename string, data io.Reader) (*models.VolsegEntry, error) {
	entryID := uuid.New()
	filePath := path.Join(volsegPrefix(user.ID, entryID), filename)

	if _, err := s.storage.Save(ctx, filePath, data); err != nil {
		return nil, &StorageError{Op: "upload", Err: err}
	}

	entry := &models.VolsegEntry{
		ID:           entryID,
		Name:         name,
		IsPublic:     isPublic,
		CvsxFilepath: filePath,
		UserID:       user.ID,
	}
	if err := s.volseg.Create(ctx, entry); err != nil {
		if _, delErr := s.storage.Delete(ctx, filePath); delErr != nil {
			s.logger.Warn("failed to remove volseg file after create failure",
				"volseg_entry_id", entryID, "error", delErr)
		}
		return nil, fmt.Errorf("failed to create volseg entry: %w", err)
	}
	return entry, nil
}

func (s *VolsegService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.VolsegEntry, error) {
	entry, err := s.volseg.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: volseg entry %s", ErrNotFound, id)
	}
	if err := checkVolsegAccess(entry, user); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *VolsegService) ListPublic(ctx context.Context) ([]models.VolsegEntry, error) {
	return s.volseg.ListPublic(ctx)
}

func (s *VolsegService) ListMine(ctx context.Context, user *models.User) ([]models.VolsegEntry, error) {
	return s.volseg.ListByUser(ctx, user.ID)
}

// GetFile returns the raw CVSX archive bytes.
func (s *VolsegService) GetFile(ctx context.Context, user *models.User, id uuid.UUID) ([]byte, error) {
	entry, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if entry.CvsxFilepath == "" {
		return nil, fmt.Errorf("%w: volseg entry %s has no file", ErrNotFound, id)
	}
	data, err := s.storage.Get(ctx, entry.CvsxFilepath)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: file for volseg entry %s", ErrNotFound, id)
		}
		return nil, &StorageError{Op: "download", Err: err}
	}
	return data, nil
}

// GetAnnotations extracts the segment annotations embedded in the stored
// CVSX archive.
func (s *VolsegService) GetAnnotations(ctx context.Context, user *models.User, id uuid.UUID) (*models.EntryAnnotations, error) {
	data, err := s.GetFile(ctx, user, id)
	if err != nil {
		return nil, err
	}

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open volseg archive: %w", err)
	}
	for _, f := range r.File {
		if path.Base(f.Name) != annotationsFileName {
			continue
		}
		member, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		defer member.Close()
		var annotations models.EntryAnnotations
		if err := json.NewDecoder(member).Decode(&annotations); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", f.Name, err)
		}
		return &annotations, nil
	}
	return nil, fmt.Errorf("%w: archive has no %s", ErrNotFound, annotationsFileName)
}

// Delete is owner-only; public visibility grants reads, not removal.
func (s *VolsegService) Delete(ctx context.Context, user *models.User, id uuid.UUID) error {
	entry, err := s.Get(ctx, user, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUnauthorized
	}
	if entry.UserID != user.ID {
		return fmt.Errorf("%w: volseg entry belongs to another user", ErrForbidden)
	}
	if err := s.volseg.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete volseg entry: %w", err)
	}
	if _, err := s.storage.DeleteDirectory(ctx, volsegPrefix(entry.UserID, entry.ID)); err != nil {
		s.logger.Warn("failed to delete stored volseg files", "volseg_entry_id", id, "error", err)
	}
	return nil
}

func checkVolsegAccess(entry *models.VolsegEntry, user *models.User) error {
	if entry.IsPublic {
		return nil
	}
	if user == nil {
		return ErrUnauthorized
	}
	if entry.UserID != user.ID {
		return fmt.Errorf("%w: volseg entry belongs to another user", ErrForbidden)
	}
	return nil
}
