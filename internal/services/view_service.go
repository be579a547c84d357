package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"molvis-backend/internal/models"
	"molvis-backend/internal/repository"
)

type ViewService struct {
	views   repository.ViewRepository
	entries repository.EntryRepository
}

func NewViewService(views repository.ViewRepository, entries repository.EntryRepository) *ViewService {
	return &ViewService{views: views, entries: entries}
}

func (s *ViewService) requireEntry(ctx context.Context, user *models.User, entryID uuid.UUID) (*models.Entry, error) {
	entry, err := s.entries.GetByID(ctx, entryID)
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

func (s *ViewService) Create(ctx context.Context, user *models.User, entryID uuid.UUID, req models.ViewCreateRequest) (*models.View, error) {
	if _, err := s.requireEntry(ctx, user, entryID); err != nil {
		return nil, err
	}
	view := &models.View{
		ID:           uuid.New(),
		Name:         req.Name,
		Description:  req.Description,
		SnapshotURL:  req.SnapshotURL,
		ThumbnailURL: req.ThumbnailURL,
		IsThumbnail:  req.IsThumbnail,
		OrderIndex:   req.OrderIndex,
		EntryID:      entryID,
	}
	if err := s.views.Create(ctx, view); err != nil {
		return nil, fmt.Errorf("failed to create view: %w", err)
	}
	return view, nil
}

func (s *ViewService) List(ctx context.Context, user *models.User, entryID uuid.UUID) ([]models.View, error) {
	if _, err := s.requireEntry(ctx, user, entryID); err != nil {
		return nil, err
	}
	return s.views.ListByEntry(ctx, entryID)
}

// Thumbnail returns the entry's thumbnail view, or ErrNotFound when none is
// flagged.
func (s *ViewService) Thumbnail(ctx context.Context, user *models.User, entryID uuid.UUID) (*models.View, error) {
	if _, err := s.requireEntry(ctx, user, entryID); err != nil {
		return nil, err
	}
	view, err := s.views.GetThumbnail(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, fmt.Errorf("%w: entry %s has no thumbnail view", ErrNotFound, entryID)
	}
	return view, nil
}

func (s *ViewService) get(ctx context.Context, user *models.User, viewID uuid.UUID) (*models.View, error) {
	view, err := s.views.GetByID(ctx, viewID)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, fmt.Errorf("%w: view %s", ErrNotFound, viewID)
	}
	if _, err := s.requireEntry(ctx, user, view.EntryID); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *ViewService) Get(ctx context.Context, user *models.User, viewID uuid.UUID) (*models.View, error) {
	return s.get(ctx, user, viewID)
}

func (s *ViewService) Update(ctx context.Context, user *models.User, viewID uuid.UUID, req models.ViewUpdateRequest) (*models.View, error) {
	view, err := s.get(ctx, user, viewID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		view.Name = *req.Name
	}
	if req.Description != nil {
		view.Description = req.Description
	}
	if req.SnapshotURL != nil {
		view.SnapshotURL = req.SnapshotURL
	}
	if req.ThumbnailURL != nil {
		view.ThumbnailURL = req.ThumbnailURL
	}
	if req.IsThumbnail != nil {
		view.IsThumbnail = *req.IsThumbnail
	}
	if req.OrderIndex != nil {
		view.OrderIndex = *req.OrderIndex
	}
	if err := s.views.Update(ctx, view); err != nil {
		return nil, fmt.Errorf("failed to update view: %w", err)
	}
	return view, nil
}

func (s *ViewService) Delete(ctx context.Context, user *models.User, viewID uuid.UUID) error {
	view, err := s.get(ctx, user, viewID)
	if err != nil {
		return err
	}
	return s.views.Delete(ctx, view.ID)
}
