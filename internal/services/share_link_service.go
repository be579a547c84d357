package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"molvis-backend/internal/models"
	"molvis-backend/internal/repository"
)

type ShareLinkService struct {
	links repository.ShareLinkRepository
}

func NewShareLinkService(links repository.ShareLinkRepository) *ShareLinkService {
	return &ShareLinkService{links: links}
}

// ResolveEntry returns the entry behind an active share link. Inactive
// links are reported as not found, same as missing ones, so the token
// leaks nothing about the entry.
func (s *ShareLinkService) ResolveEntry(ctx context.Context, linkID uuid.UUID) (*models.Entry, error) {
	link, err := s.links.GetWithEntry(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link == nil || link.Entry == nil {
		return nil, fmt.Errorf("%w: share link %s", ErrNotFound, linkID)
	}
	if !link.IsActive {
		return nil, fmt.Errorf("%w: share link %s is not active", ErrNotFound, linkID)
	}
	return link.Entry, nil
}

// Update toggles a link's active flag. Only the owning user may do so.
func (s *ShareLinkService) Update(ctx context.Context, user *models.User, linkID uuid.UUID, isActive bool) (*models.ShareLink, error) {
	link, err := s.links.GetWithEntry(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link == nil || link.Entry == nil {
		return nil, fmt.Errorf("%w: share link %s", ErrNotFound, linkID)
	}
	if err := checkEntryOwner(link.Entry, user); err != nil {
		return nil, err
	}
	link.IsActive = isActive
	if err := s.links.Update(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to update share link: %w", err)
	}
	return link, nil
}
