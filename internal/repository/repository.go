// Package repository defines the persistence contracts for the API and
// provides GORM-backed and in-memory implementations. Lookup methods return
// (nil, nil) when no row exists; callers decide whether that is an error.
package repository

import (
	"context"

	"github.com/google/uuid"

	"molvis-backend/internal/models"
)

type EntryRepository interface {
	// CreateWithLink inserts the entry and its share link in one transaction.
	CreateWithLink(ctx context.Context, entry *models.Entry, link *models.ShareLink) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Entry, error)
	GetWithLink(ctx context.Context, id uuid.UUID) (*models.Entry, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, q models.PaginationQuery) ([]models.Entry, int64, error)
	Update(ctx context.Context, entry *models.Entry) error
	Delete(ctx context.Context, id uuid.UUID) error

	// StorageUsage is the live sum of size_bytes over the owner's entries.
	StorageUsage(ctx context.Context, ownerID uuid.UUID) (int64, error)

	// MarkProcessing advances pending -> processing and reports whether the
	// transition happened. A false return means the entry was not pending
	// (a conversion is already in flight, finished, or the row is gone).
	MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error)
	// MarkCompleted advances processing -> completed and clears the error
	// columns.
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	// MarkFailed advances processing -> failed and records the error.
	MarkFailed(ctx context.Context, id uuid.UUID, code, message string) error
}

type ShareLinkRepository interface {
	GetWithEntry(ctx context.Context, id uuid.UUID) (*models.ShareLink, error)
	Update(ctx context.Context, link *models.ShareLink) error
}

type ViewRepository interface {
	Create(ctx context.Context, view *models.View) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.View, error)
	ListByEntry(ctx context.Context, entryID uuid.UUID) ([]models.View, error)
	GetThumbnail(ctx context.Context, entryID uuid.UUID) (*models.View, error)
	Update(ctx context.Context, view *models.View) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type VolsegRepository interface {
	Create(ctx context.Context, entry *models.VolsegEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.VolsegEntry, error)
	ListPublic(ctx context.Context) ([]models.VolsegEntry, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.VolsegEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetBySub(ctx context.Context, sub string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}
