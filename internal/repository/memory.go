package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"molvis-backend/internal/models"
)

// In-memory implementations, used by tests and local experiments. They copy
// records on the way in and out so callers observe committed state only.

type MemoryEntryRepository struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*models.Entry
	links   map[uuid.UUID]*models.ShareLink
}

func NewMemoryEntryRepository() *MemoryEntryRepository {
	return &MemoryEntryRepository{
		entries: make(map[uuid.UUID]*models.Entry),
		links:   make(map[uuid.UUID]*models.ShareLink),
	}
}

func copyEntry(e *models.Entry) *models.Entry {
	c := *e
	if e.Link != nil {
		link := *e.Link
		c.Link = &link
	}
	return &c
}

func (r *MemoryEntryRepository) CreateWithLink(_ context.Context, entry *models.Entry, link *models.ShareLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := *entry
	e.Link = nil
	l := *link
	r.entries[e.ID] = &e
	r.links[l.ID] = &l
	return nil
}

func (r *MemoryEntryRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, nil
	}
	return copyEntry(entry), nil
}

func (r *MemoryEntryRepository) GetWithLink(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, nil
	}
	c := copyEntry(entry)
	for _, link := range r.links {
		if link.EntryID == id {
			l := *link
			c.Link = &l
			break
		}
	}
	return c, nil
}

func (r *MemoryEntryRepository) ListByOwner(_ context.Context, ownerID uuid.UUID, q models.PaginationQuery) ([]models.Entry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var owned []models.Entry
	for _, entry := range r.entries {
		if entry.OwnerID == ownerID {
			owned = append(owned, *copyEntry(entry))
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if q.SortOrder == "asc" {
			return owned[i].CreatedAt.Before(owned[j].CreatedAt)
		}
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	total := int64(len(owned))
	start := (q.Page - 1) * q.PerPage
	if start >= len(owned) {
		return nil, total, nil
	}
	end := start + q.PerPage
	if end > len(owned) {
		end = len(owned)
	}
	return owned[start:end], total, nil
}

func (r *MemoryEntryRepository) Update(_ context.Context, entry *models.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := *entry
	e.Link = nil
	r.entries[e.ID] = &e
	return nil
}

func (r *MemoryEntryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
	for linkID, link := range r.links {
		if link.EntryID == id {
			delete(r.links, linkID)
		}
	}
	return nil
}

func (r *MemoryEntryRepository) StorageUsage(_ context.Context, ownerID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var usage int64
	for _, entry := range r.entries {
		if entry.OwnerID == ownerID {
			usage += entry.SizeBytes
		}
	}
	return usage, nil
}

func (r *MemoryEntryRepository) MarkProcessing(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok || entry.Status != models.StatusPending {
		return false, nil
	}
	entry.Status = models.StatusProcessing
	return true, nil
}

func (r *MemoryEntryRepository) MarkCompleted(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok || entry.Status != models.StatusProcessing {
		return nil
	}
	entry.Status = models.StatusCompleted
	entry.ErrorCode = nil
	entry.ErrorMessage = nil
	return nil
}

func (r *MemoryEntryRepository) MarkFailed(_ context.Context, id uuid.UUID, code, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok || entry.Status != models.StatusProcessing {
		return nil
	}
	entry.Status = models.StatusFailed
	entry.ErrorCode = &code
	entry.ErrorMessage = &message
	return nil
}

// ShareLinks exposes a link repository over the same backing store, the way
// the GORM repositories share one database.
func (r *MemoryEntryRepository) ShareLinks() *MemoryShareLinkRepository {
	return &MemoryShareLinkRepository{store: r}
}

type MemoryShareLinkRepository struct {
	store *MemoryEntryRepository
}

func (r *MemoryShareLinkRepository) GetWithEntry(_ context.Context, id uuid.UUID) (*models.ShareLink, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	link, ok := r.store.links[id]
	if !ok {
		return nil, nil
	}
	c := *link
	if entry, ok := r.store.entries[link.EntryID]; ok {
		c.Entry = copyEntry(entry)
	}
	return &c, nil
}

func (r *MemoryShareLinkRepository) Update(_ context.Context, link *models.ShareLink) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if existing, ok := r.store.links[link.ID]; ok {
		existing.IsActive = link.IsActive
	}
	return nil
}

type MemoryViewRepository struct {
	mu    sync.Mutex
	views map[uuid.UUID]*models.View
}

func NewMemoryViewRepository() *MemoryViewRepository {
	return &MemoryViewRepository{views: make(map[uuid.UUID]*models.View)}
}

func (r *MemoryViewRepository) Create(_ context.Context, view *models.View) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := *view
	r.views[v.ID] = &v
	return nil
}

func (r *MemoryViewRepository) GetByID(_ context.Context, id uuid.UUID) (*models.View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	view, ok := r.views[id]
	if !ok {
		return nil, nil
	}
	v := *view
	return &v, nil
}

func (r *MemoryViewRepository) ListByEntry(_ context.Context, entryID uuid.UUID) ([]models.View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var views []models.View
	for _, view := range r.views {
		if view.EntryID == entryID {
			views = append(views, *view)
		}
	}
	sort.Slice(views, func(i, j int) bool { return views[i].OrderIndex < views[j].OrderIndex })
	return views, nil
}

func (r *MemoryViewRepository) GetThumbnail(_ context.Context, entryID uuid.UUID) (*models.View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, view := range r.views {
		if view.EntryID == entryID && view.IsThumbnail {
			v := *view
			return &v, nil
		}
	}
	return nil, nil
}

func (r *MemoryViewRepository) Update(_ context.Context, view *models.View) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := *view
	r.views[v.ID] = &v
	return nil
}

func (r *MemoryViewRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.views, id)
	return nil
}

type MemoryVolsegRepository struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*models.VolsegEntry
}

func NewMemoryVolsegRepository() *MemoryVolsegRepository {
	return &MemoryVolsegRepository{entries: make(map[uuid.UUID]*models.VolsegEntry)}
}

func (r *MemoryVolsegRepository) Create(_ context.Context, entry *models.VolsegEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := *entry
	r.entries[e.ID] = &e
	return nil
}

func (r *MemoryVolsegRepository) GetByID(_ context.Context, id uuid.UUID) (*models.VolsegEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, nil
	}
	e := *entry
	return &e, nil
}

func (r *MemoryVolsegRepository) ListPublic(_ context.Context) ([]models.VolsegEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var entries []models.VolsegEntry
	for _, entry := range r.entries {
		if entry.IsPublic {
			entries = append(entries, *entry)
		}
	}
	return entries, nil
}

func (r *MemoryVolsegRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]models.VolsegEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var entries []models.VolsegEntry
	for _, entry := range r.entries {
		if entry.UserID == userID {
			entries = append(entries, *entry)
		}
	}
	return entries, nil
}

func (r *MemoryVolsegRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
	return nil
}

type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[uuid.UUID]*models.User)}
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	u := *user
	return &u, nil
}

func (r *MemoryUserRepository) GetBySub(_ context.Context, sub string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Sub == sub {
			u := *user
			return &u, nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := *user
	r.users[u.ID] = &u
	return nil
}
