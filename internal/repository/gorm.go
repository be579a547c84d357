package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"molvis-backend/internal/models"
)

type GormEntryRepository struct {
	db *gorm.DB
}

func NewGormEntryRepository(db *gorm.DB) *GormEntryRepository {
	return &GormEntryRepository{db: db}
}

func (r *GormEntryRepository) CreateWithLink(ctx context.Context, entry *models.Entry, link *models.ShareLink) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		return tx.Create(link).Error
	})
}

func (r *GormEntryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	var entry models.Entry
	err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *GormEntryRepository) GetWithLink(ctx context.Context, id uuid.UUID) (*models.Entry, error) {
	var entry models.Entry
	err := r.db.WithContext(ctx).Preload("Link").First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *GormEntryRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, q models.PaginationQuery) ([]models.Entry, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Entry{}).Where("owner_id = ?", ownerID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.Entry
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Preload("Link").
		Order(orderClause(q)).
		Offset((q.Page - 1) * q.PerPage).
		Limit(q.PerPage).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// orderClause whitelists the sortable columns; the binding layer enforces
// the same set but the repository does not rely on it.
func orderClause(q models.PaginationQuery) string {
	column := "created_at"
	switch q.SortBy {
	case "updated_at", "name":
		column = q.SortBy
	}
	direction := "DESC"
	if q.SortOrder == "asc" {
		direction = "ASC"
	}
	return fmt.Sprintf("%s %s", column, direction)
}

func (r *GormEntryRepository) Update(ctx context.Context, entry *models.Entry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *GormEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Select("Link", "Views").Delete(&models.Entry{ID: id}).Error
}

func (r *GormEntryRepository) StorageUsage(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var usage int64
	err := r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("owner_id = ?", ownerID).
		Select("COALESCE(SUM(size_bytes), 0)").
		Scan(&usage).Error
	return usage, err
}

func (r *GormEntryRepository) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Update("status", models.StatusProcessing)
	return res.RowsAffected > 0, res.Error
}

func (r *GormEntryRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("id = ? AND status = ?", id, models.StatusProcessing).
		Updates(map[string]any{
			"status":        models.StatusCompleted,
			"error_code":    nil,
			"error_message": nil,
		}).Error
}

func (r *GormEntryRepository) MarkFailed(ctx context.Context, id uuid.UUID, code, message string) error {
	return r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("id = ? AND status = ?", id, models.StatusProcessing).
		Updates(map[string]any{
			"status":        models.StatusFailed,
			"error_code":    code,
			"error_message": message,
		}).Error
}

type GormShareLinkRepository struct {
	db *gorm.DB
}

func NewGormShareLinkRepository(db *gorm.DB) *GormShareLinkRepository {
	return &GormShareLinkRepository{db: db}
}

func (r *GormShareLinkRepository) GetWithEntry(ctx context.Context, id uuid.UUID) (*models.ShareLink, error) {
	var link models.ShareLink
	err := r.db.WithContext(ctx).Preload("Entry").First(&link, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *GormShareLinkRepository) Update(ctx context.Context, link *models.ShareLink) error {
	return r.db.WithContext(ctx).Model(&models.ShareLink{ID: link.ID}).Update("is_active", link.IsActive).Error
}

type GormViewRepository struct {
	db *gorm.DB
}

func NewGormViewRepository(db *gorm.DB) *GormViewRepository {
	return &GormViewRepository{db: db}
}

func (r *GormViewRepository) Create(ctx context.Context, view *models.View) error {
	return r.db.WithContext(ctx).Create(view).Error
}

func (r *GormViewRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.View, error) {
	var view models.View
	err := r.db.WithContext(ctx).First(&view, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (r *GormViewRepository) ListByEntry(ctx context.Context, entryID uuid.UUID) ([]models.View, error) {
	var views []models.View
	err := r.db.WithContext(ctx).
		Where("entry_id = ?", entryID).
		Order("order_index ASC, created_at ASC").
		Find(&views).Error
	return views, err
}

func (r *GormViewRepository) GetThumbnail(ctx context.Context, entryID uuid.UUID) (*models.View, error) {
	var view models.View
	err := r.db.WithContext(ctx).
		Where("entry_id = ? AND is_thumbnail = ?", entryID, true).
		First(&view).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (r *GormViewRepository) Update(ctx context.Context, view *models.View) error {
	return r.db.WithContext(ctx).Save(view).Error
}

func (r *GormViewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.View{}, "id = ?", id).Error
}

type GormVolsegRepository struct {
	db *gorm.DB
}

func NewGormVolsegRepository(db *gorm.DB) *GormVolsegRepository {
	return &GormVolsegRepository{db: db}
}

func (r *GormVolsegRepository) Create(ctx context.Context, entry *models.VolsegEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormVolsegRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.VolsegEntry, error) {
	var entry models.VolsegEntry
	err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *GormVolsegRepository) ListPublic(ctx context.Context) ([]models.VolsegEntry, error) {
	var entries []models.VolsegEntry
	err := r.db.WithContext(ctx).Where("is_public = ?", true).Order("created_at DESC").Find(&entries).Error
	return entries, err
}

func (r *GormVolsegRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.VolsegEntry, error) {
	var entries []models.VolsegEntry
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&entries).Error
	return entries, err
}

func (r *GormVolsegRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.VolsegEntry{}, "id = ?", id).Error
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "sub = ?", sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}
