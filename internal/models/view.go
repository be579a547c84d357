package models

import (
	"time"

	"github.com/google/uuid"
)

// View is a saved visualization snapshot belonging to an entry.
type View struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name         string  `gorm:"size:255;not null" json:"name"`
	Description  *string `json:"description,omitempty"`
	SnapshotURL  *string `gorm:"size:2083" json:"snapshot_url,omitempty"`
	ThumbnailURL *string `gorm:"size:2083" json:"thumbnail_url,omitempty"`
	IsThumbnail  bool    `gorm:"not null;default:false" json:"is_thumbnail"`
	OrderIndex   int     `gorm:"not null;default:0" json:"order_index"`

	EntryID uuid.UUID `gorm:"type:uuid;not null;index" json:"entry_id"`
	Entry   *Entry    `gorm:"foreignKey:EntryID" json:"-"`
}
