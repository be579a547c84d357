package models

import (
	"time"

	"github.com/google/uuid"
)

// VolsegEntry holds a raw volume-segmentation archive that is served as-is,
// without going through the conversion pipeline.
type VolsegEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name         string `gorm:"size:255;not null" json:"name"`
	IsPublic     bool   `gorm:"not null;default:false" json:"is_public"`
	CvsxFilepath string `gorm:"size:2083" json:"cvsx_filepath,omitempty"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User     `gorm:"foreignKey:UserID" json:"-"`
}
