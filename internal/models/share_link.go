package models

import (
	"time"

	"github.com/google/uuid"
)

// ShareLink is a togglable public-access capability bound 1:1 to an entry.
// Its id doubles as the externally shared token.
type ShareLink struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	IsActive bool `gorm:"not null;default:true" json:"is_active"`

	EntryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"entry_id"`
	Entry   *Entry    `gorm:"foreignKey:EntryID" json:"-"`
}
