package models

import (
	"time"

	"github.com/google/uuid"
)

type EntryStatus string

const (
	StatusPending    EntryStatus = "pending"
	StatusProcessing EntryStatus = "processing"
	StatusCompleted  EntryStatus = "completed"
	StatusFailed     EntryStatus = "failed"
)

// Entry is one uploaded dataset and its conversion lifecycle. The status
// column only ever advances pending -> processing -> completed|failed, and
// the error columns are set exactly when status is failed.
type Entry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string  `gorm:"size:255;not null" json:"name"`
	Title       *string `gorm:"size:255" json:"title,omitempty"`
	Description *string `gorm:"size:2047" json:"description,omitempty"`

	// StorageKey is the prefix under which every derived artifact for this
	// entry lives in the object store. Assigned at creation, never changed.
	StorageKey string `gorm:"size:512;not null;uniqueIndex" json:"storage_key"`
	SizeBytes  int64  `gorm:"not null;default:0" json:"size_bytes"`

	Status       EntryStatus `gorm:"size:32;not null;default:pending;index" json:"status"`
	ErrorCode    *string     `gorm:"size:64" json:"error_code,omitempty"`
	ErrorMessage *string     `json:"error_message,omitempty"`

	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner   *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`

	Link  *ShareLink `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE" json:"link,omitempty"`
	Views []View     `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE" json:"-"`
}
