package models

import (
	"time"

	"github.com/google/uuid"
)

// User is provisioned on first authenticated request, keyed by the identity
// provider's subject claim.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Sub   string `gorm:"size:255;not null;uniqueIndex" json:"sub"`
	Name  string `gorm:"size:255" json:"name,omitempty"`
	Email string `gorm:"size:255" json:"email,omitempty"`

	// StorageQuota caps the summed size_bytes of the user's entries.
	StorageQuota int64 `gorm:"not null" json:"storage_quota"`

	Entries       []Entry       `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	VolsegEntries []VolsegEntry `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
