// internal/domain/store/entity.go
package store

import (
	"time"

	"gorm.io/gorm"
)

// Store is a seller's tenant. Username is the canonical, lower-case
// identifier used in URLs and subdomains; Name is the display name.
type Store struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	OwnerID      string         `gorm:"not null;size:100;index" json:"-"`
	Username     string         `gorm:"uniqueIndex;not null;size:100" json:"username"`
	Name         string         `gorm:"not null;size:255;index" json:"name"`
	Description  string         `gorm:"type:text" json:"description"`
	LogoURL      string         `gorm:"size:500" json:"logo_url"`
	ContactEmail string         `gorm:"size:255" json:"-"`
	ContactPhone string         `gorm:"size:20" json:"contact_phone"`
	Currency     string         `gorm:"size:3;default:'INR'" json:"currency"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Store) TableName() string {
	return "stores"
}

// Resolution is a successfully resolved store context
type Resolution struct {
	Store               *Store `json:"store"`
	CanonicalIdentifier string `json:"canonical_identifier"`
}
