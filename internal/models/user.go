package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the identity record. Credentials are managed by the external auth
// service; this service only reads role and contact fields.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone     string         `gorm:"size:32" json:"phone"`
	Role      string         `gorm:"size:20;not null;index" json:"role"` // user | helper | ngo | admin
	AvatarURL string         `gorm:"size:512" json:"avatar_url"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Helper *Helper `gorm:"foreignKey:UserID" json:"helper,omitempty"`
}
