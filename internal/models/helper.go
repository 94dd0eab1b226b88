package models

import (
	"time"

	"gorm.io/gorm"
)

// Helper is a responder profile (doctor, nurse, first-aider) attached to a user.
type Helper struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Name           string         `gorm:"size:100;not null" json:"name"`
	Degree         string         `gorm:"size:100" json:"degree"`
	Specialization string         `gorm:"size:100" json:"specialization"`
	ResponseRate   float64        `gorm:"default:0" json:"response_rate"` // percent
	AvatarURL      string         `gorm:"size:512" json:"avatar_url"`
	Phone          string         `gorm:"size:32" json:"phone"`
	IsVerified     bool           `gorm:"index" json:"is_verified"`
	IsAvailable    bool           `gorm:"index" json:"is_available"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Helper) TableName() string {
	return "helpers"
}
