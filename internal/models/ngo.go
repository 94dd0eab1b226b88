package models

import (
	"time"

	"github.com/VishalMahato/LifeLine-sub001/pkg/location"

	"gorm.io/gorm"
)

// NGO is a relief organisation with a fixed base location.
type NGO struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index;not null" json:"user_id"`
	Name        string         `gorm:"size:150;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Phone       string         `gorm:"size:32" json:"phone"`
	Email       string         `gorm:"size:255" json:"email"`
	Services    string         `gorm:"type:text" json:"services"` // comma-separated
	Latitude    float64        `gorm:"not null;index:idx_ngo_lat_lng,priority:1" json:"latitude"`
	Longitude   float64        `gorm:"not null;index:idx_ngo_lat_lng,priority:2" json:"longitude"`
	Address     string         `gorm:"size:512" json:"address"`
	IsVerified  bool           `json:"is_verified"`
	IsActive    bool           `gorm:"index" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (NGO) TableName() string {
	return "ngos"
}

func (n *NGO) Point() location.Point {
	return location.Point{Lng: n.Longitude, Lat: n.Latitude}
}
