package models

import (
	"time"

	"gorm.io/gorm"
)

type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Type      string         `gorm:"size:50;not null;index" json:"type"`
	Title     string         `gorm:"size:255" json:"title"`
	Body      string         `gorm:"type:text" json:"body"`
	Data      string         `gorm:"type:text" json:"data"` // JSON payload
	Priority  string         `gorm:"size:10;not null" json:"priority"`
	ReadAt    *time.Time     `json:"read_at"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Channels []NotificationChannel `gorm:"foreignKey:NotificationID" json:"channels,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

// NotificationChannel tracks delivery of one notification over one channel.
type NotificationChannel struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	NotificationID uint       `gorm:"not null;index:idx_notification_channel,unique" json:"notification_id"`
	Channel        string     `gorm:"size:10;not null;index:idx_notification_channel,unique" json:"channel"` // push | sms | email
	Status         string     `gorm:"size:12;not null;index" json:"status"`
	Attempts       int        `json:"attempts"`
	LastAttemptAt  *time.Time `json:"last_attempt_at,omitempty"`
	NextRetryAt    *time.Time `gorm:"index" json:"next_retry_at,omitempty"`
	Error          string     `gorm:"size:512" json:"error,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (NotificationChannel) TableName() string {
	return "notification_channels"
}
