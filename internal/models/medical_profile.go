package models

import (
	"math"
	"time"

	"gorm.io/gorm"
)

// MedicalProfile carries what a responder needs to know on arrival.
type MedicalProfile struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	UserID                uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	BloodGroup            string         `gorm:"size:5" json:"blood_group"`
	Allergies             string         `gorm:"type:text" json:"allergies"`
	Conditions            string         `gorm:"type:text" json:"conditions"`
	Medications           string         `gorm:"type:text" json:"medications"`
	EmergencyContactName  string         `gorm:"size:100" json:"emergency_contact_name"`
	EmergencyContactPhone string         `gorm:"size:32" json:"emergency_contact_phone"`
	CompletionPercent     int            `json:"completion_percent"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

func (MedicalProfile) TableName() string {
	return "medical_profiles"
}

var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// RecomputeCompletion derives CompletionPercent from the filled fields.
// Called by the repository before every write.
func (m *MedicalProfile) RecomputeCompletion() {
	fields := []string{
		m.BloodGroup,
		m.Allergies,
		m.Conditions,
		m.Medications,
		m.EmergencyContactName,
		m.EmergencyContactPhone,
	}
	filled := 0
	for _, f := range fields {
		if f != "" {
			filled++
		}
	}
	m.CompletionPercent = int(math.Round(float64(filled) * 100 / float64(len(fields))))
}
