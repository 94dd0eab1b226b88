package repository

import (
	"context"

	"github.com/VishalMahato/LifeLine-sub001/internal/models"

	"gorm.io/gorm"
)

type MedicalProfileRepository struct {
	db *gorm.DB
}

func NewMedicalProfileRepository(db *gorm.DB) *MedicalProfileRepository {
	return &MedicalProfileRepository{db: db}
}

func (r *MedicalProfileRepository) GetByUserID(ctx context.Context, userID uint) (*models.MedicalProfile, error) {
	var m models.MedicalProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		return nil, wrap("get medical profile", err)
	}
	return &m, nil
}

// Upsert recomputes the completion percentage and saves the profile.
func (r *MedicalProfileRepository) Upsert(ctx context.Context, m *models.MedicalProfile) error {
	m.RecomputeCompletion()
	return wrap("save medical profile", r.db.WithContext(ctx).Save(m).Error)
}
