package repository

import (
	"context"
	"errors"

	"github.com/VishalMahato/LifeLine-sub001/internal/domain"
	"github.com/VishalMahato/LifeLine-sub001/internal/models"

	"gorm.io/gorm"
)

// HelperRepository is the helper directory: referential checks for location
// writes and profile lookups for result enrichment.
type HelperRepository struct {
	db *gorm.DB
}

func NewHelperRepository(db *gorm.DB) *HelperRepository {
	return &HelperRepository{db: db}
}

func (r *HelperRepository) Create(ctx context.Context, h *models.Helper) error {
	return wrap("create helper", r.db.WithContext(ctx).Create(h).Error)
}

// Exists reports whether a (non-deleted) helper with id exists.
func (r *HelperRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Helper{}).Where("id = ?", id).Count(&n).Error
	if err != nil {
		return false, wrap("helper exists", err)
	}
	return n > 0, nil
}

func (r *HelperRepository) FindByID(ctx context.Context, id uint) (*models.Helper, error) {
	var h models.Helper
	if err := r.db.WithContext(ctx).First(&h, id).Error; err != nil {
		return nil, wrap("get helper", err)
	}
	return &h, nil
}

func (r *HelperRepository) FindByUserID(ctx context.Context, userID uint) (*models.Helper, error) {
	var h models.Helper
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&h).Error; err != nil {
		return nil, wrap("get helper", err)
	}
	return &h, nil
}

// UserIDsByHelperIDs maps helper ids to their user ids, skipping unknown helpers.
func (r *HelperRepository) UserIDsByHelperIDs(ctx context.Context, ids []uint) (map[uint]uint, error) {
	out := make(map[uint]uint, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []models.Helper
	if err := r.db.WithContext(ctx).Select("id", "user_id").Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, wrap("helper users", err)
	}
	for _, h := range list {
		out[h.ID] = h.UserID
	}
	return out, nil
}

func (r *HelperRepository) SetAvailability(ctx context.Context, id uint, available bool) error {
	res := r.db.WithContext(ctx).Model(&models.Helper{}).Where("id = ?", id).Update("is_available", available)
	if res.Error != nil {
		return wrap("set availability", res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("set availability", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *HelperRepository) Delete(ctx context.Context, id uint) error {
	return wrap("delete helper", r.db.WithContext(ctx).Delete(&models.Helper{}, id).Error)
}

// IsNotFound is a small convenience for callers that branch on absence.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
