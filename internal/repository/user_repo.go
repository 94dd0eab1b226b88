package repository

import (
	"context"

	"github.com/VishalMahato/LifeLine-sub001/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return wrap("create user", r.db.WithContext(ctx).Create(u).Error)
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, wrap("get user", err)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, wrap("get user", err)
	}
	return &u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	return wrap("update user", r.db.WithContext(ctx).Save(u).Error)
}
