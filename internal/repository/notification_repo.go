package repository

import (
	"context"
	"time"

	"github.com/VishalMahato/LifeLine-sub001/internal/domain"
	"github.com/VishalMahato/LifeLine-sub001/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create stores n together with its channel rows in one transaction.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return wrap("create notification", r.db.WithContext(ctx).Create(n).Error)
}

func (r *NotificationRepository) ListByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.WithContext(ctx).Preload("Channels").Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, wrap("list notifications", err)
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uint) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).Update("read_at", time.Now())
	if res.Error != nil {
		return wrap("mark read", res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("mark read", gorm.ErrRecordNotFound)
	}
	return nil
}

// PendingChannels returns channel rows due for a delivery attempt.
func (r *NotificationRepository) PendingChannels(ctx context.Context, now time.Time, limit int) ([]models.NotificationChannel, error) {
	var list []models.NotificationChannel
	err := r.db.WithContext(ctx).
		Where("status = ? AND (next_retry_at IS NULL OR next_retry_at <= ?)", domain.ChannelStatusPending, now).
		Order("id").Limit(limit).Find(&list).Error
	return list, wrap("pending channels", err)
}

// RecordAttempt stores the outcome of one delivery attempt.
func (r *NotificationRepository) RecordAttempt(ctx context.Context, ch *models.NotificationChannel) error {
	return wrap("record attempt", r.db.WithContext(ctx).Save(ch).Error)
}

func (r *NotificationRepository) GetChannel(ctx context.Context, id uint) (*models.NotificationChannel, error) {
	var ch models.NotificationChannel
	if err := r.db.WithContext(ctx).First(&ch, id).Error; err != nil {
		return nil, wrap("get channel", err)
	}
	return &ch, nil
}
