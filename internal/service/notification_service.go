package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/VishalMahato/LifeLine-sub001/internal/domain"
	"github.com/VishalMahato/LifeLine-sub001/internal/models"
	"github.com/VishalMahato/LifeLine-sub001/internal/repository"
)

const (
	maxDeliveryAttempts = 5
	retryBaseDelay      = 30 * time.Second
)

// Alerter pushes an in-app alert to a connected user (the live map socket).
type Alerter interface {
	Alert(userID uint, kind string, payload interface{})
}

// NotificationService records notifications and their per-channel delivery
// state. Sending is done by an external dispatcher that polls Pending and
// reports back through RecordAttempt.
type NotificationService struct {
	repo    *repository.NotificationRepository
	alerter Alerter
	now     func() time.Time
}

// NewNotificationService returns a service. alerter may be nil.
func NewNotificationService(repo *repository.NotificationRepository, alerter Alerter) *NotificationService {
	return &NotificationService{repo: repo, alerter: alerter, now: time.Now}
}

// channelsFor picks delivery channels by priority: push always, SMS and
// email as well for high priority.
func channelsFor(priority string) []string {
	if priority == domain.PriorityHigh {
		return []string{domain.ChannelPush, domain.ChannelSMS, domain.ChannelEmail}
	}
	return []string{domain.ChannelPush}
}

func (s *NotificationService) Notify(ctx context.Context, userID uint, notifType, priority, title, body string, data map[string]interface{}) (*models.Notification, error) {
	if priority == "" {
		priority = domain.PriorityNormal
	}
	var dataJSON string
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("notification data: %w", err)
		}
		dataJSON = string(b)
	}
	n := &models.Notification{
		UserID:   userID,
		Type:     notifType,
		Title:    title,
		Body:     body,
		Data:     dataJSON,
		Priority: priority,
	}
	for _, ch := range channelsFor(priority) {
		n.Channels = append(n.Channels, models.NotificationChannel{Channel: ch, Status: domain.ChannelStatusPending})
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	if s.alerter != nil {
		s.alerter.Alert(userID, "notification", n)
	}
	return n, nil
}

// NotifySOS alerts a helper that someone nearby needs help.
func (s *NotificationService) NotifySOS(ctx context.Context, helperUserID uint, card HelperCard, from *models.Location, message string) (*models.Notification, error) {
	return s.Notify(ctx, helperUserID, domain.NotificationSOSAlert, domain.PriorityHigh,
		"SOS nearby", fmt.Sprintf("Someone %s away needs help. %s", card.Distance, message),
		map[string]interface{}{
			"location_id": from.ID,
			"coordinates": from.Point().Slice(),
			"distance":    card.Distance,
		})
}

// NotifySOSDispatched tells the caller how many helpers were alerted.
func (s *NotificationService) NotifySOSDispatched(ctx context.Context, userID uint, locationID uint, helpers int) (*models.Notification, error) {
	return s.Notify(ctx, userID, domain.NotificationSOSDispatched, domain.PriorityHigh,
		"Help is on the way", fmt.Sprintf("%d nearby helpers were alerted.", helpers),
		map[string]interface{}{"location_id": locationID, "helpers": helpers})
}

func (s *NotificationService) List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByUserID(ctx, userID, limit, offset)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// Pending returns channel rows due for delivery.
func (s *NotificationService) Pending(ctx context.Context, limit int) ([]models.NotificationChannel, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.PendingChannels(ctx, s.now().UTC(), limit)
}

// RecordAttempt stores a dispatcher's delivery outcome. Failed attempts are
// retried with exponential backoff until maxDeliveryAttempts.
func (s *NotificationService) RecordAttempt(ctx context.Context, channelID uint, status, errMsg string) (*models.NotificationChannel, error) {
	switch status {
	case domain.ChannelStatusSent, domain.ChannelStatusDelivered, domain.ChannelStatusFailed:
	default:
		return nil, domain.Invalid("status", "unsupported value %q", status)
	}
	ch, err := s.repo.GetChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ch.Status == domain.ChannelStatusDelivered || ch.Status == domain.ChannelStatusFailed {
		return ch, nil
	}
	now := s.now().UTC()
	ch.Attempts++
	ch.LastAttemptAt = &now
	ch.Error = errMsg
	ch.NextRetryAt = nil
	ch.Status = status
	if status == domain.ChannelStatusFailed && ch.Attempts < maxDeliveryAttempts {
		next := now.Add(retryDelay(ch.Attempts))
		ch.Status = domain.ChannelStatusPending
		ch.NextRetryAt = &next
	}
	if err := s.repo.RecordAttempt(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

func retryDelay(attempts int) time.Duration {
	return retryBaseDelay << uint(attempts-1)
}
