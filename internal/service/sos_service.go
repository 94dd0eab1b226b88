package service

import (
	"context"
	"log"

	"github.com/VishalMahato/LifeLine-sub001/internal/domain"
	"github.com/VishalMahato/LifeLine-sub001/internal/models"
)

// SOSInput is an emergency request at the caller's position.
type SOSInput struct {
	Coordinates []float64 `json:"coordinates"`
	Accuracy    *float64  `json:"accuracy"`
	Provider    string    `json:"provider"`
	Message     string    `json:"message"`
}

type SOSResult struct {
	Location *models.Location `json:"location"`
	Helpers  []HelperCard     `json:"helpers"`
	Notified int              `json:"notified"`
}

// SOSService records an emergency position and alerts nearby helpers.
type SOSService struct {
	locations     *LocationService
	notifications *NotificationService
	radiusMeters  float64
}

func NewSOSService(locations *LocationService, notifications *NotificationService, radiusMeters float64) *SOSService {
	if radiusMeters <= 0 {
		radiusMeters = domain.DefaultNearbyRadiusMeters
	}
	return &SOSService{locations: locations, notifications: notifications, radiusMeters: radiusMeters}
}

// Trigger moves the caller's current location to the SOS fix, then notifies
// every verified, available helper in range. A failed notification is logged
// and skipped.
func (s *SOSService) Trigger(ctx context.Context, userID uint, in SOSInput) (*SOSResult, error) {
	loc, err := s.locations.UpdateCurrentLocation(ctx, userID, CurrentLocationInput{
		Coordinates: in.Coordinates,
		Accuracy:    in.Accuracy,
		Provider:    in.Provider,
		Source:      domain.SourceSOS,
	})
	if err != nil {
		return nil, err
	}
	cards, err := s.locations.FindNearbyHelpers(ctx, loc.Longitude, loc.Latitude, s.radiusMeters)
	if err != nil {
		return nil, err
	}
	res := &SOSResult{Location: loc, Helpers: make([]HelperCard, 0, len(cards))}
	for _, card := range cards {
		if card.UserID == userID {
			continue
		}
		res.Helpers = append(res.Helpers, card)
		if _, err := s.notifications.NotifySOS(ctx, card.UserID, card, loc, in.Message); err != nil {
			log.Printf("[sos] notify helper %d: %v", card.ID, err)
			continue
		}
		res.Notified++
	}
	if _, err := s.notifications.NotifySOSDispatched(ctx, userID, loc.ID, res.Notified); err != nil {
		log.Printf("[sos] notify user %d: %v", userID, err)
	}
	log.Printf("[sos] user %d at location %d: %d helpers alerted", userID, loc.ID, res.Notified)
	return res, nil
}
