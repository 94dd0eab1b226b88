package models

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/VishalMahato/LifeLine-sub001/internal/domain"
	"github.com/VishalMahato/LifeLine-sub001/pkg/location"
)

// Location is a point-in-time position for a user or a helper.
// Coordinates live in separate lat/lng columns behind a composite index so
// proximity queries can prefilter on a bounding box before Haversine.
type Location struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      *uint      `gorm:"index" json:"user_id,omitempty"`
	HelperID    *uint      `gorm:"index" json:"helper_id,omitempty"`
	Latitude    float64    `gorm:"not null;index:idx_location_lat_lng,priority:1" json:"-"`
	Longitude   float64    `gorm:"not null;index:idx_location_lat_lng,priority:2" json:"-"`
	PlaceType   string     `gorm:"size:20;not null;index" json:"place_type"`
	Label       string     `gorm:"size:100" json:"label,omitempty"`
	Address     string     `gorm:"size:512" json:"address,omitempty"`
	Accuracy    *float64   `json:"accuracy,omitempty"` // meters
	Altitude    *float64   `json:"altitude,omitempty"`
	Speed       *float64   `json:"speed,omitempty"`
	Heading     *float64   `json:"heading,omitempty"`
	Provider    string     `gorm:"size:20;not null" json:"provider"`
	Source      string     `gorm:"size:20;not null" json:"source"`
	IsActive    bool       `gorm:"not null;index" json:"is_active"`
	IsVerified  bool       `gorm:"not null" json:"is_verified"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
	LastUpdated time.Time  `gorm:"not null;index" json:"last_updated"`
	// ActiveKey is non-nil only for records covered by the one-active rule;
	// the unique index on it is what the upsert conflicts on.
	ActiveKey *string   `gorm:"size:64;uniqueIndex" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Location) TableName() string {
	return "locations"
}

// Point returns the stored coordinates.
func (l *Location) Point() location.Point {
	return location.Point{Lng: l.Longitude, Lat: l.Latitude}
}

// SetPoint stores p in the lat/lng columns.
func (l *Location) SetPoint(p location.Point) {
	l.Longitude, l.Latitude = p.Lng, p.Lat
}

// MarshalJSON exposes the position as coordinates: [lng, lat].
func (l Location) MarshalJSON() ([]byte, error) {
	type alias Location
	return json.Marshal(struct {
		alias
		Coordinates []float64 `json:"coordinates"`
	}{alias(l), l.Point().Slice()})
}

// Validate checks coordinates, enums, ranges and the owner reference.
func (l *Location) Validate() error {
	if err := ValidatePoint(l.Point()); err != nil {
		return err
	}
	if (l.UserID == nil) == (l.HelperID == nil) {
		return domain.Invalid("owner", "exactly one of user_id or helper_id is required")
	}
	if !slices.Contains(domain.PlaceTypes, l.PlaceType) {
		return domain.Invalid("place_type", "unsupported value %q", l.PlaceType)
	}
	if !slices.Contains(domain.Providers, l.Provider) {
		return domain.Invalid("provider", "unsupported value %q", l.Provider)
	}
	if !slices.Contains(domain.Sources, l.Source) {
		return domain.Invalid("source", "unsupported value %q", l.Source)
	}
	return ValidateMetrics(l.Accuracy, l.Altitude, l.Speed, l.Heading)
}

// ValidatePoint rejects non-finite or out-of-range coordinates.
func ValidatePoint(p location.Point) error {
	if math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) || p.Lng < -180 || p.Lng > 180 {
		return domain.Invalid("coordinates", "longitude must be within [-180, 180]")
	}
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || p.Lat < -90 || p.Lat > 90 {
		return domain.Invalid("coordinates", "latitude must be within [-90, 90]")
	}
	return nil
}

// ValidateMetrics checks the optional sensor readings attached to a fix.
func ValidateMetrics(accuracy, altitude, speed, heading *float64) error {
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	if accuracy != nil && (!finite(*accuracy) || *accuracy < 0 || *accuracy > domain.MaxAccuracyMeters) {
		return domain.Invalid("accuracy", "must be within [0, %.0f] meters", domain.MaxAccuracyMeters)
	}
	if altitude != nil && !finite(*altitude) {
		return domain.Invalid("altitude", "must be a finite number")
	}
	if speed != nil && (!finite(*speed) || *speed < 0) {
		return domain.Invalid("speed", "must be >= 0")
	}
	if heading != nil && (!finite(*heading) || *heading < 0 || *heading > 360) {
		return domain.Invalid("heading", "must be within [0, 360]")
	}
	return nil
}

// DeriveActiveKey sets ActiveKey from owner, placeType and IsActive.
// Every active helper record shares one key per helper; for users only the
// active "current" record is keyed.
func (l *Location) DeriveActiveKey() {
	l.ActiveKey = nil
	if !l.IsActive {
		return
	}
	var key string
	switch {
	case l.HelperID != nil:
		key = fmt.Sprintf("helper:%d", *l.HelperID)
	case l.UserID != nil && l.PlaceType == domain.PlaceCurrent:
		key = fmt.Sprintf("user:%d:current", *l.UserID)
	default:
		return
	}
	l.ActiveKey = &key
}

// IsStale reports whether more than thresholdMinutes have passed since LastUpdated.
func (l *Location) IsStale(now time.Time, thresholdMinutes float64) bool {
	return now.Sub(l.LastUpdated).Minutes() > thresholdMinutes
}

// MarkVerified moves the record to verified. It reports false, leaving
// VerifiedAt untouched, when the record was already verified.
func (l *Location) MarkVerified(now time.Time) bool {
	if l.IsVerified {
		return false
	}
	l.IsVerified = true
	l.VerifiedAt = &now
	return true
}
