package models_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/VishalMahato/LifeLine-sub001/internal/domain"
	"github.com/VishalMahato/LifeLine-sub001/internal/models"
)

func ptr[T any](v T) *T { return &v }

func validLocation() *models.Location {
	return &models.Location{
		UserID:    ptr(uint(1)),
		Longitude: 77.5946,
		Latitude:  12.9716,
		PlaceType: domain.PlaceCurrent,
		Provider:  domain.ProviderGPS,
		Source:    domain.SourceApp,
		IsActive:  true,
	}
}

func TestLocationValidate(t *testing.T) {
	c := qt.New(t)

	c.Run("valid record passes", func(c *qt.C) {
		c.Assert(validLocation().Validate(), qt.IsNil)
	})

	tests := []struct {
		name   string
		mutate func(l *models.Location)
		field  string
	}{
		{"longitude out of range", func(l *models.Location) { l.Longitude = 200; l.Latitude = 10 }, "coordinates"},
		{"latitude out of range", func(l *models.Location) { l.Latitude = -90.5 }, "coordinates"},
		{"NaN longitude", func(l *models.Location) { l.Longitude = math.NaN() }, "coordinates"},
		{"no owner", func(l *models.Location) { l.UserID = nil }, "owner"},
		{"both owners", func(l *models.Location) { l.HelperID = ptr(uint(3)) }, "owner"},
		{"unknown place type", func(l *models.Location) { l.PlaceType = "garage" }, "place_type"},
		{"unknown provider", func(l *models.Location) { l.Provider = "bluetooth" }, "provider"},
		{"unknown source", func(l *models.Location) { l.Source = "sms" }, "source"},
		{"accuracy too large", func(l *models.Location) { l.Accuracy = ptr(10000.5) }, "accuracy"},
		{"negative accuracy", func(l *models.Location) { l.Accuracy = ptr(-1.0) }, "accuracy"},
		{"negative speed", func(l *models.Location) { l.Speed = ptr(-0.1) }, "speed"},
		{"heading above 360", func(l *models.Location) { l.Heading = ptr(361.0) }, "heading"},
		{"infinite altitude", func(l *models.Location) { l.Altitude = ptr(math.Inf(-1)) }, "altitude"},
	}
	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			l := validLocation()
			tt.mutate(l)
			err := l.Validate()
			var ve *domain.ValidationError
			c.Assert(err, qt.ErrorAs, &ve)
			c.Assert(ve.Field, qt.Equals, tt.field)
		})
	}

	c.Run("boundary metrics are accepted", func(c *qt.C) {
		l := validLocation()
		l.Accuracy = ptr(10000.0)
		l.Heading = ptr(360.0)
		l.Speed = ptr(0.0)
		l.Altitude = ptr(-400.0)
		c.Assert(l.Validate(), qt.IsNil)
	})
}

func TestLocationDeriveActiveKey(t *testing.T) {
	c := qt.New(t)

	c.Run("active helper record is keyed by helper regardless of place type", func(c *qt.C) {
		l := validLocation()
		l.UserID = nil
		l.HelperID = ptr(uint(42))
		l.PlaceType = domain.PlaceHome
		l.DeriveActiveKey()
		c.Assert(l.ActiveKey, qt.IsNotNil)
		c.Assert(*l.ActiveKey, qt.Equals, "helper:42")
	})

	c.Run("active current user record is keyed", func(c *qt.C) {
		l := validLocation()
		l.DeriveActiveKey()
		c.Assert(*l.ActiveKey, qt.Equals, "user:1:current")
	})

	c.Run("user home record is not keyed", func(c *qt.C) {
		l := validLocation()
		l.PlaceType = domain.PlaceHome
		l.DeriveActiveKey()
		c.Assert(l.ActiveKey, qt.IsNil)
	})

	c.Run("inactive records are never keyed", func(c *qt.C) {
		l := validLocation()
		l.IsActive = false
		l.DeriveActiveKey()
		c.Assert(l.ActiveKey, qt.IsNil)
	})
}

func TestLocationIsStale(t *testing.T) {
	c := qt.New(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := validLocation()

	l.LastUpdated = now
	c.Assert(l.IsStale(now, 5), qt.IsFalse)

	l.LastUpdated = now.Add(-5 * time.Minute)
	c.Assert(l.IsStale(now, 5), qt.IsFalse)

	l.LastUpdated = now.Add(-6 * time.Minute)
	c.Assert(l.IsStale(now, 5), qt.IsTrue)
}

func TestLocationMarkVerified(t *testing.T) {
	c := qt.New(t)
	l := validLocation()
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.Assert(l.MarkVerified(first), qt.IsTrue)
	c.Assert(l.IsVerified, qt.IsTrue)
	c.Assert(*l.VerifiedAt, qt.Equals, first)

	c.Assert(l.MarkVerified(first.Add(time.Hour)), qt.IsFalse)
	c.Assert(*l.VerifiedAt, qt.Equals, first)
}

func TestLocationMarshalJSON(t *testing.T) {
	c := qt.New(t)
	l := validLocation()
	l.ID = 9
	b, err := json.Marshal(l)
	c.Assert(err, qt.IsNil)

	var out map[string]any
	c.Assert(json.Unmarshal(b, &out), qt.IsNil)
	c.Assert(out["coordinates"], qt.DeepEquals, []any{77.5946, 12.9716})
	c.Assert(out["id"], qt.Equals, 9.0)
	_, hasLat := out["Latitude"]
	c.Assert(hasLat, qt.IsFalse)
	_, hasKey := out["ActiveKey"]
	c.Assert(hasKey, qt.IsFalse)
}

func TestMedicalProfileRecomputeCompletion(t *testing.T) {
	c := qt.New(t)
	m := &models.MedicalProfile{}
	m.RecomputeCompletion()
	c.Assert(m.CompletionPercent, qt.Equals, 0)

	m.BloodGroup = "O+"
	m.EmergencyContactPhone = "+911234567890"
	m.Allergies = "penicillin"
	m.RecomputeCompletion()
	c.Assert(m.CompletionPercent, qt.Equals, 50)

	m.Conditions, m.Medications, m.EmergencyContactName = "asthma", "inhaler", "Asha"
	m.RecomputeCompletion()
	c.Assert(m.CompletionPercent, qt.Equals, 100)
}
