package service

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"gorm.io/gorm"

	"github.com/VishalMahato/LifeLine-sub001/config"
	"github.com/VishalMahato/LifeLine-sub001/internal/database"
	"github.com/VishalMahato/LifeLine-sub001/internal/domain"
	"github.com/VishalMahato/LifeLine-sub001/internal/events"
	"github.com/VishalMahato/LifeLine-sub001/internal/models"
	"github.com/VishalMahato/LifeLine-sub001/internal/repository"
)

type testEnv struct {
	db        *gorm.DB
	now       time.Time
	sink      *sinkRecorder
	locations *LocationService
	notifs    *NotificationService
	sos       *SOSService
	cleaner   *Cleaner
	helpers   *repository.HelperRepository
	users     *repository.UserRepository
	ngos      *repository.NGORepository
}

type sinkRecorder struct {
	events []events.HelperLocation
}

func (s *sinkRecorder) UpdateLocation(helperID uint, lat, lng float64, isActive bool) {
	s.events = append(s.events, events.HelperLocation{HelperID: helperID, Lat: lat, Lng: lng, IsActive: isActive})
}

func newTestEnv(c *qt.C) *testEnv {
	db, err := database.NewDB(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(c.TempDir(), "lifeline.db"),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(database.AutoMigrate(db), qt.IsNil)
	c.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	env := &testEnv{
		db:      db,
		now:     time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		sink:    &sinkRecorder{},
		helpers: repository.NewHelperRepository(db),
		users:   repository.NewUserRepository(db),
		ngos:    repository.NewNGORepository(db),
	}
	bus := events.NewBus(nil, "test")
	bus.Subscribe(env.sink)
	locRepo := repository.NewLocationRepository(db)
	cfg := config.Default().Location
	env.locations = NewLocationService(cfg, locRepo, env.ngos, env.helpers, NewIdentityResolver(env.users, env.helpers), bus)
	env.locations.now = func() time.Time { return env.now }
	env.notifs = NewNotificationService(repository.NewNotificationRepository(db), nil)
	env.notifs.now = func() time.Time { return env.now }
	env.sos = NewSOSService(env.locations, env.notifs, cfg.SOSRadiusMeters)
	env.cleaner = NewCleaner(locRepo, env.helpers)
	return env
}

func (e *testEnv) user(c *qt.C, email, role string) *models.User {
	u := &models.User{Name: email, Email: email, Role: role}
	c.Assert(e.users.Create(context.Background(), u), qt.IsNil)
	return u
}

func (e *testEnv) helper(c *qt.C, email string, verified, available bool) (*models.User, *models.Helper) {
	u := e.user(c, email, domain.RoleHelper)
	h := &models.Helper{UserID: u.ID, Name: "Dr " + email, Degree: "MBBS", ResponseRate: 92, IsVerified: verified, IsAvailable: available}
	c.Assert(e.helpers.Create(context.Background(), h), qt.IsNil)
	return u, h
}

func (e *testEnv) countLocations(c *qt.C, query string, args ...interface{}) int64 {
	var n int64
	c.Assert(e.db.Model(&models.Location{}).Where(query, args...).Count(&n).Error, qt.IsNil)
	return n
}

func TestDistanceTo(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c)
	s := env.locations

	pairs := [][2][]float64{
		{{77.5946, 12.9716}, {72.8777, 19.0760}},
		{{-122.4194, 37.7749}, {151.2093, -33.8688}},
		{{179.9, 0}, {-179.9, 0}},
	}
	for _, p := range pairs {
		ab, err := s.DistanceTo(p[0], p[1])
		c.Assert(err, qt.IsNil)
		ba, err := s.DistanceTo(p[1], p[0])
		c.Assert(err, qt.IsNil)
		c.Assert(math.Abs(ab-ba) < 1e-6, qt.IsTrue, qt.Commentf("%v", p))
		self, err := s.DistanceTo(p[0], p[0])
		c.Assert(err, qt.IsNil)
		c.Assert(self, qt.Equals, 0.0)
	}

	d, err := s.DistanceTo([]float64{0, 0}, []float64{0, 1})
	c.Assert(err, qt.IsNil)
	c.Assert(math.Abs(d-111195)/111195 < 0.01, qt.IsTrue, qt.Commentf("got %f", d))

	_, err = s.DistanceTo([]float64{200, 10}, []float64{0, 0})
	c.Assert(domain.IsValidation(err), qt.IsTrue)
}

func TestUpdateCurrentLocation_HelperKeepsSingleActiveRecord(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c)
	ctx := context.Background()
	u, h := env.helper(c, "h@example.com", true, true)

	first, err := env.locations.UpdateCurrentLocation(ctx, u.ID, CurrentLocationInput{Coordinates: []float64{77.5946, 12.9716}})
	c.Assert(err, qt.IsNil)
	c.Assert(*first.HelperID, qt.Equals, h.ID)
	c.Assert(first.UserID, qt.IsNil)

	env.now = env.now.Add(time.Minute)
	second, err := env.locations.UpdateCurrentLocation(ctx, u.ID, CurrentLocationInput{
		Coordinates: []float64{77.6000, 12.9800},
		Provider:    domain.ProviderGPS,
	})
	c.Assert(err, qt.IsNil)
	c.Assert(second.ID, qt.Equals, first.ID)
	c.Assert(second.Point().Slice(), qt.DeepEquals, []float64{77.6000, 12.9800})
	c.Assert(second.Provider, qt.Equals, domain.ProviderGPS)
	c.Assert(second.LastUpdated.Equal(env.now), qt.IsTrue)

	c.Assert(env.countLocations(c, "helper_id = ? AND is_active = ?", h.ID, true), qt.Equals, int64(1))
	c.Assert(env.sink.events, qt.HasLen, 2)
	c.Assert(env.sink.events[1].Lat, qt.Equals, 12.9800)
}

func TestUpdateCurrentLocation_KeepsPlaceTypeAndVerification(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c)
	ctx := context.Background()
	u, h := env.helper(c, "h@example.com", true, true)

	created, err := env.locations.CreateLocation(ctx, Owner{Role: domain.RoleHelper, UserID: u.ID, HelperID: &h.ID}, CreateLocationInput{
		Coordinates: []float64{77.59, 12.97},
		PlaceType:   domain.PlaceHospital,
		Address:     "MG Road",
	})
	c.Assert(err, qt.IsNil)
	_, err = env.locations.Verify(ctx, created.ID)
	c.Assert(err, qt.IsNil)

	updated, err := env.locations.UpdateCurrentLocation(ctx, u.ID, CurrentLocationInput{Coordinates: []float64{77.61, 12.99}})
	c.Assert(err, qt.IsNil)
	c.Assert(updated.ID, qt.Equals, created.ID)
	c.Assert(updated.PlaceType, qt.Equals, domain.PlaceHospital)
	c.Assert(updated.IsVerified, qt.IsTrue)
	c.Assert(updated.Address, qt.Equals, "MG Road")
}

func TestUpdateCurrentLocation_UserSingleCurrent(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c)
	ctx := context.Background()
	u := env.user(c, "u@example.com", domain.RoleUser)

	for i := 0; i < 3; i++ {
		_, err := env.locations.UpdateCurrentLocation(ctx, u.ID, CurrentLocationInput{Coordinates: []float64{77.59, 12.97}})
		c.Assert(err, qt.IsNil)
	}
	owner := Owner{Role: domain.RoleUser, UserID: u.ID}
	_, err := env.locations.CreateLocation(ctx, owner, CreateLocationInput{Coordinates: []float64{77.6, 12.9}, PlaceType: domain.PlaceHome})
	c.Assert(err, qt.IsNil)
	_, err = env.locations.CreateLocation(ctx, owner, CreateLocationInput{Coordinates: []float64{77.7, 12.8}, PlaceType: domain.PlaceWork})
	c.Assert(err, qt.IsNil)

	c.Assert(env.countLocations(c, "user_id = ? AND place_type = ?", u.ID, domain.PlaceCurrent), qt.Equals, int64(1))
	c.Assert(env.countLocations(c, "user_id = ?", u.ID), qt.Equals, int64(3))
	c.Assert(env.sink.events, qt.HasLen, 0)
}

func TestUpdateCurrentLocation_UnknownUser(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c)
	_, err := env.locations.UpdateCurrentLocation(context.Background(), 404, CurrentLocationInput{Coordinates: []float64{1, 1}})
	c.Assert(errors.Is(err, domain.ErrNotFound), qt.IsTrue)
}

func TestUpdateCurrentLocation_HelperWithoutProfile(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c)
	u := env.user(c, "h@example.com", domain.RoleHelper)
	_, err := env.locations.UpdateCurrentLocation(context.Background(), u.ID, CurrentLocationInput{Coordinates: []float64{1, 1}})
	c.Assert(errors.Is(err, domain.ErrReferentialIntegrity), qt.IsTrue)
}

func TestCreateLocation_Rejections(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c)
	ctx := context.Background()
	u := env.user(c, "u@example.com", domain.RoleUser)
	owner := Owner{Role: domain.RoleUser, UserID: u.ID}
	bad := -1.0

	tests := []struct {
		about string
		in    CreateLocationInput
		field string
	}{{
		about: "longitude out of range",
		in:    CreateLocationInput{Coordinates: []float64{200, 10}},
		field: "coordinates",
	}, {
		about: "three components",
		in:    CreateLocationInput{Coordinates: []float64{1, 2, 3}},
		field: "coordinates",
	}, {
		about: "unknown place type",
		in:    CreateLocationInput{Coordinates: []float64{1, 2}, PlaceType: "beach"},
		field: "place_type",
	}, {
		about: "negative speed",
		in:    CreateLocationInput{Coordinates: []float64{1, 2}, Speed: &bad},
		field: "speed",
	}}
	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			_, err := env.locations.CreateLocation(ctx, owner, test.in)
			var ve *domain.ValidationError
			c.Assert(errors.As(err, &ve), qt.IsTrue)
			c.Assert(ve.Field, qt.Equals, test.field)
		})
	}
	c.Assert(env.countLocations(c, "1 = 1"), qt.Equals, int64(0))
}

func TestCreateLocation_UnknownHelper(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c)
	missing := uint(999)
	_, err := env.locations.CreateLocation(context.Background(), Owner{Role: domain.RoleHelper, HelperID: &missing}, CreateLocationInput{
		Coordinates: []float64{77.59, 12.97},
	})
	c.Assert(errors.Is(err, domain.ErrReferentialIntegrity), qt.IsTrue)
	c.Assert(env.countLocations(c, "1 = 1"), qt.Equals, int64(0))
}

func TestIsStale(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c)
	u := env.user(c, "u@example.com", domain.RoleUser)
	loc, err := env.locations.CreateLocation(context.Background(), Owner{Role: domain.RoleUser, UserID: u.ID}, CreateLocationInput{Coordinates: []float64{1, 1}})
	c.Assert(err, qt.IsNil)

	c.Assert(env.locations.IsStale(loc, 5), qt.IsFalse)
	env.now = env.now.Add(6 * time.Minute)
	c.Assert(env.locations.IsStale(loc, 5), qt.IsTrue)
	c.Assert(env.locations.IsStale(loc, 0), qt.IsTrue)
	c.Assert(env.locations.IsStale(loc, 10), qt.IsFalse)

	// Non-finite thresholds fall back to the configured one.
	c.Assert(env.locations.IsStale(loc, math.NaN()), qt.IsTrue)
	c.Assert(env.locations.IsStale(loc, math.Inf(1)), qt.IsTrue)
	env.now = env.now.Add(-2 * time.Minute)
	c.Assert(env.locations.IsStale(loc, math.NaN()), qt.IsFalse)
}

func TestVerify(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c)
	ctx := context.Background()
	u := env.user(c, "u@example.com", domain.RoleUser)
	loc, err := env.locations.CreateLocation(ctx, Owner{Role: domain.RoleUser, UserID: u.ID}, CreateLocationInput{Coordinates: []float64{1, 1}})
	c.Assert(err, qt.IsNil)

	v, err := env.locations.Verify(ctx, loc.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(v.IsVerified, qt.IsTrue)
	first := *v.VerifiedAt

	env.now = env.now.Add(time.Hour)
	v, err = env.locations.Verify(ctx, loc.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(v.VerifiedAt.Equal(first), qt.IsTrue)

	_, err = env.locations.Verify(ctx, 12345)
	c.Assert(errors.Is(err, domain.ErrNotFound), qt.IsTrue)
}

func TestFindNearby(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c)
	ctx := context.Background()

	// Points roughly 0, 1.1, 2.2, 3.3 and 11 km north of the origin.
	lats := []float64{0.03, 0.0, 0.02, 0.01, 0.1}
	for i, lat := range lats {
		u := env.user(c, string(rune('a'+i))+"@example.com", domain.RoleUser)
		_, err := env.locations.CreateLocation(ctx, Owner{Role: domain.RoleUser, UserID: u.ID}, CreateLocationInput{Coordinates: []float64{0, lat}})
		c.Assert(err, qt.IsNil)
	}

	got, err := env.locations.FindNearby(ctx, 0, 0, 5000)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.HasLen, 4)
	for i, n := range got {
		c.Assert(n.DistanceMeters <= 5000, qt.IsTrue)
		if i > 0 {
			c.Assert(got[i-1].DistanceMeters <= n.DistanceMeters, qt.IsTrue)
		}
	}
	c.Assert(got[0].Location.Latitude, qt.Equals, 0.0)

	_, err = env.locations.FindNearby(ctx, 0, 0, 0)
	c.Assert(domain.IsValidation(err), qt.IsTrue)
	_, err = env.locations.FindNearby(ctx, 0, 95, 100)
	c.Assert(domain.IsValidation(err), qt.IsTrue)
	for _, r := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err = env.locations.FindNearby(ctx, 0, 0, r)
		c.Assert(domain.IsValidation(err), qt.IsTrue, qt.Commentf("radius %v", r))
	}
}

func TestFindNearbyHelpers(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c)
	ctx := context.Background()

	place := func(u *models.User, lng, lat float64) {
		_, err := env.locations.UpdateCurrentLocation(ctx, u.ID, CurrentLocationInput{Coordinates: []float64{lng, lat}})
		c.Assert(err, qt.IsNil)
	}
	far, _ := env.helper(c, "far@example.com", true, true)
	place(far, 77.60, 12.99)
	near, nearH := env.helper(c, "near@example.com", true, true)
	place(near, 77.595, 12.972)
	unverified, _ := env.helper(c, "unverified@example.com", false, true)
	place(unverified, 77.5946, 12.9716)
	busy, _ := env.helper(c, "busy@example.com", true, false)
	place(busy, 77.5946, 12.9716)
	gone, goneH := env.helper(c, "gone@example.com", true, true)
	place(gone, 77.5946, 12.9716)
	c.Assert(env.helpers.Delete(ctx, goneH.ID), qt.IsNil)
	outside, _ := env.helper(c, "outside@example.com", true, true)
	place(outside, 78.5, 13.5)

	cards, err := env.locations.FindNearbyHelpers(ctx, 77.5946, 12.9716, 5000)
	c.Assert(err, qt.IsNil)
	c.Assert(cards, qt.HasLen, 2)
	c.Assert(cards[0].ID, qt.Equals, nearH.ID)
	c.Assert(cards[0].UserID, qt.Equals, near.ID)
	c.Assert(cards[0].Name, qt.Equals, "Dr near@example.com")
	c.Assert(cards[0].Role, qt.Equals, domain.RoleHelper)
	c.Assert(cards[0].Verified, qt.IsTrue)
	c.Assert(cards[0].Distance, qt.Matches, `\d+ m`)
	c.Assert(cards[1].Distance, qt.Matches, `\d+\.\d km`)
	c.Assert(cards[0].DistanceMeters < cards[1].DistanceMeters, qt.IsTrue)

	// A helper exactly on the radius is still in range and labelled.
	edge, err := env.locations.FindNearbyHelpers(ctx, 77.5946, 12.9716, cards[1].DistanceMeters)
	c.Assert(err, qt.IsNil)
	c.Assert(edge, qt.HasLen, 2)
	c.Assert(edge[1].Proximity, qt.Equals, "Far (within range)")
}

func TestFindNearbyNGOs(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c)
	ctx := context.Background()
	for _, n := range []models.NGO{
		{Name: "Near", Latitude: 12.975, Longitude: 77.595, IsActive: true},
		{Name: "Closed", Latitude: 12.9716, Longitude: 77.5946, IsActive: false},
		{Name: "Far", Latitude: 14, Longitude: 77.5946, IsActive: true},
	} {
		n := n
		c.Assert(env.ngos.Create(ctx, &n), qt.IsNil)
	}
	got, err := env.locations.FindNearbyNGOs(ctx, 77.5946, 12.9716, 10000)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.HasLen, 1)
	c.Assert(got[0].Name, qt.Equals, "Near")
	c.Assert(got[0].Distance, qt.Matches, `\d+ m`)
}

func TestDeactivateAndDelete(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c)
	ctx := context.Background()
	u, h := env.helper(c, "h@example.com", true, true)
	owner := Owner{Role: domain.RoleHelper, UserID: u.ID, HelperID: &h.ID}
	stranger := Owner{Role: domain.RoleUser, UserID: 77}

	loc, err := env.locations.UpdateCurrentLocation(ctx, u.ID, CurrentLocationInput{Coordinates: []float64{1, 1}})
	c.Assert(err, qt.IsNil)

	_, err = env.locations.Deactivate(ctx, stranger, loc.ID)
	c.Assert(errors.Is(err, domain.ErrForbidden), qt.IsTrue)

	off, err := env.locations.Deactivate(ctx, owner, loc.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(off.IsActive, qt.IsFalse)
	c.Assert(env.sink.events[len(env.sink.events)-1].IsActive, qt.IsFalse)

	// The active slot is free again, so a new fix creates a new record.
	next, err := env.locations.UpdateCurrentLocation(ctx, u.ID, CurrentLocationInput{Coordinates: []float64{2, 2}})
	c.Assert(err, qt.IsNil)
	c.Assert(next.ID, qt.Not(qt.Equals), loc.ID)

	list, err := env.locations.ListMine(ctx, owner, false)
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 2)

	c.Assert(env.locations.Delete(ctx, Owner{Role: domain.RoleAdmin, UserID: 1}, loc.ID), qt.IsNil)
	_, err = env.locations.Get(ctx, owner, loc.ID)
	c.Assert(errors.Is(err, domain.ErrNotFound), qt.IsTrue)
}

func TestCleanupOrphans(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c)
	ctx := context.Background()
	keep, _ := env.helper(c, "keep@example.com", true, true)
	drop, dropH := env.helper(c, "drop@example.com", true, true)
	for _, u := range []*models.User{keep, drop} {
		_, err := env.locations.UpdateCurrentLocation(ctx, u.ID, CurrentLocationInput{Coordinates: []float64{1, 1}})
		c.Assert(err, qt.IsNil)
	}
	c.Assert(env.helpers.Delete(ctx, dropH.ID), qt.IsNil)

	n, err := env.cleaner.CleanupOrphans(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 1)
	c.Assert(env.countLocations(c, "helper_id = ?", dropH.ID), qt.Equals, int64(0))
	c.Assert(env.countLocations(c, "helper_id IS NOT NULL"), qt.Equals, int64(1))

	n, err = env.cleaner.CleanupOrphans(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 0)
}

func TestSOSTrigger(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c)
	ctx := context.Background()
	caller := env.user(c, "caller@example.com", domain.RoleUser)
	hu, _ := env.helper(c, "h@example.com", true, true)
	_, err := env.locations.UpdateCurrentLocation(ctx, hu.ID, CurrentLocationInput{Coordinates: []float64{77.595, 12.972}})
	c.Assert(err, qt.IsNil)

	res, err := env.sos.Trigger(ctx, caller.ID, SOSInput{Coordinates: []float64{77.5946, 12.9716}, Message: "chest pain"})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Location.Source, qt.Equals, domain.SourceSOS)
	c.Assert(res.Helpers, qt.HasLen, 1)
	c.Assert(res.Notified, qt.Equals, 1)

	alerts, err := env.notifs.List(ctx, hu.ID, 0, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(alerts, qt.HasLen, 1)
	c.Assert(alerts[0].Type, qt.Equals, domain.NotificationSOSAlert)
	c.Assert(alerts[0].Channels, qt.HasLen, 3)

	mine, err := env.notifs.List(ctx, caller.ID, 0, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(mine, qt.HasLen, 1)
	c.Assert(mine[0].Type, qt.Equals, domain.NotificationSOSDispatched)
}

func TestNotificationRecordAttempt(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(c)
	ctx := context.Background()

	n, err := env.notifs.Notify(ctx, 5, "INFO", "", "hi", "there", nil)
	c.Assert(err, qt.IsNil)
	c.Assert(n.Priority, qt.Equals, domain.PriorityNormal)
	c.Assert(n.Channels, qt.HasLen, 1)
	chID := n.Channels[0].ID

	pending, err := env.notifs.Pending(ctx, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(pending, qt.HasLen, 1)

	ch, err := env.notifs.RecordAttempt(ctx, chID, domain.ChannelStatusFailed, "timeout")
	c.Assert(err, qt.IsNil)
	c.Assert(ch.Status, qt.Equals, domain.ChannelStatusPending)
	c.Assert(ch.NextRetryAt.Sub(env.now), qt.Equals, retryBaseDelay)

	pending, err = env.notifs.Pending(ctx, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(pending, qt.HasLen, 0)

	for i := 2; i <= maxDeliveryAttempts; i++ {
		ch, err = env.notifs.RecordAttempt(ctx, chID, domain.ChannelStatusFailed, "timeout")
		c.Assert(err, qt.IsNil)
	}
	c.Assert(ch.Status, qt.Equals, domain.ChannelStatusFailed)
	c.Assert(ch.Attempts, qt.Equals, maxDeliveryAttempts)
	c.Assert(ch.NextRetryAt, qt.IsNil)

	_, err = env.notifs.RecordAttempt(ctx, chID, "bounced", "")
	c.Assert(domain.IsValidation(err), qt.IsTrue)
}
