package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/VishalMahato/LifeLine-sub001/config"
	"github.com/VishalMahato/LifeLine-sub001/internal/domain"
	"github.com/VishalMahato/LifeLine-sub001/internal/events"
	"github.com/VishalMahato/LifeLine-sub001/internal/models"
	"github.com/VishalMahato/LifeLine-sub001/internal/repository"
	"github.com/VishalMahato/LifeLine-sub001/pkg/location"
	"github.com/VishalMahato/LifeLine-sub001/pkg/proximity"
)

// CreateLocationInput is the body of a location write. Coordinates are
// [longitude, latitude].
type CreateLocationInput struct {
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address"`
	Label       string    `json:"label"`
	PlaceType   string    `json:"place_type"`
	Accuracy    *float64  `json:"accuracy"`
	Altitude    *float64  `json:"altitude"`
	Speed       *float64  `json:"speed"`
	Heading     *float64  `json:"heading"`
	Provider    string    `json:"provider"`
	Source      string    `json:"source"`
}

// CurrentLocationInput is a position fix for the owner's current location.
type CurrentLocationInput struct {
	Coordinates []float64 `json:"coordinates"`
	Accuracy    *float64  `json:"accuracy"`
	Altitude    *float64  `json:"altitude"`
	Speed       *float64  `json:"speed"`
	Heading     *float64  `json:"heading"`
	Provider    string    `json:"provider"`
	Source      string    `json:"source"`
}

// HelperCard is a nearby helper as shown to someone asking for help.
type HelperCard struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	Role           string  `json:"role"`
	Degree         string  `json:"degree"`
	ResponseRate   float64 `json:"responseRate"`
	Avatar         string  `json:"avatar"`
	Verified       bool    `json:"verified"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Phone          string  `json:"phone"`
	Distance       string  `json:"distance"`
	Proximity      string  `json:"proximity"`
	UserID         uint    `json:"-"`
	DistanceMeters float64 `json:"-"`
}

// NearbyNGO is an active NGO with its formatted distance.
type NearbyNGO struct {
	models.NGO
	Distance       string  `json:"distance"`
	DistanceMeters float64 `json:"distance_meters"`
}

// LocationService is the location store: lifecycle, the one-active rule,
// distance and proximity search.
type LocationService struct {
	cfg       config.LocationConfig
	locations *repository.LocationRepository
	ngos      *repository.NGORepository
	helpers   HelperDirectory
	identity  Identity
	bus       *events.Bus
	now       func() time.Time
}

// NewLocationService wires the store. bus may be nil.
func NewLocationService(cfg config.LocationConfig, locations *repository.LocationRepository, ngos *repository.NGORepository, helpers HelperDirectory, identity Identity, bus *events.Bus) *LocationService {
	return &LocationService{
		cfg:       cfg,
		locations: locations,
		ngos:      ngos,
		helpers:   helpers,
		identity:  identity,
		bus:       bus,
		now:       time.Now,
	}
}

// Identity exposes the resolver used for owner lookups.
func (s *LocationService) Identity() Identity {
	return s.identity
}

func parsePoint(coords []float64) (location.Point, error) {
	p, ok := location.FromSlice(coords)
	if !ok {
		return location.Point{}, domain.Invalid("coordinates", "must be [longitude, latitude]")
	}
	if err := models.ValidatePoint(p); err != nil {
		return location.Point{}, err
	}
	return p, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// newLocation builds an active record for owner; validation is left to the caller.
func (s *LocationService) newLocation(owner Owner, p location.Point) *models.Location {
	loc := &models.Location{
		IsActive:    true,
		LastUpdated: s.now().UTC(),
	}
	loc.SetPoint(p)
	if owner.HelperID != nil {
		id := *owner.HelperID
		loc.HelperID = &id
	} else {
		id := owner.UserID
		loc.UserID = &id
	}
	return loc
}

// checkHelper is the referential step of the write path.
func (s *LocationService) checkHelper(ctx context.Context, loc *models.Location) error {
	if loc.HelperID == nil {
		return nil
	}
	ok, err := s.helpers.Exists(ctx, *loc.HelperID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("helper %d: %w", *loc.HelperID, domain.ErrReferentialIntegrity)
	}
	return nil
}

// CreateLocation validates and stores a location. Helper writes and user
// "current" writes upsert the owner's single active record; other user
// place types add a row.
func (s *LocationService) CreateLocation(ctx context.Context, owner Owner, in CreateLocationInput) (*models.Location, error) {
	p, err := parsePoint(in.Coordinates)
	if err != nil {
		return nil, err
	}
	loc := s.newLocation(owner, p)
	loc.PlaceType = orDefault(in.PlaceType, domain.PlaceCurrent)
	loc.Provider = orDefault(in.Provider, domain.ProviderUnknown)
	loc.Source = orDefault(in.Source, domain.SourceApp)
	loc.Address, loc.Label = in.Address, in.Label
	loc.Accuracy, loc.Altitude, loc.Speed, loc.Heading = in.Accuracy, in.Altitude, in.Speed, in.Heading

	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkHelper(ctx, loc); err != nil {
		return nil, err
	}
	loc.DeriveActiveKey()
	if err := s.locations.UpsertActive(ctx, loc, true); err != nil {
		return nil, err
	}
	s.publish(ctx, loc)
	return loc, nil
}

// UpdateCurrentLocation moves the owner's active current record to a new
// fix, creating it when missing. Place type and verification are kept.
func (s *LocationService) UpdateCurrentLocation(ctx context.Context, ownerID uint, in CurrentLocationInput) (*models.Location, error) {
	p, err := parsePoint(in.Coordinates)
	if err != nil {
		return nil, err
	}
	owner, err := s.identity.ResolveRole(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	loc := s.newLocation(owner, p)
	loc.PlaceType = domain.PlaceCurrent
	loc.Provider = orDefault(in.Provider, domain.ProviderUnknown)
	loc.Source = orDefault(in.Source, domain.SourceApp)
	loc.Accuracy, loc.Altitude, loc.Speed, loc.Heading = in.Accuracy, in.Altitude, in.Speed, in.Heading

	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkHelper(ctx, loc); err != nil {
		return nil, err
	}
	loc.DeriveActiveKey()
	if err := s.locations.UpsertActive(ctx, loc, false); err != nil {
		return nil, err
	}
	s.publish(ctx, loc)
	return loc, nil
}

// publish pushes helper position changes to the live map.
func (s *LocationService) publish(ctx context.Context, loc *models.Location) {
	if s.bus == nil || loc.HelperID == nil {
		return
	}
	err := s.bus.Publish(ctx, events.HelperLocation{
		HelperID:  *loc.HelperID,
		Lat:       loc.Latitude,
		Lng:       loc.Longitude,
		IsActive:  loc.IsActive,
		UpdatedAt: loc.LastUpdated.Unix(),
	})
	if err != nil {
		log.Printf("[location] publish helper %d: %v", *loc.HelperID, err)
	}
}

// DistanceTo returns the great-circle distance in meters between two
// [longitude, latitude] pairs.
func (s *LocationService) DistanceTo(a, b []float64) (float64, error) {
	pa, err := parsePoint(a)
	if err != nil {
		return 0, err
	}
	pb, err := parsePoint(b)
	if err != nil {
		return 0, err
	}
	return location.DistanceMeters(pa, pb), nil
}

// IsStale uses the configured threshold when thresholdMinutes <= 0.
func (s *LocationService) IsStale(loc *models.Location, thresholdMinutes float64) bool {
	if !(thresholdMinutes > 0) || math.IsInf(thresholdMinutes, 0) {
		thresholdMinutes = s.cfg.StaleAfterMinutes
	}
	if !(thresholdMinutes > 0) {
		thresholdMinutes = domain.DefaultStaleMinutes
	}
	return loc.IsStale(s.now(), thresholdMinutes)
}

// Verify marks a location verified. Verifying twice is a no-op.
func (s *LocationService) Verify(ctx context.Context, id uint) (*models.Location, error) {
	loc, err := s.locations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !loc.MarkVerified(s.now().UTC()) {
		return loc, nil
	}
	if err := s.locations.MarkVerified(ctx, id, *loc.VerifiedAt); err != nil {
		return nil, err
	}
	return loc, nil
}

func (s *LocationService) Get(ctx context.Context, caller Owner, id uint) (*models.Location, error) {
	loc, err := s.locations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !caller.Owns(loc) {
		return nil, domain.ErrForbidden
	}
	return loc, nil
}

func (s *LocationService) ListMine(ctx context.Context, caller Owner, activeOnly bool) ([]models.Location, error) {
	if caller.HelperID != nil {
		return s.locations.ListByOwner(ctx, nil, caller.HelperID, activeOnly)
	}
	return s.locations.ListByOwner(ctx, &caller.UserID, nil, activeOnly)
}

// Deactivate retires a location and frees its owner's active slot.
func (s *LocationService) Deactivate(ctx context.Context, caller Owner, id uint) (*models.Location, error) {
	loc, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !loc.IsActive {
		return loc, nil
	}
	if err := s.locations.Deactivate(ctx, id); err != nil {
		return nil, err
	}
	loc.IsActive = false
	loc.ActiveKey = nil
	s.publish(ctx, loc)
	return loc, nil
}

func (s *LocationService) Delete(ctx context.Context, caller Owner, id uint) error {
	loc, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.locations.Delete(ctx, id); err != nil {
		return err
	}
	if loc.IsActive {
		loc.IsActive = false
		s.publish(ctx, loc)
	}
	return nil
}

// checkRadius rejects radii outside (0, max].
func (s *LocationService) checkRadius(radiusMeters float64) (float64, error) {
	limit := s.cfg.MaxRadiusMeters
	if limit <= 0 {
		limit = domain.MaxNearbyRadiusMeters
	}
	if !(radiusMeters > 0) || radiusMeters > limit {
		return 0, domain.Invalid("radius", "must be within (0, %.0f] meters", limit)
	}
	return radiusMeters, nil
}

func (s *LocationService) nearbyArgs(lng, lat, radiusMeters float64) (location.Point, float64, error) {
	p := location.Point{Lng: lng, Lat: lat}
	if err := models.ValidatePoint(p); err != nil {
		return p, 0, err
	}
	r, err := s.checkRadius(radiusMeters)
	return p, r, err
}

// FindNearby returns active locations within radiusMeters, nearest first.
func (s *LocationService) FindNearby(ctx context.Context, lng, lat, radiusMeters float64) ([]repository.NearbyLocation, error) {
	p, r, err := s.nearbyArgs(lng, lat, radiusMeters)
	if err != nil {
		return nil, err
	}
	return s.locations.FindNearby(ctx, p, r)
}

func strOf(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// FindNearbyHelpers returns verified, available helpers with an active
// location within radiusMeters, nearest first. Rows whose helper or user is
// gone, or whose coordinates are unusable, are dropped.
func (s *LocationService) FindNearbyHelpers(ctx context.Context, lng, lat, radiusMeters float64) ([]HelperCard, error) {
	p, r, err := s.nearbyArgs(lng, lat, radiusMeters)
	if err != nil {
		return nil, err
	}
	rows, err := s.locations.FindNearbyHelperRows(ctx, p, r)
	if err != nil {
		return nil, err
	}
	cards := make([]HelperCard, 0, len(rows))
	for _, row := range rows {
		if row.JoinedHelperID == nil || row.UserID == nil {
			continue
		}
		if row.IsVerified == nil || !*row.IsVerified || row.IsAvailable == nil || !*row.IsAvailable {
			continue
		}
		at := location.Point{Lng: row.Longitude, Lat: row.Latitude}
		if !at.Valid() {
			continue
		}
		d := location.DistanceMeters(p, at)
		if d > r {
			continue
		}
		card := HelperCard{
			ID:             *row.JoinedHelperID,
			Name:           orDefault(strOf(row.Name), strOf(row.UserName)),
			Role:           orDefault(strOf(row.Role), domain.RoleHelper),
			Degree:         strOf(row.Degree),
			Avatar:         orDefault(strOf(row.AvatarURL), strOf(row.UserAvatarURL)),
			Verified:       true,
			Latitude:       at.Lat,
			Longitude:      at.Lng,
			Phone:          orDefault(strOf(row.Phone), strOf(row.UserPhone)),
			Distance:       location.FormatDistance(d),
			Proximity:      proximity.Label(proximity.Progress(d, r)),
			UserID:         *row.UserID,
			DistanceMeters: d,
		}
		if row.ResponseRate != nil {
			card.ResponseRate = *row.ResponseRate
		}
		cards = append(cards, card)
	}
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].DistanceMeters < cards[j].DistanceMeters
	})
	return cards, nil
}

// FindNearbyNGOs returns active NGOs within radiusMeters, nearest first.
func (s *LocationService) FindNearbyNGOs(ctx context.Context, lng, lat, radiusMeters float64) ([]NearbyNGO, error) {
	p, r, err := s.nearbyArgs(lng, lat, radiusMeters)
	if err != nil {
		return nil, err
	}
	rows, err := s.ngos.FindNearby(ctx, p, r)
	if err != nil {
		return nil, err
	}
	out := make([]NearbyNGO, 0, len(rows))
	for _, row := range rows {
		out = append(out, NearbyNGO{
			NGO:            row.NGO,
			Distance:       location.FormatDistance(row.DistanceMeters),
			DistanceMeters: row.DistanceMeters,
		})
	}
	return out, nil
}
