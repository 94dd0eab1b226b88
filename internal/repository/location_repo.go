package repository

import (
	"context"
	"sort"
	"time"

	"github.com/VishalMahato/LifeLine-sub001/internal/models"
	"github.com/VishalMahato/LifeLine-sub001/pkg/location"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// positionColumns are overwritten when an upsert hits an existing active record.
// place_type, is_verified and verified_at are deliberately absent.
var positionColumns = []string{
	"latitude", "longitude", "accuracy", "altitude", "speed", "heading",
	"provider", "source", "last_updated", "updated_at",
}

type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) Create(ctx context.Context, loc *models.Location) error {
	return wrap("create location", r.db.WithContext(ctx).Create(loc).Error)
}

// UpsertActive inserts loc, or, when an active record with the same
// ActiveKey exists, overwrites its position columns in the same statement
// (plus address and label when withAddress is set). loc is reloaded from
// the stored row afterwards.
func (r *LocationRepository) UpsertActive(ctx context.Context, loc *models.Location, withAddress bool) error {
	if loc.ActiveKey == nil {
		return r.Create(ctx, loc)
	}
	cols := positionColumns
	if withAddress {
		cols = append(append([]string{}, positionColumns...), "address", "label")
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "active_key"}},
		DoUpdates: clause.AssignmentColumns(cols),
	}).Create(loc).Error
	if err != nil {
		return wrap("upsert location", err)
	}
	stored, err := r.GetByActiveKey(ctx, *loc.ActiveKey)
	if err != nil {
		return err
	}
	*loc = *stored
	return nil
}

func (r *LocationRepository) GetByID(ctx context.Context, id uint) (*models.Location, error) {
	var loc models.Location
	if err := r.db.WithContext(ctx).First(&loc, id).Error; err != nil {
		return nil, wrap("get location", err)
	}
	return &loc, nil
}

func (r *LocationRepository) GetByActiveKey(ctx context.Context, key string) (*models.Location, error) {
	var loc models.Location
	if err := r.db.WithContext(ctx).Where("active_key = ?", key).First(&loc).Error; err != nil {
		return nil, wrap("get active location", err)
	}
	return &loc, nil
}

// ListByOwner returns an owner's locations, most recently updated first.
// Exactly one of userID, helperID should be non-nil.
func (r *LocationRepository) ListByOwner(ctx context.Context, userID, helperID *uint, activeOnly bool) ([]models.Location, error) {
	q := r.db.WithContext(ctx).Model(&models.Location{})
	if helperID != nil {
		q = q.Where("helper_id = ?", *helperID)
	} else {
		q = q.Where("user_id = ?", *userID)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var list []models.Location
	err := q.Order("last_updated DESC").Find(&list).Error
	return list, wrap("list locations", err)
}

func (r *LocationRepository) MarkVerified(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Location{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_verified": true, "verified_at": at})
	if res.Error != nil {
		return wrap("verify location", res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("verify location", gorm.ErrRecordNotFound)
	}
	return nil
}

// Deactivate clears is_active and releases the active key.
func (r *LocationRepository) Deactivate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Location{}).Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "active_key": nil})
	if res.Error != nil {
		return wrap("deactivate location", res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("deactivate location", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *LocationRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Location{}, id)
	if res.Error != nil {
		return wrap("delete location", res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("delete location", gorm.ErrRecordNotFound)
	}
	return nil
}

// NearbyLocation is an active location with its distance from the query point.
type NearbyLocation struct {
	Location       models.Location
	DistanceMeters float64
}

// withinBox restricts q to the bounding box on the indexed lat/lng columns.
func withinBox(q *gorm.DB, table string, box location.Box) *gorm.DB {
	q = q.Where(table+".latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat)
	if !box.WrapsLng {
		q = q.Where(table+".longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng)
	}
	return q
}

// FindNearby returns active locations within radiusMeters of p, nearest first.
// Uses the lat/lng index for a bounding-box prefilter, then exact Haversine.
func (r *LocationRepository) FindNearby(ctx context.Context, p location.Point, radiusMeters float64) ([]NearbyLocation, error) {
	q := r.db.WithContext(ctx).Model(&models.Location{}).Where("locations.is_active = ?", true)
	q = withinBox(q, "locations", location.BoundingBox(p, radiusMeters))
	var rows []models.Location
	if err := q.Find(&rows).Error; err != nil {
		return nil, wrap("find nearby locations", err)
	}
	results := make([]NearbyLocation, 0, len(rows))
	for _, row := range rows {
		d := location.DistanceMeters(p, row.Point())
		if d > radiusMeters {
			continue
		}
		results = append(results, NearbyLocation{Location: row, DistanceMeters: d})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceMeters < results[j].DistanceMeters
	})
	return results, nil
}

// HelperLocationRow is an active helper location joined with the helper and
// its user. Joined columns are pointers so missing rows are detectable.
type HelperLocationRow struct {
	LocationID     uint
	HelperID       *uint
	Latitude       float64
	Longitude      float64
	LastUpdated    time.Time
	JoinedHelperID *uint
	Name           *string
	Degree         *string
	ResponseRate   *float64
	AvatarURL      *string
	Phone          *string
	IsVerified     *bool
	IsAvailable    *bool
	UserID         *uint
	Role           *string
	UserName       *string
	UserPhone      *string
	UserAvatarURL  *string
}

// FindNearbyHelperRows returns active helper locations inside the bounding
// box, left-joined to helpers and users. Distance filtering and shaping are
// the caller's job.
func (r *LocationRepository) FindNearbyHelperRows(ctx context.Context, p location.Point, radiusMeters float64) ([]HelperLocationRow, error) {
	q := r.db.WithContext(ctx).Table("locations").
		Select(`
			locations.id as location_id, locations.helper_id, locations.latitude, locations.longitude, locations.last_updated,
			h.id as joined_helper_id, h.name, h.degree, h.response_rate, h.avatar_url, h.phone, h.is_verified, h.is_available,
			u.id as user_id, u.role, u.name as user_name, u.phone as user_phone, u.avatar_url as user_avatar_url
		`).
		Joins("LEFT JOIN helpers h ON h.id = locations.helper_id AND h.deleted_at IS NULL").
		Joins("LEFT JOIN users u ON u.id = h.user_id AND u.deleted_at IS NULL").
		Where("locations.is_active = ? AND locations.helper_id IS NOT NULL", true)
	q = withinBox(q, "locations", location.BoundingBox(p, radiusMeters))
	var rows []HelperLocationRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, wrap("find nearby helpers", err)
	}
	return rows, nil
}

// HelperOwnedRefs lists (location id, helper id) for every helper-owned row.
// Used by the orphan sweep.
func (r *LocationRepository) HelperOwnedRefs(ctx context.Context) ([]models.Location, error) {
	var list []models.Location
	err := r.db.WithContext(ctx).Select("id", "helper_id").
		Where("helper_id IS NOT NULL").Find(&list).Error
	return list, wrap("list helper locations", err)
}
