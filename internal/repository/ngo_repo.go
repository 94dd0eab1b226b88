package repository

import (
	"context"
	"sort"

	"github.com/VishalMahato/LifeLine-sub001/internal/models"
	"github.com/VishalMahato/LifeLine-sub001/pkg/location"

	"gorm.io/gorm"
)

type NGORepository struct {
	db *gorm.DB
}

func NewNGORepository(db *gorm.DB) *NGORepository {
	return &NGORepository{db: db}
}

func (r *NGORepository) Create(ctx context.Context, n *models.NGO) error {
	return wrap("create ngo", r.db.WithContext(ctx).Create(n).Error)
}

func (r *NGORepository) GetByID(ctx context.Context, id uint) (*models.NGO, error) {
	var n models.NGO
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, wrap("get ngo", err)
	}
	return &n, nil
}

type NearbyNGO struct {
	NGO            models.NGO
	DistanceMeters float64
}

// FindNearby returns active NGOs within radiusMeters of p, nearest first.
func (r *NGORepository) FindNearby(ctx context.Context, p location.Point, radiusMeters float64) ([]NearbyNGO, error) {
	q := r.db.WithContext(ctx).Model(&models.NGO{}).Where("ngos.is_active = ?", true)
	q = withinBox(q, "ngos", location.BoundingBox(p, radiusMeters))
	var rows []models.NGO
	if err := q.Find(&rows).Error; err != nil {
		return nil, wrap("find nearby ngos", err)
	}
	results := make([]NearbyNGO, 0, len(rows))
	for _, n := range rows {
		if !n.Point().Valid() {
			continue
		}
		d := location.DistanceMeters(p, n.Point())
		if d > radiusMeters {
			continue
		}
		results = append(results, NearbyNGO{NGO: n, DistanceMeters: d})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceMeters < results[j].DistanceMeters
	})
	return results, nil
}
