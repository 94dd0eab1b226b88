package handler

import (
	"math"
	"net/http"

	"github.com/VishalMahato/LifeLine-sub001/internal/service"
	"github.com/VishalMahato/LifeLine-sub001/pkg/location"

	"github.com/gin-gonic/gin"
)

// DistanceHandler answers point-to-point distance queries.
type DistanceHandler struct {
	svc *service.LocationService
}

func NewDistanceHandler(svc *service.LocationService) *DistanceHandler {
	return &DistanceHandler{svc: svc}
}

// GetDistance returns the great-circle distance between from_lat/from_lng and to_lat/to_lng.
func (h *DistanceHandler) GetDistance(c *gin.Context) {
	var v [4]float64
	for i, name := range []string{"from_lng", "from_lat", "to_lng", "to_lat"} {
		f, ok := queryFloat(c, name)
		if !ok {
			return
		}
		v[i] = f
	}
	meters, err := h.svc.DistanceTo([]float64{v[0], v[1]}, []float64{v[2], v[3]})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"distance_meters": math.Round(meters*10) / 10,
		"distance_km":     math.Round(meters/10) / 100,
		"distance":        location.FormatDistance(meters),
	})
}
