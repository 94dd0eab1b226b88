package ws

import (
	"math/rand"
	"sync"
	"time"

	"github.com/VishalMahato/LifeLine-sub001/pkg/location"
)

// HelperMarker is a helper's position on the live map.
type HelperMarker struct {
	HelperID  uint    `json:"helper_id"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	IsActive  bool    `json:"is_active"`
	UpdatedAt int64   `json:"updated_at"`
}

// MapHub streams helper positions to connected clients and pushes targeted
// alerts (SOS) to individual users.
type MapHub struct {
	*Hub
	fuzzMeters float64

	mu      sync.RWMutex
	markers map[uint]HelperMarker
}

// NewMapHub returns a hub. fuzzMeters > 0 offsets published positions by up
// to that many meters in each axis.
func NewMapHub(fuzzMeters float64) *MapHub {
	return &MapHub{
		Hub:        NewHub(),
		fuzzMeters: fuzzMeters,
		markers:    make(map[uint]HelperMarker),
	}
}

// UpdateLocation records and broadcasts a helper's position. An inactive
// update removes the marker.
func (m *MapHub) UpdateLocation(helperID uint, lat, lng float64, isActive bool) {
	if m.fuzzMeters > 0 {
		lat += location.FuzzMeters(m.fuzzMeters * (2*rand.Float64() - 1))
		lng += location.FuzzMeters(m.fuzzMeters * (2*rand.Float64() - 1))
	}
	marker := HelperMarker{
		HelperID:  helperID,
		Lat:       lat,
		Lng:       lng,
		IsActive:  isActive,
		UpdatedAt: time.Now().Unix(),
	}
	m.mu.Lock()
	if isActive {
		m.markers[helperID] = marker
	} else {
		delete(m.markers, helperID)
	}
	m.mu.Unlock()
	m.BroadcastAll(map[string]interface{}{"type": "marker", "marker": marker})
}

// GetMarkers returns current markers for all active helpers (for initial map load).
func (m *MapHub) GetMarkers() []HelperMarker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := make([]HelperMarker, 0, len(m.markers))
	for _, v := range m.markers {
		list = append(list, v)
	}
	return list
}

// Alert pushes an out-of-band message (e.g. an SOS) to one user's connections.
func (m *MapHub) Alert(userID uint, kind string, payload interface{}) {
	m.SendToUser(userID, map[string]interface{}{"type": kind, "data": payload})
}
