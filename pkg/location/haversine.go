package location

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distance.
const EarthRadiusMeters = 6371000.0

// metersPerDegree is the length of one degree of latitude on the sphere.
const metersPerDegree = EarthRadiusMeters * math.Pi / 180

// Point is a (longitude, latitude) pair in degrees. Longitude comes first,
// matching the order used on the wire.
type Point struct {
	Lng float64
	Lat float64
}

// Valid reports whether p holds finite, in-range coordinates.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lng) || math.IsNaN(p.Lat) || math.IsInf(p.Lng, 0) || math.IsInf(p.Lat, 0) {
		return false
	}
	return p.Lng >= -180 && p.Lng <= 180 && p.Lat >= -90 && p.Lat <= 90
}

// FromSlice builds a Point from a [lng, lat] array. ok is false unless the
// slice has exactly two components.
func FromSlice(coords []float64) (Point, bool) {
	if len(coords) != 2 {
		return Point{}, false
	}
	return Point{Lng: coords[0], Lat: coords[1]}, true
}

// Slice returns p as [lng, lat].
func (p Point) Slice() []float64 {
	return []float64{p.Lng, p.Lat}
}

// DistanceMeters returns the haversine distance between a and b in meters.
func DistanceMeters(a, b Point) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	φ1, φ2 := rad(a.Lat), rad(b.Lat)
	Δφ := rad(b.Lat - a.Lat)
	Δλ := rad(b.Lng - a.Lng)
	h := math.Sin(Δφ/2)*math.Sin(Δφ/2) +
		math.Cos(φ1)*math.Cos(φ2)*math.Sin(Δλ/2)*math.Sin(Δλ/2)
	if h > 1 {
		h = 1
	}
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// Box is a lat/lng rectangle used to prefilter rows on the indexed columns
// before the exact haversine check. When WrapsLng is set the longitude
// range is unbounded (the circle crosses the antimeridian or a pole).
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
	WrapsLng       bool
}

// BoundingBox returns a box enclosing every point within radiusMeters of p.
func BoundingBox(p Point, radiusMeters float64) Box {
	dLat := radiusMeters / metersPerDegree
	b := Box{
		MinLat: math.Max(p.Lat-dLat, -90),
		MaxLat: math.Min(p.Lat+dLat, 90),
	}
	// Longitude degrees shrink with cos(lat); near the poles every longitude qualifies.
	cosLat := math.Cos(p.Lat * math.Pi / 180)
	if b.MinLat <= -90 || b.MaxLat >= 90 || cosLat < 1e-9 {
		b.MinLng, b.MaxLng, b.WrapsLng = -180, 180, true
		return b
	}
	dLng := dLat / cosLat
	b.MinLng, b.MaxLng = p.Lng-dLng, p.Lng+dLng
	if b.MinLng < -180 || b.MaxLng > 180 {
		b.MinLng, b.MaxLng, b.WrapsLng = -180, 180, true
	}
	return b
}

// FormatDistance renders meters for display: "850 m" below a kilometer,
// "1.2 km" above.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

// FuzzMeters converts a meter offset into an approximate degree offset.
// Used to obfuscate exact location for map display.
func FuzzMeters(meters float64) float64 {
	return meters / metersPerDegree
}
