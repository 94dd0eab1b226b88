package proximity

// Label returns a coarse proximity label based on progress (0-100).
// Progress = (1 - distance/maxRadius) * 100; 100 = on top of the caller, 0 = at max radius.
// Callers filter to distance <= maxRadius first, so 0 is still in range.
func Label(progressPct float64) string {
	switch {
	case progressPct >= 90:
		return "Very Close"
	case progressPct >= 60:
		return "Nearby"
	case progressPct >= 25:
		return "Within Area"
	case progressPct >= 0:
		return "Far (within range)"
	default:
		return ""
	}
}

// Progress computes proximity progress: (1 - distance/maxRadius) * 100.
// If distance >= maxRadius, returns 0.
func Progress(distanceMeters, maxRadiusMeters float64) float64 {
	if maxRadiusMeters <= 0 || distanceMeters >= maxRadiusMeters {
		return 0
	}
	p := (1 - distanceMeters/maxRadiusMeters) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
