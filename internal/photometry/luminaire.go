package photometry

import "luxera/internal/geometry"

// Luminaire is one placed instance of a shared photometric table. The
// table itself is reference-counted and immutable; the transform is
// exclusively owned by this instance.
type Luminaire struct {
	ID              string
	PhotometryRef   *CanonicalPhotometry
	Transform       geometry.Transform
	FluxMultiplier  float64
	TiltDeg         float64
	Tags            []string
}

// IntensityToward returns the candela this luminaire emits toward
// worldPoint, folding in FluxMultiplier. TiltDeg is passed on to
// SampleIntensityCD, which does not use it.
func (l *Luminaire) IntensityToward(worldPoint geometry.Vector3) float64 {
	toPoint := geometry.Sub(worldPoint, l.Transform.Position)
	if geometry.NearZero(toPoint, 1e-12) {
		return 0
	}
	dir := geometry.NewDirection(toPoint)
	cd := SampleIntensityCD(l.PhotometryRef, dir, l.Transform, l.TiltDeg)
	mult := l.FluxMultiplier
	if mult == 0 {
		mult = 1
	}
	return cd * mult
}
