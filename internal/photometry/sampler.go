package photometry

import (
	"math"

	"luxera/internal/geometry"
)

// SampleIntensityCD evaluates I(direction) in candela for a world-space
// direction, given the luminaire's pose. tiltDeg is not used: a TILT
// table's factor is looked up at gamma alone. worldDir points FROM the luminaire
// TOWARD the target; it is rotated into the luminaire-local frame before
// evaluation.
func SampleIntensityCD(p *CanonicalPhotometry, worldDir geometry.Direction, luminaireTransform geometry.Transform, tiltDeg float64) float64 {
	local := luminaireTransform.ToLocalDirection(worldDir)
	gamma, c := toPhotometricAngles(p.System, local)
	c = foldSymmetry(p.Symmetry, c)

	intensity := interpolate(p, c, gamma)

	if p.Tilt.Mode == TiltInclude || p.Tilt.Mode == TiltFile {
		intensity *= tiltFactor(p.Tilt, gamma)
	}
	return intensity
}

// toPhotometricAngles converts a local-frame unit direction into (gamma,
// C) for the given photometric system. Type C: gamma = acos(-d_z) (nadir
// = -Z), C = atan2(d_y, d_x) mod 360. Type A/B treat the polar axis as
// local +X (A) or +Y (B).
func toPhotometricAngles(system System, d geometry.Direction) (gamma, c float64) {
	v := d.Vec()
	switch system {
	case SystemA:
		gamma = math.Acos(clamp(v.X, -1, 1)) * 180 / math.Pi
		c = math.Mod(math.Atan2(v.Z, v.Y)*180/math.Pi+360, 360)
	case SystemB:
		gamma = math.Acos(clamp(v.Y, -1, 1)) * 180 / math.Pi
		c = math.Mod(math.Atan2(v.X, v.Z)*180/math.Pi+360, 360)
	default: // SystemC
		gamma = math.Acos(clamp(-v.Z, -1, 1)) * 180 / math.Pi
		c = math.Mod(math.Atan2(v.Y, v.X)*180/math.Pi+360, 360)
	}
	return gamma, c
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// foldSymmetry maps a raw azimuth C into the reduced domain the table
// actually stores data over.
func foldSymmetry(sym Symmetry, c float64) float64 {
	switch sym {
	case SymmetryFull:
		return 0
	case SymmetryQuadrant:
		c = math.Mod(c, 360)
		if c < 0 {
			c += 360
		}
		// Reflect into [0,90]: fold about 90 and 180 boundaries.
		c = math.Mod(c, 180)
		if c > 90 {
			c = 180 - c
		}
		return c
	case SymmetryBilateral:
		c = math.Mod(c, 360)
		if c < 0 {
			c += 360
		}
		if c > 180 {
			c = 360 - c
		}
		return c
	default: // NONE, UNKNOWN
		c = math.Mod(c, 360)
		if c < 0 {
			c += 360
		}
		return c
	}
}

// interpolate bilinearly samples the intensity table at (c, gamma).
// Vertical axis always clamps to domain endpoints; horizontal axis uses
// cyclic bracketing with period 360 when the measured domain is partial
// (c_last < 360), since the seam segment [c_last, c0+360] must interpolate
// between the last and first columns for azimuthal continuity.
func interpolate(p *CanonicalPhotometry, c, gamma float64) float64 {
	if len(p.AnglesH) == 0 || len(p.AnglesV) == 0 {
		return 0
	}
	h0, h1, tH := bracketH(p.AnglesH, c)
	v0, v1, tV := bracketV(p.AnglesV, gamma)

	i00 := p.Intensity[h0][v0]
	i01 := p.Intensity[h0][v1]
	i10 := p.Intensity[h1][v0]
	i11 := p.Intensity[h1][v1]

	i0 := i00 + tV*(i01-i00)
	i1 := i10 + tV*(i11-i10)
	return i0 + tH*(i1-i0)
}

// bracketV clamps gamma to [angles[0], angles[last]] and returns the
// bracketing indices and interpolation fraction.
func bracketV(angles []float64, gamma float64) (lo, hi int, t float64) {
	n := len(angles)
	if n == 1 {
		return 0, 0, 0
	}
	if gamma <= angles[0] {
		return 0, 1, 0
	}
	if gamma >= angles[n-1] {
		return n - 2, n - 1, 1
	}
	for i := 0; i < n-1; i++ {
		if gamma >= angles[i] && gamma <= angles[i+1] {
			span := angles[i+1] - angles[i]
			if span <= 0 {
				return i, i + 1, 0
			}
			return i, i + 1, (gamma - angles[i]) / span
		}
	}
	return n - 2, n - 1, 1
}

// bracketH brackets c on the horizontal axis. When the table spans the
// full circle ([0,360) effectively, or its last angle is at/after 360),
// plain clamped bracketing applies. Otherwise the seam between the last
// measured angle and angles[0]+360 is treated as a cyclic bracket.
func bracketH(angles []float64, c float64) (lo, hi int, t float64) {
	n := len(angles)
	if n == 1 {
		return 0, 0, 0
	}
	first, last := angles[0], angles[n-1]
	cyclic := last < 360-1e-9

	if c >= first && c <= last {
		for i := 0; i < n-1; i++ {
			if c >= angles[i] && c <= angles[i+1] {
				span := angles[i+1] - angles[i]
				if span <= 0 {
					return i, i + 1, 0
				}
				return i, i + 1, (c - angles[i]) / span
			}
		}
		return n - 2, n - 1, 1
	}

	if cyclic {
		// c lies in the seam segment [last, first+360) (mod 360).
		span := (first + 360) - last
		var cc float64
		if c < first {
			cc = c + 360
		} else {
			cc = c
		}
		if span <= 0 {
			return n - 1, 0, 0
		}
		t = (cc - last) / span
		return n - 1, 0, t
	}

	// Non-cyclic domain: clamp to endpoints.
	if c < first {
		return 0, 1, 0
	}
	return n - 2, n - 1, 1
}

// tiltFactor linearly interpolates the tilt multiplier table at gamma,
// clamping to the table's endpoints and emitting no warning here (the
// caller's Recovery is responsible for flagging out-of-range access).
func tiltFactor(t Tilt, gamma float64) float64 {
	if len(t.Angles) == 0 {
		return 1
	}
	n := len(t.Angles)
	if gamma <= t.Angles[0] {
		return t.Factors[0]
	}
	if gamma >= t.Angles[n-1] {
		return t.Factors[n-1]
	}
	for i := 0; i < n-1; i++ {
		if gamma >= t.Angles[i] && gamma <= t.Angles[i+1] {
			span := t.Angles[i+1] - t.Angles[i]
			if span <= 0 {
				return t.Factors[i]
			}
			frac := (gamma - t.Angles[i]) / span
			return t.Factors[i] + frac*(t.Factors[i+1]-t.Factors[i])
		}
	}
	return t.Factors[n-1]
}
