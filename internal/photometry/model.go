// Package photometry implements the canonical photometric intensity model
// (component A/B of the simulation kernel): parsing IES LM-63, EULUMDAT,
// and CIE tabulated luminaire data into a single CanonicalPhotometry
// table, and sampling luminous intensity from it for arbitrary world
// directions.
package photometry

import (
	"sort"

	"luxera/internal/hashutil"
)

// System identifies which polar photometric system a table was measured
// in. Type C is the common case for architectural/area luminaires; A/B
// are used for linear fluorescent/roadway fixtures.
type System string

const (
	SystemC System = "C"
	SystemB System = "B"
	SystemA System = "A"
)

// Symmetry describes how much of the full sphere the measured horizontal
// angle domain covers, inferred from angles_h unless the source format
// declares it explicitly.
type Symmetry string

const (
	SymmetryFull      Symmetry = "FULL"
	SymmetryQuadrant  Symmetry = "QUADRANT"
	SymmetryBilateral Symmetry = "BILATERAL"
	SymmetryNone      Symmetry = "NONE"
	SymmetryUnknown   Symmetry = "UNKNOWN"
)

// TiltMode selects how a lamp-position tilt multiplier is applied during
// sampling.
type TiltMode string

const (
	TiltNone    TiltMode = "NONE"
	TiltInclude TiltMode = "INCLUDE"
	TiltFile    TiltMode = "FILE"
)

// Tilt carries the gamma-dependent multiplier table for TiltInclude/
// TiltFile modes. Angles are vertical (gamma) angles in degrees, in
// ascending order; Factors are the corresponding linear multipliers.
type Tilt struct {
	Mode    TiltMode
	Angles  []float64
	Factors []float64
	// FilePath is set only for TiltFile, and resolved/loaded lazily by
	// the caller at first sample (spec design note: optional tilt data).
	FilePath string
}

// CanonicalPhotometry is the immutable, content-addressed intensity table
// that every parser produces and the sampler consumes.
type CanonicalPhotometry struct {
	System  System
	AnglesH []float64   // strictly increasing, degrees
	AnglesV []float64   // strictly increasing, degrees
	// Intensity is indexed [h][v] in candela, non-negative.
	Intensity [][]float64
	Symmetry  Symmetry
	Tilt      Tilt

	LuminousFluxLm    float64
	CandelaMultiplier float64

	// SourcePath and SourceFormat are metadata only; they do not
	// participate in the content hash.
	SourcePath   string
	SourceFormat string

	// ContentHash is computed lazily via Hash(); cached here once set.
	contentHash string
}

// Hash computes (and memoizes) the SHA-256 content hash of the table's
// normalized form: sorted-key JSON with 12-significant-digit floats, so
// two files differing only in whitespace or angle ordering hash
// identically.
func (c *CanonicalPhotometry) Hash() string {
	if c.contentHash != "" {
		return c.contentHash
	}
	h := hashutil.MustSum256(c.hashable())
	c.contentHash = h
	return h
}

// hashable returns the subset of fields that participate in content
// addressing: the measured data itself, not source file metadata.
func (c *CanonicalPhotometry) hashable() map[string]any {
	return map[string]any{
		"system":             string(c.System),
		"angles_h":           c.AnglesH,
		"angles_v":           c.AnglesV,
		"intensity":          c.Intensity,
		"symmetry":           string(c.Symmetry),
		"tilt_mode":          string(c.Tilt.Mode),
		"tilt_angles":        c.Tilt.Angles,
		"tilt_factors":       c.Tilt.Factors,
		"luminous_flux_lm":   c.LuminousFluxLm,
		"candela_multiplier": c.CandelaMultiplier,
	}
}

// NumH and NumV return the angle axis lengths.
func (c *CanonicalPhotometry) NumH() int { return len(c.AnglesH) }
func (c *CanonicalPhotometry) NumV() int { return len(c.AnglesV) }

// InferSymmetry infers horizontal symmetry from the angles_h domain, per
// the IES convention: a single column is FULL, [0,90] is QUADRANT,
// [0,180] is BILATERAL, [0,360] is NONE, anything else is UNKNOWN.
func InferSymmetry(anglesH []float64) Symmetry {
	if len(anglesH) == 0 {
		return SymmetryUnknown
	}
	if len(anglesH) == 1 {
		return SymmetryFull
	}
	lo, hi := anglesH[0], anglesH[len(anglesH)-1]
	const eps = 1e-6
	switch {
	case lo >= -eps && hi <= 90+eps:
		return SymmetryQuadrant
	case lo >= -eps && hi <= 180+eps:
		return SymmetryBilateral
	case lo >= -eps && hi <= 360+eps:
		return SymmetryNone
	default:
		return SymmetryUnknown
	}
}

// NormalizeAngles sorts angles ascending and deduplicates within epsilon,
// returning the cleaned slice, a permutation mapping output index to the
// nearest original index (for reordering paired data), and whether any
// duplicates were dropped (callers should emit a warning in that case).
func NormalizeAngles(angles []float64, epsilon float64) (cleaned []float64, perm []int, deduped bool) {
	type pair struct {
		v   float64
		idx int
	}
	pairs := make([]pair, len(angles))
	for i, a := range angles {
		pairs[i] = pair{v: a, idx: i}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].v < pairs[j].v })

	for i, p := range pairs {
		if i > 0 && p.v-pairs[i-1].v <= epsilon {
			deduped = true
			continue
		}
		cleaned = append(cleaned, p.v)
		perm = append(perm, p.idx)
	}
	return cleaned, perm, deduped
}
