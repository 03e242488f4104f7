// Package direct implements the direct illuminance engine: point-by-point
// integration of E = I(w)*cos(a)/d^2 over all luminaires, with optional
// BVH occlusion culling.
package direct

import (
	"context"

	"luxera/internal/accel"
	"luxera/internal/errs"
	"luxera/internal/geometry"
	"luxera/internal/photometry"
)

// Settings controls optional occlusion and the epsilon policy.
type Settings struct {
	UseOcclusion bool
	// UserEpsilon raises the occlusion ray epsilon above its 1e-9 floor
	// (the effective value is max(UserEpsilon, 1e-9)) before scaling by
	// SceneScale.
	UserEpsilon float64
	SceneScale  float64
}

// Result is the target-agnostic output of a direct illuminance run.
type Result struct {
	Points      []geometry.Vector3
	Normals     []geometry.Direction
	ValuesLux   []float64
}

// occlusionEpsilon returns the effective ray epsilon:
// max(user_eps, 1e-9) * scene_scale.
func (s Settings) occlusionEpsilon() float64 {
	eps := s.UserEpsilon
	if eps < 1e-9 {
		eps = 1e-9
	}
	scale := s.SceneScale
	if scale <= 0 {
		scale = 1
	}
	return eps * scale
}

// Run evaluates illuminance at every (point, normal) pair in points/
// normals against every luminaire, querying occluder for visibility when
// settings.UseOcclusion is set. The outer loop is caller-parallelizable
// (see RunParallel); this sequential form is the reference used to
// validate parallel results against.
func Run(ctx context.Context, points []geometry.Vector3, normals []geometry.Direction, luminaires []*photometry.Luminaire, occluder *accel.TLAS, settings Settings, rec *errs.Recovery) (Result, error) {
	res := Result{
		Points:    points,
		Normals:   normals,
		ValuesLux: make([]float64, len(points)),
	}
	eps := settings.occlusionEpsilon()

	for i := range points {
		if ctx.Err() != nil {
			return Result{}, errs.ErrCancelled
		}
		res.ValuesLux[i] = evaluatePoint(points[i], normals[i], luminaires, occluder, settings.UseOcclusion, eps, rec)
	}
	return res, nil
}

// evaluatePoint sums the contribution of every luminaire at p in
// registration order (sequential, not concurrent) to preserve
// bit-reproducible summation order.
func evaluatePoint(p geometry.Vector3, n geometry.Direction, luminaires []*photometry.Luminaire, occluder *accel.TLAS, useOcclusion bool, eps float64, rec *errs.Recovery) float64 {
	var total float64
	for _, l := range luminaires {
		total += contribution(p, n, l, occluder, useOcclusion, eps, rec)
	}
	if total < 0 {
		rec.Warn("direct illuminance clamped to 0 at a point with negative accumulated contribution")
		return 0
	}
	return total
}

// contribution computes one luminaire's contribution to p, applying the
// near-singular, back-face, behind-luminaire, and occlusion exclusions.
func contribution(p geometry.Vector3, n geometry.Direction, l *photometry.Luminaire, occluder *accel.TLAS, useOcclusion bool, eps float64, rec *errs.Recovery) float64 {
	toPoint := geometry.Sub(p, l.Transform.Position)
	d := geometry.Norm(toPoint)
	if d < 1e-3 {
		return 0 // near-singular: within 1mm of the luminaire
	}
	omega := geometry.NewDirection(toPoint)

	cosAlpha := -geometry.Dot(omega.Vec(), n.Vec())
	if cosAlpha <= 0 {
		return 0 // back-face
	}

	localDir := l.Transform.ToLocalDirection(omega)
	if localDir.Vec().Z >= 0 {
		return 0 // point behind the luminaire in its local frame
	}

	if useOcclusion && occluder != nil {
		if isOccluded(l.Transform.Position, omega, d, occluder, eps) {
			return 0
		}
	}

	intensity := photometry.SampleIntensityCD(l.PhotometryRef, omega, l.Transform, l.TiltDeg)
	mult := l.FluxMultiplier
	if mult == 0 {
		mult = 1
	}
	intensity *= mult

	e := intensity * cosAlpha / (d * d)
	if e < 0 {
		rec.Warn("negative per-luminaire contribution clamped to 0")
		return 0
	}
	return e
}

// isOccluded casts a ray from the luminaire toward the point, offset by
// eps at both ends so that a point or luminaire lying exactly on a
// blocker plane is never misclassified as occluded (the endpoint
// exclusion contract).
func isOccluded(luminairePos geometry.Vector3, omega geometry.Direction, d float64, occluder *accel.TLAS, eps float64) bool {
	ray := accel.Ray{Origin: luminairePos, Dir: omega}
	tMin := eps
	tMax := d - eps
	if tMax <= tMin {
		return false
	}
	return occluder.AnyHit(ray, tMin, tMax)
}
