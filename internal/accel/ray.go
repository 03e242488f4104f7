// Package accel implements the two-level bounding volume hierarchy
// (BLAS per mesh, TLAS over instances) used for occlusion and
// closest-hit ray queries against static and lightly-transformed scenes.
package accel

import (
	"luxera/internal/geometry"
)

// Ray is a world-space ray: origin plus a unit direction.
type Ray struct {
	Origin geometry.Vector3
	Dir    geometry.Direction
}

// Hit is the result of a closest_hit query.
type Hit struct {
	T       float64
	Tri     geometry.Triangle
	TriIdx  int
}

const intersectEpsilon = 1e-7

// intersectTriangle implements Möller-Trumbore ray/triangle intersection.
// Two-sided triangles accept any non-zero determinant; single-sided
// triangles cull back-faces (negative determinant).
func intersectTriangle(r Ray, tri geometry.Triangle, tMin, tMax float64) (t float64, ok bool) {
	dir := r.Dir.Vec()
	edge1 := geometry.Sub(tri.B, tri.A)
	edge2 := geometry.Sub(tri.C, tri.A)
	h := geometry.Cross(dir, edge2)
	det := geometry.Dot(edge1, h)

	if tri.TwoSided {
		if det > -intersectEpsilon && det < intersectEpsilon {
			return 0, false
		}
	} else {
		if det < intersectEpsilon {
			return 0, false
		}
	}

	invDet := 1 / det
	s := geometry.Sub(r.Origin, tri.A)
	u := invDet * geometry.Dot(s, h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := geometry.Cross(s, edge1)
	v := invDet * geometry.Dot(dir, q)
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = invDet * geometry.Dot(edge2, q)
	if t < tMin || t > tMax {
		return 0, false
	}
	return t, true
}

// intersectAABB is the slab method with an early exit. Axes where the ray
// direction has |component| < 1e-12 are treated as "must contain" on that
// axis (a near-parallel ray can't straddle the slab via division).
func intersectAABB(r Ray, box geometry.AABB, tMin, tMax float64) bool {
	dir := r.Dir.Vec()
	o := r.Origin

	test := func(oAxis, dAxis, lo, hi float64) bool {
		if dAxis < -1e-12 || dAxis > 1e-12 {
			invD := 1 / dAxis
			t0 := (lo - oAxis) * invD
			t1 := (hi - oAxis) * invD
			if t0 > t1 {
				t0, t1 = t1, t0
			}
			if t0 > tMin {
				tMin = t0
			}
			if t1 < tMax {
				tMax = t1
			}
			return tMin <= tMax
		}
		return oAxis >= lo && oAxis <= hi
	}

	if !test(o.X, dir.X, box.Min.X, box.Max.X) {
		return false
	}
	if !test(o.Y, dir.Y, box.Min.Y, box.Max.Y) {
		return false
	}
	if !test(o.Z, dir.Z, box.Min.Z, box.Max.Z) {
		return false
	}
	return true
}
