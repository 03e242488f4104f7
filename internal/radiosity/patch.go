// Package radiosity implements the progressive-refinement diffuse
// interreflection solver: patch subdivision, analytic/Monte Carlo form
// factors, reciprocity and energy-conservation enforcement, and the
// shooting-method solve loop.
package radiosity

import (
	"fmt"

	"luxera/internal/geometry"
)

// Surface is one input diffuse surface: a polygon and its material,
// identified for direct-irradiance lookup and patch-ID stability.
type Surface struct {
	ID       string
	Polygon  geometry.Polygon
	Material geometry.Material
}

// Patch is one radiosity element produced by subdividing a Surface to the
// patch_max_area cap.
type Patch struct {
	ID              string
	ParentSurfaceID string
	Polygon         geometry.Polygon
	Material        geometry.Material
	Area            float64
	Normal          geometry.Direction
	Reflectance     float64
	Emission        float64
}

// CreatePatches subdivides each surface until every patch's area is
// <= patchMaxArea (repeated centroid-fan splits), assigning stable IDs
// "{parent_surface_id}__patch_{running_index}" under fixed input order.
func CreatePatches(surfaces []Surface, patchMaxArea float64) []Patch {
	maxArea := patchMaxArea
	if maxArea <= 0 {
		maxArea = 1e-6
	}
	var patches []Patch
	for _, s := range surfaces {
		var polys []geometry.Polygon
		if s.Polygon.Area() > maxArea {
			polys = s.Polygon.Subdivide(maxArea)
		} else {
			polys = []geometry.Polygon{s.Polygon}
		}
		for _, poly := range polys {
			patches = append(patches, Patch{
				ID:              fmt.Sprintf("%s__patch_%d", s.ID, len(patches)),
				ParentSurfaceID: s.ID,
				Polygon:         poly,
				Material:        s.Material,
				Area:            poly.Area(),
				Normal:          poly.Normal(),
				Reflectance:     clamp01(s.Material.ScalarReflectance()),
			})
		}
	}
	return patches
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// AggregateToSurfaces area-weights patch irradiance back to each parent
// surface's mean.
func AggregateToSurfaces(patches []Patch, irradiance []float64) map[string]float64 {
	sumWeighted := make(map[string]float64)
	sumArea := make(map[string]float64)
	for i, p := range patches {
		sumWeighted[p.ParentSurfaceID] += irradiance[i] * p.Area
		sumArea[p.ParentSurfaceID] += p.Area
	}
	out := make(map[string]float64, len(sumArea))
	for id, area := range sumArea {
		if area <= 0 {
			out[id] = 0
			continue
		}
		out[id] = sumWeighted[id] / area
	}
	return out
}
