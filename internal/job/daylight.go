package job

import (
	"fmt"
	"math"

	"luxera/internal/direct"
	"luxera/internal/geometry"
	"luxera/internal/photometry"
)

// skyHemisphereRadiusM is how far the virtual sky luminaires are placed
// from the scene: far enough that their point-source inverse-square
// falloff, integrated over the sample grid, approximates a continuous
// sky dome across a typical room- or street-scale target.
const skyHemisphereRadiusM = 50.0

// skyHemisphereAltitudesDeg and skyHemisphereAzimuthCount fix the
// lat/long sampling grid used to discretize the sky dome into virtual
// point luminaires.
var skyHemisphereAltitudesDeg = []float64{15, 45, 75}

const skyHemisphereAzimuthCount = 8

// isotropicUnitTable is shared by every virtual sky luminaire: a
// constant 1 cd table, scaled per-instance via FluxMultiplier.
func isotropicUnitTable() *photometry.CanonicalPhotometry {
	return &photometry.CanonicalPhotometry{
		System:            photometry.SystemC,
		AnglesH:           []float64{0},
		AnglesV:           []float64{0, 90, 180},
		Intensity:         [][]float64{{1, 1, 1}},
		Symmetry:          photometry.SymmetryFull,
		Tilt:              photometry.Tilt{Mode: photometry.TiltNone},
		CandelaMultiplier: 1,
	}
}

// cieOvercastLuminance is the CIE Standard Overcast Sky formula:
// L(gamma) = Lz * (1 + 2*sin(gamma)) / 3, brightest at the zenith.
func cieOvercastLuminance(altitudeDeg, zenithLuminance float64) float64 {
	gamma := altitudeDeg * math.Pi / 180
	return zenithLuminance * (1 + 2*math.Sin(gamma)) / 3
}

// skyHemisphereLuminaires discretizes a CIE overcast sky dome centered above
// center into a set of isotropic point luminaires: component E's input,
// not a new kernel. Each sample's candela is chosen so that, viewed from
// skyHemisphereRadiusM away, a point source reproduces the illuminance a
// real sky patch of luminance L and solid angle dOmega would contribute
// (E = L*dOmega at normal incidence => I = E*r^2 = L*dOmega*r^2).
// skyCondition only discounts the diffuse contribution for "clear" skies,
// where direct sun (not modeled here) dominates and the diffuse sky
// component is comparatively dim; anything else is treated as overcast.
func skyHemisphereLuminaires(center geometry.Vector3, skyDiffuseLux float64, skyCondition string) []*photometry.Luminaire {
	conditionFactor := 1.0
	if skyCondition == "clear" {
		conditionFactor = 0.6
	}

	dAlt := 30.0 * math.Pi / 180
	dAz := 2 * math.Pi / float64(skyHemisphereAzimuthCount)
	table := isotropicUnitTable()

	points := make([]geometry.Vector3, 0, len(skyHemisphereAltitudesDeg)*skyHemisphereAzimuthCount)
	candelas := make([]float64, 0, cap(points))
	for _, altDeg := range skyHemisphereAltitudesDeg {
		gamma := altDeg * math.Pi / 180
		luminance := conditionFactor * cieOvercastLuminance(altDeg, skyDiffuseLux)
		solidAngle := math.Cos(gamma) * dAlt * dAz
		candela := luminance * solidAngle * skyHemisphereRadiusM * skyHemisphereRadiusM
		for a := 0; a < skyHemisphereAzimuthCount; a++ {
			az := float64(a) * dAz
			offset := geometry.Vector3{
				X: skyHemisphereRadiusM * math.Cos(gamma) * math.Cos(az),
				Y: skyHemisphereRadiusM * math.Cos(gamma) * math.Sin(az),
				Z: skyHemisphereRadiusM * math.Sin(gamma),
			}
			points = append(points, geometry.Add(center, offset))
			candelas = append(candelas, candela)
		}
	}

	dome := direct.PointSet{Points: points, Normal: geometry.NewDirection(geometry.Vector3{Z: -1})}
	domePoints, _ := dome.Evaluate()

	luminaires := make([]*photometry.Luminaire, len(domePoints))
	for i, p := range domePoints {
		luminaires[i] = &photometry.Luminaire{
			ID:             fmt.Sprintf("sky-%03d", i),
			PhotometryRef:  table,
			Transform:      geometry.Transform{Position: p, Rotation: geometry.Identity3, Scale: 1},
			FluxMultiplier: candelas[i],
		}
	}
	return luminaires
}

// centroidOf averages a point set, used to anchor the sky dome above the
// job's evaluation target. Returns the origin for an empty target.
func centroidOf(points []geometry.Vector3) geometry.Vector3 {
	if len(points) == 0 {
		return geometry.Vector3{}
	}
	var sum geometry.Vector3
	for _, p := range points {
		sum = geometry.Add(sum, p)
	}
	return geometry.Scale(1/float64(len(points)), sum)
}
