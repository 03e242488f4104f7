package radiosity

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"luxera/internal/accel"
	"luxera/internal/geometry"
)

// FormFactorMethod selects the construction strategy.
type FormFactorMethod string

const (
	MethodAnalytic    FormFactorMethod = "analytic"
	MethodMonteCarlo  FormFactorMethod = "monte_carlo"
)

// FormFactorConfig configures BuildFormFactorMatrix.
type FormFactorConfig struct {
	Method             FormFactorMethod
	UseVisibility      bool
	MonteCarloSamples  int
	Seed               uint64
}

// visibilityEps is the ray-origin offset used by Monte Carlo sampling to
// avoid immediate self-intersection with the source patch.
const visibilityEps = 1e-6

// BuildFormFactorMatrix constructs the n x n diffuse form-factor matrix
// over patches, then enforces reciprocity (F_ij*A_i = F_ji*A_j) and a
// per-row energy clamp. With method=analytic (or visibility disabled) it
// uses the closed-form centroid-to-centroid approximation with no
// visibility term; with method=monte_carlo it shoots cosine-weighted
// hemisphere rays per source patch against a BVH built over all patches.
func BuildFormFactorMatrix(patches []Patch, config FormFactorConfig) *mat.Dense {
	n := len(patches)
	f := mat.NewDense(n, n, nil)
	if n == 0 {
		return f
	}

	areas := make([]float64, n)
	centroids := make([]geometry.Vector3, n)
	normals := make([]geometry.Direction, n)
	for i, p := range patches {
		areas[i] = math.Max(p.Area, 1e-12)
		centroids[i] = p.Polygon.Centroid()
		normals[i] = p.Normal
	}

	if config.Method == MethodAnalytic || !config.UseVisibility {
		buildAnalytic(f, centroids, normals, areas)
	} else {
		buildMonteCarlo(f, patches, centroids, normals, areas, config)
	}

	enforceReciprocity(f, areas)
	clampAndNormalize(f)
	return f
}

func buildAnalytic(f *mat.Dense, centroids []geometry.Vector3, normals []geometry.Direction, areas []float64) {
	n := len(centroids)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			delta := geometry.Sub(centroids[j], centroids[i])
			dist2 := math.Max(geometry.Dot(delta, delta), 1e-12)
			dist := math.Sqrt(dist2)
			dirIJ := geometry.Scale(1/dist, delta)
			cosI := geometry.Dot(normals[i].Vec(), dirIJ)
			cosJ := geometry.Dot(normals[j].Vec(), geometry.Scale(-1, dirIJ))
			if cosI < 0 {
				cosI = 0
			}
			if cosJ < 0 {
				cosJ = 0
			}
			f.Set(i, j, (cosI*cosJ*areas[j])/(math.Pi*dist2))
		}
	}
}

func buildMonteCarlo(f *mat.Dense, patches []Patch, centroids []geometry.Vector3, normals []geometry.Direction, areas []float64, config FormFactorConfig) {
	n := len(patches)
	samples := config.MonteCarloSamples
	if samples < 1 {
		samples = 1
	}

	var tris []geometry.Triangle
	triToPatch := make(map[int]int)
	for i, p := range patches {
		for _, t := range p.Polygon.Triangulate(geometry.Payload{SourceSurface: p.ID}, false) {
			triToPatch[len(tris)] = i
			tris = append(tris, t)
		}
	}
	bvh := accel.Build(tris, accel.MaxLeafSize)

	for i := 0; i < n; i++ {
		ni := normals[i]
		ci := centroids[i]
		// RNG discipline: counter-derived substream per parallel unit
		// (here, per source patch i), seeded (seed, unit_id).
		src := rand.NewPCG(config.Seed, uint64(i))
		rng := rand.New(src)

		origin := geometry.Along(ci, ni, visibilityEps)
		accum := make([]float64, n)
		for s := 0; s < samples; s++ {
			dirWorld := sampleCosineHemisphere(rng, ni)
			cosI := geometry.Dot(dirWorld.Vec(), ni.Vec())
			if cosI <= 0 {
				continue
			}
			ray := accel.Ray{Origin: origin, Dir: dirWorld}
			hit, ok := bvh.ClosestHit(ray, visibilityEps, math.Inf(1))
			if !ok {
				continue
			}
			j, known := triToPatch[hit.TriIdx]
			if !known || j == i {
				continue
			}
			rVec := geometry.Sub(centroids[j], ci)
			r2 := geometry.Dot(rVec, rVec)
			if r2 <= 1e-12 {
				continue
			}
			cosJ := geometry.Dot(geometry.Scale(-1, dirWorld.Vec()), normals[j].Vec())
			if cosJ <= 0 {
				continue
			}
			accum[j] += (cosI * cosJ) / (math.Pi * r2)
		}
		for j := 0; j < n; j++ {
			f.Set(i, j, accum[j]/float64(samples))
		}
	}
}

// sampleCosineHemisphere draws one cosine-weighted direction in the
// hemisphere about normal n, using Malley's method, then rotates it from
// the local +Z frame into world space around n.
func sampleCosineHemisphere(rng *rand.Rand, n geometry.Direction) geometry.Direction {
	u1 := rng.Float64()
	u2 := rng.Float64()
	r := math.Sqrt(u1)
	phi := 2 * math.Pi * u2
	x := r * math.Cos(phi)
	y := r * math.Sin(phi)
	z := math.Sqrt(math.Max(0, 1-u1))

	helper := geometry.Vector3{Z: 1}
	if math.Abs(geometry.Dot(n.Vec(), helper)) > 0.99 {
		helper = geometry.Vector3{Y: 1}
	}
	t := geometry.NewDirection(geometry.Cross(helper, n.Vec()))
	b := geometry.NewDirection(geometry.Cross(n.Vec(), t.Vec()))

	world := geometry.Add(geometry.Add(geometry.Scale(x, t.Vec()), geometry.Scale(y, b.Vec())), geometry.Scale(z, n.Vec()))
	return geometry.NewDirection(world)
}

// enforceReciprocity symmetrizes F so that F_ij*A_i == F_ji*A_j exactly,
// Phi = 0.5*(F_ij*A_i + F_ji*A_j); F_ij = Phi/A_i.
func enforceReciprocity(f *mat.Dense, areas []float64) {
	n := len(areas)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			phi := 0.5 * (f.At(i, j)*areas[i] + f.At(j, i)*areas[j])
			f.Set(i, j, phi/areas[i])
			f.Set(j, i, phi/areas[j])
		}
		f.Set(i, i, 0)
	}
}

// clampAndNormalize clamps every entry to [0,1] and normalizes any row
// whose sum exceeds 1 (an energy violation from sampling noise).
func clampAndNormalize(f *mat.Dense) {
	n, _ := f.Dims()
	for i := 0; i < n; i++ {
		sum := 0.0
		for j := 0; j < n; j++ {
			v := f.At(i, j)
			if v < 0 {
				v = 0
			}
			if v > 1 {
				v = 1
			}
			f.Set(i, j, v)
			sum += v
		}
		if sum > 1 {
			for j := 0; j < n; j++ {
				f.Set(i, j, f.At(i, j)/sum)
			}
		}
	}
}
