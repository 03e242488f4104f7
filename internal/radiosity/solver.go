package radiosity

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// SolverStatus reports how SolveRadiosity's shooting loop terminated.
type SolverStatus struct {
	Converged  bool
	Iterations int
	Residual   float64
	Warnings   []string
}

// EnergyAccounting summarizes the final radiosity state in energy terms,
// area-weighted over all patches.
type EnergyAccounting struct {
	TotalEmitted   float64
	TotalAbsorbed  float64
	TotalReflected float64
	TotalExitance  float64
}

// RadiosityConfig controls patch subdivision, form-factor construction,
// and the shooting loop's convergence behavior.
type RadiosityConfig struct {
	MaxIters          int
	Tol               float64
	Damping           float64
	PatchMaxArea      float64
	UseVisibility     bool
	FormFactorMethod  string // "analytic" or "monte_carlo"
	MonteCarloSamples int
	Seed              uint64
}

// RadiositySolveResult is the full solve output: the patch list (in the
// order consumed/produced by the solve), the form-factor matrix, solver
// status, energy accounting, and the final per-patch radiosity/irradiance
// vectors (same order as Patches).
type RadiositySolveResult struct {
	Patches     []Patch
	FormFactors *mat.Dense
	Status      SolverStatus
	Energy      EnergyAccounting
	Radiosity   []float64
	Irradiance  []float64
}

// SolveRadiosity runs the progressive-refinement (shooting method) diffuse
// interreflection solve over surfaces, using directIncidentE (keyed by
// surface ID) as each surface's precomputed direct irradiance.
//
// The diffuse energy balance is B_i = E_i + rho_i * sum_j(F_ij * B_j).
// The supplied direct_illuminance is treated as precomputed
// direct incident irradiance per parent surface; emitted radiosity is
// initialized as the reflected-direct component rho_i * E_direct_i (a
// workflow-specific bootstrap, not a full luminaire-emitter setup).
func SolveRadiosity(surfaces []Surface, directIncidentE map[string]float64, config RadiosityConfig) RadiositySolveResult {
	if len(surfaces) == 0 {
		return RadiositySolveResult{
			Patches:     nil,
			FormFactors: mat.NewDense(0, 0, nil),
			Status:      SolverStatus{Converged: true},
			Energy:      EnergyAccounting{},
			Radiosity:   nil,
			Irradiance:  nil,
		}
	}

	var warnings []string
	patches := CreatePatches(surfaces, config.PatchMaxArea)
	n := len(patches)

	method := MethodMonteCarlo
	if strings.HasPrefix(strings.ToLower(config.FormFactorMethod), "an") {
		method = MethodAnalytic
	}
	ffConfig := FormFactorConfig{
		Method:            method,
		UseVisibility:     config.UseVisibility,
		MonteCarloSamples: config.MonteCarloSamples,
		Seed:              config.Seed,
	}
	f := BuildFormFactorMatrix(patches, ffConfig)

	areas := make([]float64, n)
	reflectance := make([]float64, n)
	emission := make([]float64, n)
	for i, p := range patches {
		areas[i] = math.Max(p.Area, 1e-12)
		reflectance[i] = clamp01(p.Reflectance)
	}
	if directIncidentE != nil {
		for i, p := range patches {
			e := directIncidentE[p.ParentSurfaceID]
			emission[i] = e * reflectance[i]
		}
	}

	b := append([]float64(nil), emission...)
	unshot := append([]float64(nil), emission...)

	alpha := clamp01(config.Damping)
	if alpha <= 0 {
		warnings = append(warnings, "damping<=0 forces static solution; set damping in (0,1].")
		alpha = 1
	}

	totalEmitted := 0.0
	for i := range emission {
		totalEmitted += emission[i] * areas[i]
	}

	residual := 0.0
	if totalEmitted > 1e-12 {
		residual = 1.0
	}
	converged := false

	maxIters := config.MaxIters
	if maxIters < 1 {
		maxIters = 1
	}
	tol := math.Max(config.Tol, 1e-12)

	iterationsRun := 0
	for it := 0; it < maxIters; it++ {
		iterationsRun = it + 1

		unshotFlux := make([]float64, n)
		sourceIdx := 0
		sourceFlux := math.Inf(-1)
		sumUnshotFlux := 0.0
		for i := range unshot {
			unshotFlux[i] = unshot[i] * areas[i]
			sumUnshotFlux += unshotFlux[i]
			if unshotFlux[i] > sourceFlux {
				sourceFlux, sourceIdx = unshotFlux[i], i
			}
		}

		if sourceFlux <= 1e-15 {
			residual = 0
			converged = true
			break
		}

		if totalEmitted > 1e-12 {
			residual = sumUnshotFlux / totalEmitted
		} else {
			residual = 0
			converged = true
			break
		}

		if residual <= tol {
			converged = true
			break
		}

		shot := alpha * unshot[sourceIdx]
		unshot[sourceIdx] -= shot

		nonFinite := false
		for i := 0; i < n; i++ {
			deltaIrradiance := f.At(i, sourceIdx) * shot
			deltaRadiosity := reflectance[i] * deltaIrradiance
			b[i] += deltaRadiosity
			unshot[i] += deltaRadiosity
			if math.IsNaN(b[i]) || math.IsInf(b[i], 0) || math.IsNaN(unshot[i]) || math.IsInf(unshot[i], 0) {
				nonFinite = true
			}
		}
		if nonFinite {
			warnings = append(warnings, "non-finite radiosity detected; clamped and stopped.")
			for i := range b {
				b[i] = clampFinite(b[i])
				unshot[i] = clampFinite(unshot[i])
			}
			residual = math.Inf(1)
			break
		}
	}
	if !converged && iterationsRun >= maxIters {
		warnings = append(warnings, "max iterations reached before convergence.")
	}

	// Ambient catch-up: distribute residual unshot flux as uniform
	// irradiance across all patches, a coarse stand-in for a geometry-aware
	// redistribution weighted by receiving-patch area and orientation.
	remainingUnshotFlux := 0.0
	totalArea := 0.0
	for i := range unshot {
		remainingUnshotFlux += unshot[i] * areas[i]
		totalArea += areas[i]
	}
	if remainingUnshotFlux > 0 && totalArea > 1e-12 {
		ambientIrradiance := remainingUnshotFlux / totalArea
		for i := range b {
			b[i] += reflectance[i] * ambientIrradiance
			unshot[i] = 0
		}
		if totalEmitted > 1e-12 {
			residual = math.Max(0, residual)
		} else {
			residual = 0
		}
	}

	irradiance := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := 0.0
		for j := 0; j < n; j++ {
			sum += f.At(i, j) * b[j]
		}
		irradiance[i] = sum
	}

	energy := computeEnergy(b, irradiance, areas, reflectance, emission)
	denom := math.Max(energy.TotalEmitted, 1e-9)
	balanceError := math.Abs(energy.TotalEmitted-(energy.TotalAbsorbed+energy.TotalReflected)) / denom
	if balanceError > 0.05 {
		warnings = append(warnings, "energy conservation error exceeds 5%.")
	}

	status := SolverStatus{
		Converged:  converged,
		Iterations: iterationsRun,
		Residual:   residual,
		Warnings:   warnings,
	}
	return RadiositySolveResult{
		Patches:     patches,
		FormFactors: f,
		Status:      status,
		Energy:      energy,
		Radiosity:   b,
		Irradiance:  irradiance,
	}
}

func computeEnergy(radiosity, irradiance, areas, reflectance, emission []float64) EnergyAccounting {
	var emitted, absorbed, reflected, exitance float64
	for i := range radiosity {
		emitted += emission[i] * areas[i]
		absorbed += (1 - reflectance[i]) * irradiance[i] * areas[i]
		reflected += reflectance[i] * irradiance[i] * areas[i]
		exitance += radiosity[i] * areas[i]
	}
	return EnergyAccounting{
		TotalEmitted:   emitted,
		TotalAbsorbed:  absorbed,
		TotalReflected: reflected,
		TotalExitance:  exitance,
	}
}

func clampFinite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
