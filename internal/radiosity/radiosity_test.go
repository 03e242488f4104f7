package radiosity

import (
	"math"
	"testing"

	"luxera/internal/geometry"
)

func squareSurface(id string, z, reflectance float64) Surface {
	return Surface{
		ID: id,
		Polygon: geometry.Polygon{Vertices: []geometry.Vector3{
			{X: 0, Y: 0, Z: z},
			{X: 1, Y: 0, Z: z},
			{X: 1, Y: 1, Z: z},
			{X: 0, Y: 1, Z: z},
		}},
		Material: geometry.Material{Reflectance: [3]float64{reflectance, reflectance, reflectance}},
	}
}

func TestCreatePatchesStableIDsAndArea(t *testing.T) {
	surfaces := []Surface{squareSurface("floor", 0, 0.5)}
	patches := CreatePatches(surfaces, 10) // cap above the surface's own area: no subdivision
	if len(patches) != 1 {
		t.Fatalf("expected 1 patch with a generous area cap, got %d", len(patches))
	}
	if patches[0].ID != "floor__patch_0" {
		t.Fatalf("unexpected patch ID: %q", patches[0].ID)
	}
	if math.Abs(patches[0].Area-1) > 1e-9 {
		t.Fatalf("expected patch area 1, got %v", patches[0].Area)
	}
	if math.Abs(patches[0].Reflectance-0.5) > 1e-9 {
		t.Fatalf("expected reflectance 0.5, got %v", patches[0].Reflectance)
	}
}

func TestCreatePatchesSubdividesOversizedSurface(t *testing.T) {
	surfaces := []Surface{squareSurface("wall", 0, 0.3)}
	patches := CreatePatches(surfaces, 0.2)
	if len(patches) <= 1 {
		t.Fatalf("expected subdivision to produce multiple patches, got %d", len(patches))
	}
	var total float64
	for _, p := range patches {
		if p.Area > 0.2+1e-9 {
			t.Fatalf("patch area %v exceeds cap", p.Area)
		}
		total += p.Area
	}
	if math.Abs(total-1) > 1e-6 {
		t.Fatalf("expected subdivided total area to equal original surface area 1, got %v", total)
	}
}

func TestAggregateToSurfacesAreaWeighted(t *testing.T) {
	patches := []Patch{
		{ParentSurfaceID: "s1", Area: 1},
		{ParentSurfaceID: "s1", Area: 3},
		{ParentSurfaceID: "s2", Area: 2},
	}
	irr := []float64{10, 20, 5}
	agg := AggregateToSurfaces(patches, irr)
	// s1: (10*1 + 20*3)/4 = 17.5
	if math.Abs(agg["s1"]-17.5) > 1e-9 {
		t.Fatalf("s1 aggregate = %v, want 17.5", agg["s1"])
	}
	if math.Abs(agg["s2"]-5) > 1e-9 {
		t.Fatalf("s2 aggregate = %v, want 5", agg["s2"])
	}
}

func TestSolveRadiosityEmptyInput(t *testing.T) {
	res := SolveRadiosity(nil, nil, RadiosityConfig{})
	if !res.Status.Converged {
		t.Fatal("expected trivially converged status for empty surface list")
	}
	if len(res.Patches) != 0 {
		t.Fatalf("expected no patches, got %d", len(res.Patches))
	}
}

func TestSolveRadiosityConvergesAndConservesEnergy(t *testing.T) {
	surfaces := []Surface{
		squareSurface("floor", 0, 0.5),
		squareSurface("ceiling", 2, 0.5),
	}
	direct := map[string]float64{"floor": 100, "ceiling": 0}
	config := RadiosityConfig{
		MaxIters:         200,
		Tol:              1e-4,
		Damping:          1,
		PatchMaxArea:     10,
		UseVisibility:    false,
		FormFactorMethod: "analytic",
	}
	res := SolveRadiosity(surfaces, direct, config)
	if !res.Status.Converged {
		t.Fatalf("expected convergence, status=%+v", res.Status)
	}
	denom := math.Max(res.Energy.TotalEmitted, 1e-9)
	balanceError := math.Abs(res.Energy.TotalEmitted-(res.Energy.TotalAbsorbed+res.Energy.TotalReflected)) / denom
	if balanceError > 0.05 {
		t.Fatalf("energy balance error %v exceeds 5%%", balanceError)
	}
	for i, v := range res.Radiosity {
		if v < 0 {
			t.Fatalf("radiosity[%d] = %v, expected non-negative", i, v)
		}
	}
}

func TestSolveRadiosityZeroDampingWarns(t *testing.T) {
	surfaces := []Surface{squareSurface("floor", 0, 0.5)}
	res := SolveRadiosity(surfaces, map[string]float64{"floor": 10}, RadiosityConfig{MaxIters: 5, Tol: 1e-3, Damping: 0})
	found := false
	for _, w := range res.Status.Warnings {
		if w != "" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a warning to be recorded when damping<=0 forces alpha=1")
	}
}

func TestBuildFormFactorMatrixReciprocity(t *testing.T) {
	surfaces := []Surface{
		squareSurface("a", 0, 0.5),
		squareSurface("b", 1, 0.5),
	}
	patches := CreatePatches(surfaces, 10)
	f := BuildFormFactorMatrix(patches, FormFactorConfig{Method: MethodAnalytic})
	areaI := patches[0].Area
	areaJ := patches[1].Area
	lhs := f.At(0, 1) * areaI
	rhs := f.At(1, 0) * areaJ
	if math.Abs(lhs-rhs) > 1e-6 {
		t.Fatalf("reciprocity violated: F01*A0=%v, F10*A1=%v", lhs, rhs)
	}
}

func TestBuildFormFactorMatrixZeroPatches(t *testing.T) {
	f := BuildFormFactorMatrix(nil, FormFactorConfig{Method: MethodAnalytic})
	r, c := f.Dims()
	if r != 0 || c != 0 {
		t.Fatalf("expected 0x0 matrix for no patches, got %dx%d", r, c)
	}
}
