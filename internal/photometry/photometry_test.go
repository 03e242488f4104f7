package photometry

import (
	"math"
	"testing"

	"luxera/internal/errs"
	"luxera/internal/geometry"
)

func isotropicTable() *CanonicalPhotometry {
	anglesH := []float64{0, 90, 180, 270}
	anglesV := []float64{0, 30, 60, 90}
	intensity := make([][]float64, len(anglesH))
	for i := range intensity {
		intensity[i] = []float64{1000, 1000, 1000, 1000}
	}
	return &CanonicalPhotometry{
		System:            SystemC,
		AnglesH:           anglesH,
		AnglesV:           anglesV,
		Intensity:         intensity,
		Symmetry:          SymmetryNone,
		LuminousFluxLm:    3000,
		CandelaMultiplier: 1,
	}
}

func TestHashIsDeterministicAndMemoized(t *testing.T) {
	p := isotropicTable()
	h1 := p.Hash()
	h2 := p.Hash()
	if h1 != h2 {
		t.Fatalf("expected memoized hash to be stable, got %q vs %q", h1, h2)
	}

	q := isotropicTable()
	if q.Hash() != h1 {
		t.Fatal("expected identical tables to hash identically")
	}
}

func TestHashIgnoresSourceMetadata(t *testing.T) {
	p := isotropicTable()
	p.SourcePath = "/tmp/a.ies"
	p.SourceFormat = "ies"
	h1 := p.Hash()

	q := isotropicTable()
	q.SourcePath = "/different/path.ies"
	q.SourceFormat = "ies"
	h2 := q.Hash()

	if h1 != h2 {
		t.Fatal("expected source path/format to not affect content hash")
	}
}

func TestInferSymmetry(t *testing.T) {
	cases := []struct {
		angles []float64
		want   Symmetry
	}{
		{[]float64{0}, SymmetryFull},
		{[]float64{0, 45, 90}, SymmetryQuadrant},
		{[]float64{0, 90, 180}, SymmetryBilateral},
		{[]float64{0, 120, 240, 360}, SymmetryNone},
		{nil, SymmetryUnknown},
	}
	for _, c := range cases {
		if got := InferSymmetry(c.angles); got != c.want {
			t.Errorf("InferSymmetry(%v) = %v, want %v", c.angles, got, c.want)
		}
	}
}

func TestNormalizeAnglesSortsAndDedupes(t *testing.T) {
	cleaned, perm, deduped := NormalizeAngles([]float64{10, 0, 10.0000001, 5}, 1e-4)
	if !deduped {
		t.Fatal("expected near-duplicate angles to be flagged as deduped")
	}
	want := []float64{0, 5, 10}
	if len(cleaned) != len(want) {
		t.Fatalf("expected %d cleaned angles, got %d: %v", len(want), len(cleaned), cleaned)
	}
	for i := range want {
		if math.Abs(cleaned[i]-want[i]) > 1e-9 {
			t.Fatalf("cleaned[%d] = %v, want %v", i, cleaned[i], want[i])
		}
	}
	if len(perm) != len(cleaned) {
		t.Fatalf("expected perm to match cleaned length, got %d", len(perm))
	}
}

func TestNormalizeAnglesNoDuplicates(t *testing.T) {
	_, _, deduped := NormalizeAngles([]float64{0, 10, 20}, 1e-6)
	if deduped {
		t.Fatal("expected distinct angles to not be flagged as deduped")
	}
}

func TestSampleIntensityIsotropicConstant(t *testing.T) {
	p := isotropicTable()
	tr := geometry.Identity()
	dirs := []geometry.Vector3{
		{Z: -1},
		{X: 1, Z: -1},
		{X: -1, Y: 1, Z: -0.5},
	}
	for _, d := range dirs {
		got := SampleIntensityCD(p, geometry.NewDirection(d), tr, 0)
		if math.Abs(got-1000) > 1e-6 {
			t.Fatalf("expected isotropic table to sample 1000cd in all directions, got %v for dir %v", got, d)
		}
	}
}

func TestSampleIntensityNadirMatchesGammaZero(t *testing.T) {
	anglesH := []float64{0, 90, 180, 270}
	anglesV := []float64{0, 90}
	intensity := [][]float64{
		{500, 0},
		{500, 0},
		{500, 0},
		{500, 0},
	}
	p := &CanonicalPhotometry{
		System: SystemC, AnglesH: anglesH, AnglesV: anglesV, Intensity: intensity,
		Symmetry: SymmetryNone, CandelaMultiplier: 1,
	}
	got := SampleIntensityCD(p, geometry.NewDirection(geometry.Vector3{Z: -1}), geometry.Identity(), 0)
	if math.Abs(got-500) > 1e-6 {
		t.Fatalf("expected nadir direction to sample gamma=0 intensity 500, got %v", got)
	}
}

func TestSampleIntensityRespectsLuminaireTransform(t *testing.T) {
	anglesH := []float64{0, 90, 180, 270}
	anglesV := []float64{0, 90}
	intensity := [][]float64{
		{500, 0},
		{500, 0},
		{500, 0},
		{500, 0},
	}
	p := &CanonicalPhotometry{
		System: SystemC, AnglesH: anglesH, AnglesV: anglesV, Intensity: intensity,
		Symmetry: SymmetryNone, CandelaMultiplier: 1,
	}
	// Rotate the luminaire 180deg about X (roll), flipping its nadir to +Z.
	tr := geometry.NewEulerZYX(geometry.Vector3{}, 0, 0, 180, 1)
	got := SampleIntensityCD(p, geometry.NewDirection(geometry.Vector3{Z: 1}), tr, 0)
	if math.Abs(got-500) > 1e-6 {
		t.Fatalf("expected rolled luminaire's new nadir (+Z) to sample gamma=0 intensity 500, got %v", got)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	rec := errs.NewRecovery()
	_, err := Parse([]byte("garbage"), "xyz", "test.xyz", rec)
	if err == nil {
		t.Fatal("expected unsupported format to error")
	}
}

func TestNumHNumV(t *testing.T) {
	p := isotropicTable()
	if p.NumH() != 4 || p.NumV() != 4 {
		t.Fatalf("expected NumH=4 NumV=4, got %d/%d", p.NumH(), p.NumV())
	}
}
