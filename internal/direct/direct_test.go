package direct

import (
	"context"
	"math"
	"testing"

	"luxera/internal/accel"
	"luxera/internal/errs"
	"luxera/internal/geometry"
	"luxera/internal/photometry"
)

func isotropicLuminaire(position geometry.Vector3, candela float64) *photometry.Luminaire {
	return &photometry.Luminaire{
		ID: "L1",
		PhotometryRef: &photometry.CanonicalPhotometry{
			System:            photometry.SystemC,
			AnglesH:           []float64{0},
			AnglesV:           []float64{0, 90, 180},
			Intensity:         [][]float64{{candela, candela, candela}},
			Symmetry:          photometry.SymmetryFull,
			CandelaMultiplier: 1,
		},
		Transform:      geometry.NewEulerZYX(position, 0, 0, 0, 1),
		FluxMultiplier: 1,
	}
}

func TestContributionInverseSquareLaw(t *testing.T) {
	lum := isotropicLuminaire(geometry.Vector3{Z: 2}, 1000)
	floor := geometry.Vector3{}
	normal := geometry.NewDirection(geometry.Vector3{Z: 1})
	rec := errs.NewRecovery()

	res, err := Run(context.Background(), []geometry.Vector3{floor}, []geometry.Direction{normal},
		[]*photometry.Luminaire{lum}, nil, Settings{}, rec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := 1000.0 / (2 * 2) // directly below, cos(alpha)=1
	if math.Abs(res.ValuesLux[0]-want) > 1e-6 {
		t.Fatalf("E = %v, want %v", res.ValuesLux[0], want)
	}
}

func TestContributionBackFaceCulled(t *testing.T) {
	lum := isotropicLuminaire(geometry.Vector3{Z: 2}, 1000)
	floor := geometry.Vector3{}
	// Normal pointing away from the luminaire (downward) should see zero.
	normal := geometry.NewDirection(geometry.Vector3{Z: -1})
	rec := errs.NewRecovery()

	res, err := Run(context.Background(), []geometry.Vector3{floor}, []geometry.Direction{normal},
		[]*photometry.Luminaire{lum}, nil, Settings{}, rec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ValuesLux[0] != 0 {
		t.Fatalf("expected back-facing point to get zero illuminance, got %v", res.ValuesLux[0])
	}
}

func TestContributionOccludedBlocksLight(t *testing.T) {
	lum := isotropicLuminaire(geometry.Vector3{Z: 2}, 1000)
	floor := geometry.Vector3{}
	normal := geometry.NewDirection(geometry.Vector3{Z: 1})
	rec := errs.NewRecovery()

	// A horizontal blocker plane at z=1, between the luminaire and the floor.
	blocker := geometry.Polygon{Vertices: []geometry.Vector3{
		{X: -5, Y: -5, Z: 1},
		{X: 5, Y: -5, Z: 1},
		{X: 5, Y: 5, Z: 1},
		{X: -5, Y: 5, Z: 1},
	}}
	tris := blocker.Triangulate(geometry.Payload{SourceSurface: "blocker"}, true)
	blas := accel.BuildMeshBLAS("blocker", tris, 2)
	tlas := accel.BuildTLAS([]accel.MeshInstance{{InstanceID: "b1", MeshID: "blocker", Transform: geometry.Identity()}},
		map[string]*accel.MeshBLAS{"blocker": blas}, 2)

	res, err := Run(context.Background(), []geometry.Vector3{floor}, []geometry.Direction{normal},
		[]*photometry.Luminaire{lum}, tlas, Settings{UseOcclusion: true}, rec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.ValuesLux[0] != 0 {
		t.Fatalf("expected occluded point to get zero illuminance, got %v", res.ValuesLux[0])
	}
}

func TestRunParallelMatchesRunSequential(t *testing.T) {
	lum := isotropicLuminaire(geometry.Vector3{Z: 2}, 1000)
	var points []geometry.Vector3
	var normals []geometry.Direction
	for i := 0; i < 50; i++ {
		points = append(points, geometry.Vector3{X: float64(i) * 0.1})
		normals = append(normals, geometry.NewDirection(geometry.Vector3{Z: 1}))
	}

	seq, err := Run(context.Background(), points, normals, []*photometry.Luminaire{lum}, nil, Settings{}, errs.NewRecovery())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	par, err := RunParallel(context.Background(), points, normals, []*photometry.Luminaire{lum}, nil, Settings{}, errs.NewRecovery())
	if err != nil {
		t.Fatalf("RunParallel: %v", err)
	}
	if len(seq.ValuesLux) != len(par.ValuesLux) {
		t.Fatalf("length mismatch: %d vs %d", len(seq.ValuesLux), len(par.ValuesLux))
	}
	for i := range seq.ValuesLux {
		if seq.ValuesLux[i] != par.ValuesLux[i] {
			t.Fatalf("mismatch at %d: sequential %v vs parallel %v", i, seq.ValuesLux[i], par.ValuesLux[i])
		}
	}
}

func TestRunCancellation(t *testing.T) {
	lum := isotropicLuminaire(geometry.Vector3{Z: 2}, 1000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, []geometry.Vector3{{}}, []geometry.Direction{geometry.NewDirection(geometry.Vector3{Z: 1})},
		[]*photometry.Luminaire{lum}, nil, Settings{}, errs.NewRecovery())
	if err != errs.ErrCancelled {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestOcclusionEpsilonDefaultsAndScales(t *testing.T) {
	s := Settings{}
	if got := s.occlusionEpsilon(); got != 1e-9 {
		t.Fatalf("expected default epsilon 1e-9, got %v", got)
	}
	s2 := Settings{UserEpsilon: 1e-6, SceneScale: 10}
	if got := s2.occlusionEpsilon(); math.Abs(got-1e-5) > 1e-15 {
		t.Fatalf("expected scaled epsilon 1e-5, got %v", got)
	}
}
