package accel

import (
	"math"
	"testing"

	"luxera/internal/geometry"
)

func floorTriangles() []geometry.Triangle {
	quad := geometry.Polygon{Vertices: []geometry.Vector3{
		{X: -5, Y: -5},
		{X: 5, Y: -5},
		{X: 5, Y: 5},
		{X: -5, Y: 5},
	}}
	return quad.Triangulate(geometry.Payload{SourceSurface: "floor"}, false)
}

func TestBVHClosestHitStraightDown(t *testing.T) {
	bvh := Build(floorTriangles(), 2)
	r := Ray{Origin: geometry.Vector3{Z: 5}, Dir: geometry.NewDirection(geometry.Vector3{Z: -1})}
	hit, ok := bvh.ClosestHit(r, 1e-6, 1e6)
	if !ok {
		t.Fatal("expected ray straight down through the floor quad to hit")
	}
	if math.Abs(hit.T-5) > 1e-9 {
		t.Fatalf("expected hit distance 5, got %v", hit.T)
	}
}

func TestBVHMissesOutsideBounds(t *testing.T) {
	bvh := Build(floorTriangles(), 2)
	r := Ray{Origin: geometry.Vector3{X: 100, Z: 5}, Dir: geometry.NewDirection(geometry.Vector3{Z: -1})}
	if _, ok := bvh.ClosestHit(r, 1e-6, 1e6); ok {
		t.Fatal("expected ray outside the floor's footprint to miss")
	}
}

func TestBVHAnyHitOccludesDownwardRay(t *testing.T) {
	bvh := Build(floorTriangles(), 2)
	r := Ray{Origin: geometry.Vector3{Z: 2}, Dir: geometry.NewDirection(geometry.Vector3{Z: -1})}
	if !bvh.AnyHit(r, 1e-6, 1e6) {
		t.Fatal("expected a downward ray to hit the floor's front face")
	}
}

func TestBackfaceCulledForSingleSidedTriangle(t *testing.T) {
	tri := geometry.Triangle{
		A: geometry.Vector3{X: -1, Y: -1},
		B: geometry.Vector3{X: 1, Y: -1},
		C: geometry.Vector3{Y: 1},
		TwoSided: false,
	}
	bvh := Build([]geometry.Triangle{tri}, 1)
	// Normal of this triangle (CCW in XY) points +Z; a ray from below going up
	// hits the back face and should be culled since TwoSided is false.
	r := Ray{Origin: geometry.Vector3{Z: -1}, Dir: geometry.NewDirection(geometry.Vector3{Z: 1})}
	if _, ok := bvh.ClosestHit(r, 1e-6, 1e6); ok {
		t.Fatal("expected single-sided triangle to cull a ray hitting its back face")
	}
}

func TestQueryTrianglesFindsOverlap(t *testing.T) {
	bvh := Build(floorTriangles(), 2)
	box := geometry.AABB{Min: geometry.Vector3{X: -1, Y: -1, Z: -1}, Max: geometry.Vector3{X: 1, Y: 1, Z: 1}}
	idxs := bvh.QueryTriangles(box)
	if len(idxs) == 0 {
		t.Fatal("expected the central query box to overlap at least one floor triangle")
	}
}

func TestTLASBuildAndClosestHit(t *testing.T) {
	blas := BuildMeshBLAS("floor-mesh", floorTriangles(), 4)
	instances := []MeshInstance{
		{InstanceID: "floor-1", MeshID: "floor-mesh", Transform: geometry.Identity()},
	}
	tlas := BuildTLAS(instances, map[string]*MeshBLAS{"floor-mesh": blas}, 4)

	r := Ray{Origin: geometry.Vector3{Z: 5}, Dir: geometry.NewDirection(geometry.Vector3{Z: -1})}
	hit, ok := tlas.ClosestHit(r, 1e-6, 1e6)
	if !ok {
		t.Fatal("expected TLAS closest hit on instanced floor")
	}
	if hit.Tri.Payload.InstanceID != "floor-1" {
		t.Fatalf("expected hit payload to carry instance id, got %q", hit.Tri.Payload.InstanceID)
	}
}

func TestTLASRefitMovesInstance(t *testing.T) {
	blas := BuildMeshBLAS("floor-mesh", floorTriangles(), 4)
	instances := []MeshInstance{
		{InstanceID: "floor-1", MeshID: "floor-mesh", Transform: geometry.Identity()},
	}
	blasByMesh := map[string]*MeshBLAS{"floor-mesh": blas}
	tlas := BuildTLAS(instances, blasByMesh, 4)

	moved := geometry.Transform{Position: geometry.Vector3{Z: 10}, Rotation: geometry.Identity3, Scale: 1}
	tlas.Refit(map[string]geometry.Transform{"floor-1": moved}, blasByMesh, false)

	if tlas.RefitCount != 1 {
		t.Fatalf("expected RefitCount to increment, got %d", tlas.RefitCount)
	}

	// The floor is now at z=10; a ray from z=5 downward should miss it.
	r := Ray{Origin: geometry.Vector3{Z: 5}, Dir: geometry.NewDirection(geometry.Vector3{Z: -1})}
	if _, ok := tlas.ClosestHit(r, 1e-6, 1e6); ok {
		t.Fatal("expected refit to move the floor out of the ray's path")
	}

	// But a ray from z=20 downward should now hit it at distance 10.
	r2 := Ray{Origin: geometry.Vector3{Z: 20}, Dir: geometry.NewDirection(geometry.Vector3{Z: -1})}
	hit, ok := tlas.ClosestHit(r2, 1e-6, 1e6)
	if !ok {
		t.Fatal("expected refit to move the floor into the new ray's path")
	}
	if math.Abs(hit.T-10) > 1e-9 {
		t.Fatalf("expected hit distance 10 after refit, got %v", hit.T)
	}
}

func TestTLASFlattenMirrorsNodeCount(t *testing.T) {
	blas := BuildMeshBLAS("floor-mesh", floorTriangles(), 1)
	instances := []MeshInstance{{InstanceID: "f1", MeshID: "floor-mesh", Transform: geometry.Identity()}}
	tlas := BuildTLAS(instances, map[string]*MeshBLAS{"floor-mesh": blas}, 1)

	flat := tlas.Flatten()
	if len(flat.NodeBounds) == 0 {
		t.Fatal("expected flattened BVH to have at least one node")
	}
	if len(flat.NodeBounds) != len(flat.NodeLeft) || len(flat.NodeBounds) != len(flat.NodeRight) {
		t.Fatal("expected parallel arrays to stay in sync")
	}
}
