package accel

import "luxera/internal/geometry"

// MeshBLAS is a bottom-level acceleration structure built once per unique
// mesh and shared across all its instances.
type MeshBLAS struct {
	MeshID         string
	TrianglesLocal []geometry.Triangle
	BVHLocal       *BVH
}

// BuildMeshBLAS constructs a BLAS from a mesh's local-space triangles.
func BuildMeshBLAS(meshID string, trisLocal []geometry.Triangle, maxLeaf int) *MeshBLAS {
	return &MeshBLAS{
		MeshID:         meshID,
		TrianglesLocal: trisLocal,
		BVHLocal:       Build(trisLocal, maxLeaf),
	}
}

// MeshInstance places a MeshBLAS in world space via a transform.
type MeshInstance struct {
	InstanceID string
	MeshID     string
	Transform  geometry.Transform
}

// TLAS is the top-level acceleration structure: all instances' triangles
// transformed into world space and a BVH built over the flattened set.
type TLAS struct {
	Instances      []MeshInstance
	TrianglesWorld []geometry.Triangle

	// triRange maps each instance index to the half-open [start,end) span
	// of TrianglesWorld it owns, so Refit can re-transform only the
	// touched instance's triangles.
	triRange []instanceRange

	bvh *BVH

	flat            *FlatBVH
	RefitCount      int
	RebuildCount    int
}

type instanceRange struct {
	instanceID string
	meshID     string
	start, end int
}

// BuildTLAS transforms every instance's BLAS triangles into world space,
// tags them with (instance_id, mesh_id, source_payload), and builds one
// BVH over the flattened world-space triangle list.
func BuildTLAS(instances []MeshInstance, blasByMesh map[string]*MeshBLAS, maxLeaf int) *TLAS {
	t := &TLAS{Instances: instances}
	t.rebuildTriangles(blasByMesh)
	t.bvh = Build(t.TrianglesWorld, maxLeaf)
	t.RebuildCount = 1
	return t
}

func (t *TLAS) rebuildTriangles(blasByMesh map[string]*MeshBLAS) {
	t.TrianglesWorld = nil
	t.triRange = nil
	for _, inst := range t.Instances {
		blas := blasByMesh[inst.MeshID]
		if blas == nil {
			t.triRange = append(t.triRange, instanceRange{
				instanceID: inst.InstanceID,
				meshID:     inst.MeshID,
				start:      len(t.TrianglesWorld),
				end:        len(t.TrianglesWorld),
			})
			continue
		}
		start := len(t.TrianglesWorld)
		for _, tri := range blas.TrianglesLocal {
			worldTri := geometry.Triangle{
				A:        inst.Transform.Apply(tri.A),
				B:        inst.Transform.Apply(tri.B),
				C:        inst.Transform.Apply(tri.C),
				TwoSided: tri.TwoSided,
				Payload: geometry.Payload{
					InstanceID:    inst.InstanceID,
					MeshID:        inst.MeshID,
					SourceSurface: tri.Payload.SourceSurface,
				},
			}
			t.TrianglesWorld = append(t.TrianglesWorld, worldTri)
		}
		t.triRange = append(t.triRange, instanceRange{
			instanceID: inst.InstanceID,
			meshID:     inst.MeshID,
			start:      start,
			end:        len(t.TrianglesWorld),
		})
	}
}

// AnyHit delegates to the built BVH over world-space triangles.
func (t *TLAS) AnyHit(r Ray, tMin, tMax float64) bool {
	return t.bvh.AnyHit(r, tMin, tMax)
}

// ClosestHit delegates to the built BVH over world-space triangles.
func (t *TLAS) ClosestHit(r Ray, tMin, tMax float64) (Hit, bool) {
	return t.bvh.ClosestHit(r, tMin, tMax)
}

// BVH exposes the underlying world-space BVH for callers that need
// broader queries (e.g. radiosity form-factor sampling).
func (t *TLAS) BVH() *BVH { return t.bvh }

// Refit updates world-space triangles for the given touched instances and
// refreshes their AABBs bottom-up, without rebuilding tree topology. Set
// topologyChanged when the instance set itself (not just transforms)
// changed; that forces a full rebuild instead.
func (t *TLAS) Refit(updates map[string]geometry.Transform, blasByMesh map[string]*MeshBLAS, topologyChanged bool) {
	if topologyChanged {
		for id, tr := range updates {
			for i := range t.Instances {
				if t.Instances[i].InstanceID == id {
					t.Instances[i].Transform = tr
				}
			}
		}
		t.rebuildTriangles(blasByMesh)
		t.bvh = Build(t.TrianglesWorld, MaxLeafSize)
		t.RebuildCount++
		t.flat = nil
		return
	}

	for i, inst := range t.Instances {
		newTransform, touched := updates[inst.InstanceID]
		if !touched {
			continue
		}
		t.Instances[i].Transform = newTransform
		blas := blasByMesh[inst.MeshID]
		if blas == nil {
			continue
		}
		rng := t.triRange[i]
		for j, tri := range blas.TrianglesLocal {
			t.TrianglesWorld[rng.start+j].A = newTransform.Apply(tri.A)
			t.TrianglesWorld[rng.start+j].B = newTransform.Apply(tri.B)
			t.TrianglesWorld[rng.start+j].C = newTransform.Apply(tri.C)
		}
	}
	t.bvh.RefitBounds()
	t.RefitCount++
	t.flat = nil // invalidated on refit per the design note
}

// FlatBVH mirrors a pointer-tree BVH as struct-of-arrays for cache
// locality on large scenes (> 10^5 triangles), per the design note. Built
// on first query via Flatten(); invalidated by any Refit call.
type FlatBVH struct {
	NodeBounds  [][6]float64
	NodeLeft    []int
	NodeRight   []int
	TriStart    []int
	TriCount    []int
	TriIndices  []int // leaf triangle indices, reordered contiguous per leaf
}

// Flatten builds (or returns the cached) flat mirror of t's world BVH.
func (t *TLAS) Flatten() *FlatBVH {
	if t.flat != nil {
		return t.flat
	}
	f := &FlatBVH{}
	if t.bvh.Root != nil {
		flattenNode(t.bvh.Root, f)
	}
	t.flat = f
	return f
}

// flattenNode appends n (and its subtree) to f, returning n's index in
// the flattened arrays. Leaf triangle indices are copied into
// f.TriIndices contiguously; TriStart/TriCount index into that array.
func flattenNode(n *Node, f *FlatBVH) int {
	idx := len(f.NodeBounds)
	f.NodeBounds = append(f.NodeBounds, boundsArray(n.Bounds))
	f.NodeLeft = append(f.NodeLeft, -1)
	f.NodeRight = append(f.NodeRight, -1)
	if n.isLeaf() {
		f.TriStart = append(f.TriStart, len(f.TriIndices))
		f.TriCount = append(f.TriCount, len(n.Tris))
		f.TriIndices = append(f.TriIndices, n.Tris...)
		return idx
	}
	f.TriStart = append(f.TriStart, -1)
	f.TriCount = append(f.TriCount, 0)
	left := flattenNode(n.Left, f)
	right := flattenNode(n.Right, f)
	f.NodeLeft[idx] = left
	f.NodeRight[idx] = right
	return idx
}

func boundsArray(b geometry.AABB) [6]float64 {
	return [6]float64{b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z}
}
