package geometry

import "sort"

// mergeEpsilon is the fixed vertex-merge tolerance for triangulation and
// deduplication, chosen so repeated imports of the same mesh produce
// identical triangle lists and identical BVH structure.
const mergeEpsilon = 1e-7

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vector3
}

// EmptyAABB returns an AABB with inverted bounds, ready to be grown via
// Extend.
func EmptyAABB() AABB {
	const inf = 1e300
	return AABB{
		Min: Vector3{X: inf, Y: inf, Z: inf},
		Max: Vector3{X: -inf, Y: -inf, Z: -inf},
	}
}

// Extend grows the box to also contain p.
func (b AABB) Extend(p Vector3) AABB {
	return AABB{
		Min: Vector3{X: min(b.Min.X, p.X), Y: min(b.Min.Y, p.Y), Z: min(b.Min.Z, p.Z)},
		Max: Vector3{X: max(b.Max.X, p.X), Y: max(b.Max.Y, p.Y), Z: max(b.Max.Z, p.Z)},
	}
}

// Union returns the smallest AABB containing both a and b.
func (a AABB) Union(b AABB) AABB {
	return AABB{
		Min: Vector3{X: min(a.Min.X, b.Min.X), Y: min(a.Min.Y, b.Min.Y), Z: min(a.Min.Z, b.Min.Z)},
		Max: Vector3{X: max(a.Max.X, b.Max.X), Y: max(a.Max.Y, b.Max.Y), Z: max(a.Max.Z, b.Max.Z)},
	}
}

// Centroid returns the box's midpoint.
func (b AABB) Centroid() Vector3 {
	return Scale(0.5, Add(b.Min, b.Max))
}

// LongestAxis returns 0, 1, or 2 for the axis (x, y, z) with the largest
// span, used to choose the BVH split axis.
func (b AABB) LongestAxis() int {
	d := Sub(b.Max, b.Min)
	axis := 0
	longest := d.X
	if d.Y > longest {
		axis, longest = 1, d.Y
	}
	if d.Z > longest {
		axis = 2
	}
	return axis
}

// Component returns the axis-th coordinate of v (0=x, 1=y, 2=z).
func Component(v Vector3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Triangle is a single acceleration-structure primitive: three vertices,
// an opaque payload identifying the originating surface/instance, and a
// two-sidedness flag controlling back-face culling in intersection.
type Triangle struct {
	A, B, C  Vector3
	Payload  Payload
	TwoSided bool
}

// Payload tags a triangle (or a BVH query result) with the provenance
// needed for occlusion masking, self-hit rejection, and per-surface
// accounting.
type Payload struct {
	InstanceID    string
	MeshID        string
	SourceSurface string
}

// Bounds returns the triangle's AABB.
func (t Triangle) Bounds() AABB {
	b := EmptyAABB()
	return b.Extend(t.A).Extend(t.B).Extend(t.C)
}

// Centroid returns the triangle's vertex-average centroid.
func (t Triangle) Centroid() Vector3 {
	return Scale(1.0/3.0, Add(Add(t.A, t.B), t.C))
}

// Material is a coarse, photopic-only surface description: a Lambertian
// reflectance (no spectral data, only a single RGB triple for coarse
// visualization/export).
type Material struct {
	ID          string
	Reflectance [3]float64 // R,G,B in [0,1], Lambertian diffuse reflectance
	Emission    float64    // lm/m^2, for self-luminous patches (usually 0)
}

// ScalarReflectance returns the photometric (luminance-weighted) scalar
// reflectance used by the radiosity solver, a standard Rec.601-style
// luma weighting of the RGB reflectance.
func (m Material) ScalarReflectance() float64 {
	return 0.299*m.Reflectance[0] + 0.587*m.Reflectance[1] + 0.114*m.Reflectance[2]
}

// Polygon is a planar, simple (non-self-intersecting) polygon given as an
// ordered vertex loop in world space.
type Polygon struct {
	Vertices []Vector3
}

// Normal computes the polygon's normal by Newell's method, which is
// robust to near-collinear vertex runs and does not require picking a
// particular triple of vertices.
func (p Polygon) Normal() Direction {
	var n Vector3
	count := len(p.Vertices)
	for i := 0; i < count; i++ {
		cur := p.Vertices[i]
		next := p.Vertices[(i+1)%count]
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	return NewDirection(n)
}

// Area returns the polygon's planar area via the cross-product magnitude
// summed by Newell's method (half the Newell normal's length).
func (p Polygon) Area() float64 {
	var n Vector3
	count := len(p.Vertices)
	for i := 0; i < count; i++ {
		cur := p.Vertices[i]
		next := p.Vertices[(i+1)%count]
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	return 0.5 * Norm(n)
}

// Centroid returns the polygon's vertex-average centroid. This is exact
// for regular/convex patches and a stable approximation otherwise; it is
// what the radiosity patch model uses for centroid-to-centroid form
// factors.
func (p Polygon) Centroid() Vector3 {
	var sum Vector3
	for _, v := range p.Vertices {
		sum = Add(sum, v)
	}
	return Scale(1/float64(len(p.Vertices)), sum)
}

// BoundingBox returns the polygon's AABB.
func (p Polygon) BoundingBox() AABB {
	b := EmptyAABB()
	for _, v := range p.Vertices {
		b = b.Extend(v)
	}
	return b
}

// Triangulate fans or ear-clips the polygon into triangles tagged with
// payload. Convex polygons use a fan from vertex 0; non-convex polygons
// use ear-clipping with a deterministic tie-break (minimum vertex index)
// so repeated imports produce identical triangle lists.
func (p Polygon) Triangulate(payload Payload, twoSided bool) []Triangle {
	if len(p.Vertices) < 3 {
		return nil
	}
	if isConvex(p.Vertices, p.Normal()) {
		return fanTriangulate(p.Vertices, payload, twoSided)
	}
	return earClip(p.Vertices, p.Normal(), payload, twoSided)
}

func fanTriangulate(verts []Vector3, payload Payload, twoSided bool) []Triangle {
	out := make([]Triangle, 0, len(verts)-2)
	for i := 1; i < len(verts)-1; i++ {
		out = append(out, Triangle{A: verts[0], B: verts[i], C: verts[i+1], Payload: payload, TwoSided: twoSided})
	}
	return out
}

// isConvex tests, by projecting consecutive edge cross products onto the
// polygon normal, whether all turns have the same sign.
func isConvex(verts []Vector3, normal Direction) bool {
	n := len(verts)
	if n < 4 {
		return true
	}
	sign := 0
	for i := 0; i < n; i++ {
		a := verts[i]
		b := verts[(i+1)%n]
		c := verts[(i+2)%n]
		cross := Cross(Sub(b, a), Sub(c, b))
		d := Dot(cross, normal.Vec())
		if d > mergeEpsilon {
			if sign < 0 {
				return false
			}
			sign = 1
		} else if d < -mergeEpsilon {
			if sign > 0 {
				return false
			}
			sign = -1
		}
	}
	return true
}

// idxVert pairs a vertex with its original index, used by ear-clipping to
// break ties deterministically as vertices are removed from the ring.
type idxVert struct {
	idx int
	v   Vector3
}

// earClip triangulates a simple, possibly-concave polygon via repeated
// ear removal. On ties (multiple valid ears in the same pass), the ear
// whose tip has the smallest original vertex index is clipped first.
func earClip(verts []Vector3, normal Direction, payload Payload, twoSided bool) []Triangle {
	ring := make([]idxVert, len(verts))
	for i, v := range verts {
		ring[i] = idxVert{idx: i, v: v}
	}

	var tris []Triangle
	for len(ring) > 3 {
		earPos := -1
		earIdx := -1
		for i := range ring {
			n := len(ring)
			prev := ring[(i-1+n)%n]
			cur := ring[i]
			next := ring[(i+1)%n]
			if !isEar(prev.v, cur.v, next.v, normal, ring) {
				continue
			}
			if earIdx == -1 || cur.idx < earIdx {
				earIdx, earPos = cur.idx, i
			}
		}
		if earPos == -1 {
			// Degenerate/self-intersecting input; fall back to a fan so
			// triangulation always terminates.
			return fanTriangulate(verts, payload, twoSided)
		}
		n := len(ring)
		prev := ring[(earPos-1+n)%n]
		cur := ring[earPos]
		next := ring[(earPos+1)%n]
		tris = append(tris, Triangle{A: prev.v, B: cur.v, C: next.v, Payload: payload, TwoSided: twoSided})
		ring = append(ring[:earPos], ring[earPos+1:]...)
	}
	if len(ring) == 3 {
		tris = append(tris, Triangle{A: ring[0].v, B: ring[1].v, C: ring[2].v, Payload: payload, TwoSided: twoSided})
	}
	return tris
}

func isEar(prev, cur, next Vector3, normal Direction, ring []idxVert) bool {
	cross := Cross(Sub(cur, prev), Sub(next, cur))
	if Dot(cross, normal.Vec()) <= 0 {
		return false
	}
	for _, p := range ring {
		if samePoint(p.v, prev) || samePoint(p.v, cur) || samePoint(p.v, next) {
			continue
		}
		if pointInTriangle(p.v, prev, cur, next) {
			return false
		}
	}
	return true
}

func samePoint(a, b Vector3) bool {
	d := Sub(a, b)
	return Norm(d) < mergeEpsilon
}

func pointInTriangle(p, a, b, c Vector3) bool {
	n := Cross(Sub(b, a), Sub(c, a))
	u := Dot(Cross(Sub(c, b), Sub(p, b)), n)
	v := Dot(Cross(Sub(a, c), Sub(p, c)), n)
	w := Dot(Cross(Sub(b, a), Sub(p, a)), n)
	return (u >= 0 && v >= 0 && w >= 0) || (u <= 0 && v <= 0 && w <= 0)
}

// Subdivide splits p into sub-polygons of area <= maxArea via repeated
// centroid-fan splits: each over-sized polygon is replaced by N triangles
// fanned from its centroid, which are themselves further subdivided if
// still too large. Returns the original polygon unchanged if maxArea <= 0
// or its area already satisfies the cap.
func (p Polygon) Subdivide(maxArea float64) []Polygon {
	if maxArea <= 0 || p.Area() <= maxArea {
		return []Polygon{p}
	}
	centroid := p.Centroid()
	n := len(p.Vertices)
	var out []Polygon
	for i := 0; i < n; i++ {
		tri := Polygon{Vertices: []Vector3{centroid, p.Vertices[i], p.Vertices[(i+1)%n]}}
		out = append(out, tri.Subdivide(maxArea)...)
	}
	return out
}

// SortedVertexKeys returns a deterministic ordering key for a vertex set,
// used by callers that need to detect identical meshes regardless of
// traversal order (content hashing of geometry inputs).
func SortedVertexKeys(verts []Vector3) []string {
	keys := make([]string, len(verts))
	for i, v := range verts {
		keys[i] = vertexKey(v)
	}
	sort.Strings(keys)
	return keys
}

func vertexKey(v Vector3) string {
	round := func(f float64) float64 {
		return float64(int64(f/mergeEpsilon+0.5)) * mergeEpsilon
	}
	return fmtFloat(round(v.X)) + "," + fmtFloat(round(v.Y)) + "," + fmtFloat(round(v.Z))
}

func fmtFloat(f float64) string {
	return formatFloat(f)
}
