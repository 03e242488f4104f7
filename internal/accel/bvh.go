package accel

import (
	"sort"

	"luxera/internal/geometry"
)

// MaxLeafSize is the default triangle-count cap per BVH leaf.
const MaxLeafSize = 8

// Node is a BVH node: either an internal node (left/right set, Tris nil)
// or a leaf (Tris set, left/right nil).
type Node struct {
	Bounds      geometry.AABB
	Left, Right *Node
	Tris        []int // indices into the owning BVH's triangle slice
}

func (n *Node) isLeaf() bool { return n.Left == nil && n.Right == nil }

// BVH owns a triangle slice and the tree built over it.
type BVH struct {
	Triangles []geometry.Triangle
	Root      *Node
	maxLeaf   int
}

// Build constructs a binary BVH over tris: leaves at <= maxLeaf
// triangles, splitting recursively on the longest centroid-bounds axis at
// the median, with ties broken by triangle input index for determinism.
func Build(tris []geometry.Triangle, maxLeaf int) *BVH {
	if maxLeaf <= 0 {
		maxLeaf = MaxLeafSize
	}
	b := &BVH{Triangles: tris, maxLeaf: maxLeaf}
	idxs := make([]int, len(tris))
	for i := range idxs {
		idxs[i] = i
	}
	b.Root = b.build(idxs)
	return b
}

func (b *BVH) build(idxs []int) *Node {
	bounds := geometry.EmptyAABB()
	for _, i := range idxs {
		bounds = bounds.Union(b.Triangles[i].Bounds())
	}
	if len(idxs) <= b.maxLeaf {
		return &Node{Bounds: bounds, Tris: idxs}
	}

	centroidBounds := geometry.EmptyAABB()
	for _, i := range idxs {
		centroidBounds = centroidBounds.Extend(b.Triangles[i].Centroid())
	}
	axis := centroidBounds.LongestAxis()

	sorted := append([]int(nil), idxs...)
	sort.SliceStable(sorted, func(x, y int) bool {
		cx := geometry.Component(b.Triangles[sorted[x]].Centroid(), axis)
		cy := geometry.Component(b.Triangles[sorted[y]].Centroid(), axis)
		if cx != cy {
			return cx < cy
		}
		return sorted[x] < sorted[y]
	})

	mid := len(sorted) / 2
	left := b.build(sorted[:mid])
	right := b.build(sorted[mid:])
	return &Node{Bounds: bounds, Left: left, Right: right}
}

// AnyHit returns true as soon as any triangle intersects within
// [tMin, tMax], the occlusion query.
func (b *BVH) AnyHit(r Ray, tMin, tMax float64) bool {
	if b.Root == nil {
		return false
	}
	return b.anyHit(b.Root, r, tMin, tMax)
}

func (b *BVH) anyHit(n *Node, r Ray, tMin, tMax float64) bool {
	if !intersectAABB(r, n.Bounds, tMin, tMax) {
		return false
	}
	if n.isLeaf() {
		for _, i := range n.Tris {
			if _, ok := intersectTriangle(r, b.Triangles[i], tMin, tMax); ok {
				return true
			}
		}
		return false
	}
	return b.anyHit(n.Left, r, tMin, tMax) || b.anyHit(n.Right, r, tMin, tMax)
}

// ClosestHit returns the nearest intersection within [tMin, tMax],
// pruning subtrees whose AABB hit interval starts after the running best.
func (b *BVH) ClosestHit(r Ray, tMin, tMax float64) (Hit, bool) {
	if b.Root == nil {
		return Hit{}, false
	}
	best := Hit{T: tMax}
	found := false
	b.closestHit(b.Root, r, tMin, tMax, &best, &found)
	return best, found
}

func (b *BVH) closestHit(n *Node, r Ray, tMin, tMax float64, best *Hit, found *bool) {
	limit := tMax
	if *found {
		limit = best.T
	}
	if !intersectAABB(r, n.Bounds, tMin, limit) {
		return
	}
	if n.isLeaf() {
		for _, i := range n.Tris {
			curLimit := tMax
			if *found {
				curLimit = best.T
			}
			t, ok := intersectTriangle(r, b.Triangles[i], tMin, curLimit)
			if !ok {
				continue
			}
			if !*found || t < best.T {
				*best = Hit{T: t, Tri: b.Triangles[i], TriIdx: i}
				*found = true
			}
		}
		return
	}
	b.closestHit(n.Left, r, tMin, tMax, best, found)
	b.closestHit(n.Right, r, tMin, tMax, best, found)
}

// QueryTriangles returns the triangle indices whose AABB overlaps box,
// used by callers that need a coarse candidate set (e.g. form-factor
// visibility pre-filtering) rather than a ray query.
func (b *BVH) QueryTriangles(box geometry.AABB) []int {
	var out []int
	if b.Root == nil {
		return out
	}
	var walk func(n *Node)
	walk = func(n *Node) {
		if !aabbOverlap(n.Bounds, box) {
			return
		}
		if n.isLeaf() {
			out = append(out, n.Tris...)
			return
		}
		walk(n.Left)
		walk(n.Right)
	}
	walk(b.Root)
	return out
}

func aabbOverlap(a, b geometry.AABB) bool {
	return a.Min.X <= b.Max.X && a.Max.X >= b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y >= b.Min.Y &&
		a.Min.Z <= b.Max.Z && a.Max.Z >= b.Min.Z
}

// RefitBounds recomputes every node's AABB bottom-up in place, without
// allocating new nodes, for the transform-only refit path.
func (b *BVH) RefitBounds() {
	if b.Root != nil {
		b.refit(b.Root)
	}
}

func (b *BVH) refit(n *Node) geometry.AABB {
	if n.isLeaf() {
		bounds := geometry.EmptyAABB()
		for _, i := range n.Tris {
			bounds = bounds.Union(b.Triangles[i].Bounds())
		}
		n.Bounds = bounds
		return bounds
	}
	left := b.refit(n.Left)
	right := b.refit(n.Right)
	n.Bounds = left.Union(right)
	return n.Bounds
}
