package direct

import (
	"math"
	"math/rand/v2"

	"luxera/internal/geometry"
)

// Target produces an ordered list of (point, normal) evaluation pairs.
type Target interface {
	Evaluate() ([]geometry.Vector3, []geometry.Direction)
}

// RectGrid samples a regular nx*ny lattice spanning [0,width]x[0,height]
// in the plane's (u,v) axes, offset from origin.
type RectGrid struct {
	Origin     geometry.Vector3
	AxisU      geometry.Direction
	AxisV      geometry.Direction
	Width      float64
	Height     float64
	Nx, Ny     int
	Normal     geometry.Direction
}

func (g RectGrid) Evaluate() ([]geometry.Vector3, []geometry.Direction) {
	if g.Nx <= 0 || g.Ny <= 0 {
		return nil, nil
	}
	var points []geometry.Vector3
	var normals []geometry.Direction
	for j := 0; j < g.Ny; j++ {
		v := g.Height * (float64(j) / float64(maxInt(g.Ny-1, 1)))
		for i := 0; i < g.Nx; i++ {
			u := g.Width * (float64(i) / float64(maxInt(g.Nx-1, 1)))
			p := geometry.Add(g.Origin, geometry.Add(
				geometry.Scale(u, g.AxisU.Vec()),
				geometry.Scale(v, g.AxisV.Vec()),
			))
			points = append(points, p)
			normals = append(normals, g.Normal)
		}
	}
	return points, normals
}

// LineGrid samples along a polyline at fixed spacing, always including
// the polyline's vertices (endpoints of each segment).
type LineGrid struct {
	Polyline []geometry.Vector3
	Spacing  float64
	Normal   geometry.Direction
}

func (g LineGrid) Evaluate() ([]geometry.Vector3, []geometry.Direction) {
	var points []geometry.Vector3
	var normals []geometry.Direction
	if len(g.Polyline) == 0 {
		return nil, nil
	}
	spacing := g.Spacing
	if spacing <= 0 {
		spacing = 1
	}
	for i := 0; i < len(g.Polyline)-1; i++ {
		a, b := g.Polyline[i], g.Polyline[i+1]
		segLen := geometry.Norm(geometry.Sub(b, a))
		points = append(points, a)
		normals = append(normals, g.Normal)
		if segLen <= spacing {
			continue
		}
		steps := int(math.Ceil(segLen/spacing - 1e-9))
		for s := 1; s < steps; s++ {
			t := float64(s) * spacing / segLen
			p := geometry.Add(a, geometry.Scale(t, geometry.Sub(b, a)))
			points = append(points, p)
			normals = append(normals, g.Normal)
		}
	}
	last := g.Polyline[len(g.Polyline)-1]
	points = append(points, last)
	normals = append(normals, g.Normal)
	return points, normals
}

// PointSet is an explicit, caller-supplied list of evaluation points
// sharing a single normal (spec's PointSet(points[], normal) evaluation
// target) — the trivial Target, and the building block the daylight job
// type uses to place its sky-hemisphere virtual luminaires.
type PointSet struct {
	Points []geometry.Vector3
	Normal geometry.Direction
}

func (ps PointSet) Evaluate() ([]geometry.Vector3, []geometry.Direction) {
	if len(ps.Points) == 0 {
		return nil, nil
	}
	normals := make([]geometry.Direction, len(ps.Points))
	for i := range normals {
		normals[i] = ps.Normal
	}
	return ps.Points, normals
}

// VerticalPlane is constructed from an azimuth and an offset along the
// plane's outward normal, producing a regular grid in the plane.
type VerticalPlane struct {
	Base       geometry.Vector3
	AzimuthDeg float64
	Offset     float64
	Width      float64
	Height     float64
	Nx, Ny     int
}

func (vp VerticalPlane) toRectGrid() RectGrid {
	rad := vp.AzimuthDeg * math.Pi / 180
	axisU := geometry.NewDirection(geometry.Vector3{X: -math.Sin(rad), Y: math.Cos(rad)})
	normal := geometry.NewDirection(geometry.Vector3{X: math.Cos(rad), Y: math.Sin(rad)})
	axisV := geometry.NewDirection(geometry.Vector3{Z: 1})
	origin := geometry.Add(vp.Base, geometry.Scale(vp.Offset, normal.Vec()))
	return RectGrid{
		Origin: origin, AxisU: axisU, AxisV: axisV,
		Width: vp.Width, Height: vp.Height, Nx: vp.Nx, Ny: vp.Ny, Normal: normal,
	}
}

func (vp VerticalPlane) Evaluate() ([]geometry.Vector3, []geometry.Direction) {
	return vp.toRectGrid().Evaluate()
}

// PolygonWorkplane samples a (possibly multiply-connected) polygon with
// deterministic stratified sampling in its uv parameterization, seeded so
// repeated runs over the same workplane produce identical sample sets.
type PolygonWorkplane struct {
	PolygonUV  geometry.Polygon // vertices expressed in the workplane's local uv+0 frame (z=0)
	HolesUV    []geometry.Polygon
	SampleCount int
	Seed        uint64
	ToWorld     func(uv geometry.Vector3) geometry.Vector3
	Normal      geometry.Direction
}

func (pw PolygonWorkplane) Evaluate() ([]geometry.Vector3, []geometry.Direction) {
	if pw.SampleCount <= 0 {
		return nil, nil
	}
	box := pw.PolygonUV.BoundingBox()
	src := rand.NewPCG(pw.Seed, 0)
	rng := rand.New(src)

	strata := stratumCount(pw.SampleCount)
	var points []geometry.Vector3
	var normals []geometry.Direction
	for i := 0; i < strata*strata && len(points) < pw.SampleCount; i++ {
		sx := float64(i%strata) / float64(strata)
		sy := float64(i/strata) / float64(strata)
		jx := rng.Float64() / float64(strata)
		jy := rng.Float64() / float64(strata)
		u := box.Min.X + (sx+jx)*(box.Max.X-box.Min.X)
		v := box.Min.Y + (sy+jy)*(box.Max.Y-box.Min.Y)
		uv := geometry.Vector3{X: u, Y: v}
		if !pointInPolygonInclusive(uv, pw.PolygonUV) {
			continue
		}
		inHole := false
		for _, h := range pw.HolesUV {
			if pointInPolygonInclusive(uv, h) {
				inHole = true
				break
			}
		}
		if inHole {
			continue
		}
		world := uv
		if pw.ToWorld != nil {
			world = pw.ToWorld(uv)
		}
		points = append(points, world)
		normals = append(normals, pw.Normal)
	}
	return points, normals
}

func stratumCount(n int) int {
	s := 1
	for s*s < n {
		s++
	}
	return s
}

// pointInPolygonInclusive is a 2D (XY-plane) point-in-polygon test using
// the standard ray-casting rule, extended to treat boundary points as
// inside (an inclusive-boundary predicate).
func pointInPolygonInclusive(p geometry.Vector3, poly geometry.Polygon) bool {
	n := len(poly.Vertices)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := poly.Vertices[i], poly.Vertices[j]
		if onSegment2D(p, vi, vj) {
			return true
		}
		if (vi.Y > p.Y) != (vj.Y > p.Y) {
			xIntersect := (vj.X-vi.X)*(p.Y-vi.Y)/(vj.Y-vi.Y) + vi.X
			if p.X < xIntersect {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment2D(p, a, b geometry.Vector3) bool {
	const eps = 1e-9
	cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
	if cross > eps || cross < -eps {
		return false
	}
	minX, maxX := minF(a.X, b.X), maxF(a.X, b.X)
	minY, maxY := minF(a.Y, b.Y), maxF(a.Y, b.Y)
	return p.X >= minX-eps && p.X <= maxX+eps && p.Y >= minY-eps && p.Y <= maxY+eps
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
