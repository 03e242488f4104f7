// Package geometry implements the right-handed Cartesian primitives the
// simulation kernel is built on: vectors and directions, rigid transforms,
// polygons with triangulation/subdivision, and coarse RGB materials.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vector3 is a right-handed Cartesian point or free vector.
type Vector3 = r3.Vec

// Zero is the additive identity.
var Zero = Vector3{}

// Add returns a+b.
func Add(a, b Vector3) Vector3 { return r3.Add(a, b) }

// Sub returns a-b.
func Sub(a, b Vector3) Vector3 { return r3.Sub(a, b) }

// Scale returns s*v.
func Scale(s float64, v Vector3) Vector3 { return r3.Scale(s, v) }

// Dot returns a·b.
func Dot(a, b Vector3) float64 { return r3.Dot(a, b) }

// Cross returns a×b.
func Cross(a, b Vector3) Vector3 { return r3.Cross(a, b) }

// Norm returns the Euclidean length of v.
func Norm(v Vector3) float64 { return r3.Norm(v) }

// Direction is a Vector3 under contract to be unit length. The zero value
// is not a valid Direction; always construct via NewDirection.
type Direction struct {
	v Vector3
}

// NewDirection normalizes v and returns the resulting Direction. Panics if
// v is (near-)zero, since a direction cannot be derived from it.
func NewDirection(v Vector3) Direction {
	n := r3.Norm(v)
	if n < 1e-15 {
		panic("geometry: cannot derive a direction from a near-zero vector")
	}
	return Direction{v: r3.Scale(1/n, v)}
}

// Vec returns the underlying unit vector.
func (d Direction) Vec() Vector3 { return d.v }

// Negate returns the opposite direction.
func (d Direction) Negate() Direction { return Direction{v: r3.Scale(-1, d.v)} }

// Along returns the point o + t*d.
func Along(o Vector3, d Direction, t float64) Vector3 {
	return r3.Add(o, r3.Scale(t, d.v))
}

// NearZero reports whether v's length is below the given epsilon.
func NearZero(v Vector3, eps float64) bool { return r3.Norm(v) < eps }

// finite reports whether all of v's components are finite, used by
// ingestion paths that must reject NaN/Inf coordinates.
func finite(v Vector3) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// Finite reports whether v has only finite components.
func Finite(v Vector3) bool { return finite(v) }
