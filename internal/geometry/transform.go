package geometry

import "math"

// Mat3 is a 3x3 rotation matrix stored row-major.
type Mat3 [3][3]float64

// Identity3 is the identity rotation.
var Identity3 = Mat3{
	{1, 0, 0},
	{0, 1, 0},
	{0, 0, 1},
}

// Apply rotates v by m.
func (m Mat3) Apply(v Vector3) Vector3 {
	return Vector3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Transpose returns m's transpose, which for a pure rotation matrix is
// also its inverse.
func (m Mat3) Transpose() Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[j][i]
		}
	}
	return out
}

// Mul returns m*n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += m[i][k] * n[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// Transform is a rigid transform with uniform scale: position, rotation
// matrix, and scale factor. Luminaire-local frame convention: +Z up,
// nadir at -Z; C=0 toward local +X, C=90 toward local +Y.
type Transform struct {
	Position Vector3
	Rotation Mat3
	Scale    float64
}

// Identity returns the identity transform (no rotation, no translation,
// unit scale).
func Identity() Transform {
	return Transform{Rotation: Identity3, Scale: 1}
}

// NewEulerZYX builds a rotation from intrinsic yaw (about Z), pitch (about
// Y), roll (about X) angles in degrees, composed as Rz * Ry * Rx.
func NewEulerZYX(position Vector3, yawDeg, pitchDeg, rollDeg, scale float64) Transform {
	yaw := yawDeg * math.Pi / 180
	pitch := pitchDeg * math.Pi / 180
	roll := rollDeg * math.Pi / 180

	cy, sy := math.Cos(yaw), math.Sin(yaw)
	cp, sp := math.Cos(pitch), math.Sin(pitch)
	cr, sr := math.Cos(roll), math.Sin(roll)

	rz := Mat3{{cy, -sy, 0}, {sy, cy, 0}, {0, 0, 1}}
	ry := Mat3{{cp, 0, sp}, {0, 1, 0}, {-sp, 0, cp}}
	rx := Mat3{{1, 0, 0}, {0, cr, -sr}, {0, sr, cr}}

	return Transform{Position: position, Rotation: rz.Mul(ry).Mul(rx), Scale: scale}
}

// NewAimUp builds a transform whose local -Z axis (nadir, for a
// luminaire) points from position toward target, with localUp resolved
// against the world up hint to fix the roll about that axis.
func NewAimUp(position, target, upHint Vector3, scale float64) Transform {
	forward := Sub(target, position)
	if NearZero(forward, 1e-12) {
		forward = Vector3{Z: -1}
	}
	nadir := NewDirection(forward)       // local -Z maps to this in world
	zAxis := Scale(-1, nadir.Vec())      // local +Z axis in world

	up := upHint
	if NearZero(up, 1e-12) {
		up = Vector3{Z: 1}
	}
	xAxis := Cross(up, zAxis)
	if NearZero(xAxis, 1e-9) {
		// up is parallel to zAxis; pick an arbitrary perpendicular.
		xAxis = Cross(Vector3{X: 1}, zAxis)
		if NearZero(xAxis, 1e-9) {
			xAxis = Cross(Vector3{Y: 1}, zAxis)
		}
	}
	xAxis = NewDirection(xAxis).Vec()
	yAxis := Cross(zAxis, xAxis)

	rot := Mat3{
		{xAxis.X, yAxis.X, zAxis.X},
		{xAxis.Y, yAxis.Y, zAxis.Y},
		{xAxis.Z, yAxis.Z, zAxis.Z},
	}
	return Transform{Position: position, Rotation: rot, Scale: scale}
}

// Apply maps a local-frame point into world space.
func (t Transform) Apply(p Vector3) Vector3 {
	return Add(t.Position, t.Rotation.Apply(Scale(t.Scale, p)))
}

// ApplyDirection rotates (but does not translate or scale) a local-frame
// direction into world space.
func (t Transform) ApplyDirection(d Direction) Direction {
	return NewDirection(t.Rotation.Apply(d.Vec()))
}

// Inverse returns the transform that maps world space back to this
// transform's local frame. Scale must be non-zero.
func (t Transform) Inverse() Transform {
	invScale := 1.0
	if t.Scale != 0 {
		invScale = 1 / t.Scale
	}
	invRot := t.Rotation.Transpose()
	invPos := Scale(-invScale, invRot.Apply(t.Position))
	return Transform{Position: invPos, Rotation: invRot, Scale: invScale}
}

// ToLocal maps a world-frame point into this transform's local frame.
func (t Transform) ToLocal(p Vector3) Vector3 {
	return t.Inverse().Apply(p)
}

// ToLocalDirection rotates a world-frame direction into this transform's
// local frame.
func (t Transform) ToLocalDirection(d Direction) Direction {
	return NewDirection(t.Rotation.Transpose().Apply(d.Vec()))
}
