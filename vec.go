package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Scalar is the floating point precision the whole engine is built on.
// The reference implementation uses double precision throughout; this
// alias keeps that choice in one place in case a single-precision build
// is ever needed.
type Scalar = float64

// Vec3, Vec4, Quat, Mat3, Mat4 are the geometric primitives every other
// package in this module builds on. They are re-exported from mathgl
// rather than hand rolled: dot/cross/normalize/matrix inverse are solved
// problems and the engine only needs to add the physics-specific layer
// (Pose, Bounds, Ray, mass properties) on top.
type (
	Vec3 = mgl64.Vec3
	Vec4 = mgl64.Vec4
	Quat = mgl64.Quat
	Mat3 = mgl64.Mat3
	Mat4 = mgl64.Mat4
)

const epsilon = 1e-9

var zeroVec3 = Vec3{0, 0, 0}

// projectOnPlane returns v with its component along the (unit) normal n removed.
func projectOnPlane(v, n Vec3) Vec3 {
	return v.Sub(n.Mul(v.Dot(n)))
}

// reflectVec mirrors v about the plane whose unit normal is n.
func reflectVec(v, n Vec3) Vec3 {
	return v.Sub(n.Mul(2 * v.Dot(n)))
}

// safeNormalize returns v normalized, or fallback if v is (near) zero length.
func safeNormalize(v, fallback Vec3) Vec3 {
	l := v.Len()
	if l < epsilon {
		return fallback
	}
	return v.Mul(1 / l)
}

func clampf(v, lo, hi Scalar) Scalar {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minf(a, b Scalar) Scalar {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b Scalar) Scalar {
	if a > b {
		return a
	}
	return b
}

func absf(a Scalar) Scalar {
	if a < 0 {
		return -a
	}
	return a
}

func signf(a Scalar) Scalar {
	if a < 0 {
		return -1
	}
	return 1
}

// anyOrthogonal returns an arbitrary unit vector orthogonal to n (which must
// be unit length), used as a geometric-degeneracy fallback axis.
func anyOrthogonal(n Vec3) Vec3 {
	var up Vec3
	if absf(n.X()) < 0.9 {
		up = Vec3{1, 0, 0}
	} else {
		up = Vec3{0, 1, 0}
	}
	return safeNormalize(n.Cross(up), Vec3{0, 0, 1})
}

// quatFromAngleAxis wraps mgl64.QuatRotate with a zero-axis fallback so
// callers never have to guard a degenerate axis themselves.
func quatFromAngleAxis(angle Scalar, axis Vec3) Quat {
	l := axis.Len()
	if l < epsilon {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(angle, axis.Mul(1/l))
}

// quatAngleAxis extracts the (angle, axis) representation of a unit
// quaternion, taking the short arc (angle in [0, pi]).
func quatAngleAxis(q Quat) (angle Scalar, axis Vec3) {
	q = q.Normalize()
	if q.W < 0 {
		q = Quat{W: -q.W, V: q.V.Mul(-1)}
	}
	w := clampf(q.W, -1, 1)
	angle = 2 * math.Acos(w)
	s := math.Sqrt(maxf(0, 1-w*w))
	if s < epsilon {
		return 0, Vec3{1, 0, 0}
	}
	axis = q.V.Mul(1 / s)
	return angle, axis
}

func mat3FromQuat(q Quat) Mat3 {
	m4 := q.Normalize().Mat4()
	return Mat3{
		m4[0], m4[1], m4[2],
		m4[4], m4[5], m4[6],
		m4[8], m4[9], m4[10],
	}
}

// quatFromMat3 extracts the rotation quaternion for an orthonormal
// rotation matrix (Shepperd's method), used to turn the principal-axis
// rotation diagonalize() finds into a Pose rotation.
func quatFromMat3(m Mat3) Quat {
	m00, m01, m02 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m10, m11, m12 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	m20, m21, m22 := m.At(2, 0), m.At(2, 1), m.At(2, 2)

	trace := m00 + m11 + m22
	var q Quat
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = Quat{W: 0.25 / s, V: Vec3{(m21 - m12) * s, (m02 - m20) * s, (m10 - m01) * s}}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(maxf(epsilon, 1+m00-m11-m22))
		q = Quat{W: (m21 - m12) / s, V: Vec3{0.25 * s, (m01 + m10) / s, (m02 + m20) / s}}
	case m11 > m22:
		s := 2 * math.Sqrt(maxf(epsilon, 1+m11-m00-m22))
		q = Quat{W: (m02 - m20) / s, V: Vec3{(m01 + m10) / s, 0.25 * s, (m12 + m21) / s}}
	default:
		s := 2 * math.Sqrt(maxf(epsilon, 1+m22-m00-m11))
		q = Quat{W: (m10 - m01) / s, V: Vec3{(m02 + m20) / s, (m12 + m21) / s, 0.25 * s}}
	}
	return q.Normalize()
}

func identMat3() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

func diagMat3(x, y, z Scalar) Mat3 {
	return Mat3{x, 0, 0, 0, y, 0, 0, 0, z}
}
