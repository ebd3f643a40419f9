package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestQuatFromMat3RoundTrip(t *testing.T) {
	cases := []Quat{
		mgl64.QuatIdent(),
		mgl64.QuatRotate(0.7, Vec3{1, 0, 0}),
		mgl64.QuatRotate(1.2, Vec3{0, 1, 0}),
		mgl64.QuatRotate(2.4, safeNormalize(Vec3{1, 1, 1}, Vec3{1, 0, 0})),
		mgl64.QuatRotate(3.0, safeNormalize(Vec3{1, 2, -3}, Vec3{1, 0, 0})),
	}
	for _, q := range cases {
		m := mat3FromQuat(q)
		got := quatFromMat3(m)

		// A quaternion and its negation represent the same rotation; compare
		// by rotating a handful of probe vectors instead of components.
		probes := []Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1}}
		for _, p := range probes {
			want := q.Rotate(p)
			have := got.Rotate(p)
			assert.InDelta(t, want.X(), have.X(), 1e-6)
			assert.InDelta(t, want.Y(), have.Y(), 1e-6)
			assert.InDelta(t, want.Z(), have.Z(), 1e-6)
		}
	}
}

func TestQuatAngleAxisRoundTrip(t *testing.T) {
	axis := safeNormalize(Vec3{1, 2, 3}, Vec3{1, 0, 0})
	q := quatFromAngleAxis(1.1, axis)
	angle, gotAxis := quatAngleAxis(q)
	assert.InDelta(t, 1.1, angle, 1e-9)
	assert.InDelta(t, axis.X(), gotAxis.X(), 1e-9)
	assert.InDelta(t, axis.Y(), gotAxis.Y(), 1e-9)
	assert.InDelta(t, axis.Z(), gotAxis.Z(), 1e-9)
}

func TestQuatFromAngleAxisDegenerateAxis(t *testing.T) {
	q := quatFromAngleAxis(1.0, zeroVec3)
	assert.Equal(t, mgl64.QuatIdent(), q)
}

func TestSafeNormalize(t *testing.T) {
	v := safeNormalize(Vec3{3, 0, 4}, Vec3{1, 0, 0})
	assert.InDelta(t, 1.0, v.Len(), 1e-12)
	assert.Equal(t, Vec3{1, 0, 0}, safeNormalize(zeroVec3, Vec3{1, 0, 0}))
}

func TestProjectOnPlane(t *testing.T) {
	v := Vec3{1, 2, 3}
	n := Vec3{0, 1, 0}
	p := projectOnPlane(v, n)
	assert.InDelta(t, 0.0, p.Y(), 1e-12)
	assert.InDelta(t, 1.0, p.X(), 1e-12)
	assert.InDelta(t, 3.0, p.Z(), 1e-12)
}

func TestAnyOrthogonal(t *testing.T) {
	for _, n := range []Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, safeNormalize(Vec3{1, 1, 1}, Vec3{1, 0, 0})} {
		o := anyOrthogonal(n)
		assert.InDelta(t, 0.0, n.Dot(o), 1e-9)
		assert.InDelta(t, 1.0, o.Len(), 1e-9)
	}
}

func TestClampMinMaxAbsSign(t *testing.T) {
	assert.Equal(t, 1.0, clampf(5, -1, 1))
	assert.Equal(t, -1.0, clampf(-5, -1, 1))
	assert.Equal(t, 0.5, clampf(0.5, -1, 1))
	assert.Equal(t, 2.0, minf(2, 3))
	assert.Equal(t, 3.0, maxf(2, 3))
	assert.Equal(t, 4.0, absf(-4))
	assert.Equal(t, 1.0, signf(0))
	assert.Equal(t, -1.0, signf(-0.1))
}

func TestDiagMat3(t *testing.T) {
	m := diagMat3(1, 2, 3)
	assert.Equal(t, 1.0, m.At(0, 0))
	assert.Equal(t, 2.0, m.At(1, 1))
	assert.Equal(t, 3.0, m.At(2, 2))
	assert.Equal(t, 0.0, m.At(0, 1))
}
